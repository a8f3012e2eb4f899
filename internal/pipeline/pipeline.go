package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/shouni/go-prompt-loop/internal/builder"
	"github.com/shouni/go-prompt-loop/internal/config"
	"github.com/shouni/go-prompt-loop/internal/storage"
	"github.com/shouni/go-prompt-loop/pkg/domain"
	"github.com/shouni/go-prompt-loop/pkg/imgutil"
	"github.com/shouni/go-prompt-loop/pkg/metadata"
	"github.com/shouni/go-prompt-loop/pkg/source"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// runRecord は json 形式で1件ごとに出力するレコードです。
type runRecord struct {
	domain.PromptItem
	Images []domain.SavedImage `json:"images,omitempty"`
}

// baseImage は run / save で使うベース画像と、そこから引き継ぐメタデータなのだ。
type baseImage struct {
	image    *imagedom.ImageResponse
	existing domain.MetadataRecord
}

// ExecuteList は入力ディレクトリ内のプロンプトファイル名を1行ずつ出力するのだ。
func ExecuteList(ctx context.Context, cfg *config.Config, out io.Writer) error {
	appCtx, err := setupAppContext(cfg)
	if err != nil {
		return err
	}

	src, err := builder.BuildSource(appCtx)
	if err != nil {
		return err
	}

	files, err := src.ListFiles(ctx)
	if err != nil {
		return err
	}
	for _, f := range files {
		if _, err := fmt.Fprintln(out, f); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteRun はプロンプトを読み込んで切り出し、1件ずつ出力するか、
// ベース画像にメタデータを付けて保存するのだ。
func ExecuteRun(ctx context.Context, cfg *config.Config, out io.Writer) error {
	appCtx, err := setupAppContext(cfg)
	if err != nil {
		return err
	}
	return executeRun(ctx, appCtx, out)
}

func executeRun(ctx context.Context, appCtx *builder.AppContext, out io.Writer) error {
	opts := appCtx.Options

	format := opts.Format
	if format == "" {
		format = config.FormatText
	}
	if format != config.FormatText && format != config.FormatJSON {
		return fmt.Errorf("未対応の出力形式です: '%s' (text または json)", format)
	}

	batch, err := loadBatch(ctx, appCtx)
	if err != nil {
		return err
	}

	var (
		composer *metadata.Composer
		record   domain.PromptRecord
	)
	if opts.ImagePath != "" {
		composer, err = builder.BuildComposer(appCtx)
		if err != nil {
			return err
		}
		// ループの前に一度読み込んで、壊れた画像ならすぐに止めるのだ
		if _, err := loadBaseImage(ctx, appCtx); err != nil {
			return err
		}
		record, err = loadPromptRecord(ctx, appCtx)
		if err != nil {
			return err
		}
	}

	var mu sync.Mutex
	emit := func(rec runRecord) error {
		mu.Lock()
		defer mu.Unlock()
		return writeRecord(out, format, rec)
	}

	runner := builder.BuildRunner(appCtx)
	err = runner.Run(ctx, batch.Prompts, batch.Range.StartIndex, func(ctx context.Context, item domain.PromptItem) error {
		rec := runRecord{PromptItem: item}
		if composer != nil {
			// 2件目以降は Loader のキャッシュから返るのだ
			base, err := loadBaseImage(ctx, appCtx)
			if err != nil {
				return err
			}
			result, err := composer.Save(ctx, metadata.SaveInput{
				Images:         []*imagedom.ImageResponse{base.image},
				Prompt:         item.Prompt,
				NegativePrompt: opts.NegativePrompt,
				FilenamePrefix: appCtx.FilenamePrefix(),
				Metadata:       base.existing,
				PromptRecord:   record,
			})
			if err != nil {
				return err
			}
			rec.Images = result.Images
		}
		return emit(rec)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "すべてのプロンプトを処理したのだ！",
		"source", batch.Source,
		"count", batch.Prompts.Len(),
		"saved", composer != nil,
	)
	return nil
}

// ExecuteSave は1つのプロンプトをメタデータとしてベース画像に付けて保存するのだ。
func ExecuteSave(ctx context.Context, cfg *config.Config, out io.Writer) error {
	appCtx, err := setupAppContext(cfg)
	if err != nil {
		return err
	}
	opts := appCtx.Options

	if opts.ImagePath == "" {
		return fmt.Errorf("保存する画像（--image）を指定してほしいのだ")
	}

	composer, err := builder.BuildComposer(appCtx)
	if err != nil {
		return err
	}
	base, err := loadBaseImage(ctx, appCtx)
	if err != nil {
		return err
	}
	record, err := loadPromptRecord(ctx, appCtx)
	if err != nil {
		return err
	}

	result, err := composer.Save(ctx, metadata.SaveInput{
		Images:         []*imagedom.ImageResponse{base.image},
		Prompt:         opts.Prompt,
		NegativePrompt: opts.NegativePrompt,
		FilenamePrefix: appCtx.FilenamePrefix(),
		Metadata:       base.existing,
		PromptRecord:   record,
	})
	if err != nil {
		return err
	}

	for _, p := range result.Paths() {
		if _, err := fmt.Fprintln(out, p); err != nil {
			return err
		}
	}
	return nil
}

// setupAppContext は、設定からアプリケーションコンテキストを初期化して返すのだ。
// gs:// のパスが使われるまで GCS クライアントは生成しません。
func setupAppContext(cfg *config.Config) (*builder.AppContext, error) {
	router := storage.NewRouter(nil)
	appCtx, err := builder.NewAppContext(cfg, router, router)
	if err != nil {
		return nil, fmt.Errorf("アプリケーションコンテキストの初期化に失敗したのだ: %w", err)
	}
	return appCtx, nil
}

func loadBatch(ctx context.Context, appCtx *builder.AppContext) (*source.Batch, error) {
	opts := appCtx.Options
	r := domain.Range{StartIndex: opts.StartIndex, MaxPrompts: opts.MaxPrompts}
	if err := r.ValidateInput(); err != nil {
		return nil, err
	}

	if opts.Text != "" {
		return source.FromText(ctx, opts.Text, r)
	}

	src, err := builder.BuildSource(appCtx)
	if err != nil {
		return nil, err
	}
	file := opts.File
	if file == "" {
		file = config.DefaultPromptFile
	}
	return src.FromFile(ctx, file, r)
}

func loadBaseImage(ctx context.Context, appCtx *builder.AppContext) (*baseImage, error) {
	data, err := appCtx.Loader.Load(ctx, appCtx.Options.ImagePath)
	if err != nil {
		return nil, err
	}

	base := &baseImage{
		image: &imagedom.ImageResponse{Data: data, MimeType: http.DetectContentType(data)},
	}
	if !appCtx.Options.KeepMetadata {
		return base, nil
	}

	if !imgutil.IsPNG(data) {
		slog.WarnContext(ctx, "PNG 以外の画像なので既存メタデータは引き継がないのだ", "image", appCtx.Options.ImagePath)
		return base, nil
	}
	texts, err := imgutil.ReadText(data)
	if err != nil {
		return nil, fmt.Errorf("ベース画像のメタデータ読み込みに失敗しました: %w", err)
	}
	base.existing = domain.MetadataRecord(texts)
	slog.DebugContext(ctx, "ベース画像のメタデータを引き継ぐのだ", "keys", len(texts))
	return base, nil
}

// loadPromptRecord は --prompt-record で指定された JSON を構造化プロンプトとして読み込むのだ。
func loadPromptRecord(ctx context.Context, appCtx *builder.AppContext) (domain.PromptRecord, error) {
	path := appCtx.Options.PromptRecord
	if path == "" {
		return nil, nil
	}

	rc, err := appCtx.Reader.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("構造化プロンプト '%s' の読み込みに失敗しました: %w", path, err)
	}
	defer rc.Close()

	var record domain.PromptRecord
	if err := json.NewDecoder(rc).Decode(&record); err != nil {
		return nil, fmt.Errorf("構造化プロンプト '%s' のデコードに失敗しました: %w", path, err)
	}
	return record, nil
}

func writeRecord(out io.Writer, format string, rec runRecord) error {
	if format == config.FormatJSON {
		return json.NewEncoder(out).Encode(rec)
	}

	if len(rec.Images) == 0 {
		_, err := fmt.Fprintln(out, rec.Prompt)
		return err
	}
	for _, img := range rec.Images {
		if _, err := fmt.Fprintf(out, "%s\t%s\n", img.Path, rec.Prompt); err != nil {
			return err
		}
	}
	return nil
}
