package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/shouni/go-prompt-loop/pkg/asset"
	"github.com/shouni/go-prompt-loop/pkg/domain"
	"github.com/shouni/go-prompt-loop/pkg/imgutil"
	"github.com/shouni/go-prompt-loop/pkg/metadata"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

const contentTypePNG = "image/png"

// OutputWriter はデータを外部ストレージに保存するためのインターフェースです。
// remoteio.OutputWriter とローカル実装の両方を受け付けるのだ。
type OutputWriter interface {
	Write(ctx context.Context, path string, contentReader io.Reader, contentType string) error
}

// ImagePublisher はメタデータを PNG テキストチャンクとして埋め込み、連番付きで画像を保存します。
// metadata.ImageWriter を実装しています。
type ImagePublisher struct {
	writer    OutputWriter
	outputDir string

	mu       sync.Mutex
	counters map[string]int // サブフォルダ/ベース名 ごとの最後に払い出した連番
}

var _ metadata.ImageWriter = (*ImagePublisher)(nil)

// NewImagePublisher は ImagePublisher を初期化します。
func NewImagePublisher(writer OutputWriter, outputDir string) (*ImagePublisher, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer は必須です")
	}
	if outputDir == "" {
		return nil, fmt.Errorf("outputDir は必須です")
	}
	return &ImagePublisher{
		writer:    writer,
		outputDir: outputDir,
		counters:  make(map[string]int),
	}, nil
}

// SaveImages は各画像を PNG に揃えてメタデータを埋め込み、保存した画像の情報を返すのだ。
func (p *ImagePublisher) SaveImages(ctx context.Context, req domain.SaveRequest) (*domain.SaveResult, error) {
	if len(req.Images) == 0 {
		return nil, domain.ErrNoImages
	}

	subfolder, name, err := asset.SplitPrefix(req.FilenamePrefix)
	if err != nil {
		return nil, err
	}

	entries, err := buildTextEntries(req.PromptRecord, req.Metadata)
	if err != nil {
		return nil, err
	}

	result := &domain.SaveResult{Images: make([]domain.SavedImage, 0, len(req.Images))}
	for i, img := range req.Images {
		if err := checkImage(img); err != nil {
			return nil, fmt.Errorf("画像 %d: %w", i+1, err)
		}

		data, err := imgutil.EnsurePNG(img.Data)
		if err != nil {
			return nil, fmt.Errorf("画像 %d の PNG 変換に失敗しました: %w", i+1, err)
		}
		data, err = imgutil.EmbedText(data, entries)
		if err != nil {
			return nil, fmt.Errorf("画像 %d へのメタデータ埋め込みに失敗しました: %w", i+1, err)
		}

		counter, err := p.nextCounter(subfolder, name)
		if err != nil {
			return nil, err
		}
		fileName := asset.ImageFileName(name, counter)
		fullPath, err := asset.JoinOutput(p.outputDir, subfolder, fileName)
		if err != nil {
			return nil, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
		}

		if err := p.writer.Write(ctx, fullPath, bytes.NewReader(data), contentTypePNG); err != nil {
			return nil, fmt.Errorf("画像の書き込みに失敗しました %s: %w", fullPath, err)
		}

		slog.InfoContext(ctx, "画像を保存したのだ", "path", fullPath, "metadata_keys", len(entries))
		result.Images = append(result.Images, domain.SavedImage{
			Filename:  fileName,
			Subfolder: subfolder,
			Type:      asset.OutputType,
			Path:      fullPath,
		})
	}
	return result, nil
}

// checkImage は保存対象として扱える画像かを確認します。
// MimeType が指定されている場合は image/* であることを求めるのだ。
func checkImage(img *imagedom.ImageResponse) error {
	if img == nil || len(img.Data) == 0 {
		return fmt.Errorf("画像データが空です")
	}
	if img.MimeType != "" && !strings.HasPrefix(strings.ToLower(img.MimeType), "image/") {
		return fmt.Errorf("画像ではないデータです (mime: %s)", img.MimeType)
	}
	return nil
}

// buildTextEntries は埋め込むテキストチャンクを決まった順序で組み立てます。
// メタデータに prompt がない場合のみ、構造化プロンプトを JSON にして prompt に入れるのだ。
func buildTextEntries(record domain.PromptRecord, meta domain.MetadataRecord) ([]imgutil.TextEntry, error) {
	entries := make([]imgutil.TextEntry, 0, len(meta)+1)

	if _, ok := meta[metadata.KeyPrompt]; !ok && len(record) > 0 {
		encoded, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("プロンプト情報の JSON 変換に失敗しました: %w", err)
		}
		entries = append(entries, imgutil.TextEntry{Keyword: metadata.KeyPrompt, Text: string(encoded)})
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		entries = append(entries, imgutil.TextEntry{Keyword: k, Text: meta[k]})
	}
	return entries, nil
}

// nextCounter は次の連番を払い出します。
// 初回はローカルの出力フォルダを走査して、既存ファイルの最大値の続きから始めるのだ。
func (p *ImagePublisher) nextCounter(subfolder, name string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := subfolder + "/" + name
	last, ok := p.counters[key]
	if !ok {
		var err error
		last, err = p.scanMaxCounter(subfolder, name)
		if err != nil {
			return 0, err
		}
	}
	last++
	p.counters[key] = last
	return last, nil
}

func (p *ImagePublisher) scanMaxCounter(subfolder, name string) (int, error) {
	// TODO: gs:// の出力先でもオブジェクト一覧から既存の連番を引き継ぐ
	if asset.IsRemote(p.outputDir) {
		return 0, nil
	}

	dir := filepath.Join(p.outputDir, filepath.FromSlash(subfolder))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("出力フォルダ '%s' の走査に失敗しました: %w", dir, err)
	}

	re := asset.ImageFileRegex(name)
	maxCounter := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, ok := asset.ParseCounter(re, e.Name()); ok && n > maxCounter {
			maxCounter = n
		}
	}
	return maxCounter, nil
}
