package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shouni/go-prompt-loop/pkg/domain"
)

const (
	// PromptFileExt はプロンプトファイルとして扱う拡張子です。
	PromptFileExt = ".txt"
	// TextSourceName はインラインテキストを読み込んだ場合のソース名です。
	TextSourceName = "text"

	utf8BOM = "\ufeff"
)

// ファイルは CRLF と単独の CR も改行として読むのだ
var newlineNormalizer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// InputReader はローカルや GCS のファイルを読み込むためのインターフェースです。
type InputReader interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Batch は読み込み・切り出し済みのプロンプトと、その出どころの情報です。
type Batch struct {
	Prompts domain.PromptList
	Source  string
	Range   domain.Range
	Loaded  int // 空行除去後、切り出し前の件数
}

// Items は Batch 内のプロンプトを位置情報付きで返します。
func (b *Batch) Items() []domain.PromptItem {
	return slices.Collect(b.Prompts.Items(b.Range.StartIndex))
}

// Source は入力ディレクトリ内のファイル、またはインラインテキストからプロンプトを解決します。
type Source struct {
	reader   InputReader
	inputDir string
}

// New は Source を初期化します。inputDir はホストから明示的に渡される入力ディレクトリです。
func New(reader InputReader, inputDir string) (*Source, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader は必須です")
	}
	if inputDir == "" {
		return nil, fmt.Errorf("inputDir は必須です")
	}
	return &Source{
		reader:   reader,
		inputDir: inputDir,
	}, nil
}

// FromFile は入力ディレクトリ内のファイルを読み込み、範囲指定を適用したバッチを返すのだ。
// ファイルが存在しない場合は、読み込みより前に NotFoundError を返します。
func (s *Source) FromFile(ctx context.Context, name string, r domain.Range) (*Batch, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	fullPath, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	rc, err := s.reader.Open(ctx, fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.NotFoundError{Path: fullPath}
		}
		return nil, fmt.Errorf("プロンプトファイル '%s' のオープンに失敗しました: %w", fullPath, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("プロンプトファイル '%s' の読み込みに失敗しました: %w", fullPath, err)
	}

	batch, err := newBatch(newlineNormalizer.Replace(string(content)), name, r)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "プロンプトファイルを読み込んだのだ",
		"file", name,
		"count", batch.Prompts.Len(),
		"loaded", batch.Loaded,
		"start_index", r.StartIndex,
		"max_prompts", r.MaxPrompts,
	)
	return batch, nil
}

// FromText はインラインの複数行テキストからバッチを作成します。
func (s *Source) FromText(ctx context.Context, text string, r domain.Range) (*Batch, error) {
	return FromText(ctx, text, r)
}

// FromText は入力ディレクトリを必要としないインラインテキスト用の関数版です。
func FromText(ctx context.Context, text string, r domain.Range) (*Batch, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	batch, err := newBatch(text, TextSourceName, r)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "テキストからプロンプトを処理するのだ",
		"count", batch.Prompts.Len(),
		"loaded", batch.Loaded,
		"start_index", r.StartIndex,
		"max_prompts", r.MaxPrompts,
	)
	return batch, nil
}

// ListFiles は入力ディレクトリ直下にある .txt ファイル名をソートして返します。
// ローカルディレクトリのみ対応しています。
func (s *Source) ListFiles(ctx context.Context) ([]string, error) {
	if isRemote(s.inputDir) {
		return nil, fmt.Errorf("リモートの入力ディレクトリは一覧表示に対応していません: %s", s.inputDir)
	}

	entries, err := os.ReadDir(s.inputDir)
	if err != nil {
		return nil, fmt.Errorf("入力ディレクトリ '%s' の読み込みに失敗しました: %w", s.inputDir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), PromptFileExt) {
			continue
		}
		files = append(files, e.Name())
	}
	slices.Sort(files)

	slog.DebugContext(ctx, "プロンプトファイルを列挙しました", "dir", s.inputDir, "count", len(files))
	return files, nil
}

// ParseLines はテキストを改行で分割し、各行をトリムして空行を除いたリストを返すのだ。
func ParseLines(text string) domain.PromptList {
	text = strings.TrimPrefix(text, utf8BOM)

	var prompts domain.PromptList
	for line := range strings.SplitSeq(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		prompts = append(prompts, trimmed)
	}
	return prompts
}

// resolve はファイル名を入力ディレクトリ基準のパスに解決します。
// 入力ディレクトリの外を指す名前は存在しないファイルとして扱うのだ。
func (s *Source) resolve(name string) (string, error) {
	if name == "" || !filepath.IsLocal(name) {
		return "", &domain.NotFoundError{Path: name}
	}

	if isRemote(s.inputDir) {
		return strings.TrimSuffix(s.inputDir, "/") + "/" + filepath.ToSlash(name), nil
	}

	fullPath := filepath.Join(s.inputDir, name)
	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &domain.NotFoundError{Path: fullPath}
		}
		return "", fmt.Errorf("プロンプトファイル '%s' の確認に失敗しました: %w", fullPath, err)
	}
	if info.IsDir() {
		return "", &domain.NotFoundError{Path: fullPath}
	}
	return fullPath, nil
}

func newBatch(text, sourceName string, r domain.Range) (*Batch, error) {
	all := ParseLines(text)
	selected, err := Select(all, r, sourceName)
	if err != nil {
		return nil, err
	}
	return &Batch{
		Prompts: selected,
		Source:  sourceName,
		Range:   r,
		Loaded:  len(all),
	}, nil
}

func isRemote(path string) bool {
	return strings.HasPrefix(strings.ToLower(path), "gs://")
}
