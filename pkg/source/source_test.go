package source

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shouni/go-prompt-loop/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestParseLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want domain.PromptList
	}{
		{"空行と空白行を除去する", "prompt 1\n\nprompt 2\n  \nprompt 3", domain.PromptList{"prompt 1", "prompt 2", "prompt 3"}},
		{"前後の空白とCRをトリムする", "  a cat \r\n\tdog\t\r\n", domain.PromptList{"a cat", "dog"}},
		{"重複はそのまま残す", "x\nx\ny", domain.PromptList{"x", "x", "y"}},
		{"BOMを取り除く", "\ufefffirst\nsecond", domain.PromptList{"first", "second"}},
		{"空白だけなら空", " \n\t\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLines(tt.in))
		})
	}
}

func TestParseLines_TrimIsIdempotent(t *testing.T) {
	first := ParseLines("  alpha  \nbeta\n   gamma")
	second := ParseLines(strings.Join(first, "\n"))
	assert.Equal(t, first, second)
}

func TestSource_FromFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "prompts.txt", "a\n\nb\n  c  \nd\ne\n")

	t.Run("ファイルを読み込んで範囲を適用できる", func(t *testing.T) {
		reader := &osReader{}
		src, err := New(reader, dir)
		require.NoError(t, err)

		batch, err := src.FromFile(ctx, "prompts.txt", domain.Range{StartIndex: 1, MaxPrompts: 2})
		require.NoError(t, err)

		assert.Equal(t, domain.PromptList{"b", "c"}, batch.Prompts)
		assert.Equal(t, 5, batch.Loaded)
		assert.Equal(t, "prompts.txt", batch.Source)
		assert.Equal(t, []string{filepath.Join(dir, "prompts.txt")}, reader.opened)
	})

	t.Run("CR だけの改行も行区切りとして扱う", func(t *testing.T) {
		writeFile(t, dir, "classic.txt", "a\rb\r\rc\r\nd")
		src, err := New(&osReader{}, dir)
		require.NoError(t, err)

		batch, err := src.FromFile(ctx, "classic.txt", domain.Range{})
		require.NoError(t, err)
		assert.Equal(t, domain.PromptList{"a", "b", "c", "d"}, batch.Prompts)
		assert.Equal(t, 4, batch.Loaded)
	})

	t.Run("存在しないファイルは読み込み前に NotFoundError", func(t *testing.T) {
		reader := &osReader{}
		src, err := New(reader, dir)
		require.NoError(t, err)

		_, err = src.FromFile(ctx, "missing.txt", domain.Range{})
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, filepath.Join(dir, "missing.txt"), nf.Path)
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.Empty(t, reader.opened, "存在しないファイルを開こうとしてはいけないのだ")
	})

	t.Run("入力ディレクトリ外を指す名前は NotFoundError", func(t *testing.T) {
		src, err := New(&osReader{}, dir)
		require.NoError(t, err)

		_, err = src.FromFile(ctx, "../etc/passwd", domain.Range{})
		var nf *domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("空のファイルは EmptyResultError", func(t *testing.T) {
		writeFile(t, dir, "empty.txt", "\n   \n")
		src, err := New(&osReader{}, dir)
		require.NoError(t, err)

		_, err = src.FromFile(ctx, "empty.txt", domain.Range{})
		var empty *domain.EmptyResultError
		require.ErrorAs(t, err, &empty)
		assert.Equal(t, "empty.txt", empty.Source)
		assert.ErrorIs(t, err, domain.ErrEmptyResult)
	})

	t.Run("リーダーのエラーはラップして返す", func(t *testing.T) {
		readErr := errors.New("permission denied")
		src, err := New(&stubReader{openFunc: func(string) (io.ReadCloser, error) { return nil, readErr }}, dir)
		require.NoError(t, err)

		_, err = src.FromFile(ctx, "prompts.txt", domain.Range{})
		assert.ErrorIs(t, err, readErr)
	})

	t.Run("不正な範囲は読み込み前にエラー", func(t *testing.T) {
		src, err := New(&osReader{}, dir)
		require.NoError(t, err)

		_, err = src.FromFile(ctx, "prompts.txt", domain.Range{StartIndex: -1})
		assert.ErrorIs(t, err, domain.ErrInvalidRange)
	})
}

func TestSource_FromFile_Remote(t *testing.T) {
	var gotPath string
	reader := &stubReader{openFunc: func(path string) (io.ReadCloser, error) {
		gotPath = path
		return io.NopCloser(strings.NewReader("one\ntwo")), nil
	}}
	src, err := New(reader, "gs://bucket/input/")
	require.NoError(t, err)

	batch, err := src.FromFile(context.Background(), "prompts.txt", domain.Range{})
	require.NoError(t, err)
	assert.Equal(t, "gs://bucket/input/prompts.txt", gotPath)
	assert.Equal(t, domain.PromptList{"one", "two"}, batch.Prompts)
}

func TestFromText(t *testing.T) {
	ctx := context.Background()

	t.Run("インラインテキストを分割する", func(t *testing.T) {
		batch, err := FromText(ctx, "prompt 1\n\nprompt 2\n  \nprompt 3", domain.Range{})
		require.NoError(t, err)
		assert.Equal(t, domain.PromptList{"prompt 1", "prompt 2", "prompt 3"}, batch.Prompts)
		assert.Equal(t, TextSourceName, batch.Source)
	})

	t.Run("位置情報は切り出し前の位置を保持する", func(t *testing.T) {
		batch, err := FromText(ctx, "a\nb\nc\nd", domain.Range{StartIndex: 2})
		require.NoError(t, err)

		items := batch.Items()
		require.Len(t, items, 2)
		assert.Equal(t, domain.PromptItem{Prompt: "c", Index: 0, Total: 2, SourceIndex: 2}, items[0])
		assert.Equal(t, domain.PromptItem{Prompt: "d", Index: 1, Total: 2, SourceIndex: 3}, items[1])
	})

	t.Run("空テキストは EmptyResultError", func(t *testing.T) {
		_, err := FromText(ctx, "", domain.Range{})
		assert.ErrorIs(t, err, domain.ErrEmptyResult)
	})
}

func TestSource_ListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "x")
	writeFile(t, dir, "a.txt", "x")
	writeFile(t, dir, "image.png", "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	src, err := New(&osReader{}, dir)
	require.NoError(t, err)

	files, err := src.ListFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, files)

	remote, err := New(&osReader{}, "gs://bucket/input")
	require.NoError(t, err)
	_, err = remote.ListFiles(context.Background())
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	_, err := New(nil, "input")
	assert.Error(t, err)

	_, err = New(&osReader{}, "")
	assert.Error(t, err)
}
