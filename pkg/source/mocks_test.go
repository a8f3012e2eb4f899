package source

import (
	"context"
	"io"
	"os"
)

// osReader はローカルファイルをそのまま開くテスト用のリーダーなのだ。
type osReader struct {
	opened []string
}

func (r *osReader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	r.opened = append(r.opened, path)
	return os.Open(path)
}

// stubReader は Open の結果を差し替えられるテスト用のリーダーなのだ。
type stubReader struct {
	openFunc func(path string) (io.ReadCloser, error)
}

func (r *stubReader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return r.openFunc(path)
}
