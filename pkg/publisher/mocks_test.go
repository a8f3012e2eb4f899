package publisher

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type writtenFile struct {
	data        []byte
	contentType string
}

// mockOutputWriter は書き込まれた内容をメモリに保持します。
type mockOutputWriter struct {
	mu    sync.Mutex
	files map[string]writtenFile
	order []string
	err   error
}

func newMockOutputWriter() *mockOutputWriter {
	return &mockOutputWriter{files: make(map[string]writtenFile)}
}

func (m *mockOutputWriter) Write(_ context.Context, path string, r io.Reader, contentType string) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = writtenFile{data: data, contentType: contentType}
	m.order = append(m.order, path)
	return nil
}

func createDummyImageData(t *testing.T, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := range 2 {
		for y := range 2 {
			img.Set(x, y, color.RGBA{0, 128, 255, 255})
		}
	}

	buf := new(bytes.Buffer)
	var err error
	if format == "jpeg" {
		err = jpeg.Encode(buf, img, nil)
	} else {
		err = png.Encode(buf, img)
	}
	require.NoError(t, err)
	return buf.Bytes()
}
