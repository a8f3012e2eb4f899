package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
)

// IsPNG はデータが PNG シグネチャで始まるかどうかを返します。
func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}

// EnsurePNG は画像データ（PNG, GIF, JPEG等）を PNG 形式に揃えます。
// すでに PNG の場合は再エンコードせずにそのまま返すのだ。
func EnsurePNG(data []byte) ([]byte, error) {
	if IsPNG(data) {
		return data, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("%s 画像の PNG 変換に失敗しました: %w", format, err)
	}
	return buf.Bytes(), nil
}
