package domain

import (
	"maps"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// MetadataRecord は画像に付与する補助メタデータ（キーと文字列値）です。
type MetadataRecord map[string]string

// Clone は独立したコピーを返します。nil の場合も空のマップを返すのだ。
func (m MetadataRecord) Clone() MetadataRecord {
	copied := make(MetadataRecord, len(m))
	maps.Copy(copied, m)
	return copied
}

// PromptRecord はワークフロー等から渡される構造化プロンプト情報です。
// 中身は解釈せず、そのまま画像ライターに受け渡します。
type PromptRecord map[string]any

// SaveRequest は画像ライターへの保存依頼です。
type SaveRequest struct {
	Images         []*imagedom.ImageResponse
	FilenamePrefix string
	PromptRecord   PromptRecord
	Metadata       MetadataRecord
}

// SavedImage は保存された1枚の画像の参照情報です。
type SavedImage struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
	Path      string `json:"path"`
}

// SaveResult は画像ライターから返される結果で、呼び出し元へそのまま返却されます。
type SaveResult struct {
	Images []SavedImage `json:"images"`
}

// Paths は保存先パスの一覧を返します。
func (r *SaveResult) Paths() []string {
	if r == nil {
		return nil
	}
	paths := make([]string, 0, len(r.Images))
	for _, img := range r.Images {
		paths = append(paths, img.Path)
	}
	return paths
}
