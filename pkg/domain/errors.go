package domain

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrEmptyResult はフィルタや切り出しの結果、プロンプトが1件も残らなかったことを示します。
	ErrEmptyResult = errors.New("プロンプトが見つかりません")
	// ErrInvalidRange は start_index / max_prompts の指定が不正であることを示します。
	ErrInvalidRange = errors.New("範囲指定が不正です")
	// ErrNoImages は保存対象の画像が渡されなかったことを示します。
	ErrNoImages = errors.New("保存する画像がありません")
)

// NotFoundError は入力ディレクトリ内に指定ファイルが存在しない場合のエラーです。
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ファイルが見つかりません: %s", e.Path)
}

// Unwrap により errors.Is(err, fs.ErrNotExist) で判定できるのだ。
func (e *NotFoundError) Unwrap() error {
	return fs.ErrNotExist
}

// EmptyResultError は空のバッチを下流へ渡さないためのエラーです。
type EmptyResultError struct {
	Source     string // ファイル名、またはインラインテキストの場合は "text"
	Loaded     int    // 空行除去後、切り出し前の件数
	StartIndex int
	MaxPrompts int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s: source=%s loaded=%d start_index=%d max_prompts=%d",
		ErrEmptyResult.Error(), e.Source, e.Loaded, e.StartIndex, e.MaxPrompts)
}

func (e *EmptyResultError) Unwrap() error {
	return ErrEmptyResult
}
