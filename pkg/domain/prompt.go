package domain

import (
	"fmt"
	"iter"
)

// MaxRangeValue は CLI などの入力で StartIndex と MaxPrompts に指定できる上限値です。
// 切り出し処理そのものには上限はありません。
const MaxRangeValue = 10000

// PromptList はソース順に並んだ、空でないトリム済みプロンプトの列です。
// 重複は除去しません。
type PromptList []string

// Len はプロンプト数を返します。
func (pl PromptList) Len() int {
	return len(pl)
}

// Items は各プロンプトを PromptItem として順に返すイテレーターなのだ。
// sourceOffset は切り出し前のリストにおける先頭位置で、SourceIndex の算出に使うのだ。
func (pl PromptList) Items(sourceOffset int) iter.Seq[PromptItem] {
	return func(yield func(PromptItem) bool) {
		for i, p := range pl {
			item := PromptItem{
				Prompt:      p,
				Index:       i,
				Total:       len(pl),
				SourceIndex: sourceOffset + i,
			}
			if !yield(item) {
				return
			}
		}
	}
}

// PromptItem は下流の処理に1件ずつ渡されるプロンプトと、その位置情報です。
type PromptItem struct {
	Prompt      string `json:"prompt"`
	Index       int    `json:"current_index"`
	Total       int    `json:"total_count"`
	SourceIndex int    `json:"source_index"`
}

// Range はプロンプトリストの切り出し範囲です。MaxPrompts が 0 の場合は上限なしです。
type Range struct {
	StartIndex int
	MaxPrompts int
}

// Validate は範囲指定が負でないかを検証します。
func (r Range) Validate() error {
	if r.StartIndex < 0 {
		return fmt.Errorf("%w: start_index=%d", ErrInvalidRange, r.StartIndex)
	}
	if r.MaxPrompts < 0 {
		return fmt.Errorf("%w: max_prompts=%d", ErrInvalidRange, r.MaxPrompts)
	}
	return nil
}

// ValidateInput はユーザー入力として受け付ける範囲（0〜MaxRangeValue）に収まっているかを検証するのだ。
func (r Range) ValidateInput() error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.StartIndex > MaxRangeValue {
		return fmt.Errorf("%w: start_index=%d (0〜%d)", ErrInvalidRange, r.StartIndex, MaxRangeValue)
	}
	if r.MaxPrompts > MaxRangeValue {
		return fmt.Errorf("%w: max_prompts=%d (0〜%d)", ErrInvalidRange, r.MaxPrompts, MaxRangeValue)
	}
	return nil
}

// Unbounded は MaxPrompts が指定されていないかどうかを返します。
func (r Range) Unbounded() bool {
	return r.MaxPrompts == 0
}
