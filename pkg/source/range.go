package source

import (
	"github.com/shouni/go-prompt-loop/pkg/domain"
)

// Select はリストに範囲指定を適用し、新しい PromptList を返します。
// start_index がリスト長を超える場合や、結果が空になる場合は EmptyResultError を返すのだ。
func Select(list domain.PromptList, r domain.Range, sourceName string) (domain.PromptList, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	emptyErr := &domain.EmptyResultError{
		Source:     sourceName,
		Loaded:     len(list),
		StartIndex: r.StartIndex,
		MaxPrompts: r.MaxPrompts,
	}

	if r.StartIndex >= len(list) {
		return nil, emptyErr
	}

	end := len(list)
	if !r.Unbounded() && r.StartIndex+r.MaxPrompts < end {
		end = r.StartIndex + r.MaxPrompts
	}

	selected := make(domain.PromptList, end-r.StartIndex)
	copy(selected, list[r.StartIndex:end])
	return selected, nil
}
