package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/go-prompt-loop/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Sequential(t *testing.T) {
	list := domain.PromptList{"a", "b", "c"}

	t.Run("ソース順に位置情報付きで渡す", func(t *testing.T) {
		var got []domain.PromptItem
		err := NewRunner(1, 0).Run(context.Background(), list, 2, func(_ context.Context, item domain.PromptItem) error {
			got = append(got, item)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []domain.PromptItem{
			{Prompt: "a", Index: 0, Total: 3, SourceIndex: 2},
			{Prompt: "b", Index: 1, Total: 3, SourceIndex: 3},
			{Prompt: "c", Index: 2, Total: 3, SourceIndex: 4},
		}, got)
	})

	t.Run("最初のエラーで停止する", func(t *testing.T) {
		boom := errors.New("boom")
		var calls []string
		err := NewRunner(0, 0).Run(context.Background(), list, 0, func(_ context.Context, item domain.PromptItem) error {
			calls = append(calls, item.Prompt)
			if item.Prompt == "b" {
				return boom
			}
			return nil
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"a", "b"}, calls)
	})

	t.Run("キャンセルされたら以降を処理しない", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var calls int
		err := NewRunner(1, 0).Run(ctx, list, 0, func(context.Context, domain.PromptItem) error {
			calls++
			cancel()
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestRunner_Parallel(t *testing.T) {
	list := make(domain.PromptList, 20)
	for i := range list {
		list[i] = "p"
	}

	t.Run("全件を同時実行数の上限内で処理する", func(t *testing.T) {
		var (
			mu      sync.Mutex
			seen    = map[int]bool{}
			running atomic.Int32
			peak    atomic.Int32
		)
		err := NewRunner(3, 0).Run(context.Background(), list, 0, func(_ context.Context, item domain.PromptItem) error {
			n := running.Add(1)
			defer running.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			seen[item.Index] = true
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
		assert.Len(t, seen, len(list))
		assert.LessOrEqual(t, peak.Load(), int32(3))
	})

	t.Run("エラーを返す", func(t *testing.T) {
		boom := errors.New("boom")
		err := NewRunner(4, 0).Run(context.Background(), list, 0, func(_ context.Context, item domain.PromptItem) error {
			if item.Index == 5 {
				return boom
			}
			return nil
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("開始前にキャンセル済みならコンテキストのエラー", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var calls atomic.Int32
		err := NewRunner(4, 0).Run(ctx, list, 0, func(context.Context, domain.PromptItem) error {
			calls.Add(1)
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls.Load())
	})
}

func TestRunner_Interval(t *testing.T) {
	list := domain.PromptList{"a", "b", "c"}
	interval := 20 * time.Millisecond

	start := time.Now()
	err := NewRunner(1, interval).Run(context.Background(), list, 0, func(context.Context, domain.PromptItem) error {
		return nil
	})
	require.NoError(t, err)
	// バースト1なので、2件目以降は interval ずつ待つのだ
	assert.GreaterOrEqual(t, time.Since(start), 2*interval-5*time.Millisecond)
}

func TestRunner_Invalid(t *testing.T) {
	r := NewRunner(-1, -time.Second)
	assert.Equal(t, 1, r.Concurrency())

	err := r.Run(context.Background(), domain.PromptList{"a"}, 0, nil)
	assert.Error(t, err)

	err = r.Run(context.Background(), nil, 0, func(context.Context, domain.PromptItem) error { return nil })
	assert.ErrorIs(t, err, domain.ErrEmptyResult)
}
