package loop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-prompt-loop/pkg/domain"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Handler は1件のプロンプトを処理するコールバックです。
type Handler func(ctx context.Context, item domain.PromptItem) error

// Runner はプロンプトリストの各要素を Handler に順番に渡します。
// concurrency が 2 以上の場合は、上限付きで並列に渡すのだ。
type Runner struct {
	concurrency int
	interval    time.Duration
}

// NewRunner は Runner を初期化します。interval が 0 より大きい場合、
// 各処理の開始間隔をその値以上に制限します。
func NewRunner(concurrency int, interval time.Duration) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	if interval < 0 {
		interval = 0
	}
	return &Runner{
		concurrency: concurrency,
		interval:    interval,
	}
}

// Concurrency は同時に実行する Handler の上限数を返します。
func (r *Runner) Concurrency() int {
	return r.concurrency
}

// Run は list の各プロンプトを位置情報付きで handler に渡すのだ。
// sourceOffset は切り出し前のリストにおける先頭位置です。
// 最初に発生したエラー、またはコンテキストのエラーを返します。
func (r *Runner) Run(ctx context.Context, list domain.PromptList, sourceOffset int, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler は必須です")
	}
	if list.Len() == 0 {
		return domain.ErrEmptyResult
	}

	var limiter *rate.Limiter
	if r.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(r.interval), 1)
	}

	slog.DebugContext(ctx, "プロンプトのループを開始するのだ",
		"total", list.Len(),
		"concurrency", r.concurrency,
		"interval", r.interval,
	)

	if r.concurrency == 1 {
		return r.runSequential(ctx, list, sourceOffset, limiter, handler)
	}
	return r.runParallel(ctx, list, sourceOffset, limiter, handler)
}

func (r *Runner) runSequential(ctx context.Context, list domain.PromptList, sourceOffset int, limiter *rate.Limiter, handler Handler) error {
	for item := range list.Items(sourceOffset) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if err := handler(ctx, item); err != nil {
			return fmt.Errorf("プロンプト %d/%d の処理に失敗しました: %w", item.Index+1, item.Total, err)
		}
	}
	return nil
}

func (r *Runner) runParallel(ctx context.Context, list domain.PromptList, sourceOffset int, limiter *rate.Limiter, handler Handler) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)

	for item := range list.Items(sourceOffset) {
		// 先行するエラーやキャンセルがあれば、新しいゴルーチンは起動しないのだ
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(egCtx); err != nil {
					return err
				}
			}
			if err := handler(egCtx, item); err != nil {
				return fmt.Errorf("プロンプト %d/%d の処理に失敗しました: %w", item.Index+1, item.Total, err)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
