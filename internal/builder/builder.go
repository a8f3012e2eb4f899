package builder

import (
	"fmt"

	"github.com/shouni/go-prompt-loop/internal/config"
	"github.com/shouni/go-prompt-loop/pkg/asset"
	"github.com/shouni/go-prompt-loop/pkg/loop"
	"github.com/shouni/go-prompt-loop/pkg/metadata"
	"github.com/shouni/go-prompt-loop/pkg/publisher"
	"github.com/shouni/go-prompt-loop/pkg/source"
)

// BuildSource は入力ディレクトリからプロンプトを読み込む Source を構築します。
func BuildSource(appCtx *AppContext) (*source.Source, error) {
	src, err := source.New(appCtx.Reader, appCtx.Config.InputDir)
	if err != nil {
		return nil, fmt.Errorf("Sourceの初期化に失敗したのだ: %w", err)
	}
	return src, nil
}

// BuildComposer は ImagePublisher を画像ライターとする MetadataComposer を構築します。
func BuildComposer(appCtx *AppContext) (*metadata.Composer, error) {
	pub, err := publisher.NewImagePublisher(appCtx.Writer, appCtx.Config.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("ImagePublisherの初期化に失敗したのだ: %w", err)
	}

	composer, err := metadata.NewComposer(pub, metadata.Policy(appCtx.Config.MetadataPolicy))
	if err != nil {
		return nil, fmt.Errorf("MetadataComposerの初期化に失敗したのだ: %w", err)
	}
	return composer, nil
}

// BuildLoader はベース画像をキャッシュ付きで読み込む Loader を構築します。
func BuildLoader(appCtx *AppContext) (*asset.Loader, error) {
	loader, err := asset.NewLoader(appCtx.Reader, nil, config.DefaultCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("Loaderの初期化に失敗したのだ: %w", err)
	}
	return loader, nil
}

// BuildRunner はプロンプトを1件ずつ処理する Runner を構築します。
func BuildRunner(appCtx *AppContext) *loop.Runner {
	return loop.NewRunner(appCtx.Options.Concurrency, appCtx.Options.Interval)
}
