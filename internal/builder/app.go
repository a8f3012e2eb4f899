package builder

import (
	"github.com/shouni/go-prompt-loop/internal/config"
	"github.com/shouni/go-prompt-loop/internal/storage"
	"github.com/shouni/go-prompt-loop/pkg/asset"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config       // Configは、環境変数から読み込まれた設定です（入出力ディレクトリ、既定の接頭辞など）。
	Options config.RunOptions    // Optionsは、コマンドラインから渡された実行時の設定です。
	Reader  storage.InputReader  // Readerは、プロンプトファイルやベース画像の読み込みに使用する入力元です。
	Writer  storage.OutputWriter // Writerは、メタデータ付き画像を保存するための出力先です。
	Loader  *asset.Loader        // Loaderは、ベース画像をキャッシュ付きで読み込みます。プロンプトごとに共有するのだ。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(cfg *config.Config, reader storage.InputReader, writer storage.OutputWriter) (*AppContext, error) {
	appCtx := &AppContext{
		Config:  cfg,
		Options: cfg.Options,
		Reader:  reader,
		Writer:  writer,
	}

	loader, err := BuildLoader(appCtx)
	if err != nil {
		return nil, err
	}
	appCtx.Loader = loader
	return appCtx, nil
}

// FilenamePrefix は CLI フラグ、環境変数の順で接頭辞を決めるのだ。
func (a *AppContext) FilenamePrefix() string {
	if a.Options.FilenamePrefix != "" {
		return a.Options.FilenamePrefix
	}
	return a.Config.FilenamePrefix
}
