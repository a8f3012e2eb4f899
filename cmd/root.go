package cmd

import (
	"log/slog"
	"os"

	"github.com/shouni/go-prompt-loop/internal/config"

	"github.com/spf13/cobra"
)

// appName はコマンド名なのだ。
const appName = "promptloop"

// globalOptions はすべてのサブコマンドに共通するフラグの値なのだ。
type globalOptions struct {
	InputDir       string
	OutputDir      string
	MetadataPolicy string
	Verbose        bool
}

var (
	opts    config.RunOptions
	globals globalOptions
)

// rootCmd は、プロンプトを1件ずつ流すためのルートコマンドなのだ。
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "プロンプトのリストを1件ずつ処理し、画像にメタデータとして書き込むのだ。",
	Long: `テキストファイルやインラインテキストからプロンプトを読み込み、
開始位置と件数で切り出してから1件ずつ出力、またはベース画像のメタデータとして保存するのだ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(listCmd, runCmd, saveCmd)
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
// 空のままなら環境変数（PROMPTLOOP_*）や既定値が使われるのだ。
func addAppFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&globals.InputDir, "input-dir", "", "プロンプトファイルを置く入力ディレクトリ（ローカル or gs://...）なのだ。")
	cmd.PersistentFlags().StringVar(&globals.OutputDir, "output-dir", "", "画像の保存先ディレクトリ（ローカル or gs://...）なのだ。")
	cmd.PersistentFlags().StringVar(&globals.MetadataPolicy, "metadata-policy", "", "メタデータの書き込み方針（parameters または prompt）なのだ。")
	cmd.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false, "デバッグログを出力するのだ。")
}

// preRunAppE は、コマンド実行前にロガーを設定するのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if globals.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig は環境変数から設定をロードし、フラグで上書きするのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	if globals.InputDir != "" {
		cfg.InputDir = globals.InputDir
	}
	if globals.OutputDir != "" {
		cfg.OutputDir = globals.OutputDir
	}
	if globals.MetadataPolicy != "" {
		cfg.MetadataPolicy = globals.MetadataPolicy
	}
	cfg.Options = opts
	return cfg
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
