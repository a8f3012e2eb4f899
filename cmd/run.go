package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-prompt-loop/internal/config"
	"github.com/shouni/go-prompt-loop/internal/pipeline"

	"github.com/spf13/cobra"
)

// runCmd は、プロンプトを読み込んで切り出し、1件ずつ処理するサブコマンドなのだ。
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "プロンプトを1件ずつ出力、またはベース画像に書き込んで保存するのだ。",
	Long: `--file（入力ディレクトリ内のファイル）か --text（インラインテキスト）からプロンプトを読み込み、
空行を除いてから --start-index と --max-prompts で切り出すのだ。
--image を指定すると、プロンプトごとにベース画像へメタデータを書き込んで保存するのだよ。`,
	Args: cobra.NoArgs,
	RunE: runCommand,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&opts.File, "file", "f", "", fmt.Sprintf("入力ディレクトリ内のプロンプトファイル名なのだ（既定: %s）。", config.DefaultPromptFile))
	f.StringVarP(&opts.Text, "text", "t", "", "改行区切りのプロンプトを直接指定するのだ。")
	f.IntVarP(&opts.StartIndex, "start-index", "s", 0, "切り出しの開始位置（0始まり）なのだ。")
	f.IntVarP(&opts.MaxPrompts, "max-prompts", "n", 0, "処理する最大件数なのだ（0 は上限なし）。")
	f.StringVar(&opts.Format, "format", config.FormatText, "出力形式（text または json）なのだ。")
	f.IntVarP(&opts.Concurrency, "concurrency", "c", config.DefaultConcurrency, "同時に処理するプロンプト数なのだ。")
	f.DurationVar(&opts.Interval, "interval", 0, "各プロンプトの処理開始の最小間隔なのだ。")
	addImageFlags(runCmd)

	runCmd.MarkFlagsMutuallyExclusive("file", "text")
}

// addImageFlags は、画像保存に関するフラグを定義するのだ。run と save で共通なのだ。
func addImageFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&opts.ImagePath, "image", "i", "", "メタデータを書き込むベース画像（ローカル or gs://...）なのだ。")
	f.StringVar(&opts.NegativePrompt, "negative", "", "ネガティブプロンプトなのだ。")
	f.StringVarP(&opts.FilenamePrefix, "prefix", "p", "", "保存ファイル名の接頭辞なのだ（サブフォルダ指定可: sub/name）。")
	f.BoolVar(&opts.KeepMetadata, "keep-metadata", false, "ベース画像の既存メタデータを引き継ぐのだ。")
	f.StringVar(&opts.PromptRecord, "prompt-record", "", "prompt チャンクに埋め込む構造化プロンプトの JSON ファイルなのだ。")
}

// runCommand は、run サブコマンドの実行ロジック本体なのだ。
func runCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 環境変数から基本設定をロードし、コマンドライン引数の値を反映
	cfg := loadConfig()

	slog.Info("プロンプトループを起動するのだ！",
		"input_dir", cfg.InputDir,
		"file", cfg.Options.File,
		"inline", cfg.Options.Text != "",
		"start_index", cfg.Options.StartIndex,
		"max_prompts", cfg.Options.MaxPrompts,
		"image", cfg.Options.ImagePath)

	// 2. パイプライン実行
	if err := pipeline.ExecuteRun(ctx, cfg, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("プロンプトループの実行中にエラーが発生したのだ: %w", err)
	}
	return nil
}
