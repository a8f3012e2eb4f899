package cmd

import (
	"github.com/shouni/go-prompt-loop/internal/pipeline"

	"github.com/spf13/cobra"
)

// saveCmd は、1つのプロンプトをベース画像のメタデータとして書き込んで保存するのだ。
var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "プロンプトをメタデータとして画像に書き込み、保存するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.ExecuteSave(cmd.Context(), loadConfig(), cmd.OutOrStdout())
	},
}

func init() {
	saveCmd.Flags().StringVar(&opts.Prompt, "prompt", "", "書き込むプロンプトなのだ。")
	addImageFlags(saveCmd)

	_ = saveCmd.MarkFlagRequired("image")
}
