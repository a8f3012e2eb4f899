package cmd

import (
	"github.com/shouni/go-prompt-loop/internal/pipeline"

	"github.com/spf13/cobra"
)

// listCmd は、入力ディレクトリにあるプロンプトファイルを一覧表示するのだ。
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "入力ディレクトリ内のプロンプトファイル（.txt）を一覧表示するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.ExecuteList(cmd.Context(), loadConfig(), cmd.OutOrStdout())
	},
}
