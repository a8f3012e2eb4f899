package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultInputDir       = "input"
	DefaultOutputDir      = "output"
	DefaultPromptFile     = "prompts.txt"
	DefaultFilenamePrefix = "PromptLoop"
	DefaultMetadataPolicy = "parameters"
	DefaultConcurrency    = 1
	DefaultCacheTTL       = 30 * time.Minute

	FormatText = "text"
	FormatJSON = "json"
)

// Config は環境変数から読み込んだアプリケーション全体の設定なのだ。
type Config struct {
	InputDir       string
	OutputDir      string
	FilenamePrefix string
	MetadataPolicy string

	Options RunOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	return &Config{
		InputDir:       envutil.GetEnv("PROMPTLOOP_INPUT_DIR", DefaultInputDir),
		OutputDir:      envutil.GetEnv("PROMPTLOOP_OUTPUT_DIR", DefaultOutputDir),
		FilenamePrefix: envutil.GetEnv("PROMPTLOOP_FILENAME_PREFIX", DefaultFilenamePrefix),
		MetadataPolicy: envutil.GetEnv("PROMPTLOOP_METADATA_POLICY", DefaultMetadataPolicy),
	}
}

// RunOptions は CLI フラグから渡される実行時のパラメータなのだ。
type RunOptions struct {
	// ソース入力関連
	File       string // --file: 入力ディレクトリ内のプロンプトファイル名
	Text       string // --text: インラインの複数行テキスト
	StartIndex int    // --start-index
	MaxPrompts int    // --max-prompts

	// 出力関連
	Format string // --format: text or json

	// 画像保存関連
	ImagePath      string // --image: ベース画像（ローカル or gs://...）
	Prompt         string // --prompt: save コマンド用
	NegativePrompt string // --negative
	FilenamePrefix string // --prefix
	KeepMetadata   bool   // --keep-metadata: ベース画像の既存テキストチャンクを引き継ぐ
	PromptRecord   string // --prompt-record: 構造化プロンプトの JSON ファイル（ローカル or gs://...）

	// 実行制御
	Concurrency int           // --concurrency
	Interval    time.Duration // --interval
}
