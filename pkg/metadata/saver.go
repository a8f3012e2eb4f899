package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-prompt-loop/pkg/domain"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// DefaultFilenamePrefix は保存ファイル名の既定の接頭辞です。
const DefaultFilenamePrefix = "PromptLoop"

// ImageWriter はメタデータ付きで画像を永続化する機能を表すインターフェースです。
type ImageWriter interface {
	SaveImages(ctx context.Context, req domain.SaveRequest) (*domain.SaveResult, error)
}

// SaveInput は Composer.Save に渡す入力です。
type SaveInput struct {
	Images         []*imagedom.ImageResponse
	Prompt         string
	NegativePrompt string
	FilenamePrefix string
	Metadata       domain.MetadataRecord // 既存のメタデータ（nil 可）
	PromptRecord   domain.PromptRecord   // 構造化プロンプト（nil 可）
}

// Composer はプロンプトをメタデータに合成し、画像の保存を ImageWriter に委譲します。
type Composer struct {
	writer ImageWriter
	policy Policy
}

// NewComposer は Composer を初期化します。
func NewComposer(writer ImageWriter, policy Policy) (*Composer, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer (ImageWriter) は必須です")
	}
	p, err := ParsePolicy(string(policy))
	if err != nil {
		return nil, err
	}
	return &Composer{
		writer: writer,
		policy: p,
	}, nil
}

// Policy は Composer が使う書き込み方針を返します。
func (c *Composer) Policy() Policy {
	return c.policy
}

// Save はメタデータを合成して画像を保存し、ImageWriter の結果をそのまま返すのだ。
func (c *Composer) Save(ctx context.Context, in SaveInput) (*domain.SaveResult, error) {
	if len(in.Images) == 0 {
		return nil, domain.ErrNoImages
	}

	prefix := in.FilenamePrefix
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultFilenamePrefix
	}

	if strings.TrimSpace(in.Prompt) == "" {
		slog.WarnContext(ctx, "空のプロンプトでメタデータを書き込みます", "prefix", prefix)
	}

	req := domain.SaveRequest{
		Images:         in.Images,
		FilenamePrefix: prefix,
		PromptRecord:   in.PromptRecord,
		Metadata:       Compose(in.Metadata, in.Prompt, in.NegativePrompt, c.policy),
	}

	result, err := c.writer.SaveImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("メタデータ付き画像の保存に失敗しました: %w", err)
	}

	slog.DebugContext(ctx, "メタデータ付きで画像を保存したのだ",
		"prefix", prefix,
		"policy", c.policy,
		"images", len(in.Images),
	)
	return result, nil
}
