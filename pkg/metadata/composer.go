package metadata

import (
	"fmt"
	"strings"

	"github.com/shouni/go-prompt-loop/pkg/domain"
)

const (
	// KeyParameters は正負のプロンプトをまとめて格納するキーです。
	KeyParameters = "parameters"
	// KeyPrompt はプロンプト文字列をそのまま格納するキーです。
	KeyPrompt = "prompt"

	negativePromptLabel = "\nNegative prompt: "
)

// Policy はメタデータへのプロンプトの書き込み方針です。
type Policy string

const (
	// PolicyParameters は parameters キーを常に上書きします。
	PolicyParameters Policy = "parameters"
	// PolicyPrompt は prompt キーが未設定の場合のみ書き込みます。
	PolicyPrompt Policy = "prompt"
)

// DefaultPolicy は既定の書き込み方針です。
const DefaultPolicy = PolicyParameters

// ParsePolicy は文字列から Policy を解決します。空文字の場合は DefaultPolicy なのだ。
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultPolicy, nil
	case PolicyParameters, PolicyPrompt:
		return p, nil
	default:
		return "", fmt.Errorf("サポートされていないメタデータ方針: '%s'。サポートされている方針は [%s, %s] です",
			s, PolicyParameters, PolicyPrompt)
	}
}

// FormatParameters はプロンプトとネガティブプロンプトを1つの文字列にまとめます。
func FormatParameters(prompt, negativePrompt string) string {
	text := strings.TrimSpace(prompt)
	if neg := strings.TrimSpace(negativePrompt); neg != "" {
		text += negativePromptLabel + neg
	}
	return text
}

// Compose は既存のメタデータにプロンプトを合成した新しいマップを返すのだ。
// existing は変更しません。
func Compose(existing domain.MetadataRecord, prompt, negativePrompt string, policy Policy) domain.MetadataRecord {
	composed := existing.Clone()

	switch policy {
	case PolicyPrompt:
		if _, ok := composed[KeyPrompt]; !ok {
			composed[KeyPrompt] = prompt
		}
	default:
		composed[KeyParameters] = FormatParameters(prompt, negativePrompt)
	}
	return composed
}
