package asset

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// OutputType は保存結果の種別として返す値です。
	OutputType = "output"
	// ImageExt は保存する画像の拡張子です。
	ImageExt = ".png"
	// CounterDigits はファイル名に埋め込む連番の桁数です。
	CounterDigits = 5
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// IsRemote は gs:// で始まるパスかどうかを返します。
func IsRemote(p string) bool {
	return strings.HasPrefix(strings.ToLower(p), "gs://")
}

// SplitPrefix はファイル名接頭辞をサブフォルダとベース名に分割するのだ。
// 例: "batch/cat" -> ("batch", "cat")
// 出力ディレクトリの外を指す接頭辞や、ベース名が空の接頭辞はエラーになります。
func SplitPrefix(prefix string) (subfolder, name string, err error) {
	cleaned := path.Clean(filepath.ToSlash(strings.TrimSpace(prefix)))
	if cleaned == "." || cleaned == "/" || strings.HasSuffix(strings.TrimSpace(prefix), "/") {
		return "", "", fmt.Errorf("ファイル名の接頭辞が不正です: '%s'", prefix)
	}
	if !filepath.IsLocal(filepath.FromSlash(cleaned)) {
		return "", "", fmt.Errorf("ファイル名の接頭辞が出力ディレクトリの外を指しています: '%s'", prefix)
	}

	dir, base := path.Split(cleaned)
	return strings.TrimSuffix(dir, "/"), base, nil
}

// ImageFileName は "<name>_<counter:05>_.png" 形式のファイル名を返します。
func ImageFileName(name string, counter int) string {
	return fmt.Sprintf("%s_%0*d_%s", name, CounterDigits, counter, ImageExt)
}

// ImageFileRegex は ImageFileName で生成されたファイル名に一致する正規表現を返します。
// 例: "cat" -> ^cat_(\d+)_\.png$
func ImageFileRegex(name string) *regexp.Regexp {
	pattern := fmt.Sprintf(`^%s_(\d+)_%s$`, regexp.QuoteMeta(name), regexp.QuoteMeta(ImageExt))
	return regexp.MustCompile(pattern)
}

// ParseCounter はファイル名から連番を取り出します。一致しない場合は false を返すのだ。
func ParseCounter(re *regexp.Regexp, fileName string) (int, bool) {
	m := re.FindStringSubmatch(fileName)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// JoinOutput は出力ディレクトリ、サブフォルダ、ファイル名を結合した保存先パスを返します。
func JoinOutput(outputDir, subfolder, fileName string) (string, error) {
	dir := outputDir
	if subfolder != "" {
		var err error
		dir, err = ResolveOutputPath(outputDir, subfolder)
		if err != nil {
			return "", fmt.Errorf("サブフォルダのパス解決に失敗しました: %w", err)
		}
	}
	return ResolveOutputPath(dir, fileName)
}
