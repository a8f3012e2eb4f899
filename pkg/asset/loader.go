package asset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// DefaultCacheExpiration はキャッシュした画像の既定の保持期間です。
	DefaultCacheExpiration = 30 * time.Minute
	// DefaultCleanupInterval は期限切れエントリを掃除する間隔です。
	DefaultCleanupInterval = 1 * time.Hour
)

// InputReader はローカルや GCS のファイルを読み込むためのインターフェースです。
type InputReader interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// ImageCacher は画像データのキャッシュです。
type ImageCacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, d time.Duration)
}

// Loader はベース画像を読み込み、パスごとにキャッシュします。
// 同じ画像をプロンプトの数だけ繰り返し保存する run コマンドで使うのだ。
type Loader struct {
	reader InputReader
	cache  ImageCacher
	ttl    time.Duration
}

// NewLoader は Loader を初期化します。imgCache が nil の場合は go-cache を既定値で作成します。
func NewLoader(reader InputReader, imgCache ImageCacher, ttl time.Duration) (*Loader, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader は必須です")
	}
	if ttl <= 0 {
		ttl = DefaultCacheExpiration
	}
	if imgCache == nil {
		imgCache = cache.New(ttl, DefaultCleanupInterval)
	}
	return &Loader{
		reader: reader,
		cache:  imgCache,
		ttl:    ttl,
	}, nil
}

// Load はパスの画像データを返します。キャッシュにあれば読み込みを省略するのだ。
func (l *Loader) Load(ctx context.Context, path string) ([]byte, error) {
	if v, ok := l.cache.Get(path); ok {
		if data, ok := v.([]byte); ok {
			slog.DebugContext(ctx, "キャッシュから画像を取得したのだ", "path", path)
			return data, nil
		}
	}

	rc, err := l.reader.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("画像 '%s' のオープンに失敗しました: %w", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("画像 '%s' の読み込みに失敗しました: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("画像 '%s' が空です", path)
	}

	l.cache.Set(path, data, l.ttl)
	return data, nil
}
