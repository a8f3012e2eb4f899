package metadata

import (
	"context"

	"github.com/shouni/go-prompt-loop/pkg/domain"
)

// mockImageWriter は ImageWriter のテスト用モックなのだ。
type mockImageWriter struct {
	requests []domain.SaveRequest
	saveFunc func(req domain.SaveRequest) (*domain.SaveResult, error)
}

func (m *mockImageWriter) SaveImages(ctx context.Context, req domain.SaveRequest) (*domain.SaveResult, error) {
	m.requests = append(m.requests, req)
	if m.saveFunc != nil {
		return m.saveFunc(req)
	}
	return &domain.SaveResult{}, nil
}
