package handler

import (
	"context"
	"encoding/json"

	"gaamp-bff/internal/infrastructure/backend"

	"github.com/stretchr/testify/mock"
)

// MockRequester モック上流クライアント
type MockRequester struct {
	mock.Mock
}

func (m *MockRequester) Request(ctx context.Context, opts backend.RequestOptions) (json.RawMessage, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
