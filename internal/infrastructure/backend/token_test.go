package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessTokenFromContext(t *testing.T) {
	ctx := context.Background()

	// トークン未設定
	token, ok := AccessTokenFromContext(ctx)
	assert.False(t, ok)
	assert.Empty(t, token)

	// トークン設定済み
	ctx = WithAccessToken(ctx, "upstream-token")
	token, ok = AccessTokenFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "upstream-token", token)

	// 空文字列は未設定として扱う
	ctx = WithAccessToken(context.Background(), "")
	_, ok = AccessTokenFromContext(ctx)
	assert.False(t, ok)
}

func TestSessionTokenSource_AccessToken(t *testing.T) {
	source := NewSessionTokenSource()

	ctx := WithAccessToken(context.Background(), "session-token")
	token, ok := source.AccessToken(ctx)
	assert.True(t, ok)
	assert.Equal(t, "session-token", token)

	_, ok = source.AccessToken(context.Background())
	assert.False(t, ok)
}

func TestTokenSourceFunc(t *testing.T) {
	source := TokenSourceFunc(func(ctx context.Context) (string, bool) {
		return "static-token", true
	})

	token, ok := source.AccessToken(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "static-token", token)
}
