package backend

import "context"

// TokenSource アクセストークンの供給元
// トークンが存在しない場合はfalseを返し、Authorizationヘッダーは付与されない
// トークンは不透明な文字列として扱う（デコードやリフレッシュは行わない）
type TokenSource interface {
	AccessToken(ctx context.Context) (string, bool)
}

// TokenSourceFunc 関数をTokenSourceとして扱うアダプター
type TokenSourceFunc func(ctx context.Context) (string, bool)

// AccessToken アクセストークンを取得
func (f TokenSourceFunc) AccessToken(ctx context.Context) (string, bool) {
	return f(ctx)
}

type accessTokenKey struct{}

// WithAccessToken アクセストークンをコンテキストに設定
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFromContext コンテキストからアクセストークンを取得
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey{}).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// SessionTokenSource リクエストコンテキスト（セッション）からトークンを取得するTokenSource
type SessionTokenSource struct{}

// NewSessionTokenSource 新しいSessionTokenSourceを作成
func NewSessionTokenSource() *SessionTokenSource {
	return &SessionTokenSource{}
}

// AccessToken コンテキストに保存されたセッションのアクセストークンを返す
func (s *SessionTokenSource) AccessToken(ctx context.Context) (string, bool) {
	return AccessTokenFromContext(ctx)
}
