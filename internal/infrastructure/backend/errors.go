package backend

import (
	"errors"
	"fmt"
)

// APIError バックエンド呼び出しの失敗を表すエラー
// コア境界を越えるエラーはすべてこの型に集約される
// Statusが0の場合はレスポンスを受信できなかったことを意味する（接続失敗・タイムアウト）
type APIError struct {
	Message string
	Status  int
	Code    string
	Details interface{}
}

// Error エラーメッセージを返す
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error (status=%d, code=%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error (status=%d): %s", e.Status, e.Message)
}

// IsAPIError errがAPIErrorかどうかを判定
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// AsAPIError errをAPIErrorとして取り出す
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
