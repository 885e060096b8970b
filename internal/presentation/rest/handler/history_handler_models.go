package handler

import "gaamp-bff/internal/domain/transaction"

// HistoryResponse トランザクション履歴レスポンス
// @Description 正規化されたトランザクション履歴レスポンス
type HistoryResponse struct {
	Items      []transaction.Transaction `json:"items"`
	NextCursor *string                   `json:"nextCursor" example:"cur_abc"`
}

// ErrorResponse エラーレスポンス
// @Description エラーレスポンス
type ErrorResponse struct {
	Error   string      `json:"error" example:"bad_gateway"`
	Message string      `json:"message" example:"upstream returned an invalid payload"`
	Code    string      `json:"code,omitempty" example:"BAD_PAYLOAD"`
	Details interface{} `json:"details,omitempty"`
}
