package history

import "gaamp-bff/internal/domain/transaction"

// HistoryQuery トランザクション履歴取得クエリ
type HistoryQuery struct {
	Limit     int    // 取得件数（デフォルト: 50、範囲: 1〜200）
	Cursor    string // ページネーションカーソル（不透明トークン、オプション）
	AccountID string // アカウントIDフィルタ（不透明文字列、オプション）
}

// HistoryResult 正規化済みのトランザクション履歴
// 上流の多様なレスポンス形状はすべてこの形に還元される
// NextCursorが非nilの場合は続きのページが存在する
type HistoryResult struct {
	Items      []transaction.Transaction `json:"items"`
	NextCursor *string                   `json:"nextCursor"`
}
