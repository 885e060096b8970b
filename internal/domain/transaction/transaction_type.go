package transaction

import (
	"fmt"
)

// TransactionType トランザクション種別を表す値オブジェクト
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT" // 入金
	TransactionTypeDebit  TransactionType = "DEBIT"  // 出金
)

// NewTransactionType 新しいTransactionTypeを作成
func NewTransactionType(s string) (TransactionType, error) {
	switch s {
	case "CREDIT", "DEBIT":
		return TransactionType(s), nil
	default:
		return "", fmt.Errorf("invalid transaction type: %s", s)
	}
}

// String 文字列表現を返す
func (tt TransactionType) String() string {
	return string(tt)
}

// Valid 有効なトランザクション種別かどうかを返す
func (tt TransactionType) Valid() bool {
	switch tt {
	case TransactionTypeCredit, TransactionTypeDebit:
		return true
	default:
		return false
	}
}
