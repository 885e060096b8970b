package transaction

import (
	"github.com/shopspring/decimal"
)

// Transaction 上流APIが返すトランザクションレコード
// CreatedAtはISO-8601文字列のまま保持し、コアでは解釈しない
// Amountは符号を制約しない（返金等で負になり得る）
type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   string          `json:"createdAt"`
}
