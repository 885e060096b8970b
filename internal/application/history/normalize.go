package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"gaamp-bff/internal/domain/transaction"
)

// FieldError フィールド単位の検証診断
type FieldError struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// ValidationError ペイロード検証エラー（フィールド診断付き）
type ValidationError struct {
	Fields []FieldError
}

// Error エラーメッセージを返す
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: expected %s, got %s", f.Field, f.Expected, f.Actual)
	}
	return "payload validation failed: " + strings.Join(parts, "; ")
}

// NormalizeHistoryPayload 上流の多様なレスポンス形状をHistoryResultに正規化する
//
// 許容する形状（優先順、最初に構造が一致したものが採用される）:
//  1. {items: [...], nextCursor?}
//  2. {data: [...], nextCursor?}  — dataをitemsに読み替え
//  3. {result: [...], nextCursor?} — resultをitemsに読み替え
//  4. トランザクション配列そのもの
//  5. どのキーも持たないオブジェクト — 空の結果として扱う（上流互換のための寛容なデフォルト）
//
// 採用された形状の要素が検証に失敗した場合は、不正な要素を黙って捨てずに
// フィールドパス付きのValidationErrorを返す
func NormalizeHistoryPayload(raw json.RawMessage) (*HistoryResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &ValidationError{Fields: []FieldError{
			{Field: "(root)", Expected: "object or array", Actual: "empty payload"},
		}}
	}

	// 形状4: 配列そのもの
	if trimmed[0] == '[' {
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, &ValidationError{Fields: []FieldError{
				{Field: "(root)", Expected: "array", Actual: previewJSON(trimmed)},
			}}
		}
		items, verr := decodeTransactions(elements)
		if verr != nil {
			return nil, verr
		}
		return &HistoryResult{Items: items, NextCursor: nil}, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, &ValidationError{Fields: []FieldError{
			{Field: "(root)", Expected: "object or array", Actual: previewJSON(trimmed)},
		}}
	}

	// 形状1〜3: トップレベルキーで分岐
	for _, key := range []string{"items", "data", "result"} {
		rawItems, ok := envelope[key]
		if !ok {
			continue
		}

		var elements []json.RawMessage
		if err := json.Unmarshal(rawItems, &elements); err != nil {
			return nil, &ValidationError{Fields: []FieldError{
				{Field: key, Expected: "array", Actual: previewJSON(rawItems)},
			}}
		}

		items, verr := decodeTransactions(elements)
		if verr != nil {
			return nil, verr
		}

		cursor, cerr := decodeCursor(envelope["nextCursor"])
		if cerr != nil {
			return nil, cerr
		}

		return &HistoryResult{Items: items, NextCursor: cursor}, nil
	}

	// 形状5: 未知のオブジェクトは空の結果として扱う
	return &HistoryResult{Items: []transaction.Transaction{}, NextCursor: nil}, nil
}

// decodeCursor nextCursorフィールドをデコード（string | null | 欠落を許容）
func decodeCursor(raw json.RawMessage) (*string, *ValidationError) {
	if raw == nil || isJSONNull(raw) {
		return nil, nil
	}

	var cursor string
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return nil, &ValidationError{Fields: []FieldError{
			{Field: "nextCursor", Expected: "string or null", Actual: previewJSON(raw)},
		}}
	}
	return &cursor, nil
}

// decodeTransactions 要素列をTransactionに変換
// 失敗した要素の診断をすべて集約して返す
func decodeTransactions(elements []json.RawMessage) ([]transaction.Transaction, *ValidationError) {
	items := make([]transaction.Transaction, 0, len(elements))
	var fields []FieldError

	for i, element := range elements {
		item, errs := decodeTransaction(fmt.Sprintf("items[%d]", i), element)
		if len(errs) > 0 {
			fields = append(fields, errs...)
			continue
		}
		items = append(items, *item)
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return items, nil
}

// decodeTransaction 1要素をTransactionに変換
func decodeTransaction(path string, raw json.RawMessage) (*transaction.Transaction, []FieldError) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, []FieldError{{Field: path, Expected: "object", Actual: previewJSON(raw)}}
	}

	var fields []FieldError
	var item transaction.Transaction

	if id, ferr := requireString(path+".id", object["id"]); ferr != nil {
		fields = append(fields, *ferr)
	} else {
		item.ID = id
	}

	if typeValue, ferr := requireString(path+".type", object["type"]); ferr != nil {
		fields = append(fields, *ferr)
	} else if txnType, err := transaction.NewTransactionType(typeValue); err != nil {
		fields = append(fields, FieldError{
			Field:    path + ".type",
			Expected: "CREDIT or DEBIT",
			Actual:   strconv.Quote(typeValue),
		})
	} else {
		item.Type = txnType
	}

	if amount, ferr := requireNumber(path+".amount", object["amount"]); ferr != nil {
		fields = append(fields, *ferr)
	} else {
		item.Amount = amount
	}

	if currency, ferr := requireString(path+".currency", object["currency"]); ferr != nil {
		fields = append(fields, *ferr)
	} else {
		item.Currency = currency
	}

	// descriptionはnull許容のオプションフィールド
	if rawDescription, ok := object["description"]; ok && !isJSONNull(rawDescription) {
		if description, ferr := requireString(path+".description", rawDescription); ferr != nil {
			fields = append(fields, *ferr)
		} else {
			item.Description = &description
		}
	}

	if createdAt, ferr := requireString(path+".createdAt", object["createdAt"]); ferr != nil {
		fields = append(fields, *ferr)
	} else {
		item.CreatedAt = createdAt
	}

	if len(fields) > 0 {
		return nil, fields
	}
	return &item, nil
}

// requireString 必須の文字列フィールドをデコード
func requireString(field string, raw json.RawMessage) (string, *FieldError) {
	if raw == nil {
		return "", &FieldError{Field: field, Expected: "string", Actual: "missing"}
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", &FieldError{Field: field, Expected: "string", Actual: previewJSON(raw)}
	}
	return value, nil
}

// requireNumber 必須の数値フィールドをデコード
// JSON数値リテラルのみを許容する（文字列化された数値は不正とする）
func requireNumber(field string, raw json.RawMessage) (decimal.Decimal, *FieldError) {
	if raw == nil {
		return decimal.Zero, &FieldError{Field: field, Expected: "number", Actual: "missing"}
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		return decimal.Zero, &FieldError{Field: field, Expected: "number", Actual: previewJSON(raw)}
	}
	value, err := decimal.NewFromString(number.String())
	if err != nil {
		return decimal.Zero, &FieldError{Field: field, Expected: "number", Actual: previewJSON(raw)}
	}
	return value, nil
}

// isJSONNull JSONのnullリテラルかどうかを判定
func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// previewJSON 診断用にJSON値を短く整形する
func previewJSON(raw json.RawMessage) string {
	const maxPreview = 64
	s := string(bytes.TrimSpace(raw))
	if len(s) > maxPreview {
		s = s[:maxPreview] + "..."
	}
	return s
}
