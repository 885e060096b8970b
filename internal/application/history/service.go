package history

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gaamp-bff/internal/infrastructure/backend"
	otelinfra "gaamp-bff/internal/infrastructure/observability/otel"
)

// historyPath 上流のトランザクション履歴リソースパス
const historyPath = "/api/v1/transactions/history"

const (
	defaultLimit = 50
	minLimit     = 1
	maxLimit     = 200

	// historyRetries 一時的な障害に対する自動リトライ回数
	historyRetries = 1
)

// HistoryApplicationService 履歴アプリケーションサービス
type HistoryApplicationService struct {
	client  backend.Requester
	logger  *otelinfra.Logger
	metrics *otelinfra.Metrics
	tracer  trace.Tracer
}

// NewHistoryApplicationService 新しいHistoryApplicationServiceを作成
func NewHistoryApplicationService(
	client backend.Requester,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *HistoryApplicationService {
	return &HistoryApplicationService{
		client:  client,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("history-service"),
	}
}

// GetTransactionHistory トランザクション履歴を取得
// パイプラインは validate → fetch(リトライ付き) → normalize の直列処理で、
// クエリ検証に失敗した場合はネットワーク呼び出しを行わずにエラーを返す
func (s *HistoryApplicationService) GetTransactionHistory(ctx context.Context, query *HistoryQuery) (*HistoryResult, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetTransactionHistory")
	defer span.End()

	if query == nil {
		query = &HistoryQuery{}
	}
	params := *query

	// バリデーション
	if params.Limit == 0 {
		params.Limit = defaultLimit
	}
	if params.Limit < minLimit || params.Limit > maxLimit {
		s.logger.Warn(ctx, "Invalid history query", map[string]interface{}{
			"limit": params.Limit,
		})
		return nil, &backend.APIError{
			Message: fmt.Sprintf("limit must be between %d and %d", minLimit, maxLimit),
			Status:  http.StatusBadRequest,
			Code:    "INVALID_QUERY",
			Details: []FieldError{{
				Field:    "limit",
				Expected: fmt.Sprintf("integer in [%d,%d]", minLimit, maxLimit),
				Actual:   strconv.Itoa(params.Limit),
			}},
		}
	}

	span.SetAttributes(
		attribute.Int("limit", params.Limit),
		attribute.String("account_id", params.AccountID),
	)

	s.logger.Info(ctx, "Getting transaction history", map[string]interface{}{
		"limit":      params.Limit,
		"cursor":     params.Cursor,
		"account_id": params.AccountID,
	})

	// 未指定のパラメータはクエリ文字列から省略する
	requestQuery := map[string]interface{}{
		"limit": params.Limit,
	}
	if params.Cursor != "" {
		requestQuery["cursor"] = params.Cursor
	}
	if params.AccountID != "" {
		requestQuery["accountId"] = params.AccountID
	}

	raw, err := s.client.Request(ctx, backend.RequestOptions{
		Path:    historyPath,
		Method:  http.MethodGet,
		Query:   requestQuery,
		Retries: historyRetries,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to fetch transaction history", err, map[string]interface{}{
			"limit": params.Limit,
		})
		return nil, err
	}

	result, err := NormalizeHistoryPayload(raw)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			s.metrics.RecordBadPayload(ctx)
			// 上流が何を返したのか調査できるように生ペイロードも記録する
			s.logger.Error(ctx, "History API returned unexpected payload", err, map[string]interface{}{
				"payload": string(raw),
			})
			return nil, &backend.APIError{
				Message: "bad payload from history endpoint",
				Status:  http.StatusBadGateway,
				Code:    "BAD_PAYLOAD",
				Details: validationErr.Fields,
			}
		}
		return nil, err
	}

	s.metrics.RecordRequest(ctx, http.MethodGet, historyPath)

	return result, nil
}
