package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// プロキシへのリクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー数
	ErrorCount metric.Int64Counter

	// 上流APIへのリクエスト数
	UpstreamRequestCount metric.Int64Counter

	// 上流APIへのリトライ数
	UpstreamRetryCount metric.Int64Counter

	// 正規化に失敗したペイロード数
	BadPayloadCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	upstreamRequestCount, err := meter.Int64Counter(
		"upstream_requests_total",
		metric.WithDescription("Total number of upstream API requests"),
	)
	if err != nil {
		return nil, err
	}

	upstreamRetryCount, err := meter.Int64Counter(
		"upstream_retries_total",
		metric.WithDescription("Total number of upstream API retries"),
	)
	if err != nil {
		return nil, err
	}

	badPayloadCount, err := meter.Int64Counter(
		"bad_payloads_total",
		metric.WithDescription("Total number of upstream payloads that failed normalization"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:         requestCount,
		ResponseTime:         responseTime,
		ErrorCount:           errorCount,
		UpstreamRequestCount: upstreamRequestCount,
		UpstreamRetryCount:   upstreamRetryCount,
		BadPayloadCount:      badPayloadCount,
	}, nil
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録（秒単位）
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}

// RecordUpstreamRequest 上流APIへのリクエストを記録
func (m *Metrics) RecordUpstreamRequest(ctx context.Context, method string) {
	m.UpstreamRequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
		),
	)
}

// RecordUpstreamRetry 上流APIへのリトライを記録
func (m *Metrics) RecordUpstreamRetry(ctx context.Context) {
	m.UpstreamRetryCount.Add(ctx, 1)
}

// RecordBadPayload 正規化に失敗したペイロードを記録
func (m *Metrics) RecordBadPayload(ctx context.Context) {
	m.BadPayloadCount.Add(ctx, 1)
}
