package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	otelinfra "gaamp-bff/internal/infrastructure/observability/otel"
)

const (
	// defaultTimeout 1試行あたりのデフォルトタイムアウト
	defaultTimeout = 10 * time.Second

	// retryBackoffStep リトライ待機時間の基準値（試行回数に比例して伸びる）
	retryBackoffStep = 300 * time.Millisecond
)

// RequestOptions リクエスト設定
type RequestOptions struct {
	Path    string                 // リソースパス（必須、ベースURL相対）
	Method  string                 // HTTPメソッド（デフォルト: GET）
	Query   map[string]interface{} // クエリパラメータ（nil値のエントリは省略される）
	Body    interface{}            // リクエストボディ（非nilの場合JSONエンコードされる）
	Headers map[string]string      // 追加・上書きヘッダー
	Timeout time.Duration          // 1試行あたりのタイムアウト（デフォルト: 10秒）
	Retries int                    // 一時的な障害に対する自動リトライ回数（デフォルト: 0）
}

// Requester バックエンドAPIへのリクエスト実行インターフェース
type Requester interface {
	Request(ctx context.Context, opts RequestOptions) (json.RawMessage, error)
}

// Client 上流APIへのHTTPクライアント
// タイムアウト・リトライ・Bearerトークン付与を担う
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokenSource TokenSource
	logger      *otelinfra.Logger
	metrics     *otelinfra.Metrics
	tracer      trace.Tracer
}

// NewClient 新しいClientを作成
func NewClient(baseURL string, tokenSource TokenSource, logger *otelinfra.Logger, metrics *otelinfra.Metrics) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		tokenSource: tokenSource,
		logger:      logger,
		metrics:     metrics,
		tracer:      otel.Tracer("backend-client"),
	}
}

// Request リクエストを実行してJSONボディを返す
// 空ボディの場合はnilを返す。非2xxレスポンスや通信失敗はAPIErrorとして返す
// レスポンス未受信（Status 0）と502/503/504のみリトライ対象とする
func (c *Client) Request(ctx context.Context, opts RequestOptions) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "Client.Request")
	defer span.End()

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}

	requestURL, err := c.buildURL(opts.Path, opts.Query)
	if err != nil {
		return nil, &APIError{
			Message: fmt.Sprintf("invalid request path: %v", err),
			Status:  0,
			Code:    "INVALID_REQUEST",
		}
	}

	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", requestURL),
		attribute.Int("retries", retries),
	)

	var payload []byte
	if opts.Body != nil {
		payload, err = json.Marshal(opts.Body)
		if err != nil {
			return nil, &APIError{
				Message: fmt.Sprintf("failed to encode request body: %v", err),
				Status:  0,
				Code:    "INVALID_REQUEST",
			}
		}
	}

	var result json.RawMessage

	operation := func() error {
		body, attemptErr := c.doAttempt(ctx, method, requestURL, payload, opts.Headers, timeout)
		if attemptErr != nil {
			if !isTransient(attemptErr) {
				return backoff.Permanent(attemptErr)
			}
			return attemptErr
		}
		result = body
		return nil
	}

	notify := func(err error, delay time.Duration) {
		c.metrics.RecordUpstreamRetry(ctx)
		c.logger.Warn(ctx, "Retrying backend request", map[string]interface{}{
			"method":   method,
			"url":      requestURL,
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		})
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newLinearBackOff(retryBackoffStep), uint64(retries)),
		ctx,
	)

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		apiErr, ok := AsAPIError(err)
		if !ok {
			apiErr = &APIError{Message: "network error", Status: 0}
		}
		return nil, apiErr
	}

	return result, nil
}

// buildURL ベースURLとパスからリクエストURLを構築
// スラッシュの重複・欠落を防ぎ、nil値のクエリパラメータは省略する
func (c *Client) buildURL(path string, query map[string]interface{}) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}

	if len(query) > 0 {
		q := u.Query()
		for key, value := range query {
			if value == nil {
				continue
			}
			q.Set(key, fmt.Sprint(value))
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// doAttempt 1回のHTTP試行を実行
// タイムアウトは試行ごとにコンテキストで管理され、全ての終了経路でタイマーが解放される
func (c *Client) doAttempt(ctx context.Context, method, requestURL string, payload []byte, headers map[string]string, timeout time.Duration) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, requestURL, bodyReader)
	if err != nil {
		return nil, &APIError{
			Message: fmt.Sprintf("failed to build request: %v", err),
			Status:  0,
		}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokenSource != nil {
		if token, ok := c.tokenSource.AccessToken(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	c.metrics.RecordUpstreamRequest(ctx, method)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		message := "network error: " + err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			message = "request timed out"
		}
		return nil, &APIError{Message: message, Status: 0}
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Message: "failed to read response body: " + err.Error(), Status: 0}
	}

	var decoded json.RawMessage
	if len(bytes.TrimSpace(text)) > 0 {
		if !json.Valid(text) {
			return nil, &APIError{Message: "invalid JSON in response body", Status: 0}
		}
		decoded = json.RawMessage(text)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newErrorFromResponse(resp.StatusCode, decoded)
	}

	return decoded, nil
}

// newErrorFromResponse 非2xxレスポンスからAPIErrorを構築
// ボディのmessage/codeフィールドを優先し、なければHTTPステータステキストを使用する
func newErrorFromResponse(status int, body json.RawMessage) *APIError {
	apiErr := &APIError{
		Message: http.StatusText(status),
		Status:  status,
	}

	if body != nil {
		apiErr.Details = body

		var envelope struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil {
			if envelope.Message != "" {
				apiErr.Message = envelope.Message
			}
			apiErr.Code = envelope.Code
		}
	}

	return apiErr
}

// isTransient 一時的な障害（リトライ可能）かどうかを判定
// レスポンス未受信（Status 0）と502/503/504のみが対象
func isTransient(err error) bool {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return false
	}
	switch apiErr.Status {
	case 0, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// linearBackOff 試行回数に比例して待機時間が伸びるBackOff実装
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func newLinearBackOff(step time.Duration) *linearBackOff {
	return &linearBackOff{step: step}
}

// NextBackOff 次の待機時間を返す（step × 試行回数）
func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

// Reset 試行回数をリセット
func (b *linearBackOff) Reset() {
	b.attempt = 0
}
