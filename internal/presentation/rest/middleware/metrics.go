package middleware

import (
	"time"

	otelinfra "gaamp-bff/internal/infrastructure/observability/otel"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware メトリクス記録ミドルウェア
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// リクエスト数を記録
			metrics.RecordRequest(c.Request().Context(), c.Request().Method, c.Path())

			// 次のハンドラーを実行
			err := next(c)

			// レスポンス時間を記録（秒単位）
			duration := time.Since(start).Seconds()
			metrics.RecordResponseTime(c.Request().Context(), c.Request().Method, c.Path(), duration)

			// 4xx, 5xxレスポンスはエラー数を記録
			// エラーハンドリングミドルウェアが内側で処理するため、
			// 返り値ではなくレスポンスのステータスコードで判定する
			statusCode := c.Response().Status
			if statusCode >= 400 {
				errorType := "client_error"
				if statusCode >= 500 {
					errorType = "server_error"
				}
				metrics.RecordError(c.Request().Context(), errorType)
			}

			return err
		}
	}
}
