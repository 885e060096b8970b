package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	historyapp "gaamp-bff/internal/application/history"
	"gaamp-bff/internal/infrastructure/backend"
	otelinfra "gaamp-bff/internal/infrastructure/observability/otel"
	restmiddleware "gaamp-bff/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestHistoryHandler_GetTransactionHistory(t *testing.T) {
	tests := []struct {
		name             string
		tokenUserID      string
		queryParams      map[string]string
		setupMock        func(*MockRequester)
		expectedStatus   int
		validateResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "正常系: 履歴取得成功",
			tokenUserID: "user123",
			queryParams: map[string]string{},
			setupMock: func(mr *MockRequester) {
				payload := json.RawMessage(`{
					"items": [
						{"id": "txn1", "type": "CREDIT", "amount": 100.5, "currency": "USD", "createdAt": "2024-01-01T12:00:00Z"},
						{"id": "txn2", "type": "DEBIT", "amount": -4.5, "currency": "USD", "description": "Coffee", "createdAt": "2024-01-02T12:00:00Z"}
					],
					"nextCursor": "cur_abc"
				}`)
				mr.On("Request", mock.Anything, mock.Anything).Return(payload, nil)
			},
			expectedStatus: http.StatusOK,
			validateResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var response map[string]interface{}
				err := json.Unmarshal(rec.Body.Bytes(), &response)
				require.NoError(t, err)
				assert.Contains(t, response, "items")
				assert.Contains(t, response, "nextCursor")
				items := response["items"].([]interface{})
				assert.Len(t, items, 2)
				assert.Equal(t, "cur_abc", response["nextCursor"])
				first := items[0].(map[string]interface{})
				assert.Equal(t, "txn1", first["id"])
				assert.Equal(t, "CREDIT", first["type"])
				assert.Equal(t, "100.5", first["amount"])
			},
		},
		{
			name:        "正常系: limitとcursorを指定",
			tokenUserID: "user123",
			queryParams: map[string]string{
				"limit":  "10",
				"cursor": "cur_prev",
			},
			setupMock: func(mr *MockRequester) {
				mr.On("Request", mock.Anything, mock.MatchedBy(func(opts backend.RequestOptions) bool {
					return opts.Query["limit"] == 10 && opts.Query["cursor"] == "cur_prev"
				})).Return(json.RawMessage(`{"items": []}`), nil)
			},
			expectedStatus: http.StatusOK,
			validateResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var response map[string]interface{}
				err := json.Unmarshal(rec.Body.Bytes(), &response)
				require.NoError(t, err)
				assert.Empty(t, response["items"])
				assert.Nil(t, response["nextCursor"])
			},
		},
		{
			name:           "異常系: トークンにuser_idがない",
			tokenUserID:    "",
			queryParams:    map[string]string{},
			setupMock:      func(mr *MockRequester) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:        "異常系: 無効なlimit（文字列）",
			tokenUserID: "user123",
			queryParams: map[string]string{
				"limit": "invalid",
			},
			setupMock:      func(mr *MockRequester) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "異常系: 無効なlimit（範囲外）",
			tokenUserID: "user123",
			queryParams: map[string]string{
				"limit": "201",
			},
			setupMock:      func(mr *MockRequester) {},
			expectedStatus: http.StatusBadRequest,
			validateResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var response map[string]interface{}
				err := json.Unmarshal(rec.Body.Bytes(), &response)
				require.NoError(t, err)
				assert.Equal(t, "INVALID_QUERY", response["code"])
			},
		},
		{
			name:        "異常系: 上流が不正なペイロードを返す",
			tokenUserID: "user123",
			queryParams: map[string]string{},
			setupMock: func(mr *MockRequester) {
				payload := json.RawMessage(`{"items": [{"id": "txn1", "type": "XFER", "amount": 100, "currency": "USD", "createdAt": "2024-01-01T12:00:00Z"}]}`)
				mr.On("Request", mock.Anything, mock.Anything).Return(payload, nil)
			},
			expectedStatus: http.StatusBadGateway,
			validateResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var response map[string]interface{}
				err := json.Unmarshal(rec.Body.Bytes(), &response)
				require.NoError(t, err)
				assert.Equal(t, "BAD_PAYLOAD", response["code"])
				assert.NotEmpty(t, response["details"])
			},
		},
		{
			name:        "異常系: 上流エラーの伝播",
			tokenUserID: "user123",
			queryParams: map[string]string{},
			setupMock: func(mr *MockRequester) {
				mr.On("Request", mock.Anything, mock.Anything).Return(nil, &backend.APIError{
					Message: "Service Unavailable",
					Status:  503,
				})
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			mockRequester := new(MockRequester)
			tracer := noop.NewTracerProvider().Tracer("test")
			logger := otelinfra.NewLogger(tracer)
			metrics, _ := otelinfra.NewMetrics("test")

			tt.setupMock(mockRequester)

			appService := historyapp.NewHistoryApplicationService(
				mockRequester,
				logger,
				metrics,
			)

			handler := NewHistoryHandler(appService)

			req := httptest.NewRequest(http.MethodGet, "/api/transactions/history", nil)
			q := req.URL.Query()
			for k, v := range tt.queryParams {
				q.Add(k, v)
			}
			req.URL.RawQuery = q.Encode()

			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.tokenUserID != "" {
				c.Set("user_id", tt.tokenUserID)
			}

			// エラーハンドリングミドルウェアを手動で実行
			middlewareFunc := restmiddleware.ErrorHandlerMiddleware(logger)
			handlerFunc := middlewareFunc(func(c echo.Context) error {
				return handler.GetTransactionHistory(c)
			})
			err := handlerFunc(c)
			if err != nil {
				e.HTTPErrorHandler(err, c)
			}
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.validateResponse != nil {
				tt.validateResponse(t, rec)
			}
		})
	}
}
