package handler

import (
	"net/http"
	"strconv"

	historyapp "gaamp-bff/internal/application/history"

	"github.com/labstack/echo/v4"
)

// HistoryHandler 履歴関連ハンドラー
type HistoryHandler struct {
	historyService *historyapp.HistoryApplicationService
}

// NewHistoryHandler 新しいHistoryHandlerを作成
func NewHistoryHandler(historyService *historyapp.HistoryApplicationService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// GetTransactionHistory トランザクション履歴取得ハンドラー
// @Summary トランザクション履歴を取得
// @Description 上流APIからトランザクション履歴を取得し、正規化された形式で返します。カーソルベースのページネーションに対応しています
// @Tags history
// @Accept json
// @Produce json
// @Security Bearer
// @Param limit query int false "取得件数（デフォルト: 50, 最大: 200)" default(50) example(50)
// @Param cursor query string false "前回のレスポンスで返されたnextCursor" example(cur_abc)
// @Param accountId query string false "アカウントIDでフィルタ" example(acc_123)
// @Success 200 {object} HistoryResponse "履歴取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 502 {object} ErrorResponse "上流APIの障害または不正なペイロード"
// @Router /transactions/history [get]
func (h *HistoryHandler) GetTransactionHistory(c echo.Context) error {
	// トークンからuser_idを取得
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	// クエリパラメータを取得
	// 範囲チェックはアプリケーションサービス側で行う
	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit parameter")
		}
	}

	query := &historyapp.HistoryQuery{
		Limit:     limit,
		Cursor:    c.QueryParam("cursor"),
		AccountID: c.QueryParam("accountId"),
	}

	result, err := h.historyService.GetTransactionHistory(c.Request().Context(), query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, HistoryResponse{
		Items:      result.Items,
		NextCursor: result.NextCursor,
	})
}
