package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"gaamp-bff/internal/infrastructure/backend"
	"gaamp-bff/internal/infrastructure/config"
	otelinfra "gaamp-bff/internal/infrastructure/observability/otel"
)

// AuthMiddleware セッションJWT認証ミドルウェア
// 検証に成功するとuser_idをechoコンテキストに設定し、セッションに含まれる
// 上流APIのアクセストークン（access_tokenクレーム）をリクエストコンテキストに
// 保存する。トークンはSessionTokenSource経由で上流リクエストに付与される
func AuthMiddleware(cfg *config.SessionConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			// Authorizationヘッダーからセッショントークンを取得
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn(ctx, "Missing authorization header", nil)
				return c.JSON(401, ErrorResponse{
					Error:   "unauthorized",
					Message: "Missing authorization header",
				})
			}

			// Bearerトークンの形式を確認
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Warn(ctx, "Invalid authorization header format", nil)
				return c.JSON(401, ErrorResponse{
					Error:   "unauthorized",
					Message: "Invalid authorization header format",
				})
			}

			tokenString := parts[1]

			// セッションJWTの検証
			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				// 署名アルゴリズムの確認
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(cfg.Secret), nil
			})

			if err != nil || !token.Valid {
				logger.Warn(ctx, "Invalid session token", map[string]interface{}{
					"error": err,
				})
				return c.JSON(401, ErrorResponse{
					Error:   "unauthorized",
					Message: "Invalid or expired session token",
				})
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Warn(ctx, "Invalid token claims", nil)
				return c.JSON(401, ErrorResponse{
					Error:   "unauthorized",
					Message: "Invalid token claims",
				})
			}

			userID, ok := claims["user_id"].(string)
			if !ok || userID == "" {
				logger.Warn(ctx, "Missing user_id in token claims", nil)
				return c.JSON(401, ErrorResponse{
					Error:   "unauthorized",
					Message: "Missing user_id in token",
				})
			}

			c.Set("user_id", userID)

			// 上流APIのアクセストークンはセッションに含まれていれば引き継ぐ
			// （含まれない場合、上流リクエストはAuthorizationヘッダーなしで発行される）
			if accessToken, ok := claims["access_token"].(string); ok && accessToken != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(backend.WithAccessToken(req.Context(), accessToken)))
			}

			return next(c)
		}
	}
}
