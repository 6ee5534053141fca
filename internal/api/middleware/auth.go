package middleware

import (
	"Ripple/internal/pkg/redis"
	"Ripple/internal/pkg/response"
	"Ripple/internal/pkg/security"
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := AuthenticateToken(c.Request.Context(), tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, err.Error())
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("roles", claims.Roles)

		newCtx := context.WithValue(c.Request.Context(), "user_id", claims.UserID)
		c.Request = c.Request.WithContext(newCtx)

		c.Next()
	}
}

// AuthenticateToken 校验 token 有效性并检查黑名单，供中间件与长连接握手共用
func AuthenticateToken(ctx context.Context, tokenString string) (*security.UserClaims, error) {
	signature, err := security.ExtractSignature(tokenString)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	value, err := redis.GetValue(ctx, signature)
	if err != nil {
		return nil, err
	}
	if value != "" {
		return nil, ErrTokenRevoked
	}

	claims, err := security.ValidateToken(tokenString)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
