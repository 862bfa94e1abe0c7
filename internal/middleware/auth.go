package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg"
	"Lee_Forum/internal/pkg/logger"
)

// ContextPrincipalKey 外部主体 key，匿名请求不设置
const ContextPrincipalKey = "principal"

// UserSyncer 首次见到主体时建用户，之后同步名字和邮箱
type UserSyncer interface {
	EnsureUser(ctx context.Context, principal, displayName, email string) (*model.User, error)
}

var errNoToken = errors.New("missing authorization header")

func bearer(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errNoToken
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("invalid authorization format")
	}
	return parts[1], nil
}

func authenticate(c *gin.Context, v *pkg.TokenVerifier, users UserSyncer, required bool) {
	tokenStr, err := bearer(c)
	if errors.Is(err, errNoToken) && !required {
		c.Next()
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHENTICATED", "msg": err.Error()})
		return
	}

	claims, err := v.Parse(tokenStr)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHENTICATED", "msg": "invalid or expired token"})
		return
	}

	if _, err := users.EnsureUser(c.Request.Context(), claims.Subject, claims.Name, claims.Email); err != nil {
		logger.Error("sync user failed", zap.String("principal", claims.Subject), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": "UNKNOWN", "msg": "sync user failed"})
		return
	}

	c.Set(ContextPrincipalKey, claims.Subject)
	c.Next()
}

// AuthMiddleware 必须携带有效令牌
func AuthMiddleware(v *pkg.TokenVerifier, users UserSyncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, v, users, true)
	}
}

// OptionalAuth 读接口使用：没有令牌按匿名处理，令牌无效仍然拒绝
func OptionalAuth(v *pkg.TokenVerifier, users UserSyncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, v, users, false)
	}
}
