package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/middleware"
	"Lee_Forum/internal/pkg/logger"
)

// writeError 领域错误类型 -> HTTP 状态码，未知错误一律 500 且不回显细节
func writeError(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": apperr.KindUnknown, "msg": "internal error"})
		return
	}
	status := http.StatusInternalServerError
	switch e.Kind {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnauthenticated:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindInvalid:
		status = http.StatusBadRequest
	}
	body := gin.H{"code": e.Kind, "msg": e.Message}
	if e.Field != "" {
		body["field"] = e.Field
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": apperr.KindInvalid, "msg": msg})
}

// principal 未登录时为空串，交给 service 判断
func principal(c *gin.Context) string {
	return c.GetString(middleware.ContextPrincipalKey)
}

func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
