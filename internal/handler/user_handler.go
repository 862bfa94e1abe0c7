package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/service"
)

type UserHandler struct {
	svc *service.IdentityService
}

func NewUserHandler(svc *service.IdentityService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me 当前登录用户
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.svc.RequireUser(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "user": u})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req service.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), principal(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "user": u})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "user": u.Summary()})
}

type SetRoleReq struct {
	Role model.Role `json:"role" binding:"required"`
}

// SetRole 只有 admin 可以调用
func (h *UserHandler) SetRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req SetRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	u, err := h.svc.SetRole(c.Request.Context(), principal(c), id, req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "user": u})
}
