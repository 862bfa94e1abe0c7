package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Lee_Forum/internal/service"
)

type CommentHandler struct {
	svc *service.CommentService
}

func NewCommentHandler(svc *service.CommentService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

type CommentReq struct {
	Body string `json:"body" binding:"required"`
}

// Create POST /threads/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	threadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	cm, err := h.svc.CreateComment(c.Request.Context(), principal(c), threadID, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 0, "comment": cm})
}

func (h *CommentHandler) List(c *gin.Context) {
	threadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListComments(c.Request.Context(), principal(c), threadID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}

func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	cm, err := h.svc.UpdateComment(c.Request.Context(), principal(c), id, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "comment": cm})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteComment(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "deleted"})
}
