package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Lee_Forum/internal/service"
)

type ReactionHandler struct {
	svc *service.ReactionService
}

func NewReactionHandler(svc *service.ReactionService) *ReactionHandler {
	return &ReactionHandler{svc: svc}
}

// ToggleLike POST /comments/:id/like
func (h *ReactionHandler) ToggleLike(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	liked, err := h.svc.ToggleLike(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "liked": liked})
}

// ToggleUpvote POST /threads/:id/upvote
func (h *ReactionHandler) ToggleUpvote(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	upvoted, err := h.svc.ToggleUpvote(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "upvoted": upvoted})
}

// Summary GET /reactions/:target/:id，登录时附带自己是否点过
func (h *ReactionHandler) Summary(c *gin.Context) {
	t, ok := service.ParseTarget(c.Param("target"))
	if !ok {
		badRequest(c, "invalid target")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	count, err := h.svc.ReactionCount(ctx, t, id)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := gin.H{"code": 0, "count": count}
	if p := principal(c); p != "" {
		reacted, err := h.svc.HasReacted(ctx, p, t, id)
		if err != nil {
			writeError(c, err)
			return
		}
		resp["reacted"] = reacted
	}
	c.JSON(http.StatusOK, resp)
}
