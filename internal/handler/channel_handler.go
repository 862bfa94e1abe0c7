package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Lee_Forum/internal/service"
)

type ChannelHandler struct {
	svc *service.ChannelService
}

func NewChannelHandler(svc *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{svc: svc}
}

// List ?section_id=<id>|none，不传则返回全部；?hidden=1 需要 staff
func (h *ChannelHandler) List(c *gin.Context) {
	var f service.ChannelFilter
	switch sid := c.Query("section_id"); sid {
	case "":
		f.AllSections = true
	case "none":
	default:
		id, err := strconv.ParseUint(sid, 10, 64)
		if err != nil {
			badRequest(c, "invalid section_id")
			return
		}
		f.SectionID = &id
	}
	f.IncludeHidden = c.Query("hidden") == "1"

	list, err := h.svc.ListChannels(c.Request.Context(), principal(c), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}

func (h *ChannelHandler) GetBySlug(c *gin.Context) {
	ch, err := h.svc.GetChannelBySlug(c.Request.Context(), principal(c), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "channel": ch})
}

func (h *ChannelHandler) Create(c *gin.Context) {
	var req service.ChannelInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	ch, err := h.svc.CreateChannel(c.Request.Context(), principal(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 0, "channel": ch})
}

func (h *ChannelHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.ChannelPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	ch, err := h.svc.UpdateChannel(c.Request.Context(), principal(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "channel": ch})
}

type MoveChannelReq struct {
	SectionID *uint64 `json:"section_id"` // null 表示移出分区
}

func (h *ChannelHandler) Move(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req MoveChannelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	ch, err := h.svc.MoveChannel(c.Request.Context(), principal(c), id, req.SectionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "channel": ch})
}

func (h *ChannelHandler) Reorder(c *gin.Context) {
	var req ReorderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	if err := h.svc.ReorderChannels(c.Request.Context(), principal(c), req.Items); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0})
}

func (h *ChannelHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteChannel(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "deleted"})
}
