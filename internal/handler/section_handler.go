package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/ordering"
	"Lee_Forum/internal/service"
)

type SectionHandler struct {
	svc *service.SectionService
}

func NewSectionHandler(svc *service.SectionService) *SectionHandler {
	return &SectionHandler{svc: svc}
}

// List ?status=draft|live，缺省返回全部
func (h *SectionHandler) List(c *gin.Context) {
	status := model.SectionStatus(c.Query("status"))
	if status != "" && status != model.SectionDraft && status != model.SectionLive {
		badRequest(c, "invalid status")
		return
	}
	list, err := h.svc.ListSections(c.Request.Context(), status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}

func (h *SectionHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s, err := h.svc.GetSection(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "section": s})
}

func (h *SectionHandler) Create(c *gin.Context) {
	var req service.SectionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	s, err := h.svc.CreateSection(c.Request.Context(), principal(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 0, "section": s})
}

func (h *SectionHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.SectionPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	s, err := h.svc.UpdateSection(c.Request.Context(), principal(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "section": s})
}

func (h *SectionHandler) ToggleStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s, err := h.svc.ToggleStatus(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "section": s})
}

type ReorderReq struct {
	Items []ordering.Item `json:"items" binding:"required"`
}

func (h *SectionHandler) Reorder(c *gin.Context) {
	var req ReorderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	if err := h.svc.ReorderSections(c.Request.Context(), principal(c), req.Items); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0})
}

// Publish live 分区重排为 1..N
func (h *SectionHandler) Publish(c *gin.Context) {
	list, err := h.svc.PublishSections(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}

func (h *SectionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteSection(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "deleted"})
}
