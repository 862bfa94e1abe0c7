package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Lee_Forum/internal/service"
)

type ThreadHandler struct {
	threads  *service.ThreadService
	channels *service.ChannelService
}

func NewThreadHandler(threads *service.ThreadService, channels *service.ChannelService) *ThreadHandler {
	return &ThreadHandler{threads: threads, channels: channels}
}

type CreateThreadReq struct {
	Title    string             `json:"title" binding:"required"`
	Body     *string            `json:"body"`
	ImageURL string             `json:"image_url"`
	Poll     *service.PollInput `json:"poll"`
}

// Create POST /channels/:id/threads
func (h *ThreadHandler) Create(c *gin.Context) {
	channelID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CreateThreadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	t, err := h.threads.CreateThread(c.Request.Context(), principal(c), service.ThreadInput{
		ChannelID: channelID,
		Title:     req.Title,
		Body:      req.Body,
		ImageURL:  req.ImageURL,
		Poll:      req.Poll,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 0, "thread": t})
}

// List ?sort=popular 按点赞数，否则按编号倒序；置顶帖始终在前
func (h *ThreadHandler) List(c *gin.Context) {
	channelID, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.threads.ListThreads(c.Request.Context(), principal(c), channelID, c.Query("sort") == "popular")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}

// Get GET /c/:slug/t/:number
func (h *ThreadHandler) Get(c *gin.Context) {
	number, err := strconv.ParseInt(c.Param("number"), 10, 64)
	if err != nil || number <= 0 {
		badRequest(c, "invalid thread number")
		return
	}
	v, err := h.threads.GetThread(c.Request.Context(), principal(c), c.Param("slug"), number)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "thread": v})
}

func (h *ThreadHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.ThreadPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	t, err := h.threads.UpdateThread(c.Request.Context(), principal(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "thread": t})
}

func (h *ThreadHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.threads.DeleteThread(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "deleted"})
}

type StickyReq struct {
	Sticky bool `json:"sticky"`
}

func (h *ThreadHandler) SetSticky(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req StickyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	ch, err := h.channels.SetSticky(c.Request.Context(), principal(c), id, req.Sticky)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "sticky_posts": ch.StickyPosts})
}
