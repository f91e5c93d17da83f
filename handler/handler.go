package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"ytcbow/model"
	"ytcbow/store"

	"github.com/gin-gonic/gin"
)

// CrawlRequester enqueues a channel crawl and returns the request id.
type CrawlRequester interface {
	RequestCrawl(channelID string, comments bool) (string, error)
}

// Handler serves stored crawl records.
type Handler struct {
	store     store.Store
	requester CrawlRequester
}

func New(st store.Store, requester CrawlRequester) *Handler {
	return &Handler{store: st, requester: requester}
}

func (h *Handler) GetChannel(c *gin.Context) {
	id := c.Param("id")
	log.Printf("[INFO] GetChannel called with id: %s", id)

	var channel model.Channel
	if !h.restore(c, store.CategoryChannels, id, &channel) {
		return
	}
	c.JSON(http.StatusOK, channel)
}

func (h *Handler) GetVideo(c *gin.Context) {
	id := c.Param("id")
	log.Printf("[INFO] GetVideo called with id: %s", id)

	var video model.Video
	if !h.restore(c, store.CategoryVideos, id, &video) {
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *Handler) ListVideos(c *gin.Context) {
	ids, err := h.store.List(c.Request.Context(), store.CategoryVideos)
	if err != nil {
		log.Printf("[ERROR] ListVideos failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"videos": ids, "total": len(ids)})
}

// GetComments pages through a video's stored comment threads.
func (h *Handler) GetComments(c *gin.Context) {
	id := c.Param("id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		log.Printf("[WARN] Invalid limit %d, using 50", limit)
		limit = 50
	}
	log.Printf("[INFO] GetComments called with id: %s, page: %d, limit: %d", id, page, limit)

	var video model.Video
	if !h.restore(c, store.CategoryVideos, id, &video) {
		return
	}

	total := len(video.CommentsThreads)
	start := total
	if page-1 <= total/limit {
		start = min((page-1)*limit, total)
	}
	end := min(start+limit, total)
	comments := video.CommentsThreads[start:end]
	if comments == nil {
		comments = []model.Comment{}
	}

	c.JSON(http.StatusOK, gin.H{
		"videoId":  id,
		"comments": comments,
		"page":     page,
		"limit":    limit,
		"total":    total,
	})
}

func (h *Handler) TriggerCrawl(c *gin.Context) {
	channelID := c.Param("channelId")
	comments := c.DefaultQuery("comments", "true") != "false"
	log.Printf("[INFO] TriggerCrawl called with channelId: %s, comments: %v", channelID, comments)

	if h.requester == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "crawl queue unavailable"})
		return
	}
	requestID, err := h.requester.RequestCrawl(channelID, comments)
	if err != nil {
		log.Printf("[ERROR] TriggerCrawl failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"channelId": channelID, "requestId": requestID})
}

func (h *Handler) restore(c *gin.Context, category, id string, v any) bool {
	err := h.store.Restore(c.Request.Context(), category, id, v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, store.ErrNotFound):
		log.Printf("[WARN] %s/%s not found", category, id)
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		log.Printf("[ERROR] Restore %s/%s failed: %v", category, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
	return false
}
