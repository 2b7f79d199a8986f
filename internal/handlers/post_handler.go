package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thekim123/sns-maker-hub/internal/services"
)

type PostHandler struct {
	service services.PostService
}

func NewPostHandler(service services.PostService) *PostHandler {
	return &PostHandler{service: service}
}

type postRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// Create сохраняет пост от имени залогиненного пользователя; писать за
// чужой user_id нельзя.
func (h *PostHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login_required"})
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	h.save(c, req)
}

// CreateInternal — тот же сейв, но для доверенных сервисов (воркеры,
// пайплайны публикации); авторизуется service-токеном в роутере.
func (h *PostHandler) CreateInternal(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.save(c, req)
}

func (h *PostHandler) save(c *gin.Context, req postRequest) {
	post, err := h.service.Create(c.Request.Context(), req.UserID, req.Title, req.Content)
	if err != nil {
		zap.S().Errorf("[posts][create] user_id=%s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "post_id": post.PostID})
}

func (h *PostHandler) Latest(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id_required"})
		return
	}

	post, err := h.service.Latest(c.Request.Context(), userID)
	if err != nil {
		zap.S().Errorf("[posts][latest] user_id=%s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if post == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true, "post": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "post": post})
}

func (h *PostHandler) GetByID(c *gin.Context) {
	post, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		zap.S().Errorf("[posts][get] post_id=%s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "post": post})
}
