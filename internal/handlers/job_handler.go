package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thekim123/sns-maker-hub/internal/models"
	"github.com/thekim123/sns-maker-hub/internal/services"
)

type JobHandler struct {
	service services.JobService
}

func NewJobHandler(service services.JobService) *JobHandler {
	return &JobHandler{service: service}
}

// @Summary      Поставить задачу в очередь
// @Description  Создаёт job в состоянии queued; payload для хаба непрозрачен
// @Tags         Jobs
// @Accept       json
// @Produce      json
// @Param        job  body      object  true  "user_id и payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]string
// @Router       /jobs [post]
func (h *JobHandler) Create(c *gin.Context) {
	var req struct {
		UserID  string          `json:"user_id" binding:"required"`
		Payload json.RawMessage `json:"payload" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.service.Enqueue(c.Request.Context(), req.UserID, req.Payload)
	if err != nil {
		if errors.Is(err, services.ErrNotRegistered) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not_registered"})
			return
		}
		zap.S().Errorf("[jobs][create] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "job_id": jobID})
}

// @Summary      Забрать следующую задачу
// @Description  Атомарно переводит старейший queued job в processing; пустая очередь — job:null
// @Tags         Jobs
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /jobs/next [get]
func (h *JobHandler) Next(c *gin.Context) {
	claim, err := h.service.ClaimNext(c.Request.Context())
	if err != nil {
		// Fail closed: если стор не смог гарантировать атомарность —
		// никакого job, только ошибка.
		zap.S().Errorf("[jobs][claim] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if claim == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true, "job": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "job": claim})
}

// @Summary      Сдать результат задачи
// @Tags         Jobs
// @Accept       json
// @Produce      json
// @Param        id      path      string  true  "job id"
// @Param        result  body      object  true  "result и флаг failed"
// @Success      200     {object}  map[string]interface{}
// @Failure      404     {object}  map[string]string
// @Failure      409     {object}  map[string]string
// @Router       /jobs/{id}/result [post]
func (h *JobHandler) SubmitResult(c *gin.Context) {
	jobID := c.Param("id")

	var req struct {
		Result json.RawMessage `json:"result" binding:"required"`
		Failed bool            `json:"failed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// result может прийти и строкой, и произвольным JSON — храним текст.
	result := string(req.Result)
	var s string
	if err := json.Unmarshal(req.Result, &s); err == nil {
		result = s
	}

	err := h.service.SubmitResult(c.Request.Context(), jobID, result, req.Failed)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, services.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, services.ErrJobNotProcessing):
		c.JSON(http.StatusConflict, gin.H{"error": "not_processing"})
	default:
		zap.S().Errorf("[jobs][result] job_id=%s: %v", jobID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

// @Summary      Статус задачи
// @Tags         Jobs
// @Produce      json
// @Param        id   path      string  true  "job id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /jobs/{id} [get]
func (h *JobHandler) GetStatus(c *gin.Context) {
	job, err := h.service.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		zap.S().Errorf("[jobs][status] job_id=%s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	body := gin.H{
		"job_id":     job.JobID,
		"user_id":    job.UserID,
		"status":     job.Status,
		"created_at": job.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at": job.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if job.Status == models.JobDone || job.Status == models.JobFailed {
		body["result"] = job.Result
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "job": body})
}
