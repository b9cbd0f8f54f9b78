package task

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"audio_classifier/internal/observability"

	"github.com/gin-gonic/gin"
)

// Upload limits mirror what the dashboard accepts: common audio container
// formats, capped at 20 MiB.
const maxUploadBytes = 20 << 20

var allowedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
}

const defaultListLimit = 20

type TaskController struct {
	service TaskServiceInterface
}

func NewTaskController(service TaskServiceInterface) *TaskController {
	return &TaskController{
		service: service,
	}
}

// UploadAudio handles a multipart audio upload: stores the blob, creates a
// pending classification task, and returns the task identifier.
func (tc *TaskController) UploadAudio(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No audio file provided"})
		return
	}

	if fileHeader.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No audio file selected"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
		return
	}

	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Audio file too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read audio file"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read audio file"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	task, err := tc.service.CreateFromUpload(filepath.Base(fileHeader.Filename), contentType, content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	observability.GlobalMetrics.TasksCreatedTotal.WithLabelValues(ext).Inc()

	c.JSON(http.StatusCreated, gin.H{
		"task_id": task.ID,
		"status":  task.Status,
		"message": "Classification task created successfully",
	})
}

// GetTask handles getting task status by ID
func (tc *TaskController) GetTask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	task, err := tc.service.GetTask(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            task.ID,
		"filename":      task.Filename,
		"status":        task.Status,
		"error_message": task.ErrorMessage,
		"created_at":    task.CreatedAt,
		"updated_at":    task.UpdatedAt,
	})
}

// ListTasks handles listing recent tasks, newest first
func (tc *TaskController) ListTasks(c *gin.Context) {
	limit := listLimit(c)

	tasks, err := tc.service.ListTasks(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// ListResults handles listing recent classification results
func (tc *TaskController) ListResults(c *gin.Context) {
	limit := listLimit(c)

	results, err := tc.service.ListResults(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get results"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// GetStats handles the genre breakdown for the dashboard header
func (tc *TaskController) GetStats(c *gin.Context) {
	stats, err := tc.service.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}

	rockPct, hiphopPct := 0.0, 0.0
	if stats.Total > 0 {
		rockPct = float64(stats.Rock) / float64(stats.Total) * 100
		hiphopPct = float64(stats.Hiphop) / float64(stats.Total) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"total":             stats.Total,
		"rock":              stats.Rock,
		"hiphop":            stats.Hiphop,
		"rock_percentage":   rockPct,
		"hiphop_percentage": hiphopPct,
	})
}

// RequeueTask handles manual re-enqueue of a failed task (admin only)
func (tc *TaskController) RequeueTask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	if err := tc.service.RequeueTask(id); err != nil {
		if errors.Is(err, ErrNotRequeueable) {
			c.JSON(http.StatusConflict, gin.H{"error": "Only failed tasks can be requeued"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id": id,
		"status":  StatusPending,
		"message": "Task requeued successfully",
	})
}

func listLimit(c *gin.Context) int {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	return limit
}
