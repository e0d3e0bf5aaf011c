package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskwise-dev/taskwise/db"
	"github.com/taskwise-dev/taskwise/internal/httperr"
	"github.com/taskwise-dev/taskwise/internal/models"
	"github.com/taskwise-dev/taskwise/internal/utils"
	"gorm.io/gorm"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 1000
)

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type TaskResponse struct {
	ID          uint      `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func taskResponse(task models.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// authorizeOwner rejects requests whose path owner differs from the
// authenticated caller. Returns the owner ID and whether to proceed.
func authorizeOwner(ctx *gin.Context) (string, bool) {
	currentUserID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		httperr.Unauthorized(ctx, "User not authenticated")
		return "", false
	}

	pathUserID := ctx.Param("user_id")

	if pathUserID != currentUserID {
		httperr.Forbidden(ctx, "Not authorized to access this resource")
		return "", false
	}

	return currentUserID, true
}

func taskIDParam(ctx *gin.Context) (uint, bool) {
	raw := ctx.Param("task_id")

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		httperr.Validation(ctx, "Invalid task ID", map[string]interface{}{"task_id": raw})
		return 0, false
	}

	return uint(id), true
}

func ListTasks(ctx *gin.Context) {
	userID, ok := authorizeOwner(ctx)

	if !ok {
		return
	}

	var tasks []models.Task

	if err := db.DB.Where("user_id = ?", userID).Order("created_at").Find(&tasks).Error; err != nil {
		httperr.Internal(ctx, "Failed to retrieve tasks")
		return
	}

	response := make([]TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		response = append(response, taskResponse(task))
	}

	ctx.JSON(http.StatusOK, response)
}

func CreateTask(ctx *gin.Context) {
	userID, ok := authorizeOwner(ctx)

	if !ok {
		return
	}

	var req CreateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		httperr.Validation(ctx, "Invalid request", map[string]interface{}{"reason": err.Error()})
		return
	}

	title := strings.TrimSpace(req.Title)

	if title == "" {
		httperr.Validation(ctx, "Task title cannot be empty", nil)
		return
	}

	if len(title) > maxTitleLength {
		httperr.Validation(ctx, "Task title cannot exceed 255 characters", nil)
		return
	}

	if len(req.Description) > maxDescriptionLength {
		httperr.Validation(ctx, "Task description cannot exceed 1000 characters", nil)
		return
	}

	var description *string

	if trimmed := strings.TrimSpace(req.Description); trimmed != "" {
		description = &trimmed
	}

	task := models.Task{
		Title:       title,
		Description: description,
		UserID:      userID,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		httperr.Internal(ctx, "Failed to create task")
		return
	}

	ctx.JSON(http.StatusCreated, taskResponse(task))
}

func UpdateTask(ctx *gin.Context) {
	userID, ok := authorizeOwner(ctx)

	if !ok {
		return
	}

	taskID, ok := taskIDParam(ctx)

	if !ok {
		return
	}

	var req UpdateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		httperr.Validation(ctx, "Invalid request", map[string]interface{}{"reason": err.Error()})
		return
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			httperr.Validation(ctx, "Task title cannot be empty", nil)
			return
		}
		if len(*req.Title) > maxTitleLength {
			httperr.Validation(ctx, "Task title cannot exceed 255 characters", nil)
			return
		}
	}

	if req.Description != nil && len(*req.Description) > maxDescriptionLength {
		httperr.Validation(ctx, "Task description cannot exceed 1000 characters", nil)
		return
	}

	var task models.Task

	if err := db.DB.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(ctx, "Task not found")
		} else {
			httperr.Internal(ctx, "Failed to retrieve task")
		}
		return
	}

	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}

	if req.Description != nil {
		// Empty string clears the description to absent.
		if trimmed := strings.TrimSpace(*req.Description); trimmed != "" {
			task.Description = &trimmed
		} else {
			task.Description = nil
		}
	}

	if req.Completed != nil {
		task.Completed = *req.Completed
	}

	if err := db.DB.Save(&task).Error; err != nil {
		httperr.Internal(ctx, "Failed to update task")
		return
	}

	ctx.JSON(http.StatusOK, taskResponse(task))
}

func DeleteTask(ctx *gin.Context) {
	userID, ok := authorizeOwner(ctx)

	if !ok {
		return
	}

	taskID, ok := taskIDParam(ctx)

	if !ok {
		return
	}

	var task models.Task

	if err := db.DB.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(ctx, "Task not found")
		} else {
			httperr.Internal(ctx, "Failed to retrieve task")
		}
		return
	}

	if err := db.DB.Delete(&task).Error; err != nil {
		httperr.Internal(ctx, "Failed to delete task")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func ToggleTaskComplete(ctx *gin.Context) {
	userID, ok := authorizeOwner(ctx)

	if !ok {
		return
	}

	taskID, ok := taskIDParam(ctx)

	if !ok {
		return
	}

	var task models.Task

	if err := db.DB.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(ctx, "Task not found")
		} else {
			httperr.Internal(ctx, "Failed to retrieve task")
		}
		return
	}

	task.Completed = !task.Completed

	if err := db.DB.Save(&task).Error; err != nil {
		httperr.Internal(ctx, "Failed to update task")
		return
	}

	ctx.JSON(http.StatusOK, taskResponse(task))
}
