package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/taskwise-dev/taskwise/internal/llm"
	"github.com/taskwise-dev/taskwise/internal/models"
	"gorm.io/gorm"
)

// Tool handlers return human-readable text in every case, including lookups
// that miss: the caller is a language model and needs something to relay.
var registry = map[string]func(*Context, string) (string, error){
	"add_task":      runAddTask,
	"list_tasks":    runListTasks,
	"complete_task": runCompleteTask,
	"delete_task":   runDeleteTask,
	"update_task":   runUpdateTask,
}

func Execute(tc *Context, name string, arguments string) (string, error) {
	handler, ok := registry[name]

	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	return handler(tc, arguments)
}

func Definitions() []llm.Tool {
	return []llm.Tool{
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "add_task",
				Description: "Add a new task for the user. Use this when the user wants to create a new todo item.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"title": map[string]interface{}{
							"type":        "string",
							"description": "Title of the task",
						},
						"description": map[string]interface{}{
							"type":        "string",
							"description": "Optional longer description of the task",
						},
					},
					"required": []string{"title"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "list_tasks",
				Description: "List the user's tasks. Filter by status: 'all', 'pending', or 'completed'.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"status": map[string]interface{}{
							"type": "string",
							"enum": []string{"all", "pending", "completed"},
						},
					},
				},
			},
		},
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "complete_task",
				Description: "Mark a task as completed by its ID.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"task_id": map[string]interface{}{
							"type": "integer",
						},
					},
					"required": []string{"task_id"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "delete_task",
				Description: "Delete a task by its ID.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"task_id": map[string]interface{}{
							"type": "integer",
						},
					},
					"required": []string{"task_id"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "update_task",
				Description: "Update a task's title or description by its ID.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"task_id": map[string]interface{}{
							"type": "integer",
						},
						"title": map[string]interface{}{
							"type": "string",
						},
						"description": map[string]interface{}{
							"type": "string",
						},
					},
					"required": []string{"task_id"},
				},
			},
		},
	}
}

type addTaskArgs struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func runAddTask(tc *Context, arguments string) (string, error) {
	var args addTaskArgs

	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid add_task arguments: %w", err)
	}

	title := strings.TrimSpace(args.Title)

	if title == "" {
		return "Task title cannot be empty.", nil
	}

	task := models.Task{
		Title:       title,
		Description: normalizeDescription(args.Description),
		UserID:      tc.UserID,
	}

	if err := tc.DB.Create(&task).Error; err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}

	return fmt.Sprintf("Task created successfully: '%s' (ID: %d)", task.Title, task.ID), nil
}

type listTasksArgs struct {
	Status string `json:"status"`
}

func runListTasks(tc *Context, arguments string) (string, error) {
	var args listTasksArgs

	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid list_tasks arguments: %w", err)
	}

	status := args.Status

	if status == "" {
		status = "all"
	}

	query := tc.DB.Where("user_id = ?", tc.UserID)

	switch status {
	case "pending":
		query = query.Where("completed = ?", false)
	case "completed":
		query = query.Where("completed = ?", true)
	}

	var tasks []models.Task

	if err := query.Order("created_at").Find(&tasks).Error; err != nil {
		return "", fmt.Errorf("list tasks: %w", err)
	}

	if len(tasks) == 0 {
		if status == "all" {
			return "No tasks found.", nil
		}
		return fmt.Sprintf("No %s tasks found.", status), nil
	}

	var lines []string

	for _, t := range tasks {
		check := "pending"
		if t.Completed {
			check = "done"
		}
		desc := ""
		if t.Description != nil {
			desc = " - " + *t.Description
		}
		lines = append(lines, fmt.Sprintf("  [%s] ID:%d | %s%s", check, t.ID, t.Title, desc))
	}

	return fmt.Sprintf("Found %d task(s):\n%s", len(tasks), strings.Join(lines, "\n")), nil
}

type taskIDArgs struct {
	TaskID uint `json:"task_id"`
}

func runCompleteTask(tc *Context, arguments string) (string, error) {
	var args taskIDArgs

	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid complete_task arguments: %w", err)
	}

	task, found, err := findTask(tc, args.TaskID)

	if err != nil {
		return "", err
	}

	if !found {
		return fmt.Sprintf("Task with ID %d not found.", args.TaskID), nil
	}

	task.Completed = true

	if err := tc.DB.Save(&task).Error; err != nil {
		return "", fmt.Errorf("complete task: %w", err)
	}

	return fmt.Sprintf("Task '%s' (ID: %d) marked as completed.", task.Title, task.ID), nil
}

func runDeleteTask(tc *Context, arguments string) (string, error) {
	var args taskIDArgs

	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid delete_task arguments: %w", err)
	}

	task, found, err := findTask(tc, args.TaskID)

	if err != nil {
		return "", err
	}

	if !found {
		return fmt.Sprintf("Task with ID %d not found.", args.TaskID), nil
	}

	title := task.Title

	if err := tc.DB.Delete(&task).Error; err != nil {
		return "", fmt.Errorf("delete task: %w", err)
	}

	return fmt.Sprintf("Task '%s' (ID: %d) deleted successfully.", title, args.TaskID), nil
}

type updateTaskArgs struct {
	TaskID      uint    `json:"task_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func runUpdateTask(tc *Context, arguments string) (string, error) {
	var args updateTaskArgs

	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid update_task arguments: %w", err)
	}

	task, found, err := findTask(tc, args.TaskID)

	if err != nil {
		return "", err
	}

	if !found {
		return fmt.Sprintf("Task with ID %d not found.", args.TaskID), nil
	}

	if args.Title != nil {
		title := strings.TrimSpace(*args.Title)
		if title == "" {
			return "Task title cannot be empty.", nil
		}
		task.Title = title
	}

	if args.Description != nil {
		task.Description = normalizeDescription(*args.Description)
	}

	if err := tc.DB.Save(&task).Error; err != nil {
		return "", fmt.Errorf("update task: %w", err)
	}

	return fmt.Sprintf("Task '%s' (ID: %d) updated successfully.", task.Title, task.ID), nil
}

func findTask(tc *Context, taskID uint) (models.Task, bool, error) {
	var task models.Task

	err := tc.DB.Where("id = ? AND user_id = ?", taskID, tc.UserID).First(&task).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, false, nil
		}
		return models.Task{}, false, fmt.Errorf("find task: %w", err)
	}

	return task, true, nil
}

// Empty or whitespace-only descriptions normalize to absent.
func normalizeDescription(raw string) *string {
	trimmed := strings.TrimSpace(raw)

	if trimmed == "" {
		return nil
	}

	return &trimmed
}
