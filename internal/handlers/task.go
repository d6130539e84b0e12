package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

type TaskHandler struct {
	taskService       *services.TaskService
	suggestionService *services.SuggestionService
}

func NewTaskHandler(taskService *services.TaskService, suggestionService *services.SuggestionService) *TaskHandler {
	return &TaskHandler{
		taskService:       taskService,
		suggestionService: suggestionService,
	}
}

// ListTasks returns the tasks of a project.
// Can filter by column_id, assignee_id and priority
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	var input services.ListTasksInput
	if raw := c.Query("column_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid column_id")
			return
		}
		input.ColumnID = &id
	}
	if raw := c.Query("assignee_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assignee_id")
			return
		}
		input.AssigneeID = &id
	}
	if raw := c.Query("priority"); raw != "" {
		priority := models.TaskPriority(raw)
		input.Priority = &priority
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), userID, projectID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(tasks),
	})
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "task_id", "task ID")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), userID, projectID, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task at the end of a column
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		ColumnID      uint64              `json:"column_id" binding:"required"`
		Title         string              `json:"title" binding:"required,max=255"`
		Description   string              `json:"description"`
		Priority      models.TaskPriority `json:"priority"`
		Tags          []string            `json:"tags"`
		DueDate       *time.Time          `json:"due_date"`
		AssigneeID    *uint64             `json:"assignee_id"`
		CheckboxState json.RawMessage     `json:"checkbox_state"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), userID, projectID, services.CreateTaskInput{
		ColumnID:      req.ColumnID,
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		Tags:          req.Tags,
		DueDate:       req.DueDate,
		AssigneeID:    req.AssigneeID,
		CheckboxState: datatypes.JSON(req.CheckboxState),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates an existing task. Send null for due_date or
// assignee_id to clear them.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "task_id", "task ID")
	if !ok {
		return
	}

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := decodeTaskUpdate(raw)
	if err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), userID, projectID, taskID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// decodeTaskUpdate distinguishes absent fields from explicit nulls.
func decodeTaskUpdate(raw map[string]json.RawMessage) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput
	isNull := func(v json.RawMessage) bool { return string(v) == "null" }

	for key, value := range raw {
		var err error
		switch key {
		case "title":
			input.Title = new(string)
			err = json.Unmarshal(value, input.Title)
		case "description":
			input.Description = new(string)
			err = json.Unmarshal(value, input.Description)
		case "priority":
			input.Priority = new(models.TaskPriority)
			err = json.Unmarshal(value, input.Priority)
		case "tags":
			tags := []string{}
			if !isNull(value) {
				err = json.Unmarshal(value, &tags)
			}
			input.Tags = &tags
		case "due_date":
			if isNull(value) {
				input.ClearDueDate = true
				continue
			}
			input.DueDate = new(time.Time)
			err = json.Unmarshal(value, input.DueDate)
		case "assignee_id":
			if isNull(value) {
				input.ClearAssignee = true
				continue
			}
			input.AssigneeID = new(uint64)
			err = json.Unmarshal(value, input.AssigneeID)
		case "checkbox_state":
			input.CheckboxState = datatypes.JSON(value)
		case "column_id":
			input.ColumnID = new(uint64)
			err = json.Unmarshal(value, input.ColumnID)
		}
		if err != nil {
			return services.UpdateTaskInput{}, err
		}
	}
	return input, nil
}

// MoveTask places a task in a column at a position
func (h *TaskHandler) MoveTask(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "task_id", "task ID")
	if !ok {
		return
	}

	type MoveTaskRequest struct {
		ColumnID uint64 `json:"column_id" binding:"required"`
		Position *int   `json:"position" binding:"required"`
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.MoveTask(c.Request.Context(), userID, projectID, taskID, services.MoveTaskInput{
		ColumnID: req.ColumnID,
		Position: *req.Position,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// ReorderTasks rewrites the order of every task in a column
func (h *TaskHandler) ReorderTasks(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}
	columnID, ok := parseIDParam(c, "column_id", "column ID")
	if !ok {
		return
	}

	type ReorderRequest struct {
		TaskIDs []uint64 `json:"task_ids" binding:"required"`
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tasks, err := h.taskService.ReorderTasks(c.Request.Context(), userID, projectID, columnID, req.TaskIDs)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(tasks),
	})
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "task_id", "task ID")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), userID, projectID, taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// SuggestTasks extracts task drafts from free text using AI
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	type SuggestTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req SuggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	suggestions, err := h.suggestionService.SuggestTasks(c.Request.Context(), userID, projectID, req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": suggestions,
	})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrColumnNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidAssignee),
		errors.Is(err, services.ErrInvalidPosition),
		errors.Is(err, services.ErrInvalidTaskOrder),
		errors.Is(err, services.ErrSuggestionTextRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskPermissionDenied):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrSuggestionsUnavailable):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		respondCommonError(c, err)
	}
}
