package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

type ColumnHandler struct {
	columnService *services.ColumnService
}

func NewColumnHandler(columnService *services.ColumnService) *ColumnHandler {
	return &ColumnHandler{columnService: columnService}
}

// ListColumns returns the board's columns in position order.
func (h *ColumnHandler) ListColumns(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	columns, err := h.columnService.ListColumns(c.Request.Context(), userID, projectID)
	if err != nil {
		respondColumnError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"columns": dto.ToColumnDTOs(columns),
	})
}

// CreateColumn appends a column.
func (h *ColumnHandler) CreateColumn(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	type CreateColumnRequest struct {
		Name  string `json:"name" binding:"required,max=100"`
		Color string `json:"color"`
	}

	var req CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	column, err := h.columnService.CreateColumn(c.Request.Context(), userID, projectID, services.CreateColumnInput{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		respondColumnError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToColumnDTO(*column))
}

// UpdateColumn renames or recolors a column.
func (h *ColumnHandler) UpdateColumn(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}
	columnID, ok := parseIDParam(c, "column_id", "column ID")
	if !ok {
		return
	}

	type UpdateColumnRequest struct {
		Name  *string `json:"name" binding:"omitempty,max=100"`
		Color *string `json:"color"`
	}

	var req UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	column, err := h.columnService.UpdateColumn(c.Request.Context(), userID, projectID, columnID, services.UpdateColumnInput{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		respondColumnError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToColumnDTO(*column))
}

// DeleteColumn removes an empty column.
func (h *ColumnHandler) DeleteColumn(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}
	columnID, ok := parseIDParam(c, "column_id", "column ID")
	if !ok {
		return
	}

	if err := h.columnService.DeleteColumn(c.Request.Context(), userID, projectID, columnID); err != nil {
		respondColumnError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Column deleted successfully",
	})
}

// ReorderColumns rewrites every column position in one transaction.
func (h *ColumnHandler) ReorderColumns(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	type ReorderRequest struct {
		ColumnIDs []uint64 `json:"column_ids" binding:"required,min=1"`
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	columns, err := h.columnService.ReorderColumns(c.Request.Context(), userID, projectID, req.ColumnIDs)
	if err != nil {
		respondColumnError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"columns": dto.ToColumnDTOs(columns),
	})
}

func respondColumnError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrColumnNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidColumnName),
		errors.Is(err, services.ErrInvalidColor),
		errors.Is(err, services.ErrInvalidColumnOrder):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrColumnHasTasks),
		errors.Is(err, services.ErrLastColumn):
		apierrors.Conflict(c, err.Error())
	default:
		respondCommonError(c, err)
	}
}
