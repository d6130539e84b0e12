package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page   int   `json:"page"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// GetPaginationParams extracts and validates pagination parameters from the request.
// An explicit offset query parameter takes precedence over page.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constants.MinPageSize)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constants.DefaultPageSize)))

	if page < constants.MinPageSize {
		page = constants.MinPageSize
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	offset := (page - 1) * limit
	if raw, ok := c.GetQuery("offset"); ok {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
			page = offset/limit + 1
		}
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: offset,
	}
}

// Response builds the pagination metadata for a result set.
func (p PaginationParams) Response(total int64) PaginationResponse {
	return PaginationResponse{
		Page:   p.Page,
		Limit:  p.Limit,
		Offset: p.Offset,
		Total:  total,
	}
}
