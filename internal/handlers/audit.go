package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/services"
	"github.com/yukikurage/kanban-board-api/internal/utils"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// parseAuditQuery reads action, entity_type, user_id, from and to. Dates
// accept RFC3339 or YYYY-MM-DD.
func parseAuditQuery(c *gin.Context) (services.AuditQuery, error) {
	query := services.AuditQuery{
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}

	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return query, fmt.Errorf("invalid user_id")
		}
		query.UserID = &id
	}

	// A date-only "to" covers that whole day; the filter itself is exclusive.
	parseTime := func(name string, endOfDay bool) (*time.Time, error) {
		raw := c.Query(name)
		if raw == "" {
			return nil, nil
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t, nil
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s", name)
		}
		if endOfDay {
			t = t.AddDate(0, 0, 1)
		}
		return &t, nil
	}

	var err error
	if query.From, err = parseTime("from", false); err != nil {
		return query, err
	}
	if query.To, err = parseTime("to", true); err != nil {
		return query, err
	}
	return query, nil
}

// ListAuditLogs returns a page of the project's audit trail, newest first.
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	query, err := parseAuditQuery(c)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	params := utils.GetPaginationParams(c)
	query.Offset = params.Offset
	query.Limit = params.Limit

	logs, total, err := h.auditService.List(c.Request.Context(), userID, projectID, query)
	if err != nil {
		respondAuditError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAuditLogListResponse(logs, params.Response(total)))
}

// GetStats returns the audit rollups.
func (h *AuditHandler) GetStats(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	stats, err := h.auditService.Stats(c.Request.Context(), userID, projectID)
	if err != nil {
		respondAuditError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAuditStatsDTO(*stats))
}

// ExportAuditLogs downloads the filtered trail as CSV.
func (h *AuditHandler) ExportAuditLogs(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	query, err := parseAuditQuery(c)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	// Buffered so a failed load still answers with a JSON error.
	var buf bytes.Buffer
	if err := h.auditService.Export(c.Request.Context(), userID, projectID, query, &buf); err != nil {
		respondAuditError(c, err)
		return
	}

	filename := fmt.Sprintf("audit-logs-project-%d-%s.csv", projectID, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func respondAuditError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidAuditFilter):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAuditExportTooLarge):
		apierrors.RespondWithError(c, http.StatusRequestEntityTooLarge, apierrors.NewAPIError(apierrors.ErrCodeInvalidOperation, err.Error()))
	default:
		respondCommonError(c, err)
	}
}
