package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/transport/http/middleware"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/usecase"
)

// AuditHandler exposes the user's own action trail.
type AuditHandler struct {
	audit *usecase.AuditService
}

// NewAuditHandler constructs an audit handler.
func NewAuditHandler(audit *usecase.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns the authenticated user's audit entries, newest first.
func (h *AuditHandler) List(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	entries, err := h.audit.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to fetch audit trail")
		return
	}

	response := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, AuditEntryResponse{
			Action:      string(entry.Action),
			OccurredAt:  entry.OccurredAt,
			Description: entry.Description,
		})
	}

	c.JSON(http.StatusOK, response)
}
