package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/transport/http/middleware"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/usecase"
)

// ReadingsHandler exposes the reading ledger endpoints.
type ReadingsHandler struct {
	meters *usecase.MeterService
}

// NewReadingsHandler constructs a readings handler.
func NewReadingsHandler(meters *usecase.MeterService) *ReadingsHandler {
	return &ReadingsHandler{meters: meters}
}

// Submit stores one complete reading set for the authenticated user.
func (h *ReadingsHandler) Submit(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req SubmitReadingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "month and values are required"))
		return
	}

	period, err := domain.ParseMonth(req.Month)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown month"))
		return
	}

	if err := h.meters.Submit(c.Request.Context(), claims.UserID, period, toMeterValues(req.Values)); err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrAlreadySubmitted, Status: http.StatusConflict, Message: "readings already submitted for this period"},
			{Err: usecase.ErrInvalidReadings, Status: http.StatusBadRequest, Message: "invalid readings"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to submit readings")
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "readings accepted"})
}

// Current returns the authenticated user's latest reading set.
func (h *ReadingsHandler) Current(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	set, err := h.meters.Current(c.Request.Context(), claims.UserID)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrNoReadings, Status: http.StatusNotFound, Message: "no readings found"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to fetch readings")
		return
	}

	c.JSON(http.StatusOK, newReadingSetResponse(*set))
}

// ForMonth returns the authenticated user's readings for the named month.
func (h *ReadingsHandler) ForMonth(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	month := c.Query("month")
	if month == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "month query parameter is required"))
		return
	}

	set, err := h.meters.ForMonth(c.Request.Context(), claims.UserID, month)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrInvalidReadings, Status: http.StatusBadRequest, Message: "unknown month"},
			{Err: usecase.ErrNoReadings, Status: http.StatusNotFound, Message: "no readings found"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to fetch readings")
		return
	}

	c.JSON(http.StatusOK, newReadingSetResponse(*set))
}

// History returns every reading set of the authenticated user, oldest first.
func (h *ReadingsHandler) History(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	sets, err := h.meters.History(c.Request.Context(), claims.UserID)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to fetch reading history")
		return
	}

	response := make([]ReadingSetResponse, 0, len(sets))
	for _, set := range sets {
		response = append(response, newReadingSetResponse(set))
	}

	c.JSON(http.StatusOK, response)
}

// AllCurrent returns the latest reading set of every user, keyed by username.
// The route is admin only.
func (h *ReadingsHandler) AllCurrent(c *gin.Context) {
	sets, err := h.meters.AllCurrent(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to fetch readings")
		return
	}

	response := make(map[string]ReadingSetResponse, len(sets))
	for username, set := range sets {
		response[username] = newReadingSetResponse(set)
	}

	c.JSON(http.StatusOK, response)
}
