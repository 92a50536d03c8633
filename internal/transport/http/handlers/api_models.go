package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports liveness information.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports the outcome of each dependency probe.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// RegistrationRequest defines the account registration payload.
type RegistrationRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse describes a registered account without credential material.
type UserResponse struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

// SubmitReadingsRequest carries one month of meter values. Every supported
// meter must be present.
type SubmitReadingsRequest struct {
	Month  string           `json:"month" binding:"required"`
	Values map[string]int64 `json:"values" binding:"required"`
}

// ReadingSetResponse is one stored reading set.
type ReadingSetResponse struct {
	Month  string           `json:"month"`
	Values map[string]int64 `json:"values"`
}

// AuditEntryResponse is one row of the user's action trail.
type AuditEntryResponse struct {
	Action      string    `json:"action"`
	OccurredAt  time.Time `json:"occurred_at"`
	Description string    `json:"description,omitempty"`
}

func newReadingSetResponse(set domain.ReadingSet) ReadingSetResponse {
	values := make(map[string]int64, len(set.Values))
	for meterType, value := range set.Values {
		values[string(meterType)] = value
	}
	return ReadingSetResponse{
		Month:  set.Period.String(),
		Values: values,
	}
}

func toMeterValues(raw map[string]int64) map[domain.MeterType]int64 {
	values := make(map[domain.MeterType]int64, len(raw))
	for meterType, value := range raw {
		values[domain.MeterType(meterType)] = value
	}
	return values
}
