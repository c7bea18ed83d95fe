package httpapi

import (
	"context"
	"errors"
	"net/http"

	"vpbx-platform/internal/audit"
	"vpbx-platform/internal/auth"
	"vpbx-platform/internal/calls"
	"vpbx-platform/internal/reporting"
	"vpbx-platform/internal/telephony"
	"vpbx-platform/internal/vpbx"
	"vpbx-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Calls   *calls.Service
	Reports *reporting.Service
	Audit   *audit.Service
}

// --- Calls ---

type placeCallRequest struct {
	FromExtension string `json:"from_extension"`
	ToNumber      string `json:"to_number"`
	CallerNumber  string `json:"caller_number,omitempty"`
	CommandID     string `json:"command_id,omitempty"`
}

// PlaceCall asks the PBX to ring an extension and connect it to a number.
// RBAC: operator.
func (h Handlers) PlaceCall(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	var req placeCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.FromExtension == "" || req.ToNumber == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from_extension, to_number required"})
		return
	}

	res, err := h.Calls.Place(c.Request.Context(), actorFrom(c), telephony.PlaceCallRequest{
		FromExtension: req.FromExtension,
		ToNumber:      req.ToNumber,
		CallerNumber:  req.CallerNumber,
		CommandID:     req.CommandID,
	})
	if err != nil {
		writeError(c, err, &res)
		return
	}
	c.JSON(http.StatusOK, res)
}

type hangupRequest struct {
	CallID    string `json:"call_id"`
	CommandID string `json:"command_id,omitempty"`
}

// Hangup ends an active call by its PBX call id.
// RBAC: operator.
func (h Handlers) Hangup(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	var req hangupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.CallID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id required"})
		return
	}

	res, err := h.Calls.Hangup(c.Request.Context(), actorFrom(c), telephony.HangupRequest{
		CallID:    req.CallID,
		CommandID: req.CommandID,
	})
	if err != nil {
		writeError(c, err, &res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- Stats ---

type statsRequest struct {
	From string `json:"from"`
	To   string `json:"to"`

	FromExtension string `json:"from_extension,omitempty"`
	FromNumber    string `json:"from_number,omitempty"`
	ToExtension   string `json:"to_extension,omitempty"`
	ToNumber      string `json:"to_number,omitempty"`

	Fields []string `json:"fields,omitempty"`
}

// Stats exports call statistics for a range and returns them with a summary.
// RBAC: analyst.
func (h Handlers) Stats(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	var req statsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	from, err := reporting.ParseTime(req.From)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from: " + err.Error()})
		return
	}
	to, err := reporting.ParseTime(req.To)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to: " + err.Error()})
		return
	}

	rep, err := h.Reports.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		Range:         reporting.TimeRange{From: from, To: to},
		FromExtension: req.FromExtension,
		FromNumber:    req.FromNumber,
		ToExtension:   req.ToExtension,
		ToNumber:      req.ToNumber,
		Fields:        req.Fields,
	})
	if err != nil {
		writeError(c, err, nil)
		return
	}

	if h.Audit != nil {
		if err := h.Audit.LogStatsRequest(c.Request.Context(), actorFrom(c), from, to, len(rep.Records)); err != nil {
			logger.FromGin(c).Warn("stats audit failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, rep)
}

func actorFrom(c *gin.Context) audit.Actor {
	id, _ := auth.IdentityFrom(c.Request.Context())
	return audit.Actor{UserID: id.UserID, Role: id.Role, IP: c.ClientIP()}
}

// writeError maps domain errors to status codes. A provider rejection of a
// command carries the filled result so the caller sees the command_id.
func writeError(c *gin.Context, err error, res *telephony.CommandResult) {
	var pe *vpbx.ProviderError
	var te *vpbx.TransportError

	switch {
	case errors.As(err, &pe):
		body := gin.H{"error": pe.Message, "code": int(pe.Code)}
		if res != nil && res.CommandID != "" {
			body["command_id"] = res.CommandID
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, body)
	case errors.Is(err, calls.ErrInvalidArgument), errors.Is(err, reporting.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, vpbx.ErrNoData):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no data for the requested range"})
	case errors.Is(err, context.DeadlineExceeded):
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "pbx request timed out"})
	case errors.As(err, &te):
		logger.FromGin(c).Warn("pbx unreachable", "endpoint", te.Endpoint, "status", te.StatusCode, "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "pbx request failed"})
	case errors.Is(err, vpbx.ErrMissingCredentials):
		logger.FromGin(c).Error("pbx credentials missing")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "pbx not configured"})
	default:
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
