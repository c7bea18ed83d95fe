package telephony

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vpbx-platform/internal/metrics"
	"vpbx-platform/internal/vpbx"
	"vpbx-platform/pkg/logger"
)

// EventHandler receives verified provider events.
// Business logic lives behind it; the webhook only authenticates and dedups.
type EventHandler func(ctx context.Context, event string, cmd vpbx.InboundCommand) error

// Deduper remembers which deliveries were already handled.
type Deduper interface {
	// FirstDelivery reports whether key is seen for the first time.
	FirstDelivery(ctx context.Context, key string) (bool, error)
	// Forget releases key so a redelivery is processed again.
	Forget(ctx context.Context, key string) error
}

// WebhookHandler serves provider callbacks under /events/*event.
type WebhookHandler struct {
	Verifier *vpbx.Verifier
	Dedup    Deduper // optional
	OnEvent  EventHandler
	Metrics  *metrics.Metrics
}

func (h *WebhookHandler) Register(r gin.IRoutes) {
	r.Any("/events/*event", h.HandleEvent)
}

// HandleEvent verifies the delivery, drops duplicates and dispatches it.
// Rejections reply 420 with {"code","message"}; accepted events reply 200.
func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	log := logger.FromGin(c)
	event := strings.Trim(c.Param("event"), "/")

	cmd, err := h.Verifier.Decode(c.Request)
	if err != nil {
		var pe *vpbx.ProviderError
		if errors.As(err, &pe) {
			h.Metrics.ObserveInbound(event, "rejected")
			log.Warn("webhook rejected", "event", event, "code", int(pe.Code))
			_ = vpbx.WriteResponse(c.Writer, pe, vpbx.StatusMethodFailure)
			return
		}
		h.Metrics.ObserveInbound(event, "error")
		log.Error("webhook verifier failed", "event", event, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook not configured"})
		return
	}

	key := event + ":" + cmd.Sign
	if h.Dedup != nil {
		first, err := h.Dedup.FirstDelivery(c.Request.Context(), key)
		if err != nil {
			// Dedup store down: process anyway, the provider retries on failure only.
			log.Warn("webhook dedup unavailable", "event", event, "err", err)
			first = true
		}
		if !first {
			h.Metrics.ObserveDuplicateDelivery()
			log.Info("webhook duplicate delivery", "event", event)
			_ = vpbx.WriteResponse(c.Writer, nil, http.StatusOK)
			return
		}
	}

	if h.OnEvent != nil {
		if err := h.OnEvent(c.Request.Context(), event, cmd); err != nil {
			if h.Dedup != nil {
				if ferr := h.Dedup.Forget(c.Request.Context(), key); ferr != nil {
					log.Warn("webhook dedup release failed", "event", event, "err", ferr)
				}
			}
			h.Metrics.ObserveInbound(event, "error")
			log.Error("webhook handler failed", "event", event, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "event handling failed"})
			return
		}
	}

	h.Metrics.ObserveInbound(event, "accepted")
	_ = vpbx.WriteResponse(c.Writer, nil, http.StatusOK)
}

// LogEvents is the default EventHandler: it records the event and a few
// well-known fields.
func LogEvents(log *slog.Logger) EventHandler {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx context.Context, event string, cmd vpbx.InboundCommand) error {
		log.InfoContext(ctx, "vpbx event",
			"event", event,
			"entry_id", cmd.String(vpbx.FieldEntryID),
			"call_id", cmd.String("call_id"),
			"command_id", cmd.String("command_id"),
		)
		return nil
	}
}
