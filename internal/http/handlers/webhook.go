package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/observability"
	"github.com/UVMHacks2025/BashProShop/internal/payment"
	"github.com/gin-gonic/gin"
)

// WebhookMaxBodyBytes bounds what POST /webhook will read.
const WebhookMaxBodyBytes = 64 << 10

type WebhookBridge interface {
	VerifyWebhook(payload []byte, signatureHeader string) (payment.Event, error)
	Fulfill(ctx context.Context, s payment.Session) (payment.FulfillmentResult, error)
}

type WebhookHandler struct {
	bridge WebhookBridge
	prom   *observability.Prom
	log    *slog.Logger
}

func NewWebhookHandler(bridge WebhookBridge, prom *observability.Prom, log *slog.Logger) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{bridge: bridge, prom: prom, log: log}
}

// Handle receives processor events. Anything that fails verification is
// answered 400 and dropped. A 500 asks the processor to redeliver.
func (h *WebhookHandler) Handle(ctx *gin.Context) {
	payload, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.prom.IncWebhook("unknown", "too_large")
			RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "payload too large", nil)
			return
		}
		h.prom.IncWebhook("unknown", "invalid_payload")
		RespondBadRequest(ctx, "invalid payload", nil)
		return
	}

	ev, err := h.bridge.VerifyWebhook(payload, ctx.GetHeader("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			h.log.WarnContext(ctx.Request.Context(), "webhook rejected", "reason", "invalid signature")
			h.prom.IncWebhook("unknown", "invalid_signature")
			RespondBadRequest(ctx, "invalid signature", nil)
		default:
			h.log.WarnContext(ctx.Request.Context(), "webhook rejected", "reason", "invalid payload")
			h.prom.IncWebhook("unknown", "invalid_payload")
			RespondBadRequest(ctx, "invalid payload", nil)
		}
		return
	}

	if ev.Type != payment.EventCheckoutSessionCompleted || ev.Session == nil {
		h.log.DebugContext(ctx.Request.Context(), "webhook ignored", "event_id", ev.ID, "event_type", ev.Type)
		h.prom.IncWebhook(ev.Type, "ignored")
		ctx.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	// detached so a client disconnect cannot interrupt a send halfway
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx.Request.Context()), 30*time.Second)
	defer cancel()

	res, err := h.bridge.Fulfill(fctx, *ev.Session)
	if err != nil {
		if errors.Is(err, payment.ErrNoRecipient) {
			// redelivery would not produce an address either
			h.prom.IncWebhook(ev.Type, "no_recipient")
			ctx.JSON(http.StatusOK, gin.H{"received": true, "emailSent": false})
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "webhook fulfillment failed", "event_id", ev.ID, "session_id", ev.Session.ID, "err", err)
		h.prom.IncWebhook(ev.Type, "error")
		RespondInternal(ctx, "fulfillment failed")
		return
	}

	h.prom.IncWebhook(ev.Type, "handled")
	ctx.JSON(http.StatusOK, gin.H{
		"received":      true,
		"confirmed":     res.Confirmed,
		"orderRecorded": res.OrderRecorded,
		"emailSent":     res.EmailSent,
	})
}
