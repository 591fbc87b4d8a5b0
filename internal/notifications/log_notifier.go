package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// LogNotifier writes confirmations to the log instead of sending mail (MAIL_DRIVER=log).
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendPaymentConfirmation(ctx context.Context, in PaymentConfirmationInput) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	body, err := renderConfirmation(in)
	if err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.payment_confirmation",
		"to", in.To,
		"subject", confirmationSubject(in),
		"amount", in.Amount,
		"session_id", in.SessionID,
		"body_bytes", len(body),
	)
	return nil
}
