package notifications

import (
	"log/slog"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/config"
)

// FromConfig picks the mail transport. It returns nil when the SMTP settings
// are incomplete, which turns confirmation emails off.
func FromConfig(cfg config.MailConfig, log *slog.Logger) Notifier {
	if !cfg.Configured() {
		return nil
	}

	if cfg.Driver == "log" {
		return NewLogNotifier(log)
	}

	return NewProtectedNotifier(NewSMTPNotifier(cfg), ProtectedNotifierConfig{
		Timeout:          10 * time.Second,
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
		HalfOpenMaxCalls: 1,
		Logger:           log,
	})
}
