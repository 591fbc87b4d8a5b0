package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/observability"
	"github.com/UVMHacks2025/BashProShop/internal/payment"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentConfirmationsRepo is the ledger that keeps confirmation emails to
// one per checkout session, even when the processor redelivers a webhook.
type PaymentConfirmationsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPaymentConfirmationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PaymentConfirmationsRepo {
	return &PaymentConfirmationsRepo{pool: pool, prom: prom}
}

// TryStart claims the right to send the confirmation for sessionID.
func (r *PaymentConfirmationsRepo) TryStart(ctx context.Context, sessionID, recipient string) error {
	// 1) Insert if missing
	err := r.prom.ObserveDB("payment_confirmations.insert", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO payment_confirmations (checkout_session_id, recipient, status, created_at, updated_at)
			VALUES ($1, $2, 'sending', NOW(), NOW())
		`, sessionID, recipient)
		return e
	})

	if err == nil {
		return nil
	}
	if !IsUniqueViolation(err) {
		return err
	}

	// 2) Row exists. A failed attempt can be re-claimed; only one caller wins the flip.
	var affected int64
	err = r.prom.ObserveDB("payment_confirmations.reclaim", func() error {
		tag, e := r.pool.Exec(ctx, `
			UPDATE payment_confirmations
			SET status = 'sending',
			    recipient = $2,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE checkout_session_id = $1 AND status = 'failed'
		`, sessionID, recipient)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// 3) Not failed: already sent or another request is sending.
	var status string
	var sentAt *time.Time

	err = r.prom.ObserveDB("payment_confirmations.status", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT status, sent_at FROM payment_confirmations WHERE checkout_session_id = $1
		`, sessionID).Scan(&status, &sentAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// row disappeared; let caller retry
			return payment.ErrConfirmationInProgress
		}
		return err
	}

	if sentAt != nil || status == "sent" {
		return payment.ErrConfirmationAlreadySent
	}

	return payment.ErrConfirmationInProgress
}

func (r *PaymentConfirmationsRepo) MarkSent(ctx context.Context, sessionID string) error {
	return r.prom.ObserveDB("payment_confirmations.mark_sent", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE payment_confirmations
			SET status = 'sent', sent_at = NOW(), last_error = NULL, updated_at = NOW()
			WHERE checkout_session_id = $1
		`, sessionID)
		return err
	})
}

func (r *PaymentConfirmationsRepo) MarkFailed(ctx context.Context, sessionID, errMsg string) error {
	return r.prom.ObserveDB("payment_confirmations.mark_failed", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE payment_confirmations
			SET status = 'failed', last_error = $2, updated_at = NOW()
			WHERE checkout_session_id = $1
		`, sessionID, errMsg)
		return err
	})
}
