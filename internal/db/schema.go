package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// statements are idempotent so EnsureSchema can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL,
		first_name    TEXT NOT NULL,
		last_name     TEXT NOT NULL,
		affiliation   TEXT,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT users_email_uniq UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		id                   UUID PRIMARY KEY,
		seller_id            UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name                 TEXT NOT NULL,
		description          TEXT NOT NULL DEFAULT '',
		price_cents          BIGINT NOT NULL CHECK (price_cents >= 0),
		category             TEXT,
		post_date            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		rental_duration_days INT,
		rental_start         DATE
	)`,
	`CREATE INDEX IF NOT EXISTS listings_post_date_idx ON listings (post_date DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS listings_seller_idx ON listings (seller_id)`,
	`CREATE TABLE IF NOT EXISTS images (
		id           UUID PRIMARY KEY,
		listing_id   UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT 'application/octet-stream',
		encoded      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS images_listing_idx ON images (listing_id)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id         UUID PRIMARY KEY,
		client_id  UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT cart_items_client_listing_uniq UNIQUE (client_id, listing_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id                  UUID PRIMARY KEY,
		listing_id          UUID NOT NULL REFERENCES listings(id),
		buyer_id            UUID NOT NULL REFERENCES users(id),
		seller_id           UUID NOT NULL REFERENCES users(id),
		checkout_session_id TEXT NOT NULL,
		date                TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT orders_session_uniq UNIQUE (checkout_session_id)
	)`,
	`CREATE TABLE IF NOT EXISTS payment_confirmations (
		checkout_session_id TEXT PRIMARY KEY,
		recipient           TEXT NOT NULL,
		status              TEXT NOT NULL CHECK (status IN ('sending', 'sent', 'failed')),
		last_error          TEXT,
		sent_at             TIMESTAMPTZ,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
