package postgres

import (
	"context"

	"github.com/UVMHacks2025/BashProShop/internal/domain/cart"
	"github.com/UVMHacks2025/BashProShop/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CartRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCartRepo(pool *pgxpool.Pool, prom *observability.Prom) *CartRepo {
	return &CartRepo{pool: pool, prom: prom}
}

// Add puts a listing into the client's cart. Adding the same listing twice
// returns the existing row.
func (r *CartRepo) Add(ctx context.Context, clientID, listingID string) (cart.Item, error) {
	item := cart.NewItem(clientID, listingID)

	err := r.prom.ObserveDB("cart.add", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO cart_items (id, client_id, listing_id, created_at)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT ON CONSTRAINT cart_items_client_listing_uniq
			DO UPDATE SET client_id = EXCLUDED.client_id
			RETURNING id, client_id, listing_id, created_at
		`, item.ID, item.ClientID, item.ListingID, item.CreatedAt).Scan(&item.ID, &item.ClientID, &item.ListingID, &item.CreatedAt)
	})

	if err != nil {
		return cart.Item{}, err
	}
	return item, nil
}

func (r *CartRepo) ListByClient(ctx context.Context, clientID string) ([]cart.ItemView, error) {
	out := []cart.ItemView{}

	err := r.prom.ObserveDB("cart.list_by_client", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT c.id, c.client_id, c.listing_id, c.created_at, l.name, l.price_cents, l.seller_id
			FROM cart_items c
			JOIN listings l ON l.id = c.listing_id
			WHERE c.client_id = $1
			ORDER BY c.created_at DESC, c.id DESC
		`, clientID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var v cart.ItemView
			if err := rows.Scan(&v.ID, &v.ClientID, &v.ListingID, &v.CreatedAt, &v.ListingName, &v.PriceCents, &v.SellerID); err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}
