package postgres

import (
	"context"

	"github.com/UVMHacks2025/BashProShop/internal/domain/order"
	"github.com/UVMHacks2025/BashProShop/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrdersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewOrdersRepo(pool *pgxpool.Pool, prom *observability.Prom) *OrdersRepo {
	return &OrdersRepo{pool: pool, prom: prom}
}

// Record inserts the order for a completed checkout session. A second call for
// the same session is a no-op and reports created=false.
func (r *OrdersRepo) Record(ctx context.Context, o order.Order) (created bool, err error) {
	err = r.prom.ObserveDB("orders.record", func() error {
		tag, e := r.pool.Exec(ctx, `
			INSERT INTO orders (id, listing_id, buyer_id, seller_id, checkout_session_id, date)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT ON CONSTRAINT orders_session_uniq DO NOTHING
		`, o.ID, o.ListingID, o.BuyerID, o.SellerID, o.CheckoutSessionID, o.Date)
		if e != nil {
			return e
		}
		created = tag.RowsAffected() == 1
		return nil
	})
	return created, err
}
