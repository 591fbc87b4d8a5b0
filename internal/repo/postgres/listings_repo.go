package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UVMHacks2025/BashProShop/internal/domain/listing"
	"github.com/UVMHacks2025/BashProShop/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ListingsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewListingsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ListingsRepo {
	return &ListingsRepo{pool: pool, prom: prom}
}

const listingColumns = `id, seller_id, name, description, price_cents, category, post_date, rental_duration_days, rental_start`

// Create inserts the listing and its images in one transaction.
func (r *ListingsRepo) Create(ctx context.Context, l listing.Listing) (listing.Listing, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return listing.Listing{}, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	err = r.prom.ObserveDB("listings.create", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO listings (`+listingColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			l.ID, l.SellerID, l.Name, l.Description, l.PriceCents, l.Category, l.PostDate, l.RentalDurationDays, l.RentalStart,
		)
		return e
	})
	if err != nil {
		return listing.Listing{}, err
	}

	for _, img := range l.Images {
		img := img
		err = r.prom.ObserveDB("listings.create.image", func() error {
			_, e := tx.Exec(ctx,
				`INSERT INTO images (id, listing_id, name, content_type, encoded) VALUES ($1,$2,$3,$4,$5)`,
				img.ID, l.ID, img.Name, img.ContentType, img.Encoded,
			)
			return e
		})
		if err != nil {
			return listing.Listing{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return listing.Listing{}, err
	}

	return l, nil
}

func (r *ListingsRepo) GetByID(ctx context.Context, id string) (listing.Listing, error) {
	var l listing.Listing

	err := r.prom.ObserveDB("listings.get_by_id", func() error {
		return r.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id).Scan(
			&l.ID, &l.SellerID, &l.Name, &l.Description, &l.PriceCents, &l.Category, &l.PostDate, &l.RentalDurationDays, &l.RentalStart,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return listing.Listing{}, listing.ErrNotFound
		}
		return listing.Listing{}, err
	}

	images, err := r.imagesFor(ctx, l.ID)
	if err != nil {
		return listing.Listing{}, err
	}
	l.Images = images

	return l, nil
}

func (r *ListingsRepo) imagesFor(ctx context.Context, listingID string) ([]listing.Image, error) {
	var out []listing.Image

	err := r.prom.ObserveDB("listings.images", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, listing_id, name, content_type, encoded FROM images WHERE listing_id = $1 ORDER BY name ASC, id ASC`,
			listingID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var img listing.Image
			if err := rows.Scan(&img.ID, &img.ListingID, &img.Name, &img.ContentType, &img.Encoded); err != nil {
				return err
			}
			out = append(out, img)
		}
		return rows.Err()
	})

	return out, err
}

// List returns one page of listings matching every predicate in f, newest first,
// plus the total number of matches.
func (r *ListingsRepo) List(ctx context.Context, f listing.ListFilter) ([]listing.Listing, int, error) {
	query, args := buildListQuery(f)

	output := make([]listing.Listing, 0, f.PageSize)
	total := 0

	err := r.prom.ObserveDB("listings.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var l listing.Listing
			var t int

			err = rows.Scan(&l.ID, &l.SellerID, &l.Name, &l.Description, &l.PriceCents, &l.Category, &l.PostDate, &l.RentalDurationDays, &l.RentalStart, &t)
			if err != nil {
				return err
			}

			total = t
			output = append(output, l)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func buildListQuery(f listing.ListFilter) (string, []interface{}) {
	baseQuery := `SELECT ` + listingColumns + `, COUNT(*) OVER() AS total FROM listings`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if f.Query != nil {
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argsPosition, argsPosition))
		args = append(args, "%"+escapeLike(*f.Query)+"%")
		argsPosition++
	}

	if f.Category != nil {
		conds = append(conds, fmt.Sprintf("category = $%d", argsPosition))
		args = append(args, *f.Category)
		argsPosition++
	}

	if f.MinPrice != nil {
		conds = append(conds, fmt.Sprintf("price_cents >= $%d", argsPosition))
		args = append(args, *f.MinPrice)
		argsPosition++
	}

	if f.MaxPrice != nil {
		conds = append(conds, fmt.Sprintf("price_cents <= $%d", argsPosition))
		args = append(args, *f.MaxPrice)
		argsPosition++
	}

	if f.Rentable != nil {
		if *f.Rentable {
			conds = append(conds, "(rental_duration_days IS NOT NULL AND rental_duration_days > 0)")
		} else {
			conds = append(conds, "(rental_duration_days IS NULL OR rental_duration_days = 0)")
		}
	}

	if f.SellerID != nil {
		conds = append(conds, fmt.Sprintf("seller_id = $%d", argsPosition))
		args = append(args, *f.SellerID)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY post_date DESC, id DESC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, f.PageSize, f.Offset())

	return query, args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
