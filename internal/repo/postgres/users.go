package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/domain/user"
	"github.com/UVMHacks2025/BashProShop/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

const userColumns = `id, email, first_name, last_name, affiliation, password_hash, created_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Affiliation, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, p user.CreateParams) (user.User, error) {
	u := user.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(p.Email)),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Affiliation:  p.Affiliation,
		PasswordHash: p.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}

	err := r.prom.ObserveDB("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, first_name, last_name, affiliation, password_hash, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			u.ID, u.Email, u.FirstName, u.LastName, u.Affiliation, u.PasswordHash, u.CreatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) && isConstraint(err, "users_email_uniq") {
			return user.User{}, user.ErrEmailAlreadyUsed
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`,
			strings.ToLower(strings.TrimSpace(email)),
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}
