package session

import (
	"context"
	"errors"

	"fooddelivery-cart/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Repository backed by the client_sessions table.
func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Load(ctx context.Context, key string) (State, error) {
	const q = `
SELECT state
FROM client_sessions
WHERE key = $1
`
	var st State
	if err := r.pool.QueryRow(ctx, q, key).Scan(&st); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return State{}, domain.ErrNotFound
		}
		return State{}, err
	}
	return st, nil
}

func (r *postgresRepo) Save(ctx context.Context, key string, state State) error {
	const q = `
INSERT INTO client_sessions (key, state, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
SET state = EXCLUDED.state,
    updated_at = now()
`
	_, err := r.pool.Exec(ctx, q, key, state)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, key string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM client_sessions WHERE key = $1`, key)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
