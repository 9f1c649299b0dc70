package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/platoonhq/rosterd/libs/db"
	"github.com/platoonhq/rosterd/services/roster-service/internal/model"
)

type SoldierRepository struct {
	pool *db.Pool
}

func NewSoldierRepository(pool *db.Pool) *SoldierRepository {
	return &SoldierRepository{pool: pool}
}

func (r *SoldierRepository) List(ctx context.Context) ([]model.Soldier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.name,
			COALESCE(ARRAY_AGG(ro.name ORDER BY ro.name) FILTER (WHERE ro.id IS NOT NULL), '{}')
		FROM soldiers s
		LEFT JOIN soldier_roles sr ON sr.soldier_id = s.id
		LEFT JOIN roles ro ON ro.id = sr.role_id
		GROUP BY s.id, s.name
		ORDER BY s.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var soldiers []model.Soldier
	for rows.Next() {
		var s model.Soldier
		if err := rows.Scan(&s.ID, &s.Name, &s.Roles); err != nil {
			return nil, err
		}
		soldiers = append(soldiers, s)
	}
	return soldiers, rows.Err()
}

func (r *SoldierRepository) Exists(ctx context.Context, soldierID int64) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM soldiers WHERE id = $1`, soldierID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsNotFound reports a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports a Postgres duplicate-key failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
