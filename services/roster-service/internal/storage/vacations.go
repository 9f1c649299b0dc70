package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/platoonhq/rosterd/libs/db"
	"github.com/platoonhq/rosterd/services/roster-service/internal/model"
)

// ErrVacationOverlap marks a new range colliding with an existing one for
// the same soldier.
var ErrVacationOverlap = errors.New("vacation overlaps existing entry")

type VacationRepository struct {
	pool *db.Pool
}

func NewVacationRepository(pool *db.Pool) *VacationRepository {
	return &VacationRepository{pool: pool}
}

// List returns vacations, optionally filtered to one soldier, ordered by
// start date.
func (r *VacationRepository) List(ctx context.Context, soldierID *int64) ([]model.Vacation, error) {
	query := `
		SELECT v.id, v.soldier_id, COALESCE(s.name, ''), v.start_date, v.end_date, COALESCE(v.note, '')
		FROM vacations v
		LEFT JOIN soldiers s ON s.id = v.soldier_id
	`
	args := []any{}
	if soldierID != nil {
		query += ` WHERE v.soldier_id = $1`
		args = append(args, *soldierID)
	}
	query += ` ORDER BY v.start_date, v.id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVacations(rows)
}

// Create inserts a vacation after verifying it does not intersect an
// existing range for the soldier; both checks run in one transaction.
func (r *VacationRepository) Create(ctx context.Context, soldierID int64, start, end time.Time, note string) (model.Vacation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Vacation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var clash int
	err = tx.QueryRow(ctx, `
		SELECT 1 FROM vacations
		WHERE soldier_id = $1 AND start_date <= $3 AND end_date >= $2
		LIMIT 1
	`, soldierID, start, end).Scan(&clash)
	if err == nil {
		return model.Vacation{}, ErrVacationOverlap
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Vacation{}, err
	}

	var v model.Vacation
	err = tx.QueryRow(ctx, `
		INSERT INTO vacations (soldier_id, start_date, end_date, note)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id, soldier_id, start_date, end_date, COALESCE(note, '')
	`, soldierID, start, end, note).Scan(&v.ID, &v.SoldierID, &v.StartDate, &v.EndDate, &v.Note)
	if err != nil {
		return model.Vacation{}, err
	}

	if err := tx.QueryRow(ctx, `SELECT name FROM soldiers WHERE id = $1`, soldierID).Scan(&v.SoldierName); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return model.Vacation{}, err
	}
	return v, tx.Commit(ctx)
}

func (r *VacationRepository) Delete(ctx context.Context, vacationID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vacations WHERE id = $1`, vacationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RangesBySoldier loads every soldier's vacation ranges in one pass, the
// snapshot the availability aggregator folds over. A soldier with no rows
// is simply absent from the map.
func (r *VacationRepository) RangesBySoldier(ctx context.Context) (map[int64][]model.Vacation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT v.id, v.soldier_id, COALESCE(s.name, ''), v.start_date, v.end_date, COALESCE(v.note, '')
		FROM vacations v
		LEFT JOIN soldiers s ON s.id = v.soldier_id
		ORDER BY v.soldier_id, v.start_date
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vacations, err := scanVacations(rows)
	if err != nil {
		return nil, err
	}
	bySoldier := make(map[int64][]model.Vacation)
	for _, v := range vacations {
		bySoldier[v.SoldierID] = append(bySoldier[v.SoldierID], v)
	}
	return bySoldier, nil
}

func scanVacations(rows pgx.Rows) ([]model.Vacation, error) {
	var vacations []model.Vacation
	for rows.Next() {
		var v model.Vacation
		if err := rows.Scan(&v.ID, &v.SoldierID, &v.SoldierName, &v.StartDate, &v.EndDate, &v.Note); err != nil {
			return nil, err
		}
		vacations = append(vacations, v)
	}
	return vacations, rows.Err()
}
