package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/platoonhq/rosterd/libs/db"
	"github.com/platoonhq/rosterd/services/roster-service/internal/model"
)

type AssignmentRepository struct {
	pool *db.Pool
}

func NewAssignmentRepository(pool *db.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

const assignmentColumns = `
	a.id, a.mission_id, COALESCE(m.name, ''), a.role_id, COALESCE(r.name, ''),
	a.soldier_id, COALESCE(s.name, ''), a.start_at, a.end_at
`

// ListOverlappingDay returns every assignment whose window intersects
// [dayStart, dayEnd), which picks up overnight windows that began the
// previous evening.
func (r *AssignmentRepository) ListOverlappingDay(ctx context.Context, dayStart, dayEnd time.Time) ([]model.Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments a
		LEFT JOIN missions m ON m.id = a.mission_id
		LEFT JOIN roles r ON r.id = a.role_id
		LEFT JOIN soldiers s ON s.id = a.soldier_id
		WHERE a.end_at > $1 AND a.start_at < $2
		ORDER BY m.name, a.start_at, a.id
	`, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.MissionID, &a.MissionName, &a.RoleID, &a.Role,
			&a.SoldierID, &a.SoldierName, &a.StartAt, &a.EndAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *AssignmentRepository) Get(ctx context.Context, id int64) (model.Assignment, error) {
	var a model.Assignment
	err := r.pool.QueryRow(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments a
		LEFT JOIN missions m ON m.id = a.mission_id
		LEFT JOIN roles r ON r.id = a.role_id
		LEFT JOIN soldiers s ON s.id = a.soldier_id
		WHERE a.id = $1
	`, id).Scan(&a.ID, &a.MissionID, &a.MissionName, &a.RoleID, &a.Role,
		&a.SoldierID, &a.SoldierName, &a.StartAt, &a.EndAt)
	if err != nil {
		return model.Assignment{}, err
	}
	return a, nil
}

func (r *AssignmentRepository) Create(ctx context.Context, missionID int64, soldierID, roleID *int64, startAt, endAt time.Time) (model.Assignment, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO assignments (mission_id, soldier_id, role_id, start_at, end_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, missionID, soldierID, roleID, startAt, endAt).Scan(&id)
	if err != nil {
		return model.Assignment{}, err
	}
	return r.Get(ctx, id)
}

// Reassign moves an assignment to another soldier without touching its
// window or role.
func (r *AssignmentRepository) Reassign(ctx context.Context, assignmentID, soldierID int64) (model.Assignment, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE assignments SET soldier_id = $2 WHERE id = $1
	`, assignmentID, soldierID)
	if err != nil {
		return model.Assignment{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Assignment{}, pgx.ErrNoRows
	}
	return r.Get(ctx, assignmentID)
}

// ClearDay deletes the assignments starting on the given day, optionally
// restricted to missions, always preserving the locked ids the planner view
// pins in place.
func (r *AssignmentRepository) ClearDay(ctx context.Context, dayStart, dayEnd time.Time, missionIDs, lockedIDs []int64) (int64, error) {
	query := `
		DELETE FROM assignments
		WHERE start_at >= $1 AND start_at < $2
	`
	args := []any{dayStart, dayEnd}
	if len(missionIDs) > 0 {
		args = append(args, missionIDs)
		query += ` AND mission_id = ANY($3)`
		if len(lockedIDs) > 0 {
			args = append(args, lockedIDs)
			query += ` AND NOT (id = ANY($4))`
		}
	} else if len(lockedIDs) > 0 {
		args = append(args, lockedIDs)
		query += ` AND NOT (id = ANY($3))`
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *AssignmentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// HistoryFor returns a soldier's mission history: one entry per distinct
// (mission, window), with the de-duplicated names of everyone else who
// shared the window, most recent first.
func (r *AssignmentRepository) HistoryFor(ctx context.Context, soldierID int64) ([]model.HistoryItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			a.mission_id,
			COALESCE(m.name, ''),
			a.start_at::date,
			to_char(a.start_at, 'HH24:MI:SS'),
			to_char(a.end_at, 'HH24:MI:SS'),
			COALESCE(ARRAY_AGG(DISTINCT f.name ORDER BY f.name)
				FILTER (WHERE f.id IS NOT NULL AND f.id <> $1), '{}')
		FROM assignments a
		JOIN missions m ON m.id = a.mission_id
		LEFT JOIN assignments a2
			ON a2.mission_id = a.mission_id
			AND a2.start_at = a.start_at
			AND a2.end_at = a.end_at
		LEFT JOIN soldiers f ON f.id = a2.soldier_id
		WHERE a.soldier_id = $1
		GROUP BY a.mission_id, m.name, a.start_at, a.end_at
		ORDER BY a.start_at DESC, m.name ASC
	`, soldierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.HistoryItem
	for rows.Next() {
		var it model.HistoryItem
		if err := rows.Scan(&it.MissionID, &it.MissionName, &it.SlotDate,
			&it.StartTime, &it.EndTime, &it.FellowSoldiers); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
