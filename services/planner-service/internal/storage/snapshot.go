// Package storage loads the plan snapshot the fill engine runs over and
// writes the assignments it proposes. Reads and writes share the job
// transaction so a crashed run leaves nothing half-applied.
package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/platoonhq/rosterd/libs/timewin"
	"github.com/platoonhq/rosterd/services/planner-service/internal/planner"
)

type SnapshotRepository struct{}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{}
}

// Load gathers missions, requirements, soldiers, vacations and the day's
// existing assignments. Empty missionIDs means every mission. The existing
// set spans [day-1, day+2) so overnight windows on both edges are seen.
func (r *SnapshotRepository) Load(ctx context.Context, tx pgx.Tx, day time.Time, missionIDs []int64) (planner.Snapshot, error) {
	snap := planner.Snapshot{Day: day, Vacations: map[int64][]planner.DateRange{}}

	if err := r.loadMissions(ctx, tx, missionIDs, &snap); err != nil {
		return planner.Snapshot{}, err
	}
	if err := r.loadSoldiers(ctx, tx, &snap); err != nil {
		return planner.Snapshot{}, err
	}
	if err := r.loadVacations(ctx, tx, day, &snap); err != nil {
		return planner.Snapshot{}, err
	}
	if err := r.loadExisting(ctx, tx, day, &snap); err != nil {
		return planner.Snapshot{}, err
	}
	return snap, nil
}

func (r *SnapshotRepository) loadMissions(ctx context.Context, tx pgx.Tx, missionIDs []int64, snap *planner.Snapshot) error {
	query := `SELECT id, name, COALESCE(total_needed, 0) FROM missions`
	args := []any{}
	if len(missionIDs) > 0 {
		query += ` WHERE id = ANY($1)`
		args = append(args, missionIDs)
	}
	query += ` ORDER BY name`

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := map[int64]int{}
	for rows.Next() {
		var m planner.Mission
		if err := rows.Scan(&m.ID, &m.Name, &m.TotalNeeded); err != nil {
			return err
		}
		byID[m.ID] = len(snap.Missions)
		snap.Missions = append(snap.Missions, m)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	slotRows, err := tx.Query(ctx, `
		SELECT id, mission_id,
			to_char(start_time, 'HH24:MI:SS'),
			to_char(end_time, 'HH24:MI:SS')
		FROM mission_slots
		ORDER BY mission_id, start_time, id
	`)
	if err != nil {
		return err
	}
	defer slotRows.Close()

	for slotRows.Next() {
		var s timewin.Slot
		if err := slotRows.Scan(&s.ID, &s.MissionID, &s.Start, &s.End); err != nil {
			return err
		}
		if idx, ok := byID[s.MissionID]; ok {
			snap.Missions[idx].Slots = append(snap.Missions[idx].Slots, s)
		}
	}
	if err := slotRows.Err(); err != nil {
		return err
	}

	reqRows, err := tx.Query(ctx, `
		SELECT mission_id, role_id, count
		FROM mission_requirements
		ORDER BY mission_id, role_id
	`)
	if err != nil {
		return err
	}
	defer reqRows.Close()

	for reqRows.Next() {
		var missionID int64
		var req planner.Requirement
		if err := reqRows.Scan(&missionID, &req.RoleID, &req.Count); err != nil {
			return err
		}
		if idx, ok := byID[missionID]; ok {
			snap.Missions[idx].Requirements = append(snap.Missions[idx].Requirements, req)
		}
	}
	return reqRows.Err()
}

func (r *SnapshotRepository) loadSoldiers(ctx context.Context, tx pgx.Tx, snap *planner.Snapshot) error {
	rows, err := tx.Query(ctx, `
		SELECT s.id, s.name,
			COALESCE(ARRAY_AGG(sr.role_id) FILTER (WHERE sr.role_id IS NOT NULL), '{}')
		FROM soldiers s
		LEFT JOIN soldier_roles sr ON sr.soldier_id = s.id
		GROUP BY s.id, s.name
		ORDER BY s.id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var s planner.Soldier
		var roleIDs []int64
		if err := rows.Scan(&s.ID, &s.Name, &roleIDs); err != nil {
			return err
		}
		s.Roles = map[int64]bool{}
		for _, id := range roleIDs {
			s.Roles[id] = true
		}
		snap.Soldiers = append(snap.Soldiers, s)
	}
	return rows.Err()
}

func (r *SnapshotRepository) loadVacations(ctx context.Context, tx pgx.Tx, day time.Time, snap *planner.Snapshot) error {
	rows, err := tx.Query(ctx, `
		SELECT soldier_id, start_date, end_date
		FROM vacations
		WHERE start_date <= $1 AND end_date >= $1
	`, day)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var soldierID int64
		var dr planner.DateRange
		if err := rows.Scan(&soldierID, &dr.Start, &dr.End); err != nil {
			return err
		}
		snap.Vacations[soldierID] = append(snap.Vacations[soldierID], dr)
	}
	return rows.Err()
}

func (r *SnapshotRepository) loadExisting(ctx context.Context, tx pgx.Tx, day time.Time, snap *planner.Snapshot) error {
	from := day.AddDate(0, 0, -1)
	to := day.AddDate(0, 0, 2)
	rows, err := tx.Query(ctx, `
		SELECT mission_id, soldier_id, role_id, start_at, end_at
		FROM assignments
		WHERE end_at > $1 AND start_at < $2
	`, from, to)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ex planner.Existing
		if err := rows.Scan(&ex.MissionID, &ex.SoldierID, &ex.RoleID, &ex.StartAt, &ex.EndAt); err != nil {
			return err
		}
		snap.Existing = append(snap.Existing, ex)
	}
	return rows.Err()
}

// ClearDay removes the assignments starting on the day before a re-fill,
// optionally restricted to missions, keeping the locked ids in place.
func (r *SnapshotRepository) ClearDay(ctx context.Context, tx pgx.Tx, dayStart, dayEnd time.Time, missionIDs, lockedIDs []int64) (int64, error) {
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

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// InsertProposed writes the engine's output inside the job transaction.
func (r *SnapshotRepository) InsertProposed(ctx context.Context, tx pgx.Tx, proposed []planner.Proposed) error {
	for _, p := range proposed {
		if _, err := tx.Exec(ctx, `
			INSERT INTO assignments (mission_id, soldier_id, role_id, start_at, end_at)
			VALUES ($1, $2, $3, $4, $5)
		`, p.MissionID, p.SoldierID, p.RoleID, p.StartAt, p.EndAt); err != nil {
			return err
		}
	}
	return nil
}
