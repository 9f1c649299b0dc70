package storage

import (
	"context"

	"github.com/platoonhq/rosterd/libs/db"
	"github.com/platoonhq/rosterd/services/roster-service/internal/model"
)

type MissionRepository struct {
	pool *db.Pool
}

func NewMissionRepository(pool *db.Pool) *MissionRepository {
	return &MissionRepository{pool: pool}
}

// List returns every mission with its canonical slots attached, slots
// ordered by start time within each mission.
func (r *MissionRepository) List(ctx context.Context) ([]model.Mission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(total_needed, 0)
		FROM missions
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missions []model.Mission
	byID := map[int64]int{}
	for rows.Next() {
		var m model.Mission
		if err := rows.Scan(&m.ID, &m.Name, &m.TotalNeeded); err != nil {
			return nil, err
		}
		byID[m.ID] = len(missions)
		missions = append(missions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slotRows, err := r.pool.Query(ctx, `
		SELECT id, mission_id,
			to_char(start_time, 'HH24:MI:SS'),
			to_char(end_time, 'HH24:MI:SS')
		FROM mission_slots
		ORDER BY mission_id, start_time
	`)
	if err != nil {
		return nil, err
	}
	defer slotRows.Close()

	for slotRows.Next() {
		var s model.MissionSlot
		if err := slotRows.Scan(&s.ID, &s.MissionID, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		if idx, ok := byID[s.MissionID]; ok {
			missions[idx].Slots = append(missions[idx].Slots, s)
		}
	}
	return missions, slotRows.Err()
}

// SlotsFor returns the canonical slots of one mission, the candidate set the
// slot matcher runs against.
func (r *MissionRepository) SlotsFor(ctx context.Context, missionID int64) ([]model.MissionSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, mission_id,
			to_char(start_time, 'HH24:MI:SS'),
			to_char(end_time, 'HH24:MI:SS')
		FROM mission_slots
		WHERE mission_id = $1
		ORDER BY start_time, id
	`, missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.MissionSlot
	for rows.Next() {
		var s model.MissionSlot
		if err := rows.Scan(&s.ID, &s.MissionID, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
