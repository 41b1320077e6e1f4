package store

import (
	"context"
	"database/sql"
	"errors"
)

// UpdateSession is one persisted batch update run.
type UpdateSession struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	StartedAt    int64  `json:"started_at"`
	FinishedAt   int64  `json:"finished_at"`
	TotalVendors int    `json:"total_vendors"`
	Succeeded    int    `json:"succeeded"`
	Failed       int    `json:"failed"`
	ItemsUpdated int    `json:"items_updated"`
	Error        string `json:"error,omitempty"`
}

// InsertSession records a finished batch run.
func (s *Store) InsertSession(ctx context.Context, us *UpdateSession) error {
	if us.ID == "" {
		us.ID = "run_" + s.newID()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO update_sessions
			(id, status, started_at, finished_at, total_vendors, succeeded, failed, items_updated, error)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		us.ID, us.Status, us.StartedAt, us.FinishedAt,
		us.TotalVendors, us.Succeeded, us.Failed, us.ItemsUpdated, us.Error,
	)
	return err
}

// GetSession retrieves a recorded run by ID. Returns (nil, nil) when absent.
func (s *Store) GetSession(ctx context.Context, id string) (*UpdateSession, error) {
	us := &UpdateSession{}
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, status, started_at, finished_at, total_vendors, succeeded, failed, items_updated, error
		FROM update_sessions WHERE id = ?`, id).Scan(
		&us.ID, &us.Status, &us.StartedAt, &us.FinishedAt,
		&us.TotalVendors, &us.Succeeded, &us.Failed, &us.ItemsUpdated, &us.Error,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return us, nil
}

// RecentSessions returns recorded runs, most recent first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]*UpdateSession, error) {
	query := `
		SELECT id, status, started_at, finished_at, total_vendors, succeeded, failed, items_updated, error
		FROM update_sessions ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*UpdateSession
	for rows.Next() {
		us := &UpdateSession{}
		if err := rows.Scan(
			&us.ID, &us.Status, &us.StartedAt, &us.FinishedAt,
			&us.TotalVendors, &us.Succeeded, &us.Failed, &us.ItemsUpdated, &us.Error,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, us)
	}
	return sessions, rows.Err()
}
