package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Vendor is one monitored storefront.
type Vendor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Enabled   bool   `json:"enabled"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// UpsertVendor inserts a vendor or updates it by URL. Assigns an ID when
// the vendor has none.
func (s *Store) UpsertVendor(ctx context.Context, v *Vendor) error {
	now := time.Now().UnixMilli()
	if v.ID == "" {
		v.ID = "vnd_" + s.newID()
	}
	if v.CreatedAt == 0 {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO vendors (id, name, url, enabled, created_at, updated_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(url) DO UPDATE SET
			name=excluded.name, enabled=excluded.enabled, updated_at=excluded.updated_at`,
		v.ID, v.Name, v.URL, boolInt(v.Enabled), v.CreatedAt, v.UpdatedAt,
	)
	return err
}

// GetVendor retrieves a vendor by ID. Returns (nil, nil) when absent.
func (s *Store) GetVendor(ctx context.Context, id string) (*Vendor, error) {
	v := &Vendor{}
	var enabled int

	err := s.DB.QueryRowContext(ctx, `
		SELECT id, name, url, enabled, created_at, updated_at
		FROM vendors WHERE id = ?`, id).Scan(
		&v.ID, &v.Name, &v.URL, &enabled, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v.Enabled = enabled != 0
	return v, nil
}

// ListVendors returns vendors ordered by name. enabledOnly restricts the
// list to vendors participating in batch updates.
func (s *Store) ListVendors(ctx context.Context, enabledOnly bool) ([]*Vendor, error) {
	query := `SELECT id, name, url, enabled, created_at, updated_at FROM vendors`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY name`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vendors []*Vendor
	for rows.Next() {
		v := &Vendor{}
		var enabled int
		if err := rows.Scan(&v.ID, &v.Name, &v.URL, &enabled, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		v.Enabled = enabled != 0
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// SetVendorEnabled toggles a vendor's participation in batch updates.
func (s *Store) SetVendorEnabled(ctx context.Context, id string, enabled bool) error {
	now := time.Now().UnixMilli()
	_, err := s.DB.ExecContext(ctx, `
		UPDATE vendors SET enabled = ?, updated_at = ? WHERE id = ?`,
		boolInt(enabled), now, id)
	return err
}

// DeleteVendor removes a vendor. Cascades to menu items and price changes.
func (s *Store) DeleteVendor(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM vendors WHERE id = ?`, id)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
