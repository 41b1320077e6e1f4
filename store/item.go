package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hazyhaar/pricewatch/dbopen"
	"github.com/hazyhaar/pricewatch/extract"
)

// MenuItem is the current stored state of one menu entry.
type MenuItem struct {
	ID            string  `json:"id"`
	VendorID      string  `json:"vendor_id"`
	Category      string  `json:"category"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	FinalPrice    int64   `json:"final_price"`
	OriginalPrice int64   `json:"original_price,omitempty"`
	DiscountPct   float64 `json:"discount_pct,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`
	FirstSeenAt   int64   `json:"first_seen_at"`
	LastSeenAt    int64   `json:"last_seen_at"`
}

// PriceChange is one recorded price movement.
type PriceChange struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	VendorID  string `json:"vendor_id"`
	OldPrice  int64  `json:"old_price"`
	NewPrice  int64  `json:"new_price"`
	ChangedAt int64  `json:"changed_at"`
}

// UpsertMenu writes an extracted menu for a vendor in one transaction and
// returns the number of items written. A final price that differs from the
// stored one also appends a price_changes row. Items absent from the new
// menu keep their rows; last_seen_at distinguishes stale entries.
func (s *Store) UpsertMenu(ctx context.Context, vendorID string, menu *extract.Menu) (int, error) {
	now := time.Now().UnixMilli()
	written := 0

	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		written = 0
		for _, cat := range menu.Categories {
			for _, it := range cat.Items {
				if err := s.upsertItemTx(ctx, tx, vendorID, cat.Name, it, now); err != nil {
					return err
				}
				written++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (s *Store) upsertItemTx(ctx context.Context, tx *sql.Tx, vendorID, category string, it extract.Item, now int64) error {
	var (
		id       string
		oldPrice int64
	)
	err := tx.QueryRowContext(ctx, `
		SELECT id, final_price FROM menu_items
		WHERE vendor_id = ? AND category = ? AND name = ?`,
		vendorID, category, it.Name).Scan(&id, &oldPrice)

	if errors.Is(err, sql.ErrNoRows) {
		id = "itm_" + s.newID()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO menu_items
				(id, vendor_id, category, name, description, final_price,
				 original_price, discount_pct, image_url, first_seen_at, last_seen_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			id, vendorID, category, it.Name, it.Description, it.FinalPrice,
			it.OriginalPrice, it.DiscountPct, it.ImageURL, now, now,
		)
		return err
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE menu_items SET
			description=?, final_price=?, original_price=?, discount_pct=?,
			image_url=?, last_seen_at=?
		WHERE id=?`,
		it.Description, it.FinalPrice, it.OriginalPrice, it.DiscountPct,
		it.ImageURL, now, id,
	)
	if err != nil {
		return err
	}

	if oldPrice != it.FinalPrice {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO price_changes (id, item_id, vendor_id, old_price, new_price, changed_at)
			VALUES (?,?,?,?,?,?)`,
			"chg_"+s.newID(), id, vendorID, oldPrice, it.FinalPrice, now,
		)
	}
	return err
}

// ListItems returns the stored menu for a vendor ordered by category and
// name.
func (s *Store) ListItems(ctx context.Context, vendorID string) ([]*MenuItem, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, vendor_id, category, name, description, final_price,
		       original_price, discount_pct, image_url, first_seen_at, last_seen_at
		FROM menu_items WHERE vendor_id = ?
		ORDER BY category, name`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*MenuItem
	for rows.Next() {
		it := &MenuItem{}
		if err := rows.Scan(
			&it.ID, &it.VendorID, &it.Category, &it.Name, &it.Description, &it.FinalPrice,
			&it.OriginalPrice, &it.DiscountPct, &it.ImageURL, &it.FirstSeenAt, &it.LastSeenAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// PriceHistory returns recorded price movements for an item, most recent
// first.
func (s *Store) PriceHistory(ctx context.Context, itemID string, limit int) ([]*PriceChange, error) {
	query := `
		SELECT id, item_id, vendor_id, old_price, new_price, changed_at
		FROM price_changes WHERE item_id = ?
		ORDER BY changed_at DESC`
	args := []any{itemID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []*PriceChange
	for rows.Next() {
		c := &PriceChange{}
		if err := rows.Scan(&c.ID, &c.ItemID, &c.VendorID, &c.OldPrice, &c.NewPrice, &c.ChangedAt); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
