package store

// Schema contains the complete DDL for the pricewatch tables.
const Schema = `
-- Monitored storefront vendors
CREATE TABLE IF NOT EXISTS vendors (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    url         TEXT NOT NULL UNIQUE,
    enabled     INTEGER NOT NULL DEFAULT 1,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_vendors_enabled ON vendors(enabled);

-- Current menu state per vendor; one row per (vendor, category, item name)
CREATE TABLE IF NOT EXISTS menu_items (
    id              TEXT PRIMARY KEY,
    vendor_id       TEXT NOT NULL REFERENCES vendors(id) ON DELETE CASCADE,
    category        TEXT NOT NULL DEFAULT '',
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    final_price     INTEGER NOT NULL,
    original_price  INTEGER NOT NULL DEFAULT 0,
    discount_pct    REAL NOT NULL DEFAULT 0,
    image_url       TEXT NOT NULL DEFAULT '',
    first_seen_at   INTEGER NOT NULL,
    last_seen_at    INTEGER NOT NULL,
    UNIQUE(vendor_id, category, name)
);
CREATE INDEX IF NOT EXISTS idx_items_vendor ON menu_items(vendor_id);

-- Price movement audit trail
CREATE TABLE IF NOT EXISTS price_changes (
    id          TEXT PRIMARY KEY,
    item_id     TEXT NOT NULL REFERENCES menu_items(id) ON DELETE CASCADE,
    vendor_id   TEXT NOT NULL,
    old_price   INTEGER NOT NULL,
    new_price   INTEGER NOT NULL,
    changed_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_changes_item ON price_changes(item_id, changed_at DESC);
CREATE INDEX IF NOT EXISTS idx_changes_vendor ON price_changes(vendor_id, changed_at DESC);

-- One row per completed batch update run
CREATE TABLE IF NOT EXISTS update_sessions (
    id              TEXT PRIMARY KEY,
    status          TEXT NOT NULL,
    started_at      INTEGER NOT NULL,
    finished_at     INTEGER NOT NULL DEFAULT 0,
    total_vendors   INTEGER NOT NULL DEFAULT 0,
    succeeded       INTEGER NOT NULL DEFAULT 0,
    failed          INTEGER NOT NULL DEFAULT 0,
    items_updated   INTEGER NOT NULL DEFAULT 0,
    error           TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sessions_time ON update_sessions(started_at DESC);
`
