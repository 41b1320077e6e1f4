// Package store provides the SQLite persistence layer for pricewatch.
package store

import (
	"database/sql"

	"github.com/hazyhaar/pricewatch/dbopen"
	"github.com/hazyhaar/pricewatch/idgen"
)

// Store is the pricewatch database handle.
type Store struct {
	DB *sql.DB

	newID idgen.Generator
}

// Open opens (or creates) the pricewatch SQLite database at path, applies
// the standard pragmas and the pricewatch schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db, newID: idgen.Default}, nil
}

// New wraps an already-open database handle. Tests use it with
// dbopen.OpenMemory and the package schema.
func New(db *sql.DB) *Store {
	return &Store{DB: db, newID: idgen.Default}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}
