// Package tracking is the durable per-series watch-progress store and its
// derived statistics. The store handle is constructed explicitly and passed
// to every call site; records are created on first track action and never
// auto-pruned.
package tracking

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var ErrPathRequired = errors.New("database path not provided")

// Store is the durable mapping series-id -> Series record, backed by SQLite
// with an in-memory mirror. It supports concurrent readers alongside a
// single in-flight writer per series; each series record is independently,
// not globally, consistent.
type Store struct {
	db *sql.DB

	mu     sync.RWMutex
	series map[int]*Series
}

// Open opens (creating if needed) the tracking database at path, applies
// pending migrations and loads all series records into memory.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open tracking database: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate tracking database: %w", err)
	}

	store := &Store{db: db, series: make(map[int]*Series)}
	if err := store.load(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (st *Store) Close() error {
	return st.db.Close()
}

// GetSeries returns the tracked record for a series id, or nil when the
// series has never been tracked.
func (st *Store) GetSeries(id int) *Series {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.series[id]
}

// NewSeries constructs a fresh record bound to this store. The record is not
// durable (and not enumerated) until its first Update or AddEpisode.
func (st *Store) NewSeries(name string, id int) *Series {
	return &Series{
		ID:      id,
		Seasons: make(map[int]*Season),
		name:    name,
		store:   st,
	}
}

// GetSeriesCollection enumerates every tracked series, ordered by id, for
// bulk and aggregate operations.
func (st *Store) GetSeriesCollection() []*Series {
	st.mu.RLock()
	defer st.mu.RUnlock()
	collection := make([]*Series, 0, len(st.series))
	for _, s := range st.series {
		collection = append(collection, s)
	}
	sort.Slice(collection, func(i, j int) bool { return collection[i].ID < collection[j].ID })
	return collection
}

// RemoveSeries deletes a series record durably. Removal is explicit only;
// nothing in the store prunes records on its own.
func (st *Store) RemoveSeries(id int) error {
	if _, err := st.db.Exec(`DELETE FROM series WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove series %d: %w", id, err)
	}
	st.mu.Lock()
	delete(st.series, id)
	st.mu.Unlock()
	return nil
}

func (st *Store) load() error {
	rows, err := st.db.Query(`SELECT id, name, seasons FROM series`)
	if err != nil {
		return fmt.Errorf("load series collection: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      int
			name    string
			seasons string
		)
		if err := rows.Scan(&id, &name, &seasons); err != nil {
			return fmt.Errorf("scan series row: %w", err)
		}
		s := &Series{ID: id, Seasons: make(map[int]*Season), name: name, store: st}
		if err := json.Unmarshal([]byte(seasons), &s.Seasons); err != nil {
			return fmt.Errorf("decode seasons of series %d: %w", id, err)
		}
		st.series[id] = s
	}
	return rows.Err()
}

// persist flushes one series record to the database and registers it in the
// in-memory mirror.
func (st *Store) persist(s *Series) error {
	s.mu.RLock()
	name := s.name
	encoded, err := json.Marshal(s.Seasons)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode seasons of series %d: %w", s.ID, err)
	}

	_, err = st.db.Exec(
		`INSERT INTO series (id, name, seasons) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, seasons = excluded.seasons`,
		s.ID, name, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("persist series %d: %w", s.ID, err)
	}

	st.mu.Lock()
	st.series[s.ID] = s
	st.mu.Unlock()
	return nil
}
