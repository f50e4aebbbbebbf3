// Package store persists document snapshots in SQLite so a session can be
// resumed.
package store

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"mdsync/common"
	"mdsync/document"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	created  INTEGER NOT NULL,
	active   TEXT    NOT NULL,
	markdown TEXT    NOT NULL,
	html     TEXT    NOT NULL,
	css      TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_created ON snapshots(created);
`

// Entry is a stored snapshot.
type Entry struct {
	ID       int64
	Created  time.Time
	Snapshot document.Snapshot
}

// Store keeps snapshots in a single SQLite connection. Safe for concurrent
// use.
type Store struct {
	log  *zap.Logger
	mu   sync.Mutex
	conn *sqlite.Conn
	now  func() time.Time
}

// Option configures Store.
type Option func(*Store)

// WithClock replaces time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens (creating when necessary) database at path. Empty path opens
// private in-memory database.
func Open(path string, log *zap.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var (
		conn *sqlite.Conn
		err  error
	)
	if path == "" {
		conn, err = sqlite.OpenConn(":memory:", sqlite.OpenReadWrite, sqlite.OpenMemory)
	} else {
		conn, err = sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open snapshot store %q: %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare snapshot store %q: %w", path, err)
	}
	s := &Store{
		log:  log.Named("store"),
		conn: conn,
		now:  time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.log.Debug("Snapshot store opened", zap.String("path", path))
	return s, nil
}

// Close closes database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Save stores snapshot unless it is identical to the latest one. Returns id
// of the latest stored snapshot.
func (s *Store) Save(snap document.Snapshot) (id int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer sqlitex.Save(s.conn)(&err)

	last, ok, err := s.latest()
	if err != nil {
		return 0, err
	}
	if ok && last.Snapshot == snap {
		return last.ID, nil
	}
	err = sqlitex.Execute(s.conn,
		`INSERT INTO snapshots (created, active, markdown, html, css) VALUES (?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{s.now().UnixNano(), snap.Active.String(), snap.Markdown, snap.HTML, snap.CSS}})
	if err != nil {
		return 0, fmt.Errorf("unable to save snapshot: %w", err)
	}
	id = s.conn.LastInsertRowID()
	s.log.Debug("Snapshot saved", zap.Int64("id", id))
	return id, nil
}

// Latest returns most recent snapshot.
func (s *Store) Latest() (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest()
}

func (s *Store) latest() (Entry, bool, error) {
	entries, err := s.query(`SELECT id, created, active, markdown, html, css FROM snapshots ORDER BY id DESC LIMIT 1`)
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[0], true, nil
}

// History returns up to limit most recent snapshots, newest first.
func (s *Store) History(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = -1
	}
	return s.query(`SELECT id, created, active, markdown, html, css FROM snapshots ORDER BY id DESC LIMIT ?`, limit)
}

// Prune removes all but keep most recent snapshots.
func (s *Store) Prune(keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := sqlitex.Execute(s.conn,
		`DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`,
		&sqlitex.ExecOptions{Args: []any{max(keep, 0)}})
	if err != nil {
		return 0, fmt.Errorf("unable to prune snapshots: %w", err)
	}
	return s.conn.Changes(), nil
}

func (s *Store) query(q string, args ...any) ([]Entry, error) {
	var entries []Entry
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			active, err := common.ParseMode(stmt.ColumnText(2))
			if err != nil {
				return fmt.Errorf("snapshot %d: %w", stmt.ColumnInt64(0), err)
			}
			entries = append(entries, Entry{
				ID:      stmt.ColumnInt64(0),
				Created: time.Unix(0, stmt.ColumnInt64(1)),
				Snapshot: document.Snapshot{
					Active:   active,
					Markdown: stmt.ColumnText(3),
					HTML:     stmt.ColumnText(4),
					CSS:      stmt.ColumnText(5),
				},
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to read snapshots: %w", err)
	}
	return entries, nil
}
