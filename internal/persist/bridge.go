// Package persist serializes the session and the last-loaded period to
// durable storage and rehydrates them at startup, before the first
// authenticated/unauthenticated routing decision is made.
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	// Import sqlite driver
	_ "modernc.org/sqlite"

	"github.com/wealthplanner/budget_bot/internal/cache"
	"github.com/wealthplanner/budget_bot/internal/model"
)

// SnapshotVersion is bumped whenever the snapshot layout changes in an
// incompatible way; older snapshots are discarded on rehydrate, never
// misread.
const SnapshotVersion = 1

const snapshotKey = "root"

// Snapshot is the persisted slice of state: the session plus the last
// loaded period, not the full historical cache.
type Snapshot struct {
	Version   int                 `json:"version"`
	User      *model.UserProfile  `json:"user,omitempty"`
	IsNewUser bool                `json:"is_new_user,omitempty"`
	Period    *model.Period       `json:"period,omitempty"`
	Entries   []model.Transaction `json:"transactions,omitempty"`
	Summary   *cache.Summary      `json:"summary,omitempty"`
	FetchedAt time.Time           `json:"fetched_at"`
	SavedAt   time.Time           `json:"saved_at"`
}

// Bridge reads and writes snapshots.
type Bridge struct {
	conn *sql.DB

	readyOnce sync.Once
	ready     chan struct{}
}

// Open opens the snapshot database and runs migrations.
func Open(path string) (*Bridge, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}

	b := &Bridge{conn: conn, ready: make(chan struct{})}
	if err := b.migrate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bridge) migrate() error {
	_, err := b.conn.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		key      TEXT PRIMARY KEY,
		version  INTEGER NOT NULL,
		data     BLOB NOT NULL,
		saved_at DATETIME NOT NULL
	)`)
	return err
}

// Save writes the snapshot; called on every state transition.
func (b *Bridge) Save(ctx context.Context, snap Snapshot) error {
	snap.Version = SnapshotVersion
	snap.SavedAt = time.Now()

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = b.conn.ExecContext(ctx, `
		INSERT INTO snapshots (key, version, data, saved_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET version = excluded.version, data = excluded.data, saved_at = excluded.saved_at
	`, snapshotKey, SnapshotVersion, data, snap.SavedAt)
	if err != nil {
		log.Printf("persist: save snapshot: %v", err)
	}
	return err
}

// Rehydrate loads the stored snapshot, discarding version mismatches.
// It returns nil when there is nothing usable, and closes the Ready gate
// either way. Callers block on it exactly once, at startup.
func (b *Bridge) Rehydrate(ctx context.Context) (*Snapshot, error) {
	defer b.readyOnce.Do(func() { close(b.ready) })

	var version int
	var data []byte
	err := b.conn.QueryRowContext(ctx,
		"SELECT version, data FROM snapshots WHERE key = ?", snapshotKey,
	).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if version != SnapshotVersion {
		log.Printf("persist: discarding snapshot version %d (want %d)", version, SnapshotVersion)
		_, _ = b.conn.ExecContext(ctx, "DELETE FROM snapshots WHERE key = ?", snapshotKey)
		return nil, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("persist: discarding unreadable snapshot: %v", err)
		_, _ = b.conn.ExecContext(ctx, "DELETE FROM snapshots WHERE key = ?", snapshotKey)
		return nil, nil
	}
	return &snap, nil
}

// Ready is closed once the first Rehydrate has completed.
func (b *Bridge) Ready() <-chan struct{} {
	return b.ready
}

// Close closes the database connection.
func (b *Bridge) Close() error {
	return b.conn.Close()
}
