// Package token persists the bearer credential pair across restarts.
package token

import (
	"context"
	"database/sql"
	"errors"
	"log"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// Credential names understood by the store.
const (
	AccessToken  = "access"
	RefreshToken = "refresh"
)

// Store is the durable credential store. If the access token is present
// the refresh token is present too; SetPair and Clear keep that atomic.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	SetPair(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// DB is a Store backed by a sqlite database file.
type DB struct {
	conn *sql.DB
}

// Open opens the credential database and runs migrations.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS credentials (
		name  TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	return err
}

// Get returns the stored token, or "" when none is stored.
func (db *DB) Get(ctx context.Context, name string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		"SELECT value FROM credentials WHERE name = ?", name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		log.Printf("token store: read %s: %v", name, err)
		return "", err
	}
	return value, nil
}

// SetPair stores both tokens in one transaction so a reader never sees
// the access token without its refresh token.
func (db *DB) SetPair(ctx context.Context, access, refresh string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("token store: begin: %v", err)
		return err
	}
	defer tx.Rollback()

	upsert := "INSERT INTO credentials (name, value) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value"
	if _, err := tx.ExecContext(ctx, upsert, AccessToken, access); err != nil {
		log.Printf("token store: write access: %v", err)
		return err
	}
	if _, err := tx.ExecContext(ctx, upsert, RefreshToken, refresh); err != nil {
		log.Printf("token store: write refresh: %v", err)
		return err
	}
	return tx.Commit()
}

// Clear removes both tokens. Clearing an empty store is not an error.
func (db *DB) Clear(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, "DELETE FROM credentials"); err != nil {
		log.Printf("token store: clear: %v", err)
		return err
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
