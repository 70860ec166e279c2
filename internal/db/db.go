package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a named row does not exist.
var ErrNotFound = errors.New("not found")

type DB struct {
	SQL  *sqlx.DB
	Path string
}

// Tree is a stored behavior tree description.
type Tree struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Decision is one recorded tick result for an actor.
type Decision struct {
	ID        int64     `db:"id" json:"id"`
	ActorID   string    `db:"actor_id" json:"actor_id"`
	Tree      string    `db:"tree" json:"tree"`
	Tick      int64     `db:"tick" json:"tick"`
	State     string    `db:"state" json:"state"`
	Error     string    `db:"error" json:"error,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func Open(path string) (*DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := prepare(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}
	return &DB{SQL: db, Path: path}, nil
}

func prepare(db *sqlx.DB) error {
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return err
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return err
	}
	// modernc SQLite opens a connection per goroutine unless capped.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return err
	}
	return migrate(db)
}

func (d *DB) Close() error {
	return d.SQL.Close()
}

func migrate(db *sqlx.DB) error {
	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trees (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL,
			created_at TIMESTAMP,
			updated_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS decisions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			actor_id TEXT NOT NULL,
			tree TEXT NOT NULL,
			tick INTEGER NOT NULL,
			state TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS decisions_actor ON decisions(actor_id, id);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			log.Printf("migration failed: %v", err)
			return err
		}
	}
	return nil
}

func (d *DB) ListTrees(ctx context.Context) ([]Tree, error) {
	trees := []Tree{}
	err := d.SQL.SelectContext(ctx, &trees, `SELECT id, name, description, created_at, updated_at FROM trees ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return trees, nil
}

func (d *DB) GetTree(ctx context.Context, name string) (Tree, error) {
	var t Tree
	err := d.SQL.GetContext(ctx, &t, `SELECT id, name, description, created_at, updated_at FROM trees WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("tree %q: %w", name, ErrNotFound)
	}
	return t, err
}

// UpsertTree inserts the tree or replaces the description of an existing
// tree with the same name.
func (d *DB) UpsertTree(ctx context.Context, name, description string) (Tree, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tree{}, errors.New("tree name required")
	}
	now := time.Now().UTC()
	_, err := d.SQL.ExecContext(ctx, `INSERT INTO trees (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	description=excluded.description,
	updated_at=excluded.updated_at`, name, description, now, now)
	if err != nil {
		return Tree{}, err
	}
	return d.GetTree(ctx, name)
}

func (d *DB) DeleteTree(ctx context.Context, name string) error {
	res, err := d.SQL.ExecContext(ctx, `DELETE FROM trees WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("tree %q: %w", name, ErrNotFound)
	}
	return nil
}

func (d *DB) RecordDecision(ctx context.Context, dec Decision) error {
	if dec.CreatedAt.IsZero() {
		dec.CreatedAt = time.Now().UTC()
	}
	_, err := d.SQL.NamedExecContext(ctx, `INSERT INTO decisions (actor_id, tree, tick, state, error, created_at)
VALUES (:actor_id, :tree, :tick, :state, :error, :created_at)`, dec)
	return err
}

// ListDecisions returns the most recent decisions, newest first. An empty
// actorID lists decisions for every actor.
func (d *DB) ListDecisions(ctx context.Context, actorID string, limit int) ([]Decision, error) {
	if limit <= 0 {
		limit = 100
	}
	decisions := []Decision{}
	q := `SELECT id, actor_id, tree, tick, state, error, created_at FROM decisions`
	args := []any{}
	if actorID != "" {
		q += ` WHERE actor_id = ?`
		args = append(args, actorID)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	if err := d.SQL.SelectContext(ctx, &decisions, q, args...); err != nil {
		return nil, err
	}
	return decisions, nil
}

// PruneDecisions keeps only the newest keep rows.
func (d *DB) PruneDecisions(ctx context.Context, keep int) (int64, error) {
	res, err := d.SQL.ExecContext(ctx, `DELETE FROM decisions WHERE id <= (SELECT COALESCE(MAX(id), 0) FROM decisions) - ?`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
