package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/nguyenkhacvan/uggo-new/lcu"
)

// BackupReason records why a page snapshot was taken.
type BackupReason string

const (
	BackupReasonDelete BackupReason = "delete"
	BackupReasonExport BackupReason = "export"
)

// PageBackup is a rune page snapshot kept so it can be recreated later. Only
// the page payload is stored; session credentials never reach disk.
type PageBackup struct {
	ID        string
	Summoner  string
	Reason    BackupReason
	Page      lcu.RunePage
	CreatedAt time.Time
}

// PageBackupStore persists rune page snapshots between runs.
type PageBackupStore interface {
	Save(ctx context.Context, backup *PageBackup) error
	Load(ctx context.Context, id string) (*PageBackup, bool, error)
	List(ctx context.Context) ([]PageBackup, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// SQLitePageStore keeps backups in a SQLite database.
type SQLitePageStore struct {
	db *sql.DB
}

// NewSQLitePageStore opens/creates the database at dbPath.
func NewSQLitePageStore(dbPath string) (*SQLitePageStore, error) {
	if dbPath == "" {
		return nil, errors.New("page store path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	store := &SQLitePageStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLitePageStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS page_backups (
		id TEXT PRIMARY KEY,
		page_id INTEGER NOT NULL,
		page_name TEXT NOT NULL,
		summoner TEXT,
		reason TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_page_backups_created ON page_backups(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *SQLitePageStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts a backup. Missing IDs and timestamps are filled in.
func (s *SQLitePageStore) Save(ctx context.Context, backup *PageBackup) error {
	if backup == nil {
		return errors.New("backup required")
	}
	if backup.ID == "" {
		backup.ID = uuid.NewString()
	}
	if backup.CreatedAt.IsZero() {
		backup.CreatedAt = time.Now().UTC()
	}
	if backup.Reason == "" {
		backup.Reason = BackupReasonExport
	}
	payload, err := json.Marshal(backup.Page)
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	query := `
	INSERT INTO page_backups (id, page_id, page_name, summoner, reason, payload, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		page_id=excluded.page_id,
		page_name=excluded.page_name,
		summoner=excluded.summoner,
		reason=excluded.reason,
		payload=excluded.payload,
		created_at=excluded.created_at
	`
	_, err = s.db.ExecContext(ctx, query,
		backup.ID,
		backup.Page.ID,
		backup.Page.Name,
		backup.Summoner,
		string(backup.Reason),
		string(payload),
		backup.CreatedAt.UnixNano(),
	)
	return err
}

// Load retrieves a backup by ID.
func (s *SQLitePageStore) Load(ctx context.Context, id string) (*PageBackup, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, summoner, reason, payload, created_at FROM page_backups WHERE id = ?`, id)
	backup, err := scanBackup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return backup, true, nil
}

// List returns every backup, newest first.
func (s *SQLitePageStore) List(ctx context.Context) ([]PageBackup, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, summoner, reason, payload, created_at FROM page_backups ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var backups []PageBackup
	for rows.Next() {
		backup, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		backups = append(backups, *backup)
	}
	return backups, rows.Err()
}

// Delete removes a backup.
func (s *SQLitePageStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM page_backups WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBackup(row rowScanner) (*PageBackup, error) {
	var (
		backup    PageBackup
		summoner  sql.NullString
		reason    string
		payload   string
		createdAt int64
	)
	if err := row.Scan(&backup.ID, &summoner, &reason, &payload, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &backup.Page); err != nil {
		return nil, fmt.Errorf("decode page backup %s: %w", backup.ID, err)
	}
	backup.Summoner = summoner.String
	backup.Reason = BackupReason(reason)
	backup.CreatedAt = time.Unix(0, createdAt).UTC()
	return &backup, nil
}
