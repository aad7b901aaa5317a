package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"medialib/internal/logging"
	"medialib/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database manages the persistent metadata cache.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens (or creates) the metadata database at dbPath and applies
// schema migrations. The parent directory must already exist.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	// WAL mode and a busy timeout prevent "database is locked" errors
	// when decode workers upsert concurrently.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=1", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	-- Tracked top-level media folders
	CREATE TABLE IF NOT EXISTS scanned_folders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		last_scanned INTEGER NOT NULL,
		file_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	-- Per-file metadata cache, keyed by absolute path.
	-- folder_id is nullable: files outside any tracked folder are
	-- stored as detached entries.
	CREATE TABLE IF NOT EXISTS media_metadata (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder_id INTEGER REFERENCES scanned_folders(id) ON DELETE CASCADE,
		file_path TEXT NOT NULL UNIQUE,
		file_name TEXT NOT NULL,
		file_type TEXT NOT NULL,
		file_size INTEGER NOT NULL DEFAULT 0,
		width INTEGER,
		height INTEGER,
		duration REAL,
		modified_date INTEGER NOT NULL,
		indexed_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		format TEXT,
		format_long TEXT,
		bitrate INTEGER,
		video_codec TEXT,
		video_codec_long TEXT,
		video_bitrate INTEGER,
		frame_rate REAL,
		pix_fmt TEXT,
		aspect_ratio TEXT,
		audio_codec TEXT,
		audio_codec_long TEXT,
		audio_bitrate INTEGER,
		sample_rate INTEGER,
		audio_channels INTEGER,
		sample_fmt TEXT,
		metadata_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_media_folder_id ON media_metadata(folder_id);
	CREATE INDEX IF NOT EXISTS idx_media_file_type ON media_metadata(file_type);
	CREATE INDEX IF NOT EXISTS idx_media_file_path ON media_metadata(file_path);

	-- User preferences
	CREATE TABLE IF NOT EXISTS user_preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);
	`

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// recordQuery records database query metrics.
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
