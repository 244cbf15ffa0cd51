package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/negurvulkan/BeichtBot/internal/models"

	_ "modernc.org/sqlite"
)

type Database struct {
	db *sql.DB
}

var globalDB *Database

// Open creates the SQLite database at dbPath and prepares its schema
func Open(dbPath string) (*Database, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	// FULL keeps a committed document durable across power loss
	if _, err := db.Exec("PRAGMA synchronous=FULL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	d := &Database{db: db}

	if err := d.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := d.seedEventTypes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed event types: %w", err)
	}

	return d, nil
}

// Initialize opens the database and installs it as the global instance
func Initialize(dbPath string) error {
	d, err := Open(dbPath)
	if err != nil {
		return err
	}
	globalDB = d
	return nil
}

// GetDB returns the global database instance
func GetDB() *Database {
	return globalDB
}

// IsConnected checks if database connection is alive
func IsConnected() bool {
	if globalDB == nil || globalDB.db == nil {
		return false
	}
	return globalDB.db.Ping() == nil
}

// Close closes the global database connection
func Close() error {
	if globalDB != nil {
		err := globalDB.Close()
		globalDB = nil
		return err
	}
	return nil
}

func (d *Database) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// createTables creates all necessary database tables
func (d *Database) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS event_types (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS state_document (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		body BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS moderation_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		correlation_id TEXT NOT NULL,
		guild_id TEXT NOT NULL,
		event_type INTEGER NOT NULL,
		stage TEXT NOT NULL,
		message_id TEXT DEFAULT '',
		trace_token TEXT DEFAULT '',
		pii INTEGER DEFAULT 0,
		crisis INTEGER DEFAULT 0,
		detail TEXT DEFAULT '',
		timestamp INTEGER NOT NULL,
		FOREIGN KEY (event_type) REFERENCES event_types(id)
	);

	CREATE INDEX IF NOT EXISTS idx_moderation_events_guild ON moderation_events(guild_id);
	CREATE INDEX IF NOT EXISTS idx_moderation_events_timestamp ON moderation_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_moderation_events_message ON moderation_events(guild_id, message_id);
	`

	_, err := d.db.Exec(schema)
	return err
}

// seedEventTypes populates the event_types table
func (d *Database) seedEventTypes() error {
	for id, name := range models.EventTypeNames {
		_, err := d.db.Exec(
			`INSERT OR IGNORE INTO event_types (id, name) VALUES (?, ?)`,
			id, name,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ===== State document =====

// LoadDocument returns the stored state document, or nil if none was saved yet
func (d *Database) LoadDocument() ([]byte, error) {
	var body []byte
	err := d.db.QueryRow(`SELECT body FROM state_document WHERE id = 1`).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state document: %w", err)
	}
	return body, nil
}

// SaveDocument replaces the stored state document in a single transaction
func (d *Database) SaveDocument(body []byte) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO state_document (id, body, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		body, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write state document: %w", err)
	}

	return tx.Commit()
}

// DocumentBackend adapts the database to the store's backend contract
type DocumentBackend struct {
	db *Database
}

func NewDocumentBackend(db *Database) *DocumentBackend {
	return &DocumentBackend{db: db}
}

func (b *DocumentBackend) Load() ([]byte, error) {
	return b.db.LoadDocument()
}

func (b *DocumentBackend) Save(data []byte) error {
	return b.db.SaveDocument(data)
}

// ===== Moderation events =====

// LogEvent appends a moderation event
func (d *Database) LogEvent(ctx context.Context, ev *models.ModerationEvent) error {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO moderation_events (correlation_id, guild_id, event_type, stage, message_id, trace_token, pii, crisis, detail, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.CorrelationID, ev.GuildID, ev.EventType, ev.Stage, ev.MessageID, ev.TraceToken, ev.PII, ev.Crisis, ev.Detail, ev.Timestamp,
	)
	if err != nil {
		return err
	}

	ev.ID, err = res.LastInsertId()
	return err
}

// GetRecentEvents retrieves the most recent moderation events for a guild
func (d *Database) GetRecentEvents(ctx context.Context, guildID string, limit int) ([]*models.ModerationEvent, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, correlation_id, guild_id, event_type, stage, message_id, trace_token, pii, crisis, detail, timestamp
		 FROM moderation_events WHERE guild_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.ModerationEvent
	for rows.Next() {
		var ev models.ModerationEvent
		var pii, crisis int
		if err := rows.Scan(&ev.ID, &ev.CorrelationID, &ev.GuildID, &ev.EventType, &ev.Stage, &ev.MessageID, &ev.TraceToken, &pii, &crisis, &ev.Detail, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.PII = pii != 0
		ev.Crisis = crisis != 0
		events = append(events, &ev)
	}

	return events, rows.Err()
}

// CountEvents groups the guild's logged events by type
func (d *Database) CountEvents(ctx context.Context, guildID string) ([]*EventCount, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT t.id, t.name, COUNT(e.id)
		 FROM event_types t
		 LEFT JOIN moderation_events e ON e.event_type = t.id AND e.guild_id = ?
		 GROUP BY t.id, t.name ORDER BY t.id`,
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []*EventCount
	for rows.Next() {
		var c EventCount
		if err := rows.Scan(&c.EventType, &c.Name, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, &c)
	}

	return counts, rows.Err()
}

// DeleteGuildEvents removes all logged events of a guild
func (d *Database) DeleteGuildEvents(ctx context.Context, guildID string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM moderation_events WHERE guild_id = ?`, guildID)
	return err
}

// GetEventTypes retrieves all event types
func (d *Database) GetEventTypes() ([]*EventType, error) {
	rows, err := d.db.Query(`SELECT id, name FROM event_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*EventType
	for rows.Next() {
		var t EventType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		types = append(types, &t)
	}

	return types, rows.Err()
}
