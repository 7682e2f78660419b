package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hray3182/pengingat/internal/models"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reminders (
	id TEXT PRIMARY KEY,
	seq INTEGER NOT NULL,
	owner TEXT NOT NULL,
	task_text TEXT NOT NULL,
	schedule_type TEXT NOT NULL,
	schedule_fields TEXT NOT NULL,
	active INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	last_triggered_at TEXT,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reminders_seq ON reminders(seq);
`

// SQLiteSnapshotter keeps the store in a single sqlite table. Save replaces
// the table contents in one transaction.
type SQLiteSnapshotter struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteSnapshotter, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000")
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create reminders table: %w", err)
	}
	return &SQLiteSnapshotter{db: db}, nil
}

func (s *SQLiteSnapshotter) Close() error {
	return s.db.Close()
}

func (s *SQLiteSnapshotter) Load(ctx context.Context) ([]*models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, task_text, schedule_type, schedule_fields, active, created_at, last_triggered_at, updated_at
		 FROM reminders ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []record
	for rows.Next() {
		var (
			rec              record
			fields           string
			created, updated string
			lastTriggered    sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Owner, &rec.TaskText, &rec.ScheduleType, &fields, &rec.Active,
			&created, &lastTriggered, &updated); err != nil {
			return nil, err
		}
		if rec.ScheduleFields, err = decodeFields([]byte(fields)); err != nil {
			return nil, fmt.Errorf("reminder %s: invalid schedule fields: %w", rec.ID, err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("reminder %s: invalid created_at: %w", rec.ID, err)
		}
		if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("reminder %s: invalid updated_at: %w", rec.ID, err)
		}
		if lastTriggered.Valid {
			t, err := time.Parse(time.RFC3339Nano, lastTriggered.String)
			if err != nil {
				return nil, fmt.Errorf("reminder %s: invalid last_triggered_at: %w", rec.ID, err)
			}
			rec.LastTriggeredAt = &t
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fromRecords(recs)
}

func (s *SQLiteSnapshotter) Save(ctx context.Context, reminders []*models.Reminder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reminders`); err != nil {
		return err
	}
	for seq, rec := range toRecords(reminders) {
		fields, err := encodeFields(rec.ScheduleFields)
		if err != nil {
			return err
		}
		var lastTriggered sql.NullString
		if rec.LastTriggeredAt != nil {
			lastTriggered = sql.NullString{String: rec.LastTriggeredAt.Format(time.RFC3339Nano), Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO reminders(id, seq, owner, task_text, schedule_type, schedule_fields, active, created_at, last_triggered_at, updated_at)
			 VALUES(?,?,?,?,?,?,?,?,?,?)`,
			rec.ID, seq, rec.Owner, rec.TaskText, rec.ScheduleType, fields, rec.Active,
			rec.CreatedAt.Format(time.RFC3339Nano), lastTriggered, rec.UpdatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert reminder %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}
