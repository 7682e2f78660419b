package repository

import (
	"context"
	"fmt"

	"github.com/hray3182/pengingat/internal/database"
	"github.com/hray3182/pengingat/internal/models"
)

// PostgresSnapshotter keeps the store in the reminders table created by the
// embedded migrations.
type PostgresSnapshotter struct {
	conn database.Conn
}

func NewPostgresSnapshotter(conn database.Conn) *PostgresSnapshotter {
	return &PostgresSnapshotter{conn: conn}
}

func (s *PostgresSnapshotter) Load(ctx context.Context) ([]*models.Reminder, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT id::text, owner, task_text, schedule_type, schedule_fields, active, created_at, last_triggered_at, updated_at
		 FROM reminders ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []record
	for rows.Next() {
		var (
			rec    record
			fields []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Owner, &rec.TaskText, &rec.ScheduleType, &fields, &rec.Active,
			&rec.CreatedAt, &rec.LastTriggeredAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		if rec.ScheduleFields, err = decodeFields(fields); err != nil {
			return nil, fmt.Errorf("reminder %s: invalid schedule fields: %w", rec.ID, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fromRecords(recs)
}

func (s *PostgresSnapshotter) Save(ctx context.Context, reminders []*models.Reminder) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reminders`); err != nil {
		return err
	}
	for seq, rec := range toRecords(reminders) {
		fields, err := encodeFields(rec.ScheduleFields)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO reminders (id, seq, owner, task_text, schedule_type, schedule_fields, active, created_at, last_triggered_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			rec.ID, seq, rec.Owner, rec.TaskText, rec.ScheduleType, fields, rec.Active,
			rec.CreatedAt, rec.LastTriggeredAt, rec.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reminder %s: %w", rec.ID, err)
		}
	}
	return tx.Commit(ctx)
}
