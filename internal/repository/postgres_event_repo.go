package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/eventman/internal/model"
)

const eventColumns = `e.id, e.owner_id, e.name, e.description, e.date, e.location, e.created_at, e.updated_at`

// PostgresEventRepo はPostgreSQLを使用したイベントリポジトリ。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	ev := &model.Event{}
	err := row.Scan(&ev.ID, &ev.OwnerID, &ev.Name, &ev.Description, &ev.Date, &ev.Location, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ev.Date = ev.Date.UTC()
	return ev, nil
}

// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
func (r *PostgresEventRepo) FindByID(ctx context.Context, id int64) (*model.Event, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event by ID: %w", err)
	}
	return ev, nil
}

// List は全イベントを開催日時の昇順で返す。
func (r *PostgresEventRepo) List(ctx context.Context) ([]model.Event, error) {
	return r.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events e ORDER BY e.date ASC, e.id ASC`,
	)
}

// ListByAttendee は指定ユーザーが参加しているイベントを開催日時の昇順で返す。
func (r *PostgresEventRepo) ListByAttendee(ctx context.Context, userID int64) ([]model.Event, error) {
	return r.queryEvents(ctx,
		`SELECT `+eventColumns+`
		 FROM events e
		 INNER JOIN attendees a ON a.event_id = e.id
		 WHERE a.user_id = $1
		 ORDER BY e.date ASC, e.id ASC`,
		userID,
	)
}

func (r *PostgresEventRepo) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// Create はイベントを作成する。
func (r *PostgresEventRepo) Create(ctx context.Context, event *model.Event) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO events (owner_id, name, description, date, location)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		event.OwnerID, event.Name, event.Description, event.Date, event.Location,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)

	if isForeignKeyViolation(err) {
		return ErrReferenceNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Update はイベントの内容を更新する。owner_idは変更しない。
func (r *PostgresEventRepo) Update(ctx context.Context, event *model.Event) (bool, error) {
	err := r.db.QueryRowContext(ctx,
		`UPDATE events
		 SET name = $2, description = $3, date = $4, location = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		event.ID, event.Name, event.Description, event.Date, event.Location,
	).Scan(&event.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to update event: %w", err)
	}
	return true, nil
}

// Delete は指定IDのイベントを削除する。
func (r *PostgresEventRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete event: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)
