package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/eventman/internal/model"
)

// PostgresAttendeeRepo はPostgreSQLを使用した参加記録リポジトリ。
type PostgresAttendeeRepo struct {
	db *sql.DB
}

// NewPostgresAttendeeRepo はPostgresAttendeeRepoを生成する。
func NewPostgresAttendeeRepo(db *sql.DB) *PostgresAttendeeRepo {
	return &PostgresAttendeeRepo{db: db}
}

// Add は参加記録を冪等に作成する。
// INSERT ON CONFLICT DO NOTHINGで挿入し、挿入されなかった場合は既存の記録を読み直す。
func (r *PostgresAttendeeRepo) Add(ctx context.Context, eventID, userID int64) (*model.Attendee, bool, error) {
	att := &model.Attendee{EventID: eventID, UserID: userID}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO attendees (event_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (event_id, user_id) DO NOTHING
		 RETURNING id, created_at`,
		eventID, userID,
	).Scan(&att.ID, &att.CreatedAt)

	switch {
	case err == nil:
		return att, true, nil
	case isForeignKeyViolation(err):
		return nil, false, ErrReferenceNotFound
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, fmt.Errorf("failed to insert attendee: %w", err)
	}

	// 競合した場合は既存の記録を返す
	err = r.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM attendees WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&att.ID, &att.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find existing attendee: %w", err)
	}
	return att, false, nil
}

// Remove は参加記録を削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresAttendeeRepo) Remove(ctx context.Context, eventID, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM attendees WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete attendee: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// ListUsers はイベントの参加者をユーザーID昇順で返す。
func (r *PostgresAttendeeRepo) ListUsers(ctx context.Context, eventID int64) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.email, u.name, u.created_at, u.updated_at
		 FROM users u
		 INNER JOIN attendees a ON a.user_id = u.id
		 WHERE a.event_id = $1
		 ORDER BY u.id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendee: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendees: %w", err)
	}
	return users, nil
}

// compile-time interface check
var _ AttendeeRepository = (*PostgresAttendeeRepo)(nil)
