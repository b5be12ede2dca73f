// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/eventman/internal/model"
)

var (
	// ErrDuplicate は一意制約違反を表す。
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenceNotFound は外部キーの参照先が存在しないことを表す。
	ErrReferenceNotFound = errors.New("referenced record not found")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	// PasswordHashも読み込む。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDとタイムスタンプをuserに設定する。
	// メールアドレスが登録済みの場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はサーバー側セッションの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByTokenHash はトークンハッシュで有効なセッションを取得する。
	// 期限切れまたは見つからない場合はnilを返す。
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)

	// DeleteByTokenHash はトークンハッシュに対応するセッションを削除する。
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteExpired はbefore以前に期限切れとなったセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// EventRepository はイベントデータの永続化インターフェース。
type EventRepository interface {
	// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Event, error)

	// List は全イベントを開催日時の昇順で返す。
	List(ctx context.Context) ([]model.Event, error)

	// ListByAttendee は指定ユーザーが参加しているイベントを開催日時の昇順で返す。
	ListByAttendee(ctx context.Context, userID int64) ([]model.Event, error)

	// Create はイベントを作成し、採番されたIDとタイムスタンプをeventに設定する。
	Create(ctx context.Context, event *model.Event) error

	// Update はイベントの内容を更新する。owner_idは変更しない。
	// 対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, event *model.Event) (bool, error)

	// Delete は指定IDのイベントを削除する。参加記録はCASCADE削除される。
	// 対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}

// AttendeeRepository は参加記録の永続化インターフェース。
type AttendeeRepository interface {
	// Add は参加記録を冪等に作成する。
	// UNIQUE(event_id, user_id)制約を利用し、既存の記録がある場合はそれを返す。
	// createdは新規作成した場合にtrueとなる。
	// イベントまたはユーザーが存在しない場合はErrReferenceNotFoundを返す。
	Add(ctx context.Context, eventID, userID int64) (attendee *model.Attendee, created bool, err error)

	// Remove は参加記録を削除する。対象が存在しない場合はfalseを返す。
	Remove(ctx context.Context, eventID, userID int64) (bool, error)

	// ListUsers はイベントの参加者をユーザーID昇順で返す。
	ListUsers(ctx context.Context, eventID int64) ([]model.User, error)
}
