// Package event はイベントと参加記録のドメインロジックを提供する。
//
// 権限判定はpolicyパッケージの関数をそのまま使い、サーバー側の最終判定とする。
// 参加登録は冪等で、同じ(イベント, ユーザー)の組に対して記録は高々1件になる。
package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/eventman/internal/metrics"
	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/policy"
	"github.com/hitoshi/eventman/internal/repository"
	"github.com/hitoshi/eventman/internal/security"
)

const (
	maxNameLength        = 200
	maxLocationLength    = 200
	maxDescriptionLength = 5000
)

// Input はイベントの作成・更新時の入力値。
type Input struct {
	Name        string
	Description string
	Date        time.Time
	Location    string
}

// Service はイベント管理のサービス層。
type Service struct {
	eventRepo    repository.EventRepository
	attendeeRepo repository.AttendeeRepository
	userRepo     repository.UserRepository
	sanitizer    security.TextSanitizer
	metrics      metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
// mcがnilの場合はメトリクスを記録しない。
func NewService(
	eventRepo repository.EventRepository,
	attendeeRepo repository.AttendeeRepository,
	userRepo repository.UserRepository,
	sanitizer security.TextSanitizer,
	mc metrics.MetricsCollector,
) *Service {
	if sanitizer == nil {
		sanitizer = security.NewTextSanitizer()
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		eventRepo:    eventRepo,
		attendeeRepo: attendeeRepo,
		userRepo:     userRepo,
		sanitizer:    sanitizer,
		metrics:      mc,
	}
}

// List はすべてのイベントを返す。
func (s *Service) List(ctx context.Context) ([]model.Event, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	return events, nil
}

// Get は指定IDのイベントを返す。存在しない場合はEVENT_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Event, error) {
	ev, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	if ev == nil {
		return nil, model.NewEventNotFoundError(id)
	}
	return ev, nil
}

// Create はactorIDのユーザーを所有者としてイベントを作成する。
func (s *Service) Create(ctx context.Context, actorID int64, in Input) (*model.Event, error) {
	if !policy.CanCreate(actorID) {
		return nil, model.NewUnauthorizedError()
	}
	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	ev := &model.Event{
		OwnerID:     actorID,
		Name:        in.Name,
		Description: in.Description,
		Date:        in.Date,
		Location:    in.Location,
	}
	if err := s.eventRepo.Create(ctx, ev); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, model.NewUnauthorizedError()
		}
		return nil, fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}

	s.metrics.RecordEventMutation(metrics.OpCreated)
	slog.Info("event created", slog.Int64("event_id", ev.ID), slog.Int64("user_id", actorID))
	return ev, nil
}

// Update はイベントの内容を更新する。所有者以外はFORBIDDENになる。
func (s *Service) Update(ctx context.Context, actorID, id int64, in Input) (*model.Event, error) {
	ev, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutate(ev, actorID) {
		return nil, model.NewForbiddenError("only the owner can modify this event")
	}
	in, err = s.normalize(in)
	if err != nil {
		return nil, err
	}

	ev.Name = in.Name
	ev.Description = in.Description
	ev.Date = in.Date
	ev.Location = in.Location

	ok, err := s.eventRepo.Update(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}
	if !ok {
		// 取得後に削除された
		return nil, model.NewEventNotFoundError(id)
	}

	s.metrics.RecordEventMutation(metrics.OpUpdated)
	slog.Info("event updated", slog.Int64("event_id", id), slog.Int64("user_id", actorID))
	return ev, nil
}

// Delete はイベントを削除する。参加記録も合わせて削除される。
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	ev, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanMutate(ev, actorID) {
		return model.NewForbiddenError("only the owner can delete this event")
	}

	ok, err := s.eventRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewEventNotFoundError(id)
	}

	s.metrics.RecordEventMutation(metrics.OpDeleted)
	slog.Info("event deleted", slog.Int64("event_id", id), slog.Int64("user_id", actorID))
	return nil
}

// ListAttendees はイベントの参加者一覧を返す。
func (s *Service) ListAttendees(ctx context.Context, eventID int64) ([]model.User, error) {
	if _, err := s.Get(ctx, eventID); err != nil {
		return nil, err
	}
	users, err := s.attendeeRepo.ListUsers(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("参加者一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// AddAttendee はuserIDのユーザーをイベントの参加者に追加する。
// 既に参加している場合は既存の記録を返し、createdはfalseになる。
func (s *Service) AddAttendee(ctx context.Context, actorID, eventID, userID int64) (*model.Attendee, bool, error) {
	if !policy.IsAuthenticated(actorID) {
		return nil, false, model.NewUnauthorizedError()
	}
	ev, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, false, err
	}
	if !policy.CanManageAttendance(ev, actorID, userID) {
		return nil, false, model.NewForbiddenError("only the owner can manage other attendees")
	}

	att, created, err := s.attendeeRepo.Add(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			// イベントは確認済みなので参照先が無いのはユーザー
			return nil, false, model.NewUserNotFoundError(userID)
		}
		return nil, false, fmt.Errorf("参加登録に失敗しました: %w", err)
	}

	if created {
		s.metrics.RecordAttendance(metrics.OpJoined)
		slog.Info("attendee added",
			slog.Int64("event_id", eventID),
			slog.Int64("user_id", userID),
			slog.Int64("actor_id", actorID),
		)
	} else {
		s.metrics.RecordAttendance(metrics.OpDuplicate)
	}
	return att, created, nil
}

// RemoveAttendee はuserIDのユーザーの参加記録を削除する。
// 参加記録が存在しない場合はATTENDEE_NOT_FOUNDを返す。
func (s *Service) RemoveAttendee(ctx context.Context, actorID, eventID, userID int64) error {
	if !policy.IsAuthenticated(actorID) {
		return model.NewUnauthorizedError()
	}
	ev, err := s.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if !policy.CanManageAttendance(ev, actorID, userID) {
		return model.NewForbiddenError("only the owner can manage other attendees")
	}

	ok, err := s.attendeeRepo.Remove(ctx, eventID, userID)
	if err != nil {
		return fmt.Errorf("参加取り消しに失敗しました: %w", err)
	}
	if !ok {
		return model.NewAttendeeNotFoundError(eventID, userID)
	}

	s.metrics.RecordAttendance(metrics.OpLeft)
	slog.Info("attendee removed",
		slog.Int64("event_id", eventID),
		slog.Int64("user_id", userID),
		slog.Int64("actor_id", actorID),
	)
	return nil
}

// ListUserEvents はuserIDのユーザーが参加しているイベントを返す。
func (s *Service) ListUserEvents(ctx context.Context, userID int64) ([]model.Event, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}

	events, err := s.eventRepo.ListByAttendee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("参加イベント一覧の取得に失敗しました: %w", err)
	}
	return events, nil
}

// normalize は入力値をサニタイズし、必須項目と長さを検証する。
func (s *Service) normalize(in Input) (Input, error) {
	in.Name = s.sanitizer.Sanitize(in.Name)
	in.Description = s.sanitizer.Sanitize(in.Description)
	in.Location = s.sanitizer.Sanitize(in.Location)

	switch {
	case in.Name == "":
		return in, model.NewValidationError("name is required")
	case utf8.RuneCountInString(in.Name) > maxNameLength:
		return in, model.NewValidationError(fmt.Sprintf("name must be at most %d characters", maxNameLength))
	case in.Location == "":
		return in, model.NewValidationError("location is required")
	case utf8.RuneCountInString(in.Location) > maxLocationLength:
		return in, model.NewValidationError(fmt.Sprintf("location must be at most %d characters", maxLocationLength))
	case utf8.RuneCountInString(in.Description) > maxDescriptionLength:
		return in, model.NewValidationError(fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	case in.Date.IsZero():
		return in, model.NewValidationError("date is required")
	}

	in.Date = in.Date.UTC()
	return in, nil
}
