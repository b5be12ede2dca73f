package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/eventman/internal/model"
)

// ListAttendees はイベントの参加者一覧を返す。
// GET /events/{id}/attendees
func (c *Client) ListAttendees(ctx context.Context, eventID int64) ([]model.User, error) {
	if err := validateID("event id", eventID); err != nil {
		return nil, err
	}

	users := []model.User{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/events/%d/attendees", eventID), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddAttendee はユーザーをイベントの参加者に追加する。
// 冪等: 既に参加している場合、サーバーが既存の記録を返しても Conflict を返しても成功として扱う。
// Conflictの場合は記録IDが分からないため、IDが0のAttendeeを返す。
// POST /events/{id}/attendees/{userId}
func (c *Client) AddAttendee(ctx context.Context, eventID, userID int64) (*model.Attendee, error) {
	if err := validateID("event id", eventID); err != nil {
		return nil, err
	}
	if err := validateID("user id", userID); err != nil {
		return nil, err
	}
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	var att model.Attendee
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/events/%d/attendees/%d", eventID, userID), nil, &att)
	if IsKind(err, KindConflict) {
		c.logger.Debug("attendee already exists",
			slog.Int64("event_id", eventID),
			slog.Int64("user_id", userID),
		)
		return &model.Attendee{EventID: eventID, UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// RemoveAttendee はユーザーをイベントの参加者から外す。
// 冪等: 参加記録が見つからない場合は既に外れているものとして成功を返す。
// DELETE /events/{id}/attendees/{userId}
func (c *Client) RemoveAttendee(ctx context.Context, eventID, userID int64) error {
	if err := validateID("event id", eventID); err != nil {
		return err
	}
	if err := validateID("user id", userID); err != nil {
		return err
	}
	if err := c.requireSession(); err != nil {
		return err
	}

	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/events/%d/attendees/%d", eventID, userID), nil, nil)
	if IsKind(err, KindNotFound) {
		c.logger.Debug("attendee already removed",
			slog.Int64("event_id", eventID),
			slog.Int64("user_id", userID),
		)
		return nil
	}
	return err
}

// ListUserEvents はユーザーが参加しているイベント一覧を返す。
// GET /attendees/{userId}/events
func (c *Client) ListUserEvents(ctx context.Context, userID int64) ([]model.Event, error) {
	if err := validateID("user id", userID); err != nil {
		return nil, err
	}

	events := []model.Event{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/attendees/%d/events", userID), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}
