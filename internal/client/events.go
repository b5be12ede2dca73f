package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/policy"
)

// EventInput はイベント作成・更新の入力。idとownerIdはサーバーが決める。
type EventInput struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
}

// Validate は送信前に入力値を検証する。
func (in EventInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return newValidationError("name is required")
	}
	if in.Date.IsZero() {
		return newValidationError("date is required")
	}
	if strings.TrimSpace(in.Location) == "" {
		return newValidationError("location is required")
	}
	return nil
}

func validateID(name string, id int64) error {
	if id <= 0 {
		return newValidationError("%s must be a positive integer: %d", name, id)
	}
	return nil
}

// ListEvents はイベント一覧を返す。順序はサーバーが決める。認証は任意。
// GET /events
func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	events := []model.Event{}
	if err := c.do(ctx, http.MethodGet, "/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent は指定IDのイベントを返す。
// GET /events/{id}
func (c *Client) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	if err := validateID("event id", id); err != nil {
		return nil, err
	}

	var ev model.Event
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/events/%d", id), nil, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// CreateEvent はイベントを作成する。作成者が所有者になる。
// POST /events
func (c *Client) CreateEvent(ctx context.Context, in EventInput) (*model.Event, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var ev model.Event
	if err := c.do(ctx, http.MethodPost, "/events", in, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// UpdateEvent はイベントを更新する。所有者以外はサーバーが KindForbidden を返す。
// PUT /events/{id}
func (c *Client) UpdateEvent(ctx context.Context, id int64, in EventInput) (*model.Event, error) {
	if err := validateID("event id", id); err != nil {
		return nil, err
	}
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var ev model.Event
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/events/%d", id), in, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// DeleteEvent はイベントを削除する。成功時はnilを返す。
// DELETE /events/{id}
func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	if err := validateID("event id", id); err != nil {
		return err
	}
	if err := c.requireSession(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/events/%d", id), nil, nil)
}

// EditEvent は取得済みのイベントをuserIDのユーザーとして更新する。
// 所有者でないことが明らかな場合は往復せずに KindForbidden を返す。
// 最終的な権限判定はサーバーが行う。
func (c *Client) EditEvent(ctx context.Context, ev *model.Event, userID int64, in EventInput) (*model.Event, error) {
	if ev == nil {
		return nil, newValidationError("event is required")
	}
	if !policy.CanMutate(ev, userID) {
		return nil, notOwnerError()
	}
	return c.UpdateEvent(ctx, ev.ID, in)
}

// RemoveEvent は取得済みのイベントをuserIDのユーザーとして削除する。
// 所有者でないことが明らかな場合は往復せずに KindForbidden を返す。
func (c *Client) RemoveEvent(ctx context.Context, ev *model.Event, userID int64) error {
	if ev == nil {
		return newValidationError("event is required")
	}
	if !policy.CanMutate(ev, userID) {
		return notOwnerError()
	}
	return c.DeleteEvent(ctx, ev.ID)
}

func notOwnerError() *Error {
	return &Error{Kind: KindForbidden, Message: "only the event owner can modify this event"}
}
