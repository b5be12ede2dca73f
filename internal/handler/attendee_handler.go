package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/eventman/internal/model"
)

// AttendeeServiceInterface は参加者ハンドラーが必要とするサービスインターフェース。
type AttendeeServiceInterface interface {
	ListAttendees(ctx context.Context, eventID int64) ([]model.User, error)
	AddAttendee(ctx context.Context, actorID, eventID, userID int64) (*model.Attendee, bool, error)
	RemoveAttendee(ctx context.Context, actorID, eventID, userID int64) error
	ListUserEvents(ctx context.Context, userID int64) ([]model.Event, error)
}

// AttendeeHandler はイベント参加のHTTPハンドラー。
type AttendeeHandler struct {
	service AttendeeServiceInterface
}

// NewAttendeeHandler はAttendeeHandlerを生成する。
func NewAttendeeHandler(service AttendeeServiceInterface) *AttendeeHandler {
	return &AttendeeHandler{service: service}
}

// List はイベントの参加者一覧を返す。
// GET /api/v1/events/{id}/attendees
func (h *AttendeeHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	users, err := h.service.ListAttendees(r.Context(), eventID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Add はユーザーをイベントに参加させる。
// 新規なら201、既に参加済みなら既存の参加記録を200で返す。
// POST /api/v1/events/{id}/attendees/{userId}
func (h *AttendeeHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, eventID, userID, ok := h.membershipParams(w, r)
	if !ok {
		return
	}

	att, created, err := h.service.AddAttendee(r.Context(), actor, eventID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, att)
}

// Remove はユーザーをイベントから外す。参加記録がなければ404。
// DELETE /api/v1/events/{id}/attendees/{userId}
func (h *AttendeeHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actor, eventID, userID, ok := h.membershipParams(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveAttendee(r.Context(), actor, eventID, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUserEvents はユーザーが参加しているイベント一覧を返す。
// GET /api/v1/attendees/{userId}/events
func (h *AttendeeHandler) ListUserEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	events, err := h.service.ListUserEvents(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// membershipParams は操作者・イベントID・対象ユーザーIDを取り出す。
// 失敗時はエラーレスポンスを書き込んでokにfalseを返す。
func (h *AttendeeHandler) membershipParams(w http.ResponseWriter, r *http.Request) (actor, eventID, userID int64, ok bool) {
	var err error
	if actor, err = actorID(r); err != nil {
		handleServiceError(w, r, err)
		return 0, 0, 0, false
	}
	if eventID, err = pathID(r, "id"); err != nil {
		handleServiceError(w, r, err)
		return 0, 0, 0, false
	}
	if userID, err = pathID(r, "userId"); err != nil {
		handleServiceError(w, r, err)
		return 0, 0, 0, false
	}
	return actor, eventID, userID, true
}
