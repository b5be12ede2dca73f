package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/eventman/internal/event"
	"github.com/hitoshi/eventman/internal/model"
)

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	List(ctx context.Context) ([]model.Event, error)
	Get(ctx context.Context, id int64) (*model.Event, error)
	Create(ctx context.Context, actorID int64, in event.Input) (*model.Event, error)
	Update(ctx context.Context, actorID, id int64, in event.Input) (*model.Event, error)
	Delete(ctx context.Context, actorID, id int64) error
}

// EventHandler はイベント管理のHTTPハンドラー。
type EventHandler struct {
	service EventServiceInterface
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(service EventServiceInterface) *EventHandler {
	return &EventHandler{service: service}
}

// eventRequest はイベント作成・更新リクエストのボディ。
// dateはRFC3339のほか日付のみの形式も受け付ける。
type eventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Location    string `json:"location"`
}

func (req eventRequest) toInput() (event.Input, error) {
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return event.Input{}, model.NewValidationError("date: " + err.Error())
	}
	return event.Input{
		Name:        req.Name,
		Description: req.Description,
		Date:        date,
		Location:    req.Location,
	}, nil
}

// decodeEventInput はリクエストボディをevent.Inputに変換する。
func decodeEventInput(w http.ResponseWriter, r *http.Request) (event.Input, error) {
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return event.Input{}, err
	}
	return req.toInput()
}

// List はイベント一覧を返す。認証は任意。
// GET /api/v1/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Get はイベント詳細を返す。
// GET /api/v1/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	ev, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// Create はイベントを作成する。作成者が所有者になる。
// POST /api/v1/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	in, err := decodeEventInput(w, r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	ev, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// Update はイベントを更新する。所有者以外は403。
// PUT /api/v1/events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	in, err := decodeEventInput(w, r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	ev, err := h.service.Update(r.Context(), userID, id, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// Delete はイベントを削除する。所有者以外は403。
// DELETE /api/v1/events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
