package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/policy"
)

// fakeAPI は /api/v1 の契約をメモリ上で再現するテスト用サーバー。
type fakeAPI struct {
	mu sync.Mutex

	users     map[int64]model.User
	passwords map[int64]string
	tokens    map[string]int64
	events    map[int64]*model.Event
	attendees map[[2]int64]*model.Attendee // {eventID, userID}
	nextID    int64

	// conflictOnDuplicate がtrueの場合、重複した参加登録に409を返す
	conflictOnDuplicate bool

	authHeaders []string
	requests    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		users:     make(map[int64]model.User),
		passwords: make(map[int64]string),
		tokens:    make(map[string]int64),
		events:    make(map[int64]*model.Event),
		attendees: make(map[[2]int64]*model.Attendee),
	}
}

// start はfakeAPIをhttptestサーバーとして起動し、APIルートのURLを返す。
func (f *fakeAPI) start(t *testing.T) string {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/register", f.register)
	mux.HandleFunc("POST /api/v1/auth/login", f.login)
	mux.HandleFunc("POST /api/v1/auth/logout", f.logout)
	mux.HandleFunc("GET /api/v1/auth/me", f.me)
	mux.HandleFunc("GET /api/v1/events", f.listEvents)
	mux.HandleFunc("POST /api/v1/events", f.createEvent)
	mux.HandleFunc("GET /api/v1/events/{id}", f.getEvent)
	mux.HandleFunc("PUT /api/v1/events/{id}", f.updateEvent)
	mux.HandleFunc("DELETE /api/v1/events/{id}", f.deleteEvent)
	mux.HandleFunc("GET /api/v1/events/{id}/attendees", f.listAttendees)
	mux.HandleFunc("POST /api/v1/events/{id}/attendees/{userId}", f.addAttendee)
	mux.HandleFunc("DELETE /api/v1/events/{id}/attendees/{userId}", f.removeAttendee)
	mux.HandleFunc("GET /api/v1/attendees/{userId}/events", f.listUserEvents)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests++
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	return srv.URL + "/api/v1"
}

func (f *fakeAPI) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *fakeAPI) lastAuthHeader() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.authHeaders) == 0 {
		return ""
	}
	return f.authHeaders[len(f.authHeaders)-1]
}

func (f *fakeAPI) id() int64 {
	f.nextID++
	return f.nextID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// caller はAuthorizationヘッダーからユーザーIDを返す。
// ヘッダーが無ければ0、無効なトークンならokがfalse。
func (f *fakeAPI) caller(r *http.Request) (userID int64, ok bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return 0, true
	}
	token, found := strings.CutPrefix(h, "Bearer ")
	if !found {
		return 0, false
	}
	userID, found = f.tokens[token]
	return userID, found
}

// requireCaller は認証済みユーザーIDを返す。失敗時は401を書き込み0を返す。
func (f *fakeAPI) requireCaller(w http.ResponseWriter, r *http.Request) int64 {
	userID, ok := f.caller(r)
	if !ok || userID == 0 {
		writeErr(w, http.StatusUnauthorized, "authentication required")
		return 0
	}
	return userID
}

func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id
}

func (f *fakeAPI) register(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var in RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}
	for _, u := range f.users {
		if u.Email == in.Email {
			writeErr(w, http.StatusConflict, "email is already registered")
			return
		}
	}
	u := model.User{ID: f.id(), Email: in.Email, Name: in.Name}
	f.users[u.ID] = u
	f.passwords[u.ID] = in.Password
	writeJSON(w, http.StatusCreated, u)
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var in loginRequest
	json.NewDecoder(r.Body).Decode(&in)
	for _, u := range f.users {
		if u.Email == in.Email && f.passwords[u.ID] == in.Password {
			token := fmt.Sprintf("tok-%d-%d", u.ID, f.id())
			f.tokens[token] = u.ID
			writeJSON(w, http.StatusOK, loginResponse{Token: token})
			return
		}
	}
	writeErr(w, http.StatusUnauthorized, "invalid email or password")
}

func (f *fakeAPI) logout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.requireCaller(w, r) == 0 {
		return
	}
	delete(f.tokens, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeAPI) me(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	userID := f.requireCaller(w, r)
	if userID == 0 {
		return
	}
	writeJSON(w, http.StatusOK, f.users[userID])
}

func (f *fakeAPI) sortedEvents(filter func(*model.Event) bool) []model.Event {
	events := []model.Event{}
	for _, ev := range f.events {
		if filter(ev) {
			events = append(events, *ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events
}

func (f *fakeAPI) listEvents(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.caller(r); !ok {
		writeErr(w, http.StatusUnauthorized, "invalid token")
		return
	}
	writeJSON(w, http.StatusOK, f.sortedEvents(func(*model.Event) bool { return true }))
}

func (f *fakeAPI) getEvent(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ev, ok := f.events[pathID(r, "id")]
	if !ok {
		writeErr(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (f *fakeAPI) createEvent(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	userID := f.requireCaller(w, r)
	if userID == 0 {
		return
	}
	var in EventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeErr(w, http.StatusBadRequest, "invalid event")
		return
	}
	ev := &model.Event{
		ID:          f.id(),
		OwnerID:     userID,
		Name:        in.Name,
		Description: in.Description,
		Date:        in.Date.UTC(),
		Location:    in.Location,
	}
	f.events[ev.ID] = ev
	writeJSON(w, http.StatusCreated, ev)
}

func (f *fakeAPI) updateEvent(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	userID := f.requireCaller(w, r)
	if userID == 0 {
		return
	}
	ev, ok := f.events[pathID(r, "id")]
	if !ok {
		writeErr(w, http.StatusNotFound, "event not found")
		return
	}
	if !policy.CanMutate(ev, userID) {
		writeErr(w, http.StatusForbidden, "only the owner can modify this event")
		return
	}
	var in EventInput
	json.NewDecoder(r.Body).Decode(&in)
	ev.Name, ev.Description, ev.Date, ev.Location = in.Name, in.Description, in.Date.UTC(), in.Location
	writeJSON(w, http.StatusOK, ev)
}

func (f *fakeAPI) deleteEvent(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	userID := f.requireCaller(w, r)
	if userID == 0 {
		return
	}
	ev, ok := f.events[pathID(r, "id")]
	if !ok {
		writeErr(w, http.StatusNotFound, "event not found")
		return
	}
	if !policy.CanMutate(ev, userID) {
		writeErr(w, http.StatusForbidden, "only the owner can delete this event")
		return
	}
	delete(f.events, ev.ID)
	for key := range f.attendees {
		if key[0] == ev.ID {
			delete(f.attendees, key)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeAPI) listAttendees(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	eventID := pathID(r, "id")
	if _, ok := f.events[eventID]; !ok {
		writeErr(w, http.StatusNotFound, "event not found")
		return
	}
	users := []model.User{}
	for key := range f.attendees {
		if key[0] == eventID {
			users = append(users, f.users[key[1]])
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	writeJSON(w, http.StatusOK, users)
}

func (f *fakeAPI) addAttendee(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.requireCaller(w, r) == 0 {
		return
	}
	key := [2]int64{pathID(r, "id"), pathID(r, "userId")}
	if _, ok := f.events[key[0]]; !ok {
		writeErr(w, http.StatusNotFound, "event not found")
		return
	}
	if existing, ok := f.attendees[key]; ok {
		if f.conflictOnDuplicate {
			writeErr(w, http.StatusConflict, "already attending")
			return
		}
		writeJSON(w, http.StatusOK, existing)
		return
	}
	att := &model.Attendee{ID: f.id(), EventID: key[0], UserID: key[1]}
	f.attendees[key] = att
	writeJSON(w, http.StatusCreated, att)
}

func (f *fakeAPI) removeAttendee(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.requireCaller(w, r) == 0 {
		return
	}
	key := [2]int64{pathID(r, "id"), pathID(r, "userId")}
	if _, ok := f.attendees[key]; !ok {
		writeErr(w, http.StatusNotFound, "attendance not found")
		return
	}
	delete(f.attendees, key)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeAPI) listUserEvents(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	userID := pathID(r, "userId")
	writeJSON(w, http.StatusOK, f.sortedEvents(func(ev *model.Event) bool {
		_, ok := f.attendees[[2]int64{ev.ID, userID}]
		return ok
	}))
}

// attendeeCount は(eventID, userID)の参加記録数を返す。
func (f *fakeAPI) attendeeCount(eventID, userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for key := range f.attendees {
		if key == [2]int64{eventID, userID} {
			n++
		}
	}
	return n
}

var meetupDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
