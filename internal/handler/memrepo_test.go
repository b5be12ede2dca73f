package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/repository"
)

// memStore はハンドラーの結合テスト用のインメモリストア。
// PostgreSQLの制約（UNIQUE、外部キー、CASCADE）を同じ意味で再現する。
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]*model.User
	sessions  map[string]*model.Session
	events    map[int64]*model.Event
	attendees map[[2]int64]*model.Attendee
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[int64]*model.User),
		sessions:  make(map[string]*model.Session),
		events:    make(map[int64]*model.Event),
		attendees: make(map[[2]int64]*model.Attendee),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type memUserRepo struct{ *memStore }
type memSessionRepo struct{ *memStore }
type memEventRepo struct{ *memStore }
type memAttendeeRepo struct{ *memStore }

var (
	_ repository.UserRepository     = memUserRepo{}
	_ repository.SessionRepository  = memSessionRepo{}
	_ repository.EventRepository    = memEventRepo{}
	_ repository.AttendeeRepository = memAttendeeRepo{}
)

func (r memUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = r.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r memSessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.ID = r.id()
	session.CreatedAt = time.Now()
	cp := *session
	r.sessions[session.TokenHash] = &cp
	return nil
}

func (r memSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[tokenHash]
	if !ok || !sess.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (r memSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}

func (r memSessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for hash, sess := range r.sessions {
		if sess.ExpiresAt.Before(before) {
			delete(r.sessions, hash)
			n++
		}
	}
	return n, nil
}

func (r memEventRepo) FindByID(ctx context.Context, id int64) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	cp := *ev
	return &cp, nil
}

func (r memEventRepo) List(ctx context.Context) ([]model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]model.Event, 0, len(r.events))
	for _, ev := range r.events {
		events = append(events, *ev)
	}
	sortEvents(events)
	return events, nil
}

func (r memEventRepo) ListByAttendee(ctx context.Context, userID int64) ([]model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var events []model.Event
	for key := range r.attendees {
		if key[1] == userID {
			if ev, ok := r.events[key[0]]; ok {
				events = append(events, *ev)
			}
		}
	}
	sortEvents(events)
	return events, nil
}

func (r memEventRepo) Create(ctx context.Context, event *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[event.OwnerID]; !ok {
		return repository.ErrReferenceNotFound
	}
	event.ID = r.id()
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	cp := *event
	r.events[event.ID] = &cp
	return nil
}

func (r memEventRepo) Update(ctx context.Context, event *model.Event) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.events[event.ID]
	if !ok {
		return false, nil
	}
	cur.Name = event.Name
	cur.Description = event.Description
	cur.Date = event.Date
	cur.Location = event.Location
	cur.UpdatedAt = time.Now()
	event.OwnerID = cur.OwnerID
	event.CreatedAt = cur.CreatedAt
	event.UpdatedAt = cur.UpdatedAt
	return true, nil
}

func (r memEventRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return false, nil
	}
	delete(r.events, id)
	for key := range r.attendees {
		if key[0] == id {
			delete(r.attendees, key)
		}
	}
	return true, nil
}

func (r memAttendeeRepo) Add(ctx context.Context, eventID, userID int64) (*model.Attendee, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[eventID]; !ok {
		return nil, false, repository.ErrReferenceNotFound
	}
	if _, ok := r.users[userID]; !ok {
		return nil, false, repository.ErrReferenceNotFound
	}
	key := [2]int64{eventID, userID}
	if att, ok := r.attendees[key]; ok {
		cp := *att
		return &cp, false, nil
	}
	att := &model.Attendee{ID: r.id(), EventID: eventID, UserID: userID, CreatedAt: time.Now()}
	r.attendees[key] = att
	cp := *att
	return &cp, true, nil
}

func (r memAttendeeRepo) Remove(ctx context.Context, eventID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{eventID, userID}
	if _, ok := r.attendees[key]; !ok {
		return false, nil
	}
	delete(r.attendees, key)
	return true, nil
}

func (r memAttendeeRepo) ListUsers(ctx context.Context, eventID int64) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []model.User
	for key := range r.attendees {
		if key[0] == eventID {
			if u, ok := r.users[key[1]]; ok {
				users = append(users, *u)
			}
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func sortEvents(events []model.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].ID < events[j].ID
	})
}
