package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn    func(ctx context.Context, id int64) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	createFn      func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = 1
	return nil
}

type mockSessionRepo struct {
	createFn            func(ctx context.Context, session *model.Session) error
	findByTokenHashFn   func(ctx context.Context, tokenHash string) (*model.Session, error)
	deleteByTokenHashFn func(ctx context.Context, tokenHash string) error
	deleteExpiredFn     func(ctx context.Context, before time.Time) (int64, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	if m.findByTokenHashFn != nil {
		return m.findByTokenHashFn(ctx, tokenHash)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	if m.deleteByTokenHashFn != nil {
		return m.deleteByTokenHashFn(ctx, tokenHash)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, before)
	}
	return 0, nil
}

// memoryRepos はユーザーとセッションをメモリに保持する簡易リポジトリを組み立てる。
func memoryRepos() (*mockUserRepo, *mockSessionRepo) {
	users := map[int64]*model.User{}
	sessions := map[string]*model.Session{}
	var nextID int64

	userRepo := &mockUserRepo{
		findByIDFn: func(_ context.Context, id int64) (*model.User, error) {
			return users[id], nil
		},
		findByEmailFn: func(_ context.Context, email string) (*model.User, error) {
			for _, u := range users {
				if u.Email == email {
					return u, nil
				}
			}
			return nil, nil
		},
		createFn: func(_ context.Context, user *model.User) error {
			for _, u := range users {
				if u.Email == user.Email {
					return repository.ErrDuplicate
				}
			}
			nextID++
			user.ID = nextID
			users[user.ID] = user
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(_ context.Context, s *model.Session) error {
			sessions[s.TokenHash] = s
			return nil
		},
		findByTokenHashFn: func(_ context.Context, hash string) (*model.Session, error) {
			return sessions[hash], nil
		},
		deleteByTokenHashFn: func(_ context.Context, hash string) error {
			delete(sessions, hash)
			return nil
		},
	}
	return userRepo, sessionRepo
}

func newTestService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository) *Service {
	return NewService(userRepo, sessionRepo, fastHasher(), ServiceConfig{SessionTTL: time.Hour})
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
}

// --- テスト ---

func TestRegister_Success(t *testing.T) {
	userRepo, sessionRepo := memoryRepos()
	svc := newTestService(userRepo, sessionRepo)

	user, err := svc.Register(context.Background(), "  Alice@Example.com ", "password123", " Alice ")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == 0 {
		t.Error("ID should be assigned")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want normalized %q", user.Email, "alice@example.com")
	}
	if user.Name != "Alice" {
		t.Errorf("Name = %q, want %q", user.Name, "Alice")
	}
	if user.PasswordHash == "" || user.PasswordHash == "password123" {
		t.Errorf("PasswordHash should be an argon2id hash, got %q", user.PasswordHash)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	userRepo, sessionRepo := memoryRepos()
	svc := newTestService(userRepo, sessionRepo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@example.com", "password123", "A"); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}
	_, err := svc.Register(ctx, "A@example.com", "password456", "B")
	assertAPIErrorCode(t, err, model.ErrCodeEmailTaken)

	// 1人目は影響を受けない
	if _, _, err := svc.Login(ctx, "a@example.com", "password123"); err != nil {
		t.Errorf("first user should still log in: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		userName string
	}{
		{"空のメールアドレス", "", "password123", "A"},
		{"不正なメールアドレス", "not-an-email", "password123", "A"},
		{"表示名付きのアドレス", "Alice <a@example.com>", "password123", "A"},
		{"短いパスワード", "a@example.com", "short", "A"},
		{"空の名前", "a@example.com", "password123", "   "},
	}

	svc := newTestService(&mockUserRepo{
		createFn: func(context.Context, *model.User) error {
			t.Error("Create should not be called on validation failure")
			return nil
		},
	}, &mockSessionRepo{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.email, tt.password, tt.userName)
			assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
		})
	}
}

func TestRegister_RepositoryError(t *testing.T) {
	svc := newTestService(&mockUserRepo{
		createFn: func(context.Context, *model.User) error {
			return errors.New("db down")
		},
	}, &mockSessionRepo{})

	_, err := svc.Register(context.Background(), "a@example.com", "password123", "A")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("repository errors should not become APIError: %v", err)
	}
}

func TestLogin_IssuesTokenAndStoresHashOnly(t *testing.T) {
	userRepo, _ := memoryRepos()
	var stored *model.Session
	sessionRepo := &mockSessionRepo{
		createFn: func(_ context.Context, s *model.Session) error {
			stored = s
			return nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	registered, err := svc.Register(ctx, "a@example.com", "password123", "A")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	token, user, err := svc.Login(ctx, "a@example.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token == "" {
		t.Fatal("token should not be empty")
	}
	if user.ID != registered.ID {
		t.Errorf("user.ID = %d, want %d", user.ID, registered.ID)
	}
	if stored == nil {
		t.Fatal("session should be stored")
	}
	if stored.TokenHash == token || stored.TokenHash != HashToken(token) {
		t.Errorf("only the token hash should be stored, got %q", stored.TokenHash)
	}
	if !stored.ExpiresAt.Equal(fixed.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", stored.ExpiresAt, fixed.Add(time.Hour))
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	userRepo, sessionRepo := memoryRepos()
	svc := newTestService(userRepo, sessionRepo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@example.com", "password123", "A"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	_, _, wrongPassword := svc.Login(ctx, "a@example.com", "wrong-password")
	_, _, unknownEmail := svc.Login(ctx, "nobody@example.com", "password123")
	_, _, emptyInput := svc.Login(ctx, "", "")

	for _, err := range []error{wrongPassword, unknownEmail, emptyInput} {
		assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Errorf("messages differ: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestAuthenticate(t *testing.T) {
	userRepo, sessionRepo := memoryRepos()
	svc := newTestService(userRepo, sessionRepo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@example.com", "password123", "A"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	token, _, err := svc.Login(ctx, "a@example.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	user, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user.Email != "a@example.com" {
		t.Errorf("Email = %q", user.Email)
	}

	_, err = svc.Authenticate(ctx, "bogus")
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)

	_, err = svc.Authenticate(ctx, "")
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)

	// 期限切れ
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Authenticate(ctx, token)
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
}

func TestLogout_InvalidatesToken(t *testing.T) {
	userRepo, sessionRepo := memoryRepos()
	svc := newTestService(userRepo, sessionRepo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@example.com", "password123", "A"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	token, _, _ := svc.Login(ctx, "a@example.com", "password123")

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	_, err := svc.Authenticate(ctx, token)
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)

	assertAPIErrorCode(t, svc.Logout(ctx, ""), model.ErrCodeUnauthorized)
}

func TestGetUser_NotFound(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	_, err := svc.GetUser(context.Background(), 42)
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}
