// Package auth はメールアドレスとパスワードによる認証と、ベアラートークンのセッション管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/repository"
)

const (
	// MinPasswordLength はパスワードの最小文字数。
	MinPasswordLength = 8
	maxPasswordLength = 256
	maxNameLength     = 100
	maxEmailLength    = 320
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionTTL time.Duration // セッション有効期間
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      PasswordHasher
	config      ServiceConfig
	now         func() time.Time

	// dummyHash は存在しないユーザーへのログイン時にも照合処理を行うためのハッシュ
	dummyHash string
}

// NewService はServiceを生成する。hasherがnilの場合はArgon2Hasherを使う。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher PasswordHasher,
	config ServiceConfig,
) *Service {
	if hasher == nil {
		hasher = NewArgon2Hasher()
	}
	dummy, err := hasher.Hash("eventman-dummy-password")
	if err != nil {
		slog.Warn("failed to prepare dummy password hash", slog.String("error", err.Error()))
	}

	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		config:      config,
		now:         time.Now,
		dummyHash:   dummy,
	}
}

// NormalizeEmail はメールアドレスを比較用に正規化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register は新しいユーザーを登録する。
// メールアドレスが登録済みの場合はEMAIL_TAKENエラーを返す。トークンは発行しない。
func (s *Service) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	if err := validateRegistration(email, password, name); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", slog.Int64("user_id", user.ID))
	return user, nil
}

func validateRegistration(email, password, name string) error {
	if email == "" || len(email) > maxEmailLength {
		return model.NewValidationError("a valid email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return model.NewValidationError("a valid email is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return model.NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > maxPasswordLength {
		return model.NewValidationError("password is too long")
	}
	if name == "" {
		return model.NewValidationError("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return model.NewValidationError(fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}
	return nil
}

// Login はメールアドレスとパスワードを照合し、新しいベアラートークンを発行する。
// 失敗理由は区別せず、常にINVALID_CREDENTIALSを返す。
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		// 応答時間からユーザーの存在を推測されないよう、ダミーのハッシュと照合する
		if s.dummyHash != "" {
			_, _ = s.hasher.Verify(password, s.dummyHash)
		}
		return "", nil, model.NewInvalidCredentialsError()
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		slog.Info("login failed", slog.Int64("user_id", user.ID))
		return "", nil, model.NewInvalidCredentialsError()
	}

	token, err := s.createSession(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return token, user, nil
}

// Logout はトークンに対応するセッションを破棄する。
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return model.NewUnauthorizedError()
	}

	if err := s.sessionRepo.DeleteByTokenHash(ctx, HashToken(token)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Authenticate はベアラートークンから現在のユーザーを取得する。
// トークンが無効・期限切れの場合、またはユーザーが削除済みの場合はUNAUTHORIZEDを返す。
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByTokenHash(ctx, HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || !session.ExpiresAt.After(s.now()) {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	return user, nil
}

// GetUser は指定IDのユーザーを取得する。
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

// createSession はトークンを発行し、そのハッシュをセッションとして永続化する。
func (s *Service) createSession(ctx context.Context, userID int64) (string, error) {
	token, hash, err := generateToken()
	if err != nil {
		return "", err
	}

	session := &model.Session{
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.config.SessionTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	return token, nil
}
