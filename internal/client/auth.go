package client

import (
	"context"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/hitoshi/eventman/internal/model"
)

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate は送信前に入力値を検証する。
func (in RegisterInput) Validate() error {
	if strings.TrimSpace(in.Email) == "" {
		return newValidationError("email is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return newValidationError("email is not a valid address: %s", in.Email)
	}
	if in.Password == "" {
		return newValidationError("password is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return newValidationError("name is required")
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Register はユーザーを登録する。トークンは発行されないため、続けてLoginを呼ぶ。
// POST /auth/register
func (c *Client) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var user model.User
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login は認証を行い、発行されたトークンをセッションに保存して返す。
// 認証失敗時はどの入力が誤っているかを区別しない KindUnauthorized を返す。
// POST /auth/login
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", newValidationError("email and password are required")
	}

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &Error{Kind: KindUnknown, Status: http.StatusOK, Message: "the server did not issue a token"}
	}

	if err := c.session.SetToken(resp.Token); err != nil {
		return "", &Error{Kind: KindUnknown, Message: "failed to store the credential", Err: err}
	}
	return resp.Token, nil
}

// Logout はサーバー側のセッションを破棄し、ローカルのトークンを消去する。
// サーバー呼び出しの失敗はログに残すだけで、ローカルのトークンは必ず消去する。
// POST /auth/logout
func (c *Client) Logout(ctx context.Context) error {
	if c.session.IsAuthenticated() {
		if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil && !IsKind(err, KindUnauthorized) {
			c.logger.Warn("server logout failed", slog.String("error", err.Error()))
		}
	}

	if err := c.session.Clear(); err != nil {
		return &Error{Kind: KindUnknown, Message: "failed to clear the credential", Err: err}
	}
	return nil
}

// Me は現在のトークンに対応するユーザーを返す。
// GET /auth/me
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	var user model.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
