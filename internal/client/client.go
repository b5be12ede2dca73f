// Package client はイベント管理APIのDomain Clientを提供する。
//
// ドメイン操作ごとに1つのメソッドを持ち、HTTPリクエストへの変換と、
// レスポンス・エラーから型付きの結果への変換を行う。
// どの操作も成功値か*Errorのどちらかで完了し、通信エラーを素のまま返すことはない。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/eventman/internal/logger"
	"github.com/hitoshi/eventman/internal/session"
)

// DefaultBaseURL はローカル開発サーバーのAPIルート。
const DefaultBaseURL = "http://localhost:8080/api/v1"

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "eventman-client/1.0"
	maxResponseSize  = 1 << 20 // 1MB
)

// Client はイベント管理APIのクライアント。
// トークンはsession.Managerから読み取り、すべてのリクエストに同じ手順で付与する。
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Manager
	logger     *slog.Logger
	userAgent  string
}

// Option はClientの設定を変更する。
type Option func(*Client)

// WithHTTPClient は使用するhttp.Clientを差し替える。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger はログ出力先を設定する。
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent はUser-Agentヘッダーの値を設定する。
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New はClientを生成する。baseURLは "/api/v1" までを含むAPIルート。
// sessがnilの場合は永続化しないメモリ上のセッションを使う。
func New(baseURL string, sess *session.Manager, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if sess == nil {
		// MemoryStoreのLoadは失敗しない
		sess, _ = session.NewManager(session.NewMemoryStore(""), nil)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		session:    sess,
		logger:     logger.Discard(),
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session はClientが使用しているセッションを返す。
func (c *Client) Session() *session.Manager {
	return c.session
}

// decorate はすべてのリクエストに共通のヘッダーを付与する。
// トークンを保持している場合に限りAuthorizationヘッダーを付与する。
func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	if token, ok := c.session.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Del("Authorization")
	}
}

// do はリクエストを送信し、レスポンスをoutにデコードする。
// 認証失敗（KindUnauthorized）を受け取った場合はセッションを破棄する。
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindBadRequest, Message: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindUnknown, Message: "failed to build request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.decorate(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return newTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Error("failed to read api response",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return newTransportError(err)
	}

	c.logger.Debug("api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
	)

	if e := mapResponse(resp.StatusCode, data, out); e != nil {
		if e.Kind == KindUnauthorized {
			c.invalidateSession()
		}
		return e
	}
	return nil
}

// invalidateSession はサーバーが認証失敗を返した際にトークンを破棄する。
// 自動でトークンが無効化される経路はここだけ。
func (c *Client) invalidateSession() {
	if !c.session.IsAuthenticated() {
		return
	}
	if err := c.session.Clear(); err != nil {
		c.logger.Warn("failed to clear session after auth failure",
			slog.String("error", err.Error()),
		)
		return
	}
	c.logger.Info("session cleared after auth failure")
}

// requireSession はトークンを保持していない場合に KindUnauthorized を返す。
func (c *Client) requireSession() error {
	if !c.session.IsAuthenticated() {
		return &Error{Kind: KindUnauthorized, Message: "login required"}
	}
	return nil
}
