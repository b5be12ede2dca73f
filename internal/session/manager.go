// Package session はクライアント側の認証トークン（ベアラートークン）を管理する。
//
// Managerはプロセス内で同時に1つだけトークンを保持し、Storeを通じて永続化する。
// トークンの有効期限や署名はローカルでは検証しない。有効性はサーバーの応答だけで決まる。
package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/eventman/internal/logger"
)

// Manager はベアラートークンを保持する。
// 読み取りは並行に行われ、書き込みはログイン・ログアウト・認証失敗時のみ発生する。
type Manager struct {
	mu     sync.RWMutex
	token  string
	store  Store
	logger *slog.Logger
}

// NewManager はstoreに永続化済みのトークンを読み込んでManagerを生成する。
// lがnilの場合はログを出力しない。
func NewManager(store Store, l *slog.Logger) (*Manager, error) {
	if store == nil {
		store = NewMemoryStore("")
	}
	if l == nil {
		l = logger.Discard()
	}

	token, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session token: %w", err)
	}

	return &Manager{
		token:  token,
		store:  store,
		logger: l,
	}, nil
}

// SetToken はトークンを保存する。空文字列はClearと同じ扱いになる。
func (m *Manager) SetToken(token string) error {
	if token == "" {
		return m.Clear()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(token); err != nil {
		return fmt.Errorf("failed to persist session token: %w", err)
	}
	m.token = token
	m.logger.Debug("session token stored")
	return nil
}

// Token は現在のトークンを返す。保持していない場合はfalseを返す。
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

// Clear はトークンを破棄する。
// 永続化先の削除に失敗してもメモリ上のトークンは必ず破棄する。
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = ""
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear persisted session token: %w", err)
	}
	m.logger.Debug("session token cleared")
	return nil
}

// IsAuthenticated はトークンを保持しているかを返す。存在確認のみを行う。
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Token()
	return ok
}
