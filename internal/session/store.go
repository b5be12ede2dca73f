package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Atrox/homedir"
)

const (
	// TokenKey はトークンを永続化する際の固定キー名（FileStoreではファイル名）。
	TokenKey = "token"
	// DefaultDir はFileStoreのデフォルト保存ディレクトリ。
	DefaultDir = "~/.eventman"
)

// Store はトークンの永続化先を抽象化するインターフェース。
// Loadはトークンが存在しない場合に空文字列とnilを返す。
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileStore はトークンをファイルに保存するStore実装。
// プロセスを再起動しても、明示的なClearまでトークンが残る。
type FileStore struct {
	path string
}

// NewFileStore はdir配下にトークンファイルを置くFileStoreを生成する。
// dirが空の場合はDefaultDirを使う。"~" はホームディレクトリに展開する。
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultDir
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand token directory: %w", err)
	}
	return &FileStore{path: filepath.Join(expanded, TokenKey)}, nil
}

// Path はトークンファイルのパスを返す。
func (s *FileStore) Path() string {
	return s.path
}

// Load はファイルからトークンを読み込む。ファイルが無ければ空文字列を返す。
func (s *FileStore) Load() (string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Save はトークンをファイルに書き込む。
// 一時ファイルに書いてからrenameするため、途中で中断しても壊れたトークンは残らない。
func (s *FileStore) Save(token string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, TokenKey+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod token file: %w", err)
	}
	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to move token file: %w", err)
	}
	return nil
}

// Clear はトークンファイルを削除する。ファイルが無くてもエラーにしない。
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// MemoryStore はメモリ上にのみトークンを保持するStore実装。テスト用。
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore はtokenを初期値とするMemoryStoreを生成する。
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
