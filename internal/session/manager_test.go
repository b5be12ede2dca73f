package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// failingStore はClearで常に失敗するStore。
type failingStore struct {
	MemoryStore
}

func (s *failingStore) Clear() error {
	return errors.New("disk gone")
}

func TestNewManager_LoadsPersistedToken(t *testing.T) {
	m, err := NewManager(NewMemoryStore("persisted"), nil)
	if err != nil {
		t.Fatalf("NewManager がエラーを返した: %v", err)
	}

	token, ok := m.Token()
	if !ok || token != "persisted" {
		t.Errorf("Token() = (%q, %v), want (%q, true)", token, ok, "persisted")
	}
	if !m.IsAuthenticated() {
		t.Error("IsAuthenticated() = false, want true")
	}
}

func TestManager_SetTokenAndClear(t *testing.T) {
	store := NewMemoryStore("")
	m, err := NewManager(store, nil)
	if err != nil {
		t.Fatalf("NewManager がエラーを返した: %v", err)
	}
	if m.IsAuthenticated() {
		t.Fatal("初期状態は未認証であるべき")
	}

	if err := m.SetToken("abc"); err != nil {
		t.Fatalf("SetToken がエラーを返した: %v", err)
	}
	if got, _ := store.Load(); got != "abc" {
		t.Errorf("永続化されたトークン = %q, want %q", got, "abc")
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear がエラーを返した: %v", err)
	}
	if _, ok := m.Token(); ok {
		t.Error("Clear後にトークンが残っている")
	}
	if got, _ := store.Load(); got != "" {
		t.Errorf("Clear後の永続化トークン = %q, want empty", got)
	}
}

func TestManager_SetEmptyTokenClears(t *testing.T) {
	m, _ := NewManager(NewMemoryStore("abc"), nil)
	if err := m.SetToken(""); err != nil {
		t.Fatalf("SetToken がエラーを返した: %v", err)
	}
	if m.IsAuthenticated() {
		t.Error("空トークン設定後は未認証であるべき")
	}
}

func TestManager_ClearDropsMemoryTokenEvenIfStoreFails(t *testing.T) {
	store := &failingStore{}
	store.token = "abc"
	m, _ := NewManager(store, nil)

	if err := m.Clear(); err == nil {
		t.Error("Clear はストアのエラーを返すべき")
	}
	if m.IsAuthenticated() {
		t.Error("ストアのエラーに関わらずメモリ上のトークンは破棄されるべき")
	}
}

func TestManager_ConcurrentReads(t *testing.T) {
	m, _ := NewManager(NewMemoryStore("abc"), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Token()
			m.IsAuthenticated()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.SetToken("def")
	}()
	wg.Wait()

	if token, _ := m.Token(); token != "def" {
		t.Errorf("Token() = %q, want %q", token, "def")
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore がエラーを返した: %v", err)
	}
	if store.Path() != filepath.Join(dir, TokenKey) {
		t.Errorf("Path() = %q, want %q", store.Path(), filepath.Join(dir, TokenKey))
	}

	token, err := store.Load()
	if err != nil || token != "" {
		t.Fatalf("ファイルが無い場合は空文字列とnilを返すべき: (%q, %v)", token, err)
	}

	if err := store.Save("secret-token"); err != nil {
		t.Fatalf("Save がエラーを返した: %v", err)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("トークンファイルが存在しない: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("ファイルパーミッション = %o, want 600", perm)
	}

	// 別インスタンスから読めること（再起動をまたいだ永続化）
	reopened, _ := NewFileStore(dir)
	token, err = reopened.Load()
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}
	if token != "secret-token" {
		t.Errorf("Load() = %q, want %q", token, "secret-token")
	}

	if err := reopened.Clear(); err != nil {
		t.Fatalf("Clear がエラーを返した: %v", err)
	}
	if err := reopened.Clear(); err != nil {
		t.Errorf("ファイルが無い状態でのClearはエラーにしないべき: %v", err)
	}
	if token, _ := store.Load(); token != "" {
		t.Errorf("Clear後のLoad() = %q, want empty", token)
	}
}

func TestFileStore_ManagerSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir)
	m, _ := NewManager(store, nil)
	if err := m.SetToken("T"); err != nil {
		t.Fatalf("SetToken がエラーを返した: %v", err)
	}

	store2, _ := NewFileStore(dir)
	m2, err := NewManager(store2, nil)
	if err != nil {
		t.Fatalf("NewManager がエラーを返した: %v", err)
	}
	if token, ok := m2.Token(); !ok || token != "T" {
		t.Errorf("再起動後のToken() = (%q, %v), want (%q, true)", token, ok, "T")
	}
}
