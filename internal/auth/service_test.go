package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/machirepo/internal/model"
)

// --- モック定義 ---

// mockUserRepo はrepository.UserRepositoryのモック実装。
type mockUserRepo struct {
	createFn      func(ctx context.Context, user *model.User) (int64, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	findByIDFn    func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return 1, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

// mockSessionRepo はrepository.SessionRepositoryのモック実装。
type mockSessionRepo struct {
	createFn     func(ctx context.Context, session *model.Session) error
	findByIDFn   func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

// newTestService はテスト用のServiceを生成するヘルパー。
// bcryptコストはテスト高速化のため最小に設定する。
func newTestService(userRepo *mockUserRepo, sessionRepo *mockSessionRepo) *Service {
	return NewService(userRepo, sessionRepo, nil, nil, ServiceConfig{
		SessionMaxAge: 3600,
		BcryptCost:    bcryptTestCost,
	})
}

// assertAPIErrorCode はエラーが指定コードのAPIErrorであることを検証するヘルパー。
func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected APIError with code %s, got nil", wantCode)
	}
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("error code = %q, want %q", apiErr.Code, wantCode)
	}
}

// --- Register テスト ---

func TestRegister_Success_ReturnsUserID(t *testing.T) {
	var savedUser *model.User
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) (int64, error) {
			savedUser = user
			return 42, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	id, err := svc.Register(context.Background(), "山田太郎", "taro@example.com", "password123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if id != 42 {
		t.Errorf("user ID = %d, want 42", id)
	}

	if savedUser == nil {
		t.Fatal("user was not passed to repository")
	}
	if savedUser.Name != "山田太郎" {
		t.Errorf("saved name = %q, want %q", savedUser.Name, "山田太郎")
	}
	if savedUser.Email != "taro@example.com" {
		t.Errorf("saved email = %q, want %q", savedUser.Email, "taro@example.com")
	}
	if savedUser.RegisteredAt.IsZero() {
		t.Error("RegisteredAt should be stamped at registration time")
	}
}

func TestRegister_PasswordIsHashed_NotPlaintext(t *testing.T) {
	var savedUser *model.User
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) (int64, error) {
			savedUser = user
			return 1, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	if _, err := svc.Register(context.Background(), "name", "a@example.com", "plaintext-pw"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if savedUser.PasswordHash == "plaintext-pw" {
		t.Error("password must not be stored as plaintext")
	}
	if strings.Contains(savedUser.PasswordHash, "plaintext-pw") {
		t.Error("password hash must not contain the plaintext")
	}
	if !VerifyPassword(savedUser.PasswordHash, "plaintext-pw") {
		t.Error("stored hash should verify against the original password")
	}
}

func TestRegister_MissingFields_ReturnsValidationError(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"empty name", "", "a@example.com", "pw"},
		{"empty email", "name", "", "pw"},
		{"empty password", "name", "a@example.com", ""},
		{"whitespace-only name", "   ", "a@example.com", "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			userRepo := &mockUserRepo{
				createFn: func(ctx context.Context, user *model.User) (int64, error) {
					called = true
					return 1, nil
				},
			}
			svc := newTestService(userRepo, &mockSessionRepo{})

			_, err := svc.Register(context.Background(), tt.userName, tt.email, tt.password)
			assertAPIErrorCode(t, err, model.ErrCodeValidation)
			if called {
				t.Error("repository must not be called for invalid input")
			}
		})
	}
}

func TestRegister_DuplicateEmail_PassesThrough(t *testing.T) {
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) (int64, error) {
			return 0, model.NewDuplicateEmailError()
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, err := svc.Register(context.Background(), "name", "dup@example.com", "pw")
	assertAPIErrorCode(t, err, model.ErrCodeDuplicateEmail)
}

// 同一メールアドレスの並行登録でちょうど1件だけ成功することを検証する。
// 一意性はリポジトリのINSERTと同一の原子的操作で保証されるため、
// インメモリのフェイクで同じ振る舞いを再現する。
func TestRegister_ConcurrentSameEmail_ExactlyOneSucceeds(t *testing.T) {
	var mu sync.Mutex
	emails := make(map[string]bool)
	var nextID int64

	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) (int64, error) {
			mu.Lock()
			defer mu.Unlock()
			if emails[user.Email] {
				return 0, model.NewDuplicateEmailError()
			}
			emails[user.Email] = true
			nextID++
			return nextID, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	const goroutines = 10
	var wg sync.WaitGroup
	results := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := svc.Register(context.Background(), "name", "race@example.com", "pw")
			results[idx] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	duplicates := 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		default:
			apiErr, ok := err.(*model.APIError)
			if ok && apiErr.Code == model.ErrCodeDuplicateEmail {
				duplicates++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}

	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if duplicates != goroutines-1 {
		t.Errorf("duplicate errors = %d, want %d", duplicates, goroutines-1)
	}
}

// --- Login テスト ---

func TestLogin_Success_CreatesSession(t *testing.T) {
	hash, err := HashPassword("correct-pw", bcryptTestCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 7, Email: email, PasswordHash: hash}, nil
		},
	}

	var savedSession *model.Session
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			savedSession = session
			return nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	session, err := svc.Login(context.Background(), "taro@example.com", "correct-pw")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if session.UserID != 7 {
		t.Errorf("session.UserID = %d, want 7", session.UserID)
	}
	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64 (32 bytes hex)", len(session.ID))
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Error("session should expire in the future")
	}
	if savedSession == nil {
		t.Fatal("session was not persisted")
	}
	if savedSession.ID != session.ID {
		t.Error("persisted session ID differs from returned session ID")
	}
}

func TestLogin_UnknownEmail_ReturnsUserNotFound(t *testing.T) {
	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, err := svc.Login(context.Background(), "nobody@example.com", "pw")
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

func TestLogin_WrongPassword_ReturnsInvalidCredential(t *testing.T) {
	hash, err := HashPassword("correct-pw", bcryptTestCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 7, Email: email, PasswordHash: hash}, nil
		},
	}
	sessionCreated := false
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			sessionCreated = true
			return nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	_, err = svc.Login(context.Background(), "taro@example.com", "wrong-pw")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidCredential)
	if sessionCreated {
		t.Error("session must not be created for a failed login")
	}
}

func TestLogin_EmptyFields_ReturnsValidationError(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	_, err := svc.Login(context.Background(), "", "pw")
	assertAPIErrorCode(t, err, model.ErrCodeValidation)

	_, err = svc.Login(context.Background(), "a@example.com", "")
	assertAPIErrorCode(t, err, model.ErrCodeValidation)
}

// --- Logout テスト ---

func TestLogout_DeletesSession(t *testing.T) {
	var deletedID string
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	svc := newTestService(&mockUserRepo{}, sessionRepo)

	if err := svc.Logout(context.Background(), "session-abc"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if deletedID != "session-abc" {
		t.Errorf("deleted session ID = %q, want %q", deletedID, "session-abc")
	}
}

func TestLogout_EmptySessionID_Succeeds(t *testing.T) {
	called := false
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			called = true
			return nil
		},
	}
	svc := newTestService(&mockUserRepo{}, sessionRepo)

	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("Logout with empty session ID should succeed, got: %v", err)
	}
	if called {
		t.Error("repository should not be called for an empty session ID")
	}
}

func TestLogout_Idempotent(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			// 存在しないIDの削除もリポジトリは成功として扱う
			return nil
		},
	}
	svc := newTestService(&mockUserRepo{}, sessionRepo)

	if err := svc.Logout(context.Background(), "gone"); err != nil {
		t.Fatalf("1st Logout returned error: %v", err)
	}
	if err := svc.Logout(context.Background(), "gone"); err != nil {
		t.Fatalf("2nd Logout returned error: %v", err)
	}
}

// --- GetCurrentUser テスト ---

func TestGetCurrentUser_Success(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: 7, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Name: "山田太郎", Email: "taro@example.com"}, nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	user, err := svc.GetCurrentUser(context.Background(), "valid-session")
	if err != nil {
		t.Fatalf("GetCurrentUser returned error: %v", err)
	}
	if user.ID != 7 {
		t.Errorf("user.ID = %d, want 7", user.ID)
	}
}

func TestGetCurrentUser_EmptySessionID_ReturnsUnauthenticated(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	_, err := svc.GetCurrentUser(context.Background(), "")
	assertAPIErrorCode(t, err, model.ErrCodeUnauthenticated)
}

func TestGetCurrentUser_UnknownSession_ReturnsUnauthenticated(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			// 期限切れ・存在しないセッションはnil
			return nil, nil
		},
	}
	svc := newTestService(&mockUserRepo{}, sessionRepo)

	_, err := svc.GetCurrentUser(context.Background(), "expired-session")
	assertAPIErrorCode(t, err, model.ErrCodeUnauthenticated)
}

func TestGetCurrentUser_MissingUser_ReturnsUserNotFound(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: 99}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	_, err := svc.GetCurrentUser(context.Background(), "orphan-session")
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

// --- generateSessionID テスト ---

func TestGenerateSessionID_UniqueAndHex(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := generateSessionID()
		if err != nil {
			t.Fatalf("generateSessionID returned error: %v", err)
		}
		if len(id) != 64 {
			t.Fatalf("session ID length = %d, want 64", len(id))
		}
		if seen[id] {
			t.Fatal("generateSessionID produced a duplicate")
		}
		seen[id] = true
	}
}
