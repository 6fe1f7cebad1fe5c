// Package auth はアカウント登録、パスワード認証、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/machirepo/internal/model"
	"github.com/hitoshi/machirepo/internal/repository"
)

// TextSanitizer は自由記述フィールドのサニタイズインターフェース。
// security.TextSanitizerServiceの部分集合として定義する。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// MetricsRecorder は認証関連メトリクスの記録インターフェース。
type MetricsRecorder interface {
	RecordRegistration()
	RecordLogin()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
	BcryptCost    int // bcryptのコストパラメータ（0の場合はデフォルト）
}

// Service はアカウントと認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	sanitizer   TextSanitizer
	metrics     MetricsRecorder
	config      ServiceConfig
}

// NewService はServiceを生成する。
// sanitizerとmetricsはnil許容（nilの場合は該当処理をスキップする）。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	sanitizer TextSanitizer,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		sanitizer:   sanitizer,
		metrics:     metrics,
		config:      config,
	}
}

// Register は新規ユーザーを登録し、採番されたユーザーIDを返す。
// 名前・メールアドレス・パスワードはいずれも必須。
// メールアドレスの一意性はリポジトリのINSERTと同一の原子的操作内で検証されるため、
// 同一メールアドレスの並行登録はちょうど1件だけ成功する。
// パスワードはbcryptでハッシュ化して保存し、平文は保持もログ出力もしない。
func (s *Service) Register(ctx context.Context, name, email, password string) (int64, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return 0, model.NewValidationError("name")
	}
	if email == "" {
		return 0, model.NewValidationError("email")
	}
	if password == "" {
		return 0, model.NewValidationError("password")
	}

	if s.sanitizer != nil {
		name = s.sanitizer.Sanitize(name)
		if name == "" {
			return 0, model.NewValidationError("name")
		}
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RegisteredAt: time.Now().UTC(),
	}

	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}
	slog.Info("new user registered",
		slog.Int64("user_id", id),
	)

	return id, nil
}

// Login はメールアドレスとパスワードを検証し、セッションを発行する。
// ユーザー未登録の場合とパスワード不一致の場合は区別したエラーを返すが、
// それ以上の詳細（どの文字が違う等）は漏らさない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	email = strings.TrimSpace(email)

	if email == "" {
		return nil, model.NewValidationError("email")
	}
	if password == "" {
		return nil, model.NewValidationError("password")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if !VerifyPassword(user.PasswordHash, password) {
		return nil, model.NewInvalidCredentialError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLogin()
	}
	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
	)

	return session, nil
}

// Logout はセッションを破棄する。
// 冪等: 存在しない・既に破棄済みのセッションIDを指定しても成功として扱う。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はセッショントークンから現在のユーザーを取得する。
// トークンが無効・期限切れの場合はUNAUTHENTICATEDを返す。
// セッションが指すユーザーが存在しない場合は整合性違反として
// USER_NOT_FOUNDを返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, model.NewUnauthenticatedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthenticatedError()
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		slog.Error("session points to missing user",
			slog.Int64("user_id", session.UserID),
		)
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID int64) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
