// Package issue は問題報告・一覧・ステータス管理のドメインロジックを提供する。
package issue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/machirepo/internal/model"
	"github.com/hitoshi/machirepo/internal/repository"
)

// PhotoVerifier は写真URL検証のインターフェース。
// photo.Verifierを抽象化してテスタビリティを向上させる。
type PhotoVerifier interface {
	Verify(ctx context.Context, rawURL string) error
}

// TextSanitizer は自由記述フィールドのサニタイズインターフェース。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// MetricsRecorder は問題関連メトリクスの記録インターフェース。
type MetricsRecorder interface {
	RecordIssueReported()
	RecordStatusTransition(status string)
}

// Service は問題に関するビジネスロジックを提供する。
type Service struct {
	issueRepo repository.IssueRepository
	verifier  PhotoVerifier
	sanitizer TextSanitizer
	metrics   MetricsRecorder
}

// NewService はServiceを生成する。
// verifier、sanitizer、metricsはnil許容（nilの場合は該当処理をスキップする）。
func NewService(
	issueRepo repository.IssueRepository,
	verifier PhotoVerifier,
	sanitizer TextSanitizer,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		issueRepo: issueRepo,
		verifier:  verifier,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// Report は認証済みユーザーからの問題報告を受け付け、採番された問題IDを返す。
// 問題種別と場所は必須。写真URLは任意で、未指定の場合は空文字列として保存する。
// ステータスは呼び出し側の入力に関わらず必ず "open" で作成される。
// 報告日時は永続化時点のサーバー時刻（UTC）でスタンプされる。
func (s *Service) Report(ctx context.Context, userID int64, issueType, photoURL, location string) (int64, error) {
	issueType = strings.TrimSpace(issueType)
	location = strings.TrimSpace(location)
	photoURL = strings.TrimSpace(photoURL)

	if issueType == "" {
		return 0, model.NewValidationError("issue_type")
	}
	if location == "" {
		return 0, model.NewValidationError("location")
	}

	if s.sanitizer != nil {
		issueType = s.sanitizer.Sanitize(issueType)
		location = s.sanitizer.Sanitize(location)
		if issueType == "" {
			return 0, model.NewValidationError("issue_type")
		}
		if location == "" {
			return 0, model.NewValidationError("location")
		}
	}

	if photoURL != "" && s.verifier != nil {
		if err := s.verifier.Verify(ctx, photoURL); err != nil {
			return 0, model.NewInvalidPhotoURLError(err.Error())
		}
	}

	issue := &model.Issue{
		UserID:       userID,
		IssueType:    issueType,
		PhotoURL:     photoURL,
		Location:     location,
		Status:       model.IssueStatusOpen,
		DateReported: time.Now().UTC(),
	}

	id, err := s.issueRepo.Create(ctx, issue)
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.RecordIssueReported()
	}
	slog.Info("issue reported",
		slog.Int64("issue_id", id),
		slog.Int64("user_id", userID),
		slog.String("issue_type", issueType),
	)

	return id, nil
}

// List は全問題を返す。認証は不要。
// ページネーション・フィルタリングは現スコープ外であり、全件を返す。
// 呼び出しごとに最新の状態を読み直す。
func (s *Service) List(ctx context.Context) ([]*model.Issue, error) {
	issues, err := s.issueRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	return issues, nil
}

// UpdateStatus は問題のステータスを更新する。
// 新しいステータスは3値ドメイン {open, in progress, closed} のメンバーで
// なければならない。メンバーシップのみを検証し、遷移順序の制約は課さない
// （closedからopenへの差し戻しも許可される）。
// ドメイン外の値は暗黙に変換せず必ず拒否する。
// 対象IDが存在しない場合はISSUE_NOT_FOUNDを返す。
//
// 注意: 現仕様では所有者チェック・認証チェックを行わない
// （任意の呼び出し元が任意の問題を遷移できる）。
func (s *Service) UpdateStatus(ctx context.Context, issueID int64, status string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return model.NewValidationError("status")
	}

	newStatus := model.IssueStatus(status)
	if !model.ValidIssueStatus(newStatus) {
		return model.NewInvalidStatusError(status)
	}

	rowsAffected, err := s.issueRepo.UpdateStatus(ctx, issueID, newStatus)
	if err != nil {
		return fmt.Errorf("failed to update issue status: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewIssueNotFoundError(issueID)
	}

	if s.metrics != nil {
		s.metrics.RecordStatusTransition(status)
	}
	slog.Info("issue status updated",
		slog.Int64("issue_id", issueID),
		slog.String("status", status),
	)

	return nil
}
