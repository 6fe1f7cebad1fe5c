// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/machirepo/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成し、採番されたIDを返す。
	// メールアドレスの一意性はINSERTと同一の原子的操作内で検証され、
	// 重複時は*model.APIError（DUPLICATE_EMAIL）を返す。
	Create(ctx context.Context, user *model.User) (int64, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	// 冪等: 既に存在しないIDを指定してもエラーにならない。
	DeleteByID(ctx context.Context, id string) error
}

// IssueRepository は問題データの永続化インターフェース。
type IssueRepository interface {
	// Create は問題を作成し、採番されたIDを返す。
	Create(ctx context.Context, issue *model.Issue) (int64, error)

	// FindByID は指定IDの問題を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Issue, error)

	// ListAll は全問題を報告日時の降順で返す。
	// 呼び出しごとに現在の状態を読み直す（結果はスナップショット）。
	ListAll(ctx context.Context) ([]*model.Issue, error)

	// UpdateStatus は問題のステータスを更新し、更新された行数を返す。
	// 0行の場合は対象IDが存在しない。ステータスドメインの検証は呼び出し側の責務。
	UpdateStatus(ctx context.Context, id int64, status model.IssueStatus) (int64, error)
}
