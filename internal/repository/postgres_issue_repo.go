package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/machirepo/internal/model"
)

// PostgresIssueRepo はPostgreSQLを使用した問題リポジトリ。
type PostgresIssueRepo struct {
	db *sql.DB
}

// NewPostgresIssueRepo はPostgresIssueRepoを生成する。
func NewPostgresIssueRepo(db *sql.DB) *PostgresIssueRepo {
	return &PostgresIssueRepo{db: db}
}

// Create は問題を作成し、採番されたIDを返す。
// statusカラムのCHECK制約により、ドメイン外の値はDB層でも拒否される。
func (r *PostgresIssueRepo) Create(ctx context.Context, issue *model.Issue) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO issues (user_id, issue_type, photo_url, location, status, date_reported)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		issue.UserID, issue.IssueType, issue.PhotoURL,
		issue.Location, string(issue.Status), issue.DateReported,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to insert issue: %w", err)
	}

	return id, nil
}

// FindByID は指定IDの問題を取得する。見つからない場合はnilを返す。
func (r *PostgresIssueRepo) FindByID(ctx context.Context, id int64) (*model.Issue, error) {
	issue := &model.Issue{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, issue_type, photo_url, location, status, date_reported
		 FROM issues WHERE id = $1`,
		id,
	).Scan(&issue.ID, &issue.UserID, &issue.IssueType, &issue.PhotoURL,
		&issue.Location, &issue.Status, &issue.DateReported)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find issue by ID: %w", err)
	}

	return issue, nil
}

// ListAll は全問題を報告日時の降順で返す。
func (r *PostgresIssueRepo) ListAll(ctx context.Context) ([]*model.Issue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, issue_type, photo_url, location, status, date_reported
		 FROM issues
		 ORDER BY date_reported DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []*model.Issue
	for rows.Next() {
		issue := &model.Issue{}
		if err := rows.Scan(&issue.ID, &issue.UserID, &issue.IssueType, &issue.PhotoURL,
			&issue.Location, &issue.Status, &issue.DateReported); err != nil {
			return nil, fmt.Errorf("failed to scan issue row: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate issue rows: %w", err)
	}

	return issues, nil
}

// UpdateStatus は問題のステータスを更新し、更新された行数を返す。
// 最後の書き込みが勝つ（last-write-wins）。楽観ロック等は行わない。
func (r *PostgresIssueRepo) UpdateStatus(ctx context.Context, id int64, status model.IssueStatus) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE issues SET status = $1 WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update issue status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// compile-time interface check
var _ IssueRepository = (*PostgresIssueRepo)(nil)
