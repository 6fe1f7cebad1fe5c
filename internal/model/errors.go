// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, issue, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeIssueNotFound     = "ISSUE_NOT_FOUND"
	ErrCodeUnauthenticated   = "UNAUTHENTICATED"
	ErrCodeInvalidCredential = "INVALID_CREDENTIAL"
	ErrCodeInvalidStatus     = "INVALID_STATUS"
	ErrCodeInvalidPhotoURL   = "INVALID_PHOTO_URL"
)

// NewValidationError は必須フィールド欠落エラーを生成する。
func NewValidationError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("必須項目が入力されていません: %s", field),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "メールアドレスを確認するか、新規登録してください。",
	}
}

// NewIssueNotFoundError は問題が見つからない場合のエラーを生成する。
func NewIssueNotFoundError(issueID int64) *APIError {
	return &APIError{
		Code:     ErrCodeIssueNotFound,
		Message:  fmt.Sprintf("指定された問題が見つかりません: %d", issueID),
		Category: "issue",
		Action:   "問題IDを確認してください。",
	}
}

// NewUnauthenticatedError は未認証エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialError はパスワード不一致エラーを生成する。
// どのフィールドが誤っているかの詳細は意図的に含めない。
func NewInvalidCredentialError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredential,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidStatusError はステータスドメイン外の値に対するエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効なステータスです: %s", status),
		Category: "validation",
		Action:   "ステータスには open、in progress、closed のいずれかを指定してください。",
	}
}

// NewInvalidPhotoURLError は写真URLが無効な場合のエラーを生成する。
func NewInvalidPhotoURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPhotoURL,
		Message:  fmt.Sprintf("無効な写真URLです: %s", reason),
		Category: "validation",
		Action:   "公開されているWebサイト上の画像URL（https://で始まるURL）を指定してください。",
	}
}
