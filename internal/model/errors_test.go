package model

import (
	"errors"
	"fmt"
	"testing"
)

// APIErrorがerrorインターフェースを満たし、コードを含むメッセージを返すことを検証
func TestAPIError_ErrorFormat(t *testing.T) {
	err := NewDuplicateEmailError()
	msg := err.Error()
	if msg == "" {
		t.Fatal("Error() must not be empty")
	}
	if msg[:1] != "[" {
		t.Errorf("Error() = %q, want to start with the error code in brackets", msg)
	}
}

// ラップされたAPIErrorがerrors.Asで取り出せることを検証
func TestAPIError_UnwrapsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("failed to register: %w", NewValidationError("email"))

	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As should extract *APIError from a wrapped error")
	}
	if apiErr.Code != ErrCodeValidation {
		t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeValidation)
	}
}

// 各コンストラクタが期待するコードとカテゴリを持つことを検証
func TestErrorConstructors_CodesAndCategories(t *testing.T) {
	tests := []struct {
		name         string
		err          *APIError
		wantCode     string
		wantCategory string
	}{
		{"validation", NewValidationError("name"), ErrCodeValidation, "validation"},
		{"duplicate email", NewDuplicateEmailError(), ErrCodeDuplicateEmail, "validation"},
		{"user not found", NewUserNotFoundError(), ErrCodeUserNotFound, "auth"},
		{"issue not found", NewIssueNotFoundError(5), ErrCodeIssueNotFound, "issue"},
		{"unauthenticated", NewUnauthenticatedError(), ErrCodeUnauthenticated, "auth"},
		{"invalid credential", NewInvalidCredentialError(), ErrCodeInvalidCredential, "auth"},
		{"invalid status", NewInvalidStatusError("archived"), ErrCodeInvalidStatus, "validation"},
		{"invalid photo url", NewInvalidPhotoURLError("blocked"), ErrCodeInvalidPhotoURL, "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.err.Category != tt.wantCategory {
				t.Errorf("category = %q, want %q", tt.err.Category, tt.wantCategory)
			}
			if tt.err.Message == "" {
				t.Error("message must not be empty")
			}
			if tt.err.Action == "" {
				t.Error("action must not be empty")
			}
		})
	}
}

// 認証エラーのメッセージがどのフィールドが誤っているかを漏らさないことを検証
func TestNewInvalidCredentialError_DoesNotLeakDetail(t *testing.T) {
	err := NewInvalidCredentialError()
	// メールアドレスとパスワードを区別しない文言であること
	if err.Message == "パスワードが正しくありません。" {
		t.Error("credential error must not single out which field is wrong")
	}
}
