package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/machirepo/internal/middleware"
	"github.com/hitoshi/machirepo/internal/model"
)

// IssueServiceInterface は問題ハンドラーが必要とするサービスインターフェース。
type IssueServiceInterface interface {
	// Report は問題報告を受け付け、採番された問題IDを返す。
	Report(ctx context.Context, userID int64, issueType, photoURL, location string) (int64, error)
	// List は全問題を返す。
	List(ctx context.Context) ([]*model.Issue, error)
	// UpdateStatus は問題のステータスを更新する。
	UpdateStatus(ctx context.Context, issueID int64, status string) error
}

// IssueHandler は問題管理のHTTPハンドラー。
type IssueHandler struct {
	service IssueServiceInterface
}

// NewIssueHandler はIssueHandlerを生成する。
func NewIssueHandler(service IssueServiceInterface) *IssueHandler {
	return &IssueHandler{
		service: service,
	}
}

// reportIssueRequest は問題報告リクエストのボディ。
type reportIssueRequest struct {
	IssueType string `json:"issue_type"`
	PhotoURL  string `json:"photo_url"`
	Location  string `json:"location"`
}

// updateStatusRequest はステータス更新リクエストのボディ。
type updateStatusRequest struct {
	Status string `json:"status"`
}

// issueResponse は問題情報のAPIレスポンス。
type issueResponse struct {
	IssueID      int64  `json:"issue_id"`
	UserID       int64  `json:"user_id"`
	IssueType    string `json:"issue_type"`
	PhotoURL     string `json:"photo_url"`
	Location     string `json:"location"`
	IssueStatus  string `json:"issue_status"`
	DateReported string `json:"date_reported"`
}

// Report は問題報告を処理する。報告者は認証済みユーザーで固定される。
// POST /api/issues
func (h *IssueHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req reportIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	issueID, err := h.service.Report(r.Context(), userID, req.IssueType, req.PhotoURL, req.Location)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  "問題を報告しました。",
		"issue_id": issueID,
	})
}

// List は全問題の一覧を返す。認証は不要。
// GET /api/issues
func (h *IssueHandler) List(w http.ResponseWriter, r *http.Request) {
	issues, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 0件でも空配列を返す（nullは返さない）
	responses := make([]issueResponse, 0, len(issues))
	for _, issue := range issues {
		responses = append(responses, toIssueResponse(issue))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// UpdateStatus は問題のステータスを更新する。
// PUT /api/issues/{id}/status
func (h *IssueHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	issueID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "問題IDは数値で指定してください。",
			Category: "validation",
			Action:   "URLの問題IDを確認してください。",
		})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	if err := h.service.UpdateStatus(r.Context(), issueID, req.Status); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "ステータスを更新しました。",
	})
}

// --- ヘルパー関数 ---

// toIssueResponse はmodel.IssueからAPIレスポンスに変換する。
func toIssueResponse(issue *model.Issue) issueResponse {
	return issueResponse{
		IssueID:      issue.ID,
		UserID:       issue.UserID,
		IssueType:    issue.IssueType,
		PhotoURL:     issue.PhotoURL,
		Location:     issue.Location,
		IssueStatus:  string(issue.Status),
		DateReported: model.FormatTimestamp(issue.DateReported),
	}
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// invalidRequestBodyError はリクエストボディの解析失敗エラーを生成する。
func invalidRequestBodyError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidStatus, model.ErrCodeInvalidPhotoURL, "INVALID_REQUEST":
		return http.StatusBadRequest
	case model.ErrCodeUnauthenticated, model.ErrCodeInvalidCredential:
		return http.StatusUnauthorized
	case model.ErrCodeUserNotFound, model.ErrCodeIssueNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateEmail:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
