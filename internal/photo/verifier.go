// Package photo は報告に添付される写真参照の検証を提供する。
//
// 写真の保存・配信は本サービスの管轄外（外部ホスティング前提）であり、
// ここでは利用者が提出したURLが安全かつ画像を指していることのみを確認する。
package photo

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"
)

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// VerifierConfig は写真URL検証の設定。
type VerifierConfig struct {
	// FetchCheck がtrueの場合、URLに対してHEADリクエストを送信し、
	// 2xx応答かつimage/*のContent-Typeであることを確認する。
	// オフライン環境やエアギャップ配備ではfalseにする。
	FetchCheck bool
	// Timeout はHEADリクエストのタイムアウト。
	Timeout time.Duration
}

// Verifier は写真URLの検証機能を提供する。
type Verifier struct {
	ssrfGuard SSRFValidator
	config    VerifierConfig
}

// NewVerifier はVerifierの新しいインスタンスを生成する。
func NewVerifier(ssrfGuard SSRFValidator, config VerifierConfig) *Verifier {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	return &Verifier{
		ssrfGuard: ssrfGuard,
		config:    config,
	}
}

// Verify は写真URLを検証する。
// 静的検証（スキーム・ホスト・IP）は常に行い、
// FetchCheckが有効な場合は到達確認とContent-Type確認も行う。
// 検証に失敗した場合はエラーを返し、報告は永続化されない。
func (v *Verifier) Verify(ctx context.Context, rawURL string) error {
	if err := v.ssrfGuard.ValidateURL(rawURL); err != nil {
		return fmt.Errorf("unsafe photo URL: %w", err)
	}

	if !v.config.FetchCheck {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build photo check request: %w", err)
	}

	client := v.ssrfGuard.NewSafeClient(v.config.Timeout)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("photo URL is unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("photo URL returned status %d", resp.StatusCode)
	}

	if !isImageContentType(resp.Header.Get("Content-Type")) {
		return fmt.Errorf("photo URL does not point to an image (content-type: %s)",
			resp.Header.Get("Content-Type"))
	}

	return nil
}

// isImageContentType はContent-Typeが画像を示すかを判定する。
// charset等のパラメータは無視する。
func isImageContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	return strings.HasPrefix(strings.ToLower(mediaType), "image/")
}
