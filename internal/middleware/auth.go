// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/storeman/internal/model"
)

// クライアントが分岐に使う認証エラーメッセージ。変更は互換性破壊になる。
const (
	// MsgMissingToken はAuthorizationヘッダー欠落時のメッセージ。
	MsgMissingToken = "Unauthorized: Missing token"
	// MsgInvalidToken はクレデンシャル検証失敗時のメッセージ。
	MsgInvalidToken = "Unauthorized: Invalid token"
	// MsgForbidden は認証済みだが管理者権限がない場合のメッセージ。
	MsgForbidden = "UnAuthorized Access"
	// MsgAdminLookupFailed はロール解決のためのユーザー検索が失敗した場合のメッセージ。
	MsgAdminLookupFailed = "Error in admin middleware"
)

// 認証ゲートの拒否理由。メトリクスのラベルとして使用する。
const (
	rejectMissingToken = "missing_token"
	rejectInvalidToken = "invalid_token"
	rejectForbidden    = "forbidden"
	rejectLookupError  = "lookup_error"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimsContextKey はリクエストコンテキストに検証済みクレームを格納するためのキー。
var claimsContextKey = contextKey("claims")

// TokenVerifier はクレデンシャル検証に必要なインターフェース。
// auth.TokenServiceの部分集合として定義する。
type TokenVerifier interface {
	Verify(token string) (*model.Claims, error)
}

// UserFinder はロール解決のためのユーザー検索インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// AuthMetrics は認証ゲートの判定結果を記録するインターフェース。nil可。
type AuthMetrics interface {
	RecordAuthAdmit()
	RecordAuthReject(reason string)
}

// NewRequireSignedIn はベアラークレデンシャルを検証するミドルウェアを返す。
//
// Authorizationヘッダーが無い場合は検証器を呼ばずに401で拒否する。
// ヘッダーは "Bearer <token>" 形式とベアトークンの両方を受け付ける。
// 検証に成功するとデコード済みクレームをリクエストコンテキストに格納して
// 後段へ進める。検証失敗の詳細はログにのみ残し、クライアントには
// 常に同一のメッセージを返す。
func NewRequireSignedIn(verifier TokenVerifier, metrics AuthMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Authorizationヘッダーの取得。無ければデコードを試みず即拒否
			header := r.Header.Get("Authorization")
			if header == "" {
				recordReject(metrics, rejectMissingToken)
				WriteError(w, http.StatusUnauthorized, MsgMissingToken)
				return
			}

			// 2. "Bearer "プレフィックスは任意
			token := strings.TrimPrefix(header, "Bearer ")

			// 3. 共有シークレットによる署名・期限検証
			claims, err := verifier.Verify(token)
			if err != nil {
				slog.Warn("token verification failed",
					slog.String("error", err.Error()),
					slog.String("path", r.URL.Path),
				)
				recordReject(metrics, rejectInvalidToken)
				WriteError(w, http.StatusUnauthorized, MsgInvalidToken)
				return
			}

			// 4. 検証済みクレームをコンテキストに注入して後段へ
			if metrics != nil {
				metrics.RecordAuthAdmit()
			}
			ctx := ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireAdmin は管理者ロールを要求するミドルウェアを返す。
//
// RequireSignedInの後段に配置すること。コンテキストのクレームを信頼し、
// クレデンシャルの再検証は行わない。サブジェクトIDでユーザーを検索し、
// レコードが無い・ロールが管理者でない・検索自体が失敗した、の
// いずれの場合も401で拒否する（フェイルクローズ）。
func NewRequireAdmin(users UserFinder, metrics AuthMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ClaimsFromContext(r.Context())
			if err != nil {
				// ミドルウェアチェーンの配置ミス。未認証扱いで拒否し、
				// 管理者専用のメッセージは返さない
				slog.Error("admin gate reached without claims",
					slog.String("path", r.URL.Path),
				)
				recordReject(metrics, rejectMissingToken)
				WriteError(w, http.StatusUnauthorized, MsgMissingToken)
				return
			}

			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				slog.Error("failed to resolve user role",
					slog.String("user_id", claims.UserID),
					slog.String("error", err.Error()),
				)
				recordReject(metrics, rejectLookupError)
				// エラーの内部詳細はレスポンスに含めない（ログのみ）
				WriteJSON(w, http.StatusUnauthorized, APIResponse{
					Success: false,
					Error:   "internal error",
					Message: MsgAdminLookupFailed,
				})
				return
			}

			if user == nil || !user.IsAdmin() {
				recordReject(metrics, rejectForbidden)
				WriteError(w, http.StatusUnauthorized, MsgForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// recordReject はメトリクスが設定されている場合のみ拒否を記録する。
func recordReject(metrics AuthMetrics, reason string) {
	if metrics != nil {
		metrics.RecordAuthReject(reason)
	}
}

// ContextWithClaims はコンテキストに検証済みクレームを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaims(ctx context.Context, claims *model.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext はリクエストコンテキストから検証済みクレームを取得する。
// RequireSignedInを通過したリクエストでのみ有効。
func ClaimsFromContext(ctx context.Context) (*model.Claims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*model.Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("claims not found in context")
	}
	return claims, nil
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	claims, err := ClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return claims.UserID, nil
}
