package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storeman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	AuthMetrics       middleware.AuthMetrics
	HTTPMetrics       middleware.HTTPMetrics
	MetricsHandler    http.Handler

	// 認証
	AuthService  AuthServiceInterface
	LoginMetrics LoginMetrics

	// 管理者
	UserLister UserLister

	// 決済
	PaymentHandler *PaymentHandler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging
//	認証が必要なルートではさらに RequireSignedIn → RateLimit(General)
//	管理者ルートではさらに RequireAdmin
//
// 管理者ゲートは必ず署名ゲートの後段に置く。未認証のまま管理者ルートに
// 到達したリクエストはトークン欠如として拒否される。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.HTTPMetrics))

	authHandler := NewAuthHandler(deps.AuthService, deps.LoginMetrics)
	adminHandler := NewAdminHandler(deps.UserLister)

	requireSignedIn := middleware.NewRequireSignedIn(deps.TokenVerifier, deps.AuthMetrics)
	requireAdmin := middleware.NewRequireAdmin(deps.UserFinder, deps.AuthMetrics)

	// --- 認証不要のルート ---

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		// ログインはIP単位の専用レート制限を適用する
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(requireSignedIn)
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/user-auth", authHandler.UserAuthProbe)
			r.With(requireAdmin).Get("/admin-auth", authHandler.AdminAuthProbe)
		})
	})

	// 管理者ルート: 署名ゲート → 管理者ゲートの順
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(requireSignedIn)
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(requireAdmin)

		r.Get("/users", adminHandler.ListUsers)
	})

	// 決済ルート
	r.Route("/api/v1/product/braintree", func(r chi.Router) {
		r.Use(requireSignedIn)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/token", deps.PaymentHandler.ClientToken)
		r.Post("/payment", deps.PaymentHandler.SubmitPayment)
	})

	return r
}
