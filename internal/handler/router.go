package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/taskdeck/internal/metrics"
	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/security"
)

// BackendAPI はルーター配下の全ハンドラーが利用するバックエンドAPI。*backend.Clientが実装する。
type BackendAPI interface {
	ProjectAPI
	TaskAPI
	CommentAPI
	InvitationAPI
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// 運用
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer
	Logger        *slog.Logger

	// ミドルウェア依存
	Stores            middleware.StoreFactory
	Session           middleware.SessionConfig
	CORSAllowedOrigin string
	TrustedProxies    []netip.Prefix
	RateLimiter       *middleware.RateLimiter

	// サインアップ
	Signup    SignupFlow
	SignupTTL time.Duration

	// バックエンド
	Backend   BackendAPI
	Sanitizer security.TextSanitizer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP(信頼済みプロキシのみ) → Recovery → SecurityHeaders → CORS
//	  → SessionLoader → Logging → CSRF → (Guard) → (RateLimit)
//
// /health と /metrics はセッションの復元を行わない。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.NewTrustedRealIPMiddleware(deps.TrustedProxies))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker, logger))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	csrfConfig := middleware.CSRFConfig{
		CookieSecure: deps.Session.CookieSecure,
		CookieDomain: deps.Session.CookieDomain,
	}

	authHandler := NewAuthHandler(deps.Session, logger)
	signupHandler := NewSignupHandler(deps.Signup, deps.SignupTTL, deps.Session, logger)
	pageHandler := NewPageHandler(deps.Backend, deps.Session, logger)
	projectHandler := NewProjectHandler(deps.Backend, deps.Sanitizer, deps.Session, logger)
	taskHandler := NewTaskHandler(deps.Backend, deps.Sanitizer, deps.Session, logger)
	commentHandler := NewCommentHandler(deps.Backend, deps.Sanitizer, deps.Session, logger)
	invitationHandler := NewInvitationHandler(deps.Backend, deps.Session, logger)

	// --- セッションを復元するルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionLoader(deps.Stores, deps.Session, logger))
		r.Use(middleware.NewLoggingMiddleware(logger))
		r.Use(middleware.NewCSRFMiddleware(csrfConfig))

		// 公開ページ
		r.Get("/", pageHandler.Landing)

		// 未認証専用ページ
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAnonymous())
			r.Get("/signin", pageHandler.SignIn)
			r.Get("/signup", pageHandler.SignUp)
			r.Get("/otpverification", signupHandler.OTPVerification)
		})

		// 認証専用ページ
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession())
			r.Get("/dashboard", pageHandler.Dashboard)
			r.Get("/projects", pageHandler.Projects)
			r.Get("/projects/{id}", pageHandler.Project)
		})

		// 認証アクション
		r.Route("/auth", func(r chi.Router) {
			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(deps.RateLimiter.AuthMiddleware())
				r.Post("/signin", authHandler.SignIn)
				r.Post("/signup", signupHandler.SignUp)
				r.Post("/otp/verify", signupHandler.Verify)
				r.Post("/otp/resend", signupHandler.Resend)
			})
			r.Post("/signup/cancel", signupHandler.Cancel)
		})

		// --- バックエンドAPIの中継 ---
		// ミドルウェアスタック: Guard → RateLimit(General)
		r.Route("/api", func(r chi.Router) {
			r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession())
				r.Use(deps.RateLimiter.GeneralMiddleware())

				r.Get("/dashboard/stats", pageHandler.Stats)

				r.Route("/projects", func(r chi.Router) {
					r.Get("/", projectHandler.List)
					r.Post("/", projectHandler.Create)
					r.Get("/recent", projectHandler.Recent)
					r.Get("/user/{userId}", projectHandler.ListByUser)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", projectHandler.Get)
						r.Put("/", projectHandler.Update)
						r.Delete("/", projectHandler.Delete)
						r.Get("/members", projectHandler.Members)
						r.Post("/add-member", projectHandler.AddMember)
						r.Get("/tasks", projectHandler.Tasks)
						r.Post("/tasks", projectHandler.CreateTask)
					})
				})

				r.Route("/tasks", func(r chi.Router) {
					r.Get("/", taskHandler.List)
					r.Post("/", taskHandler.Create)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", taskHandler.Get)
						r.Put("/", taskHandler.Update)
						r.Patch("/status", taskHandler.UpdateStatus)
						r.Delete("/", taskHandler.Delete)
					})
				})

				r.Route("/comments", func(r chi.Router) {
					r.Get("/task/{taskId}", commentHandler.List)
					r.Post("/", commentHandler.Create)
					r.Put("/{id}", commentHandler.Update)
					r.Delete("/{id}", commentHandler.Delete)
					r.Post("/{id}/reactions", commentHandler.React)
				})

				r.Route("/invitations", func(r chi.Router) {
					r.Get("/project/{projectId}", invitationHandler.List)
					r.Post("/", invitationHandler.Create)
					r.Post("/{id}/resend", invitationHandler.Resend)
					r.Delete("/{id}", invitationHandler.Delete)
				})
			})
		})
	})

	return r
}
