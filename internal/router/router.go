package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"skillbeam-backend/internal/handlers"
	"skillbeam-backend/internal/middleware"
	"skillbeam-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	projectHandler *handlers.ProjectHandler,
	contentHandler *handlers.ContentHandler,
	generateHandler *handlers.GenerateHandler,
	exportHandler *handlers.ExportHandler,
	pronoteHandler *handlers.PronoteHandler,
	versionHandler *handlers.VersionHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Project Routes ────
		r.Route("/projects", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", projectHandler.Create)
			r.Get("/", projectHandler.List)
			r.Get("/{id}", projectHandler.Get)
			r.Delete("/{id}", projectHandler.Delete)
			r.Post("/{id}/source", projectHandler.InitSource)
			r.Get("/{id}/analytics", projectHandler.Analytics)

			// Content set of the project
			r.Get("/{id}/content", contentHandler.Get)
			r.Put("/{id}/content", contentHandler.Save)
			r.Get("/{id}/quality-preview", contentHandler.QualityPreview)

			// Async pipelines
			r.Post("/{id}/generate", generateHandler.Generate)
			r.Post("/{id}/export", exportHandler.Create)
			r.Post("/{id}/import/pronote", pronoteHandler.Import)

			// Question bank versions
			r.Get("/{id}/versions", versionHandler.List)
			r.Post("/{id}/versions", versionHandler.Create)
			r.Post("/{id}/versions/restore", versionHandler.Restore)
		})

		// ──── Export Routes ────
		r.Route("/exports", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{exportID}", exportHandler.Get)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.GetJob)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
