package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"challenge-hub/internal/config"
	"challenge-hub/internal/handler"
	"challenge-hub/internal/metrics"
	"challenge-hub/internal/middleware"
	"challenge-hub/internal/model"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Challenge *handler.ChallengeHandler
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func() error

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	handlers Handlers,
	m *metrics.Metrics,
	healthChecks map[string]HealthChecker,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Instrument(m))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", healthHandler(healthChecks))
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", handlers.Auth.Register)
			auth.Post("/login", handlers.Auth.Login)
			auth.Post("/verify-otp", handlers.Auth.VerifyOTP)
			auth.With(authMiddleware.RequireAuth).Post("/change-password", handlers.Auth.ChangePassword)
			auth.With(authMiddleware.RequireAuth).Post("/logout", handlers.Auth.Logout)
			auth.With(authMiddleware.RequireAuth).Post("/logout-all", handlers.Auth.LogoutAll)
			auth.With(authMiddleware.RequireAuth).Get("/me", handlers.User.Me)
		})

		api.Route("/users", func(users chi.Router) {
			users.With(authMiddleware.RequireAuth).Get("/", handlers.User.List)
			users.With(authMiddleware.RequireAuth).Get("/{id}", handlers.User.Get)
			users.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin)).Delete("/{id}", handlers.User.Delete)
		})

		api.Route("/challenges", func(challenges chi.Router) {
			// Reads are public; joining and administration are not.
			challenges.Get("/", handlers.Challenge.List)
			challenges.Get("/{id}", handlers.Challenge.Get)
			challenges.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin)).Post("/", handlers.Challenge.Create)
			challenges.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin)).Patch("/{id}", handlers.Challenge.Edit)
			challenges.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin)).Delete("/{id}", handlers.Challenge.Delete)
			challenges.With(authMiddleware.RequireAuth).Post("/{id}/join", handlers.Challenge.Join)
			challenges.With(authMiddleware.RequireAuth).Post("/{id}/leave", handlers.Challenge.Leave)
		})
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		status := http.StatusOK
		components := map[string]string{}
		for name, check := range checks {
			if err := check(); err != nil {
				status = http.StatusServiceUnavailable
				components[name] = "down"
				continue
			}
			components[name] = "up"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(model.APIResponse{
			Success: status == http.StatusOK,
			Data:    components,
		})
	}
}
