package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/taskhub/taskhub/internal/health"
	"github.com/taskhub/taskhub/internal/http/handler"
	"github.com/taskhub/taskhub/internal/http/middleware"
	"github.com/taskhub/taskhub/internal/http/response"
	"github.com/taskhub/taskhub/internal/security"
)

type Dependencies struct {
	UserHandler       *handler.UserHandler
	AdminHandler      *handler.AdminHandler
	DashboardHandler  *handler.DashboardHandler
	JWTManager        *security.JWTManager
	CORSOrigins       []string
	APIRateLimitRPM   int
	GlobalRateLimiter GlobalRateLimiterFunc
	Readiness         *health.ProbeRunner
	EnableOTelHTTP    bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(dep.JWTManager))

		r.Get("/me", dep.UserHandler.Me)
		r.Put("/me/profile", dep.UserHandler.UpdateProfile)
		// Avatar upload needs higher body limit (6MB) than global default (1MB)
		r.With(middleware.BodyLimit(6<<20)).Post("/me/avatar", dep.UserHandler.UploadAvatar)
		r.Delete("/me/avatar", dep.UserHandler.RemoveAvatar)

		r.Get("/users", dep.AdminHandler.ListUsers)
		r.Delete("/users/{id}", dep.AdminHandler.DeleteUser)

		r.Get("/dashboard", dep.DashboardHandler.Summary)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
