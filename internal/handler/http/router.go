package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/time/rate"
)

// RouterOptions carries the process-level settings the router needs.
type RouterOptions struct {
	AppName        string
	Version        string
	Env            string
	LogLevel       slog.Level
	AllowedOrigins []string

	// IngestRate limits POST /scans per token subject; zero disables limiting.
	IngestRate  rate.Limit
	IngestBurst int
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	scanHandler ScanHandler,
	attendanceHandler AttendanceHandler,
	settingsHandler SettingsHandler,
	feedHandler FeedHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", opts.AppName),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// EventSource cannot set headers, so the feed also accepts ?jwt=
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequireManager)
			r.Get("/feed", feedHandler.Stream)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/scans", func(r chi.Router) {
				r.With(
					middleware.RequireRole(auth.RoleDevice, auth.RoleManager, auth.RoleOwner),
					middleware.RateLimitBySubject(opts.IngestRate, opts.IngestBurst),
				).Post("/", scanHandler.Record)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Get("/", scanHandler.List)
					r.Get("/{id}", scanHandler.Get)
					r.Delete("/{id}", scanHandler.Delete)
				})
			})

			r.Route("/attendances", func(r chi.Router) {
				r.With(middleware.RequireOwner).Post("/sync", attendanceHandler.Sync)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Get("/", attendanceHandler.List)
					r.Post("/", attendanceHandler.Create)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", attendanceHandler.Get)
						r.Put("/", attendanceHandler.Update)
						r.With(middleware.RequireOwner).Delete("/", attendanceHandler.Delete)
						r.Put("/status", attendanceHandler.SetStatus)
						r.Delete("/status", attendanceHandler.ClearStatus)
					})
				})
			})

			r.Route("/settings/attendance", func(r chi.Router) {
				r.With(middleware.RequireManager).Get("/", settingsHandler.Get)
				r.With(middleware.RequireOwner).Post("/", settingsHandler.Create)
			})
		})
	})
	return r
}
