// Package app wires configuration, storage and services into a runnable process.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	appHTTP "github.com/cmlabs-hris/attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	settingsService "github.com/cmlabs-hris/attendance-engine/internal/service/settings"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

const (
	Name    = "hris-attendance"
	Version = "v1.0.0"
)

type App struct {
	Config     *config.Config
	DB         *database.DB
	JWT        jwt.Service
	Attendance *attendanceService.AttendanceServiceImpl
	Settings   settings.SettingsService
	Feed       *sse.Hub
}

// SetupLogger installs the JSON process logger at the configured level.
func SetupLogger(cfg *config.Config) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).With(
		slog.String("app", Name),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)
}

// New connects to the database and builds the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	classifier, err := attendanceService.NewWindowClassifier(attendanceService.WindowBounds{
		TimeInStart:  cfg.Windows.TimeInStart,
		TimeInEnd:    cfg.Windows.TimeInEnd,
		TimeOutStart: cfg.Windows.TimeOutStart,
		TimeOutEnd:   cfg.Windows.TimeOutEnd,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid attendance windows: %w", err)
	}

	bounds := classifier.Bounds()
	slog.Info("attendance windows configured",
		"time_in", bounds.TimeInStart.String()+"-"+bounds.TimeInEnd.String(),
		"time_out", bounds.TimeOutStart.String()+"-"+bounds.TimeOutEnd.String())

	feed := sse.NewHub(cfg.App.FeedBuffer)
	tx := postgresql.NewTransactor(db)
	settingsRepo := postgresql.NewSettingsRepository(db)
	provider := settingsService.NewCachedProvider(settingsRepo, cfg.App.SettingsCacheTTL)

	attendanceSvc := attendanceService.NewAttendanceService(
		tx,
		postgresql.NewAttendanceRepository(db),
		postgresql.NewScanRepository(db),
		postgresql.NewEmployeeRepository(db),
		postgresql.NewLeaveCalendar(db),
		provider,
		attendanceService.Config{
			Classifier:  classifier,
			Location:    cfg.Location(),
			SyncWorkers: cfg.Sync.Workers,
			Events:      feed,
		},
	)
	settingsSvc := settingsService.NewSettingsService(tx, settingsRepo, provider, attendanceSvc)

	return &App{
		Config:     cfg,
		DB:         db,
		JWT:        jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration),
		Attendance: attendanceSvc,
		Settings:   settingsSvc,
		Feed:       feed,
	}, nil
}

// Router builds the HTTP API.
func (a *App) Router() *chi.Mux {
	return appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AppName:        Name,
			Version:        Version,
			Env:            a.Config.App.Env,
			LogLevel:       a.Config.SlogLevel(),
			AllowedOrigins: a.Config.App.AllowedOrigins,
			IngestRate:     rate.Limit(a.Config.Ingest.RatePerSecond),
			IngestBurst:    a.Config.Ingest.Burst,
		},
		a.JWT,
		appHTTP.NewScanHandler(a.Attendance),
		appHTTP.NewAttendanceHandler(a.Attendance),
		appHTTP.NewSettingsHandler(a.Settings),
		appHTTP.NewFeedHandler(a.Feed, a.Config.App.FeedKeepalive),
	)
}

func (a *App) Close() {
	a.DB.Close()
}
