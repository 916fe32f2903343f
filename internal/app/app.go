package app

import (
	"context"
	"fmt"
	"net/http"

	"cepas/internal/config"
	"cepas/internal/db"
	"cepas/internal/domain/access"
	familydomain "cepas/internal/domain/family"
	interviewdomain "cepas/internal/domain/interview"
	recordsdomain "cepas/internal/domain/records"
	userdomain "cepas/internal/domain/user"
	"cepas/internal/repository/inmemory"
	familyrepo "cepas/internal/repository/postgres/family"
	interviewrepo "cepas/internal/repository/postgres/interview"
	recordsrepo "cepas/internal/repository/postgres/records"
	userrepo "cepas/internal/repository/postgres/user"
	"cepas/internal/transport/httpserver"
	"cepas/internal/transport/httpserver/handler"
	authhandler "cepas/internal/transport/httpserver/handler/auth"
	"cepas/internal/transport/httpserver/handler/common"
	familieshandler "cepas/internal/transport/httpserver/handler/families"
	interviewshandler "cepas/internal/transport/httpserver/handler/interviews"
	recordshandler "cepas/internal/transport/httpserver/handler/records"
	"cepas/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
}

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: config loaded",
		"env", cfg.Env,
		"port", cfg.HTTPPort,
		"db_host", cfg.DB.Host,
		"db_name", cfg.DB.Name,
		"strict_transactions", cfg.Family.StrictTransactions,
		"family_cache_ttl", cfg.Family.CacheTTL,
		"calendar_recent_days", cfg.Interviews.RecentDays,
		"metrics", cfg.MetricsEnabled,
	)

	if err := recordsdomain.ValidateRegistry(); err != nil {
		return nil, fmt.Errorf("validate entity registry: %w", err)
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(dbConn, log); err != nil {
		closeDB(dbConn)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := dbConn.DB()
	if err != nil {
		closeDB(dbConn)
		return nil, err
	}

	var familyCache familydomain.Cache
	if cfg.Family.CacheTTL > 0 {
		familyCache = inmemory.NewInMemoryFamilyCache()
	}
	families := familydomain.NewServiceWithCache(familyrepo.NewPostgres(dbConn), familyCache, familydomain.Config{
		StrictTransactions: cfg.Family.StrictTransactions,
		CacheTTL:           cfg.Family.CacheTTL,
	})
	interviews := interviewdomain.NewServiceWithConfig(interviewrepo.NewPostgres(dbConn), interviewdomain.Config{
		RecentDays: cfg.Interviews.RecentDays,
	})
	records := recordsdomain.NewService(recordsrepo.NewPostgres(dbConn))
	records.OnWrite(func(recordsdomain.Entity) {
		families.InvalidateAll()
	})
	users := userdomain.NewService(userrepo.NewPostgres(dbConn), userdomain.Config{
		JWTSecret:         cfg.Auth.JWTSecret,
		AccessTTL:         cfg.Auth.AccessTTL,
		RefreshTTL:        cfg.Auth.RefreshTTL,
		MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
		LockDuration:      cfg.Auth.LockDuration,
	}, log)

	created, err := users.EnsureBootstrapAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		closeDB(dbConn)
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		log.Info("app: bootstrap admin created", "username", cfg.Auth.AdminUsername)
	}

	var registry *prometheus.Registry
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	log.Info("app: initializing router")
	handlers := handler.New(
		common.New(sqlDB, log),
		authhandler.New(users, log),
		familieshandler.New(families, log),
		interviewshandler.New(interviews, families, log),
		recordshandler.New(records, log),
	)
	router := httpserver.NewRouter(cfg, httpserver.Dependencies{
		Handlers:      handlers,
		Authenticator: users,
		Policy:        access.DefaultPolicy(),
		Registry:      registry,
	}, log)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		db:         dbConn,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeDB(conn *gorm.DB) {
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
