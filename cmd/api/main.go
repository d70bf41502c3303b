package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "legacy_migrator/internal/adapters/http_server"
	"legacy_migrator/internal/adapters/images"
	"legacy_migrator/internal/adapters/legacy"
	"legacy_migrator/internal/adapters/observability"
	"legacy_migrator/internal/adapters/progress"
	"legacy_migrator/internal/app"
	"legacy_migrator/internal/shared"
	mysqlrepo "legacy_migrator/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// target db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("target database connection ok")

	// deps
	conn := legacy.NewManager(cfg.LegacyURI, cfg.LegacyDB, log.Logger)
	store := legacy.NewStore(conn)
	repo := mysqlrepo.New(db)
	history := mysqlrepo.NewHistory(db)
	fetcher, err := images.New(cfg.MediaDir, cfg.ImageRPS, cfg.ImageWorkers)
	if err != nil {
		log.Fatal().Err(err).Msg("media dir init failed")
	}
	publisher := progress.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	browse := app.NewBrowseService(conn, store, history)
	migrate := app.NewMigrationService(conn, store, repo, history, fetcher, publisher, log.Logger)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Browse: browse, Migrate: migrate})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("migration API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	// let background runs finish so history records are finalized
	migrate.Wait()
	if _, err := conn.Disconnect(context.Background()); err != nil {
		log.Error().Err(err).Msg("legacy disconnect failed")
	}
}
