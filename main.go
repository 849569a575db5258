package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "clinic_queue/docs"
	"clinic_queue/internal/auth"
	"clinic_queue/internal/config"
	"clinic_queue/internal/handlers"
	"clinic_queue/internal/logger"
	"clinic_queue/internal/metrics"
	"clinic_queue/internal/patient"
	"clinic_queue/internal/queue"
	"clinic_queue/internal/storage"
	"clinic_queue/internal/tasks"
	"clinic_queue/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// @Title						Clinic front-desk queue API
// @Version					1.0
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}
	log := logger.New(cfg.LogLevel, cfg.IsDev())
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.ConnectDatabase(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration")
	}

	rdb, err := storage.InitRedis(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis")
	}

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	var events ws.Publisher = ws.NewLocalPublisher(hub)
	var relay *ws.Relay
	if rdb != nil {
		relay = ws.NewRelay(rdb, hub, log)
		if err := relay.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("redis relay")
		}
		events = ws.NewRedisPublisher(rdb)
		log.Info().Str("addr", cfg.RedisAddr).Msg("queue events fan out through redis")
	}

	qm := metrics.NewQueueMetrics(prometheus.DefaultRegisterer)
	queues := queue.NewService(db, qm)
	patients := patient.NewService(db)
	issuer := auth.NewIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)

	planner := tasks.NewPlanner(queues, qm, events, log)
	if err := planner.Start(cfg.NormalizeCron, cfg.GaugeCron); err != nil {
		log.Fatal().Err(err).Msg("cron planner")
	}

	h := handlers.New(db, queues, patients, issuer, events, log)
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handlers.NewRouter(h, hub, handlers.RouterOptions{
			CORSOrigins: cfg.CORSOrigins,
			Gatherer:    prometheus.DefaultGatherer,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	planner.Stop(shutdownCtx)
	if relay != nil {
		if err := relay.Close(); err != nil {
			log.Warn().Err(err).Msg("redis relay close")
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
