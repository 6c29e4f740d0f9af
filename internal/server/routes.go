package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"payoffquiz/internal/broadcast"
	"payoffquiz/internal/config"
	"payoffquiz/internal/db"
	"payoffquiz/internal/events"
	"payoffquiz/internal/gameflow"
	"payoffquiz/internal/logger"
	"payoffquiz/internal/metrics"
	"payoffquiz/internal/questions"
	"payoffquiz/internal/rooms"
	"payoffquiz/internal/scoring"
	"payoffquiz/internal/strategies"
	"payoffquiz/internal/timers"
	"payoffquiz/internal/wshub"
)

func Run() error {
	appCfg := config.Load()
	logger.Init(appCfg.LogLevel, appCfg.LogFormat)
	log := logger.Component("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := questions.LoadCatalog(appCfg.QuestionsFile)
	if err != nil {
		return fmt.Errorf("loading questions: %w", err)
	}
	registry := strategies.Default()
	for _, q := range catalog {
		if _, err := registry.Lookup(q.Strategy); err != nil {
			log.Warn().Str("question", q.ID).Str("strategy", q.Strategy).Msg("question uses an unregistered strategy")
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	bus := events.NewBus(events.DefaultBufferSize)
	hub := wshub.NewHub()
	fanout := broadcast.NewBroadcaster(bus, hub)

	// Optional database connection
	var (
		database *db.DB
		results  gameflow.ResultStore = gameflow.NopResults{}
	)
	if appCfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, appCfg.DatabaseURL)
		if err != nil {
			log.Error().Err(err).Msg("database unavailable, running without persistence")
		} else {
			defer database.Close()
			if err := database.Migrate(); err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
			buffer := db.NewSubmissionBuffer(database, db.DefaultBufferSize)
			go buffer.Run(ctx)
			results = buffer
		}
	} else {
		log.Info().Msg("DATABASE_URL not set, running without database")
	}

	clock := timers.Real()
	scheduler := timers.NewScheduler(clock)
	defer scheduler.Stop()
	roomStore := rooms.NewStore(clock, appCfg.RoomIdleTTL)
	go roomStore.Run(ctx, time.Minute)

	game := gameflow.New(gameflow.Config{
		QuestionTime:         appCfg.QuestionTime,
		DefaultMaxPlayers:    appCfg.DefaultMaxPlayers,
		DefaultQuestionCount: appCfg.DefaultQuestionCount,
		PersistTimeout:       appCfg.PersistTimeout,
	}, gameflow.Deps{
		Rooms:     roomStore,
		Engine:    scoring.NewEngine(registry),
		Questions: questions.NewSource(catalog, 0),
		Results:   results,
		Publisher: bus,
		Clock:     clock,
		Timers:    scheduler,
		Metrics:   m,
	})

	srv := New(game, fanout, hub, appCfg.SubmitRate, appCfg.SubmitBurst)
	srv.DB = database
	srv.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})

	httpSrv := &http.Server{
		Addr:              "0.0.0.0:" + appCfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", httpSrv.Addr).Int("questions", len(catalog)).Msg("listening")
	if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
