package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/config"
	"github.com/richardliu001/ticketing-actions/internal/logger"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
	"github.com/richardliu001/ticketing-actions/internal/service"
	httptransport "github.com/richardliu001/ticketing-actions/internal/transport/http"
)

func main() {
	cfgPath := flag.String("config", "internal/config/config.yaml", "path to the yaml config")
	flag.Parse()

	// 1. load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	// 2. init logger
	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	// 3. postgres
	gdb, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	if err := gdb.AutoMigrate(model.All()...); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	// 4. repo & services
	clk := clock.NewRealClock()
	repository := repo.NewRepository(gdb, clk, cfg.Actions.Backoff.Policy(), log)
	actionSvc := service.NewActionService(repository, clk, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 5. restart recurring chains
	if _, err := actionSvc.ScheduleRecurring(ctx); err != nil {
		log.Fatalf("schedule recurring actions: %v", err)
	}

	// 6. gin router
	handler := httptransport.NewHandler(
		actionSvc,
		service.NewBroadcastService(repository, clk, log),
		service.NewHoldService(repository, log),
		cfg.Actions.StuckThreshold,
	)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: httptransport.NewRouter(handler, cfg.RateLimit, log),
	}

	// 7. serve
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorw("shutdown", "error", err.Error())
		}
	}()
	log.Infof("domain action server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("listen: %v", err)
	}
}
