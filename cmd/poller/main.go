package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/broker"
	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/comms"
	"github.com/richardliu001/ticketing-actions/internal/config"
	"github.com/richardliu001/ticketing-actions/internal/executors"
	"github.com/richardliu001/ticketing-actions/internal/logger"
	"github.com/richardliu001/ticketing-actions/internal/monitor"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

func main() {
	cfgPath := flag.String("config", "internal/config/config.yaml", "path to the yaml config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	gdb, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	kw := broker.NewWriter(cfg.Kafka.Brokers)
	defer kw.Close()
	publisher := broker.NewPublisher(kw, cfg.Kafka.DomainEventsTopic, cfg.Kafka.MarketingTopic)

	clk := clock.NewRealClock()
	repository := repo.NewRepository(gdb, clk, cfg.Actions.Backoff.Policy(), log)

	router, err := executors.BuildRouter(cfg, executors.Deps{
		Repo:       repository,
		Book:       actions.NewBookkeeper(repository, clk, log),
		Clock:      clk,
		Log:        log,
		Comms:      comms.NewRedisQueue(rdb, cfg.Comms.QueuePrefix),
		Marketing:  publisher,
		HTTPClient: &http.Client{Timeout: cfg.Sitemap.Timeout},
	})
	if err != nil {
		log.Fatalf("build executor router: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("domain action poller started", "environment", cfg.Environment, "block_external_comms", cfg.Comms.BlockExternalComms)
	if err := monitor.NewMonitor(repository, router, publisher, cfg.Actions, log).Run(ctx); err != nil {
		log.Errorw("poller stopped", "error", err.Error())
	}
	log.Info("domain action poller stopped")
}
