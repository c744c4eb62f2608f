package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/campusplay/stake-engine/internal/platform/migrations"
	sharedcache "github.com/campusplay/stake-engine/internal/shared/cache"
	"github.com/campusplay/stake-engine/internal/shared/config"
	"github.com/campusplay/stake-engine/internal/shared/db"
	"github.com/campusplay/stake-engine/internal/shared/logger"
	"github.com/campusplay/stake-engine/internal/shared/metrics"
	"github.com/campusplay/stake-engine/internal/stake-engine/approval"
	ehttp "github.com/campusplay/stake-engine/internal/stake-engine/http"
	"github.com/campusplay/stake-engine/internal/stake-engine/match"
	"github.com/campusplay/stake-engine/internal/stake-engine/producer"
	"github.com/campusplay/stake-engine/internal/stake-engine/repo"
	"github.com/campusplay/stake-engine/internal/stake-engine/report"
	"github.com/campusplay/stake-engine/internal/stake-engine/settle"
	"github.com/campusplay/stake-engine/internal/stake-engine/stake"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	if cfg.MigrateOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := migrations.Apply(ctx, pg); err != nil {
			cancel()
			log.Fatal("migrations", zap.Error(err))
		}
		cancel()
	}

	// Redis (cache de relatórios)
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka: eventos de domínio de saída
	publ := producer.NewKafkaPublisher(cfg.KafkaBrokers,
		cfg.TopicEventApproved, cfg.TopicStakePlaced,
		cfg.TopicMatchRecorded, cfg.TopicRewardSettled,
	)
	defer publ.Close()

	// deps
	repository := repo.NewPostgres(pg)
	approvals := approval.NewManager(log, repository, publ)
	stakes := stake.NewService(log, repository, publ)
	recorder := match.NewRecorder(log, repository, publ)
	engine := settle.NewEngine(log, pg, repository, publ)
	reports := report.NewFacade(pg, rdb, 30*time.Second)

	// HTTP público
	api := ehttp.NewServer(log, approvals, stakes, recorder, engine, reports, repository, repository)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	log.Info("stake-engine listening",
		zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)),
		zap.String("metrics", fmt.Sprintf(":%s", cfg.MetricsPort)),
	)
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
