package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	sharedcache "github.com/campusplay/stake-engine/internal/shared/cache"
	"github.com/campusplay/stake-engine/internal/shared/config"
	"github.com/campusplay/stake-engine/internal/shared/db"
	"github.com/campusplay/stake-engine/internal/shared/kafka"
	"github.com/campusplay/stake-engine/internal/shared/logger"
	"github.com/campusplay/stake-engine/internal/shared/metrics"
	"github.com/campusplay/stake-engine/internal/settlement-worker/pubsub"
	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
	"github.com/campusplay/stake-engine/internal/stake-engine/producer"
	"github.com/campusplay/stake-engine/internal/stake-engine/repo"
	"github.com/campusplay/stake-engine/internal/stake-engine/report"
	"github.com/campusplay/stake-engine/internal/stake-engine/settle"
	ev "github.com/campusplay/stake-engine/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: fonte da verdade da liquidação
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: broadcast de notificações + invalidação do cache de estatísticas
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka consumer: consome match_recorded para disparar a liquidação
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMatchRecorded, "settlement")
	defer reader.Close()

	// Kafka producer: publica reward_settled; DLQ para eventos que não liquidam
	publ := producer.NewKafkaPublisher(cfg.KafkaBrokers,
		cfg.TopicEventApproved, cfg.TopicStakePlaced,
		cfg.TopicMatchRecorded, cfg.TopicRewardSettled,
	)
	defer publ.Close()

	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchRecordedDLQ)
	defer dlqWriter.Close()

	repository := repo.NewPostgres(pg)
	engine := settle.NewEngine(log, pg, repository, publ)
	reports := report.NewFacade(pg, rdb, 30*time.Second)
	broadcaster := pubsub.NewRedisBroadcaster(rdb)

	// Métricas Prometheus do worker
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_messages_consumed_total", Help: "mensagens match_recorded consumidas"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_rewards_settled_total", Help: "recompensas efetivadas"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, errorsBy)

	metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicMatchRecorded),
		zap.String("publish", cfg.TopicRewardSettled),
	)

	ctx := context.Background()

	// Loop principal: consome match_recorded e liquida o evento
	for {
		_, value, err := kafka.ReadNext(ctx, reader)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			errorsBy.WithLabelValues("consume").Inc()
			time.Sleep(time.Second)
			continue
		}
		consumed.Inc()

		var recorded ev.MatchRecorded
		if jerr := json.Unmarshal(value, &recorded); jerr != nil {
			log.Error("unmarshal match_recorded", zap.Error(jerr))
			errorsBy.WithLabelValues("unmarshal").Inc()
			continue
		}

		res, err := settleWithRetry(ctx, engine, recorded.EventID)
		if err != nil {
			errorsBy.WithLabelValues("settle").Inc()
			log.Error("settle", zap.String("eventId", recorded.EventID), zap.Error(err))
			// Pool subfinanciado é erro de configuração: escala pro admin via DLQ,
			// repetir não resolve.
			if werr := kafka.WriteJSON(ctx, dlqWriter, recorded.EventID, value); werr != nil {
				log.Error("dlq write", zap.Error(werr))
			}
			continue
		}
		settled.Add(float64(res.Settled))

		// Pós-liquidação: invalida a projeção cacheada e avisa a camada de
		// notificação via Redis Pub/Sub.
		reports.Invalidate(ctx, recorded.EventID)

		note := pubsub.Notification{EventID: recorded.EventID, Kind: "settlement_finished", Payload: res}
		if b, jerr := json.Marshal(note); jerr == nil {
			pubCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
			if perr := broadcaster.Publish(pubCtx, cfg.RedisPubSubChannel, b); perr != nil {
				log.Warn("notification broadcast", zap.Error(perr))
			}
			cancel()
		}

		log.Info("event settled",
			zap.String("eventId", recorded.EventID),
			zap.Int("settled", res.Settled),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed),
		)
	}
}

// settleWithRetry repete a liquidação com backoff em falhas transientes.
// Erros de negócio (pool subfinanciado, evento fora de estado) não repetem.
func settleWithRetry(ctx context.Context, engine *settle.Engine, eventID string) (*settle.Result, error) {
	const retries = 3

	var res *settle.Result
	var err error
	for i := 0; i < retries; i++ {
		res, err = engine.Settle(ctx, eventID)
		if err == nil && res.Failed == 0 {
			return res, nil
		}
		if err != nil && !errors.Is(err, domain.ErrConcurrencyConflict) {
			// ErrEventNotCompleted pode ser só replicação de estado atrasada
			// numa re-entrega; demais erros de negócio não se resolvem repetindo.
			if !errors.Is(err, domain.ErrEventNotCompleted) {
				return nil, err
			}
		}
		time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
	}
	if err != nil {
		return nil, err
	}
	// Falhas individuais restantes: a próxima invocação retoma só elas.
	return res, nil
}
