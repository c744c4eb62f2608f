package producer

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/campusplay/stake-engine/internal/shared/kafka"
	"github.com/campusplay/stake-engine/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de domínio do engine, um writer por tópico.
// A chave da mensagem é sempre o id do evento esportivo, para particionamento
// consistente por entidade. Publicação acontece sempre APÓS o commit da
// transação correspondente; um broker lento nunca aborta uma escrita financeira.
type KafkaPublisher struct {
	approved *kafkago.Writer
	placed   *kafkago.Writer
	recorded *kafkago.Writer
	settled  *kafkago.Writer
}

// NewKafkaPublisher cria writers para os quatro tópicos de saída.
func NewKafkaPublisher(brokers, topicApproved, topicPlaced, topicRecorded, topicSettled string) *KafkaPublisher {
	return &KafkaPublisher{
		approved: kafka.NewWriter(brokers, topicApproved),
		placed:   kafka.NewWriter(brokers, topicPlaced),
		recorded: kafka.NewWriter(brokers, topicRecorded),
		settled:  kafka.NewWriter(brokers, topicSettled),
	}
}

func (p *KafkaPublisher) PublishEventApproved(ctx context.Context, e events.EventApproved) error {
	e.Ts = time.Now()
	b, _ := json.Marshal(e)
	return kafka.WriteJSON(ctx, p.approved, e.EventID, b)
}

func (p *KafkaPublisher) PublishStakePlaced(ctx context.Context, e events.StakePlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return kafka.WriteJSON(ctx, p.placed, e.EventID, b)
}

func (p *KafkaPublisher) PublishMatchRecorded(ctx context.Context, e events.MatchRecorded) error {
	e.Ts = time.Now()
	b, _ := json.Marshal(e)
	return kafka.WriteJSON(ctx, p.recorded, e.EventID, b)
}

func (p *KafkaPublisher) PublishRewardSettled(ctx context.Context, e events.RewardSettled) error {
	e.Ts = time.Now()
	b, _ := json.Marshal(e)
	return kafka.WriteJSON(ctx, p.settled, e.EventID, b)
}

// Close fecha todos os writers.
func (p *KafkaPublisher) Close() error {
	for _, w := range []*kafkago.Writer{p.approved, p.placed, p.recorded, p.settled} {
		_ = w.Close()
	}
	return nil
}
