package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster publica notificações de liquidação num canal Pub/Sub.
// A camada de notificação (WebSocket/push) assina o canal por conta própria;
// entrega e ordenação são problema dela, não do engine.
type RedisBroadcaster struct {
	rdb *redis.Client
}

func NewRedisBroadcaster(rdb *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb}
}

// Notification é o payload enviado ao canal de broadcast.
type Notification struct {
	EventID string `json:"event_id"`
	Kind    string `json:"kind"` // "settlement_finished"
	Payload any    `json:"payload"`
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.rdb.Publish(ctx, channel, payload).Err()
}
