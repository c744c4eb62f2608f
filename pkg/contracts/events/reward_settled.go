package events

import "time"

// Evento emitido por recompensa creditada durante a liquidação de um evento.
type RewardSettled struct {
	RewardID         string    `json:"reward_id"`
	StakeID          string    `json:"stake_id"`
	EventID          string    `json:"event_id"`
	UserID           string    `json:"user_id"`
	Outcome          string    `json:"outcome"` // "WON" | "LOST" | "PUSH"
	FinalRewardCents int64     `json:"final_reward_cents"`
	Ts               time.Time `json:"ts"`
}
