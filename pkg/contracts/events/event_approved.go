package events

import "time"

// Evento publicado quando um admin aprova e financia uma aplicação de evento.
type EventApproved struct {
	EventID       string    `json:"event_id"`
	AdminID       string    `json:"admin_id"`
	AmbassadorID  string    `json:"ambassador_id"`
	PoolCents     int64     `json:"pool_cents"`
	FeeRuleID     string    `json:"fee_rule_id"`
	SupportCoeffA float64   `json:"support_coeff_a"`
	SupportCoeffB float64   `json:"support_coeff_b"`
	Ts            time.Time `json:"ts"`
}
