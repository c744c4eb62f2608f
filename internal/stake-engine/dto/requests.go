package dto

import "time"

type CreateUserRequest struct {
	Role          string `json:"role"` // ADMIN | AMBASSADOR | ATHLETE | AUDIENCE
	WalletAddress string `json:"wallet_address,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
}

type DepositRequest struct {
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref,omitempty"`
}

type CreateFeeRuleRequest struct {
	Name                   string     `json:"name"`
	Version                int        `json:"version,omitempty"`
	StakingFeePercent      float64    `json:"staking_fee_percent"`
	DistributionFeePercent float64    `json:"distribution_fee_percent"`
	TierMultipliers        [3]float64 `json:"tier_multipliers"`
}

type TeamPayload struct {
	Name   string   `json:"name"`
	Roster []string `json:"roster,omitempty"`
}

type SubmitApplicationRequest struct {
	AmbassadorID  string      `json:"ambassadorId"`
	TeamA         TeamPayload `json:"team_a"`
	TeamB         TeamPayload `json:"team_b"`
	Venue         string      `json:"venue"`
	VenueCapacity int         `json:"venue_capacity"`
	ScheduledAt   time.Time   `json:"scheduled_at"`
	Priority      string      `json:"priority,omitempty"` // LOW | NORMAL | HIGH
	Notes         string      `json:"notes,omitempty"`
}

type DecideApplicationRequest struct {
	AdminID         string  `json:"adminId"`
	Action          string  `json:"action"` // "approve" | "reject"
	FeeRuleID       string  `json:"fee_rule_id,omitempty"`
	PoolAmountCents int64   `json:"pool_amount_cents,omitempty"`
	SupportCoeffA   float64 `json:"support_coeff_a,omitempty"`
	SupportCoeffB   float64 `json:"support_coeff_b,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

type PlaceStakeRequest struct {
	UserID      string `json:"userId"`
	EventID     string `json:"eventId"`
	AmountCents int64  `json:"amount_cents"`
	Tier        int    `json:"tier"`        // 1..3
	TeamChoice  string `json:"team_choice"` // "A" | "B"
}

type CancelStakeRequest struct {
	UserID  string `json:"userId"`
	EventID string `json:"eventId"`
}

type RecordResultRequest struct {
	EventID    string `json:"eventId"`
	TeamAScore int    `json:"team_a_score"`
	TeamBScore int    `json:"team_b_score"`
	RecordedBy string `json:"recordedBy"`
}

type SettleRequest struct {
	EventID string `json:"eventId"`
}
