package events

type StakePlaced struct {
	StakeID     string  `json:"stake_id"`
	UserID      string  `json:"user_id"`
	EventID     string  `json:"event_id"`
	AmountCents int64   `json:"amount_cents"`
	Tier        int     `json:"tier"`
	TeamChoice  string  `json:"team_choice"` // "A" | "B"
	Multiplier  float64 `json:"multiplier"`
	TsUnixMs    int64   `json:"ts_unix_ms"`
}
