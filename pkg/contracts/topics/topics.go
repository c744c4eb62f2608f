package topics

const (
	// Ciclo de vida do evento
	EventApproved = "event_approved"

	// Stakes
	StakePlaced = "stake_placed"

	// Resultado e liquidação
	MatchRecorded = "match_recorded"
	RewardSettled = "reward_settled"

	// DLQs
	MatchRecordedDLQ = "match_recorded_dlq"
)
