package dto

type CreateUserResponse struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type DepositResponse struct {
	UserID       string `json:"userId"`
	BalanceCents int64  `json:"balance_cents"`
}

type CreateFeeRuleResponse struct {
	FeeRuleID string `json:"feeRuleId"`
	Name      string `json:"name"`
	Version   int    `json:"version"`
}

type SubmitApplicationResponse struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"` // PENDING
}

type DecideApplicationResponse struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"` // APPROVED | REJECTED
}

type PlaceStakeResponse struct {
	StakeID             string  `json:"stakeId"`
	Status              string  `json:"status"` // ACTIVE
	Multiplier          float64 `json:"multiplier"`
	ExpectedRewardCents int64   `json:"expected_reward_cents"` // estimativa, não promessa
}

type CancelStakeResponse struct {
	EventID       string `json:"eventId"`
	RefundedCents int64  `json:"refunded_cents"`
	Status        string `json:"status"` // CANCELLED
}

type RecordResultResponse struct {
	EventID     string `json:"eventId"`
	WinningTeam string `json:"winning_team"`
	Status      string `json:"status"` // COMPLETED
}

type SettleResponse struct {
	EventID        string `json:"eventId"`
	Settled        int    `json:"settled"`
	Skipped        int    `json:"skipped"`
	Failed         int    `json:"failed"`
	TotalPaidCents int64  `json:"total_paid_cents"`
}

type WalletResponse struct {
	UserID       string `json:"userId"`
	BalanceCents int64  `json:"balance_cents"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
