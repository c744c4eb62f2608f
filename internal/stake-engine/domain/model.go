package domain

import "time"

// Papéis de usuário na plataforma.
const (
	RoleAdmin      = "ADMIN"
	RoleAmbassador = "AMBASSADOR"
	RoleAthlete    = "ATHLETE"
	RoleAudience   = "AUDIENCE"
)

// User é o principal persistido no Postgres. O saldo virtual vive em
// centavos e nunca fica negativo (garantido por constraint + update condicional).
type User struct {
	ID                 string
	Role               string
	WalletAddress      string
	DisplayName        string
	VirtualBalanceCent int64
	Version            int
	CreatedAt          time.Time
}

// Team descreve um dos lados de uma partida proposta.
// Roster é estruturado desde a borda; nada de blob JSON solto.
type Team struct {
	Name   string
	Roster []string
}

// EventApplication é a proposta de evento de um embaixador.
type EventApplication struct {
	ID            string
	AmbassadorID  string
	TeamA         Team
	TeamB         Team
	Venue         string
	VenueCapacity int
	ScheduledAt   time.Time
	Priority      string // LOW | NORMAL | HIGH
	Status        string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FeeRule é imutável depois de referenciada por uma injeção de pool:
// edições criam uma nova linha (name + version únicos).
type FeeRule struct {
	ID                     string
	Name                   string
	Version                int
	StakingFeePercent      float64
	DistributionFeePercent float64
	TierMultipliers        [3]float64 // índice tier-1
	CreatedAt              time.Time
}

// MultiplierForTier retorna o multiplicador configurado para o tier (1..3).
func (f FeeRule) MultiplierForTier(tier int) (float64, bool) {
	if tier < 1 || tier > len(f.TierMultipliers) {
		return 0, false
	}
	return f.TierMultipliers[tier-1], true
}

// PoolInjection é o financiamento do admin sobre uma aplicação aprovada.
// Exatamente uma injeção COMPLETED por evento (índice parcial único).
type PoolInjection struct {
	ID              string
	EventID         string
	AdminID         string
	PoolAmountCents int64
	FeeRuleID       string
	SupportCoeffA   float64
	SupportCoeffB   float64
	Status          string // PENDING | COMPLETED | FAILED
	CreatedAt       time.Time
}

// StakeRecord é um compromisso da audiência contra o pool de um evento.
// No máximo um ACTIVE por (user_id, event_id).
type StakeRecord struct {
	ID                  string
	UserID              string
	EventID             string
	StakeAmountCents    int64
	ParticipationTier   int    // 1..3
	TeamChoice          string // "A" | "B"
	Multiplier          float64
	ExpectedRewardCents int64 // estimativa; a liquidação é a fonte da verdade
	Status              string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// MatchResult é gravado no máximo uma vez por evento (PK em event_id).
type MatchResult struct {
	EventID     string
	TeamAScore  int
	TeamBScore  int
	WinningTeam string // "A" | "B" | "DRAW"
	RecordedBy  string
	RecordedAt  time.Time
}

// RewardRecord é a saída da liquidação, exatamente um por (event_id, user_id).
type RewardRecord struct {
	ID                 string
	StakeRecordID      string
	EventID            string
	UserID             string
	FinalRewardCents   int64
	CalculationFormula string
	DistributionStatus string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LedgerEntry é a trilha de auditoria de toda mutação de saldo.
type LedgerEntry struct {
	ID            int64
	UserID        string
	OperationType string // DEBIT | CREDIT
	AmountCents   int64
	Description   string
	RelatedRef    string
	CreatedAt     time.Time
}
