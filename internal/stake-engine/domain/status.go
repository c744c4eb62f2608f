package domain

// Estados da aplicação de evento.
// DRAFT → PENDING → {APPROVED | REJECTED}
// APPROVED → PRE_MATCH → ACTIVE → COMPLETED
// Qualquer estado antes de ACTIVE pode ir para CANCELLED.
// COMPLETED → REFUNDED apenas por ação explícita de admin.
const (
	StatusDraft     = "DRAFT"
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusPreMatch  = "PRE_MATCH"
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusRefunded  = "REFUNDED"
)

// Estados de injeção de pool.
const (
	InjectionPending   = "PENDING"
	InjectionCompleted = "COMPLETED"
	InjectionFailed    = "FAILED"
)

// Estados de stake.
const (
	StakeActive    = "ACTIVE"
	StakeCancelled = "CANCELLED"
	StakeSettled   = "SETTLED"
)

// Estados de distribuição de recompensa.
const (
	DistributionPending     = "PENDING"
	DistributionCalculated  = "CALCULATED"
	DistributionDistributed = "DISTRIBUTED"
	DistributionFailed      = "FAILED"
)

// Escolhas de time e resultado.
const (
	TeamA    = "A"
	TeamB    = "B"
	TeamDraw = "DRAW"
)

var applicationTransitions = map[string][]string{
	StatusDraft:     {StatusPending, StatusCancelled},
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusPreMatch, StatusCancelled},
	StatusPreMatch:  {StatusActive, StatusCancelled},
	StatusActive:    {StatusCompleted},
	StatusCompleted: {StatusRefunded},
}

// CanTransition informa se a máquina de estados da aplicação admite from → to.
func CanTransition(from, to string) bool {
	for _, next := range applicationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Stakeable informa se o evento aceita novas stakes (ou cancelamentos).
func Stakeable(status string) bool {
	return status == StatusApproved || status == StatusPreMatch
}
