package approval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
	"github.com/campusplay/stake-engine/internal/stake-engine/repo"
	"github.com/campusplay/stake-engine/pkg/contracts/events"
)

// Repo define as operações de persistência usadas pelo manager.
type Repo interface {
	InsertApplication(ctx context.Context, a *domain.EventApplication) (string, error)
	GetApplication(ctx context.Context, id string) (*domain.EventApplication, error)
	GetFeeRule(ctx context.Context, id string) (*domain.FeeRule, error)
	Approve(ctx context.Context, adminID, applicationID string, params repo.ApproveParams) (string, error)
	Reject(ctx context.Context, applicationID, notes string) error
	OpenStaking(ctx context.Context, applicationID string) error
	Begin(ctx context.Context, applicationID string) error
	CancelApplication(ctx context.Context, applicationID string) error
}

// Publisher é o lado de saída dos eventos de domínio (entregue pós-commit).
type Publisher interface {
	PublishEventApproved(ctx context.Context, e events.EventApproved) error
}

// Manager conduz a aplicação de evento do rascunho até o pool financiado.
type Manager struct {
	log  *zap.Logger
	repo Repo
	publ Publisher
}

func NewManager(log *zap.Logger, r Repo, p Publisher) *Manager {
	return &Manager{log: log, repo: r, publ: p}
}

// Proposal é a entrada de Submit.
type Proposal struct {
	TeamA         domain.Team
	TeamB         domain.Team
	Venue         string
	VenueCapacity int
	ScheduledAt   time.Time
	Priority      string
	Notes         string
}

// Submit valida e grava a proposta do embaixador, já em PENDING.
func (m *Manager) Submit(ctx context.Context, ambassadorID string, p Proposal) (string, error) {
	if ambassadorID == "" {
		return "", fmt.Errorf("%w: ambassador id required", domain.ErrValidation)
	}
	if p.TeamA.Name == "" || p.TeamB.Name == "" {
		return "", fmt.Errorf("%w: both team names required", domain.ErrValidation)
	}
	if p.Venue == "" || p.VenueCapacity <= 0 {
		return "", fmt.Errorf("%w: venue and positive capacity required", domain.ErrValidation)
	}
	if p.ScheduledAt.IsZero() {
		return "", fmt.Errorf("%w: schedule required", domain.ErrValidation)
	}
	if p.Priority == "" {
		p.Priority = "NORMAL"
	}

	id, err := m.repo.InsertApplication(ctx, &domain.EventApplication{
		AmbassadorID:  ambassadorID,
		TeamA:         p.TeamA,
		TeamB:         p.TeamB,
		Venue:         p.Venue,
		VenueCapacity: p.VenueCapacity,
		ScheduledAt:   p.ScheduledAt,
		Priority:      p.Priority,
		Notes:         p.Notes,
	})
	if err != nil {
		return "", err
	}

	m.log.Info("application submitted",
		zap.String("applicationId", id),
		zap.String("ambassadorId", ambassadorID),
	)
	return id, nil
}

// Decision é a entrada de Decide.
type Decision struct {
	Action          string // "approve" | "reject"
	FeeRuleID       string
	PoolAmountCents int64
	SupportCoeffA   float64
	SupportCoeffB   float64
	Notes           string
}

// Decide aprova (com financiamento do pool) ou rejeita uma aplicação PENDING.
// A guarda otimista no status faz exatamente um de dois admins concorrentes
// vencer; o outro recebe ErrAlreadyDecided.
func (m *Manager) Decide(ctx context.Context, adminID, applicationID string, d Decision) error {
	switch d.Action {
	case "reject":
		return m.repo.Reject(ctx, applicationID, d.Notes)
	case "approve":
	default:
		return fmt.Errorf("%w: action must be approve or reject", domain.ErrValidation)
	}

	if d.PoolAmountCents <= 0 {
		return fmt.Errorf("%w: pool amount must be positive", domain.ErrValidation)
	}
	if d.FeeRuleID == "" {
		return fmt.Errorf("%w: fee rule required for approval", domain.ErrValidation)
	}
	if _, err := m.repo.GetFeeRule(ctx, d.FeeRuleID); err != nil {
		return fmt.Errorf("%w: fee rule not found", domain.ErrValidation)
	}
	if d.SupportCoeffA <= 0 {
		d.SupportCoeffA = 1.0
	}
	if d.SupportCoeffB <= 0 {
		d.SupportCoeffB = 1.0
	}

	ambassadorID, err := m.repo.Approve(ctx, adminID, applicationID, repo.ApproveParams{
		FeeRuleID:       d.FeeRuleID,
		PoolAmountCents: d.PoolAmountCents,
		SupportCoeffA:   d.SupportCoeffA,
		SupportCoeffB:   d.SupportCoeffB,
		Notes:           d.Notes,
	})
	if err != nil {
		return err
	}

	// Pós-commit: a entrega é responsabilidade da camada de notificação.
	if perr := m.publ.PublishEventApproved(ctx, events.EventApproved{
		EventID:       applicationID,
		AdminID:       adminID,
		AmbassadorID:  ambassadorID,
		PoolCents:     d.PoolAmountCents,
		FeeRuleID:     d.FeeRuleID,
		SupportCoeffA: d.SupportCoeffA,
		SupportCoeffB: d.SupportCoeffB,
	}); perr != nil {
		m.log.Warn("publish event_approved", zap.Error(perr))
	}

	m.log.Info("application approved",
		zap.String("applicationId", applicationID),
		zap.String("adminId", adminID),
		zap.Int64("poolCents", d.PoolAmountCents),
	)
	return nil
}

// OpenStaking abre a janela de stakes (APPROVED → PRE_MATCH, idempotente).
func (m *Manager) OpenStaking(ctx context.Context, applicationID string) error {
	return m.repo.OpenStaking(ctx, applicationID)
}

// Begin inicia a partida (PRE_MATCH → ACTIVE); exige pool financiado.
func (m *Manager) Begin(ctx context.Context, applicationID string) error {
	return m.repo.Begin(ctx, applicationID)
}

// Cancel cancela uma aplicação que ainda não ficou ACTIVE.
func (m *Manager) Cancel(ctx context.Context, applicationID string) error {
	return m.repo.CancelApplication(ctx, applicationID)
}

// Get retorna a aplicação pelo id.
func (m *Manager) Get(ctx context.Context, applicationID string) (*domain.EventApplication, error) {
	return m.repo.GetApplication(ctx, applicationID)
}
