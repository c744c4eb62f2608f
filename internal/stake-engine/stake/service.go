package stake

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
	"github.com/campusplay/stake-engine/pkg/contracts/events"
)

// Repo define as operações de persistência usadas pelo serviço de stakes.
type Repo interface {
	GetApplication(ctx context.Context, id string) (*domain.EventApplication, error)
	GetCompletedInjection(ctx context.Context, eventID string) (*domain.PoolInjection, error)
	GetFeeRule(ctx context.Context, id string) (*domain.FeeRule, error)
	PlaceStake(ctx context.Context, s *domain.StakeRecord) (string, error)
	CancelStake(ctx context.Context, userID, eventID string) (int64, error)
	GetActiveStake(ctx context.Context, userID, eventID string) (*domain.StakeRecord, error)
}

type Publisher interface {
	PublishStakePlaced(ctx context.Context, e events.StakePlaced) error
}

// Service aceita compromissos da audiência contra o pool de um evento.
type Service struct {
	log  *zap.Logger
	repo Repo
	publ Publisher
}

func NewService(log *zap.Logger, r Repo, p Publisher) *Service {
	return &Service{log: log, repo: r, publ: p}
}

// Place cria um stake ACTIVE debitando o saldo do usuário na mesma transação.
// O multiplicador vem da regra de taxas do pool; expected_reward é só uma
// estimativa exibível, a liquidação recalcula e manda.
func (s *Service) Place(ctx context.Context, userID, eventID string, amountCents int64, tier int, teamChoice string) (*domain.StakeRecord, error) {
	if userID == "" || eventID == "" {
		return nil, fmt.Errorf("%w: user and event required", domain.ErrValidation)
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if teamChoice != domain.TeamA && teamChoice != domain.TeamB {
		return nil, fmt.Errorf("%w: team choice must be A or B", domain.ErrValidation)
	}

	app, err := s.repo.GetApplication(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !domain.Stakeable(app.Status) {
		return nil, domain.ErrEventNotStakeable
	}

	inj, err := s.repo.GetCompletedInjection(ctx, eventID)
	if err != nil {
		return nil, err
	}
	rule, err := s.repo.GetFeeRule(ctx, inj.FeeRuleID)
	if err != nil {
		return nil, err
	}
	mult, ok := rule.MultiplierForTier(tier)
	if !ok {
		return nil, fmt.Errorf("%w: tier must be between 1 and %d", domain.ErrValidation, len(rule.TierMultipliers))
	}

	rec := &domain.StakeRecord{
		UserID:              userID,
		EventID:             eventID,
		StakeAmountCents:    amountCents,
		ParticipationTier:   tier,
		TeamChoice:          teamChoice,
		Multiplier:          mult,
		ExpectedRewardCents: int64(math.Round(float64(amountCents) * mult)),
	}

	id, err := s.repo.PlaceStake(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	rec.Status = domain.StakeActive

	if perr := s.publ.PublishStakePlaced(ctx, events.StakePlaced{
		StakeID:     id,
		UserID:      userID,
		EventID:     eventID,
		AmountCents: amountCents,
		Tier:        tier,
		TeamChoice:  teamChoice,
		Multiplier:  mult,
	}); perr != nil {
		s.log.Warn("publish stake_placed", zap.Error(perr))
	}

	s.log.Info("stake placed",
		zap.String("stakeId", id),
		zap.String("userId", userID),
		zap.String("eventId", eventID),
		zap.Int64("amountCents", amountCents),
	)
	return rec, nil
}

// Active retorna o stake ACTIVE do usuário para o evento, se existir.
func (s *Service) Active(ctx context.Context, userID, eventID string) (*domain.StakeRecord, error) {
	if userID == "" || eventID == "" {
		return nil, fmt.Errorf("%w: user and event required", domain.ErrValidation)
	}
	return s.repo.GetActiveStake(ctx, userID, eventID)
}

// Cancel devolve o valor do stake enquanto o evento ainda não ficou ACTIVE.
func (s *Service) Cancel(ctx context.Context, userID, eventID string) (int64, error) {
	app, err := s.repo.GetApplication(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if !domain.Stakeable(app.Status) {
		return 0, domain.ErrTooLateToCancel
	}

	refunded, err := s.repo.CancelStake(ctx, userID, eventID)
	if err != nil {
		return 0, err
	}

	s.log.Info("stake cancelled",
		zap.String("userId", userID),
		zap.String("eventId", eventID),
		zap.Int64("refundedCents", refunded),
	)
	return refunded, nil
}
