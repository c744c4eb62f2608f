package stake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
	"github.com/campusplay/stake-engine/pkg/contracts/events"
)

type fakeRepo struct {
	appStatus string
	placed    *domain.StakeRecord
	placeErr  error
	refunded  int64
	cancelErr error
}

func (f *fakeRepo) GetApplication(_ context.Context, id string) (*domain.EventApplication, error) {
	return &domain.EventApplication{ID: id, Status: f.appStatus}, nil
}
func (f *fakeRepo) GetCompletedInjection(_ context.Context, eventID string) (*domain.PoolInjection, error) {
	return &domain.PoolInjection{EventID: eventID, FeeRuleID: "rule-1", PoolAmountCents: 250000}, nil
}
func (f *fakeRepo) GetFeeRule(_ context.Context, id string) (*domain.FeeRule, error) {
	return &domain.FeeRule{ID: id, TierMultipliers: [3]float64{1.0, 0.7, 2.5}}, nil
}
func (f *fakeRepo) PlaceStake(_ context.Context, s *domain.StakeRecord) (string, error) {
	if f.placeErr != nil {
		return "", f.placeErr
	}
	f.placed = s
	return "stake-1", nil
}
func (f *fakeRepo) CancelStake(_ context.Context, _, _ string) (int64, error) {
	if f.cancelErr != nil {
		return 0, f.cancelErr
	}
	return f.refunded, nil
}
func (f *fakeRepo) GetActiveStake(_ context.Context, _, _ string) (*domain.StakeRecord, error) {
	return f.placed, nil
}

type fakePublisher struct {
	placed []events.StakePlaced
}

func (p *fakePublisher) PublishStakePlaced(_ context.Context, e events.StakePlaced) error {
	p.placed = append(p.placed, e)
	return nil
}

// Place pega o multiplicador na regra do pool e grava a estimativa de
// recompensa: 15000 x 0.7 = 10500.
func TestPlaceComputesExpectedReward(t *testing.T) {
	f := &fakeRepo{appStatus: domain.StatusPreMatch}
	p := &fakePublisher{}
	svc := NewService(zap.NewNop(), f, p)

	rec, err := svc.Place(context.Background(), "user-1", "event-1", 15000, 2, domain.TeamB)
	require.NoError(t, err)

	assert.Equal(t, "stake-1", rec.ID)
	assert.Equal(t, domain.StakeActive, rec.Status)
	assert.Equal(t, 0.7, rec.Multiplier)
	assert.Equal(t, int64(10500), rec.ExpectedRewardCents)

	require.Len(t, p.placed, 1)
	assert.Equal(t, "stake-1", p.placed[0].StakeID)
	assert.Equal(t, int64(15000), p.placed[0].AmountCents)
}

func TestPlaceValidation(t *testing.T) {
	svc := NewService(zap.NewNop(), &fakeRepo{appStatus: domain.StatusPreMatch}, &fakePublisher{})

	cases := []struct {
		name         string
		user, event  string
		amount       int64
		tier         int
		choice       string
	}{
		{"sem usuário", "", "event-1", 1000, 1, domain.TeamA},
		{"valor zero", "user-1", "event-1", 0, 1, domain.TeamA},
		{"valor negativo", "user-1", "event-1", -5, 1, domain.TeamA},
		{"time inválido", "user-1", "event-1", 1000, 1, "C"},
		{"tier fora da faixa", "user-1", "event-1", 1000, 4, domain.TeamA},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.Place(context.Background(), c.user, c.event, c.amount, c.tier, c.choice)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

// Evento fora da janela (ACTIVE, COMPLETED etc.) não aceita stake novo.
func TestPlaceOutsideStakingWindow(t *testing.T) {
	for _, status := range []string{domain.StatusPending, domain.StatusActive, domain.StatusCompleted} {
		svc := NewService(zap.NewNop(), &fakeRepo{appStatus: status}, &fakePublisher{})
		_, err := svc.Place(context.Background(), "user-1", "event-1", 1000, 1, domain.TeamA)
		assert.ErrorIs(t, err, domain.ErrEventNotStakeable, "status=%s", status)
	}
}

func TestActiveRequiresIdentifiers(t *testing.T) {
	svc := NewService(zap.NewNop(), &fakeRepo{appStatus: domain.StatusPreMatch}, &fakePublisher{})

	_, err := svc.Active(context.Background(), "", "event-1")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Active(context.Background(), "user-1", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCancelRefunds(t *testing.T) {
	f := &fakeRepo{appStatus: domain.StatusPreMatch, refunded: 15000}
	svc := NewService(zap.NewNop(), f, &fakePublisher{})

	refunded, err := svc.Cancel(context.Background(), "user-1", "event-1")
	require.NoError(t, err)
	assert.Equal(t, int64(15000), refunded)
}

// Partida já em andamento: cancelar não devolve mais nada.
func TestCancelAfterMatchStarted(t *testing.T) {
	svc := NewService(zap.NewNop(), &fakeRepo{appStatus: domain.StatusActive}, &fakePublisher{})

	_, err := svc.Cancel(context.Background(), "user-1", "event-1")
	assert.ErrorIs(t, err, domain.ErrTooLateToCancel)
}
