package settle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
)

func feeRule5pct() *domain.FeeRule {
	return &domain.FeeRule{
		ID:                     "rule-1",
		Name:                   "default",
		Version:                1,
		StakingFeePercent:      0,
		DistributionFeePercent: 5,
		TierMultipliers:        [3]float64{1.0, 0.7, 2.5},
	}
}

func injection(pool int64) *domain.PoolInjection {
	return &domain.PoolInjection{
		ID:              "inj-1",
		EventID:         "event-1",
		PoolAmountCents: pool,
		FeeRuleID:       "rule-1",
		SupportCoeffA:   1.0,
		SupportCoeffB:   1.0,
		Status:          domain.InjectionCompleted,
	}
}

// Dois stakes, time B vence: quem apostou em A recebe 0, quem apostou em B
// recebe 15000 x 0.7 x 0.95 = 9975.
func TestComputeTeamBWins(t *testing.T) {
	stakes := []domain.StakeRecord{
		{ID: "s-a", UserID: "user-a", StakeAmountCents: 10000, ParticipationTier: 1, TeamChoice: domain.TeamA},
		{ID: "s-b", UserID: "user-b", StakeAmountCents: 15000, ParticipationTier: 2, TeamChoice: domain.TeamB},
	}
	result := &domain.MatchResult{EventID: "event-1", TeamAScore: 1, TeamBScore: 3, WinningTeam: domain.TeamB}

	comps, err := Compute(stakes, result, injection(250000), feeRule5pct())
	require.NoError(t, err)
	require.Len(t, comps, 2)

	assert.Equal(t, OutcomeLost, comps[0].Outcome)
	assert.Equal(t, int64(0), comps[0].FinalCents)

	assert.Equal(t, OutcomeWon, comps[1].Outcome)
	assert.Equal(t, int64(9975), comps[1].FinalCents)
}

// Empate: ambos recebem o valor apostado menos a taxa de distribuição.
func TestComputeDrawRefundsMinusFee(t *testing.T) {
	stakes := []domain.StakeRecord{
		{ID: "s-a", UserID: "user-a", StakeAmountCents: 10000, ParticipationTier: 1, TeamChoice: domain.TeamA},
		{ID: "s-b", UserID: "user-b", StakeAmountCents: 15000, ParticipationTier: 2, TeamChoice: domain.TeamB},
	}
	result := &domain.MatchResult{EventID: "event-1", TeamAScore: 2, TeamBScore: 2, WinningTeam: domain.TeamDraw}

	comps, err := Compute(stakes, result, injection(250000), feeRule5pct())
	require.NoError(t, err)

	assert.Equal(t, OutcomePush, comps[0].Outcome)
	assert.Equal(t, int64(9500), comps[0].FinalCents) // 10000 x 0.95
	assert.Equal(t, OutcomePush, comps[1].Outcome)
	assert.Equal(t, int64(14250), comps[1].FinalCents) // 15000 x 0.95
}

// O coeficiente de suporte entra multiplicando só para o time vencedor.
func TestComputeSupportCoefficient(t *testing.T) {
	inj := injection(250000)
	inj.SupportCoeffB = 1.2

	stakes := []domain.StakeRecord{
		{ID: "s-b", UserID: "user-b", StakeAmountCents: 10000, ParticipationTier: 1, TeamChoice: domain.TeamB},
	}
	result := &domain.MatchResult{EventID: "event-1", TeamAScore: 0, TeamBScore: 1, WinningTeam: domain.TeamB}

	comps, err := Compute(stakes, result, inj, feeRule5pct())
	require.NoError(t, err)
	// 10000 x 1.0 x 1.2 x 0.95 = 11400
	assert.Equal(t, int64(11400), comps[0].FinalCents)
}

func TestComputeRejectsUnknownTier(t *testing.T) {
	stakes := []domain.StakeRecord{
		{ID: "s-x", UserID: "user-x", StakeAmountCents: 1000, ParticipationTier: 9, TeamChoice: domain.TeamA},
	}
	result := &domain.MatchResult{EventID: "event-1", WinningTeam: domain.TeamA}

	_, err := Compute(stakes, result, injection(1000), feeRule5pct())
	assert.Error(t, err)
}

// Conservação: o total pago nunca excede pool + stakes − taxa de staking.
func TestPayablePoolCoversComputedRewards(t *testing.T) {
	rule := feeRule5pct()
	rule.StakingFeePercent = 2

	stakes := []domain.StakeRecord{
		{ID: "s-1", UserID: "u-1", StakeAmountCents: 10000, ParticipationTier: 3, TeamChoice: domain.TeamA},
		{ID: "s-2", UserID: "u-2", StakeAmountCents: 20000, ParticipationTier: 3, TeamChoice: domain.TeamA},
		{ID: "s-3", UserID: "u-3", StakeAmountCents: 5000, ParticipationTier: 1, TeamChoice: domain.TeamB},
	}
	result := &domain.MatchResult{EventID: "event-1", TeamAScore: 5, TeamBScore: 0, WinningTeam: domain.TeamA}
	inj := injection(250000)

	comps, err := Compute(stakes, result, inj, rule)
	require.NoError(t, err)

	var totalStaked int64
	for _, s := range stakes {
		totalStaked += s.StakeAmountCents
	}
	payable := PayablePoolCents(inj, rule, totalStaked)
	assert.Equal(t, int64(250000+35000-700), payable)
	assert.LessOrEqual(t, TotalFinalCents(comps), payable)
}

func TestPayablePoolUnderfunded(t *testing.T) {
	rule := feeRule5pct()
	// pool minúsculo e multiplicador agressivo: o cálculo estoura o teto
	stakes := []domain.StakeRecord{
		{ID: "s-1", UserID: "u-1", StakeAmountCents: 10000, ParticipationTier: 3, TeamChoice: domain.TeamA},
	}
	result := &domain.MatchResult{EventID: "event-1", TeamAScore: 1, TeamBScore: 0, WinningTeam: domain.TeamA}
	inj := injection(100)

	comps, err := Compute(stakes, result, inj, rule)
	require.NoError(t, err)

	payable := PayablePoolCents(inj, rule, 10000)
	assert.Greater(t, TotalFinalCents(comps), payable)
}

func TestWinnerOutcomeClasses(t *testing.T) {
	cases := []struct {
		choice, winner, want string
	}{
		{domain.TeamA, domain.TeamA, OutcomeWon},
		{domain.TeamA, domain.TeamB, OutcomeLost},
		{domain.TeamB, domain.TeamB, OutcomeWon},
		{domain.TeamB, domain.TeamDraw, OutcomePush},
		{domain.TeamA, domain.TeamDraw, OutcomePush},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, outcomeFor(c.choice, c.winner), "choice=%s winner=%s", c.choice, c.winner)
	}
}
