package settle

import (
	"fmt"
	"math"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
)

// Classes de desfecho de um stake.
const (
	OutcomeWon  = "WON"
	OutcomeLost = "LOST"
	OutcomePush = "PUSH"
)

// Computation é o resultado determinístico do cálculo para um stake.
type Computation struct {
	Stake      domain.StakeRecord
	Outcome    string
	FinalCents int64
	Formula    string
}

// outcomeFor classifica o stake contra o resultado da partida.
func outcomeFor(teamChoice, winningTeam string) string {
	if winningTeam == domain.TeamDraw {
		return OutcomePush
	}
	if teamChoice == winningTeam {
		return OutcomeWon
	}
	return OutcomeLost
}

// roundCents arredonda para o centavo mais próximo (half away from zero).
// Único ponto de arredondamento do cálculo: a fórmula gravada reproduz
// exatamente o valor armazenado.
func roundCents(v float64) int64 {
	return int64(math.Round(v))
}

// Compute calcula a recompensa final de cada stake do evento.
// A regra de taxas é relida aqui: o multiplier gravado no stake é só a
// estimativa da época da colocação, este cálculo é a fonte da verdade.
//
//	WON:  amount × tierMultiplier × supportCoeff(time) × (1 − distribution_fee%)
//	PUSH: amount × (1 − distribution_fee%)           (empate devolve o valor, sem multiplicador)
//	LOST: 0                                           (o registro existe como recibo)
func Compute(stakes []domain.StakeRecord, result *domain.MatchResult, inj *domain.PoolInjection, rule *domain.FeeRule) ([]Computation, error) {
	feeKeep := 1 - rule.DistributionFeePercent/100

	out := make([]Computation, 0, len(stakes))
	for _, s := range stakes {
		mult, ok := rule.MultiplierForTier(s.ParticipationTier)
		if !ok {
			return nil, fmt.Errorf("stake %s: invalid tier %d in fee rule %s", s.ID, s.ParticipationTier, rule.ID)
		}

		coeff := inj.SupportCoeffA
		if s.TeamChoice == domain.TeamB {
			coeff = inj.SupportCoeffB
		}

		c := Computation{Stake: s, Outcome: outcomeFor(s.TeamChoice, result.WinningTeam)}
		switch c.Outcome {
		case OutcomeWon:
			c.FinalCents = roundCents(float64(s.StakeAmountCents) * mult * coeff * feeKeep)
			c.Formula = fmt.Sprintf("%d x %.3f x %.3f x (1 - %.2f%%) = %d",
				s.StakeAmountCents, mult, coeff, rule.DistributionFeePercent, c.FinalCents)
		case OutcomePush:
			c.FinalCents = roundCents(float64(s.StakeAmountCents) * feeKeep)
			c.Formula = fmt.Sprintf("push: %d x (1 - %.2f%%) = %d",
				s.StakeAmountCents, rule.DistributionFeePercent, c.FinalCents)
		case OutcomeLost:
			c.FinalCents = 0
			c.Formula = fmt.Sprintf("lost: %d x 0 = 0", s.StakeAmountCents)
		}
		out = append(out, c)
	}
	return out, nil
}

// PayablePoolCents é o teto de pagamento do evento:
// pool do admin + total apostado − taxa de staking sobre o total apostado.
// Os stakes somam ao pool; não sacam dele antes da liquidação.
func PayablePoolCents(inj *domain.PoolInjection, rule *domain.FeeRule, totalStakedCents int64) int64 {
	platformFee := roundCents(float64(totalStakedCents) * rule.StakingFeePercent / 100)
	return inj.PoolAmountCents + totalStakedCents - platformFee
}

// TotalFinalCents soma as recompensas calculadas.
func TotalFinalCents(comps []Computation) int64 {
	var sum int64
	for _, c := range comps {
		sum += c.FinalCents
	}
	return sum
}
