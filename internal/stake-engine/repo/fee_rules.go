package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
)

// CreateFeeRule insere uma nova versão de regra de taxas.
// Regras nunca são editadas in-place: a versão seguinte é uma linha nova.
func (p *Postgres) CreateFeeRule(ctx context.Context, r *domain.FeeRule) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO fee_rules
		  (id, name, version, staking_fee_percent, distribution_fee_percent,
		   tier1_multiplier, tier2_multiplier, tier3_multiplier)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, r.Name, r.Version, r.StakingFeePercent, r.DistributionFeePercent,
		r.TierMultipliers[0], r.TierMultipliers[1], r.TierMultipliers[2],
	)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// GetFeeRule retorna a regra pelo id.
func (p *Postgres) GetFeeRule(ctx context.Context, id string) (*domain.FeeRule, error) {
	return getFeeRule(ctx, p.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getFeeRule(ctx context.Context, q querier, id string) (*domain.FeeRule, error) {
	var r domain.FeeRule
	err := q.QueryRowContext(ctx, `
		SELECT id, name, version, staking_fee_percent, distribution_fee_percent,
		       tier1_multiplier, tier2_multiplier, tier3_multiplier, created_at
		FROM fee_rules WHERE id=$1`, id).
		Scan(&r.ID, &r.Name, &r.Version, &r.StakingFeePercent, &r.DistributionFeePercent,
			&r.TierMultipliers[0], &r.TierMultipliers[1], &r.TierMultipliers[2], &r.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}
