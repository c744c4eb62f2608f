package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/campusplay/stake-engine/internal/shared/db"
	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
)

// PlaceStake debita o saldo do usuário e insere o stake ACTIVE na mesma
// transação; ambas as escritas entram ou nenhuma entra.
// O índice parcial único em (user_id, event_id) fecha a janela de corrida
// de stakes duplicados: a violação chega aqui como ErrDuplicateStake.
// O status do evento é revalidado na hora da escrita; a pré-checagem do
// serviço é só otimização.
func (p *Postgres) PlaceStake(ctx context.Context, s *domain.StakeRecord) (string, error) {
	id := uuid.NewString()
	err := db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		if err := debitBalance(ctx, tx, s.UserID, s.StakeAmountCents,
			"stake:"+s.EventID, id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO stake_records
			  (id, user_id, event_id, stake_amount_cents, participation_tier,
			   team_choice, multiplier, expected_reward_cents, status)
			SELECT $1,$2,$3,$4,$5,$6,$7,$8,'ACTIVE'
			WHERE EXISTS (
				SELECT 1 FROM event_applications
				WHERE id=$3 AND status IN ('APPROVED','PRE_MATCH')
			)`,
			id, s.UserID, s.EventID, s.StakeAmountCents, s.ParticipationTier,
			s.TeamChoice, s.Multiplier, s.ExpectedRewardCents,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrEventNotStakeable
		}
		return nil
	})
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// CancelStake devolve o valor ao saldo e marca o stake CANCELLED, numa transação.
// Lock na linha do stake evita cancelamento concorrente com a liquidação, e a
// janela de cancelamento do evento é revalidada no próprio UPDATE: se o evento
// avançou depois da pré-checagem, nada é devolvido.
func (p *Postgres) CancelStake(ctx context.Context, userID, eventID string) (refundedCents int64, err error) {
	err = db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		var stakeID string
		if err := tx.QueryRowContext(ctx, `
			SELECT id, stake_amount_cents FROM stake_records
			WHERE user_id=$1 AND event_id=$2 AND status='ACTIVE'
			FOR UPDATE`,
			userID, eventID).Scan(&stakeID, &refundedCents); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE stake_records SET status='CANCELLED', updated_at=NOW()
			WHERE id=$1
			  AND EXISTS (
				SELECT 1 FROM event_applications
				WHERE id=$2 AND status IN ('APPROVED','PRE_MATCH')
			  )`,
			stakeID, eventID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrTooLateToCancel
		}

		return creditBalance(ctx, tx, userID, refundedCents,
			"stake-cancel:"+eventID, stakeID)
	})
	if err != nil {
		return 0, mapError(err)
	}
	return refundedCents, nil
}

// GetActiveStake retorna o stake ACTIVE do par (user, event), se existir.
func (p *Postgres) GetActiveStake(ctx context.Context, userID, eventID string) (*domain.StakeRecord, error) {
	var s domain.StakeRecord
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, event_id, stake_amount_cents, participation_tier,
		       team_choice, multiplier, expected_reward_cents, status, created_at, updated_at
		FROM stake_records
		WHERE user_id=$1 AND event_id=$2 AND status='ACTIVE'`,
		userID, eventID).
		Scan(&s.ID, &s.UserID, &s.EventID, &s.StakeAmountCents, &s.ParticipationTier,
			&s.TeamChoice, &s.Multiplier, &s.ExpectedRewardCents, &s.Status,
			&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

// ListStakesForSettlement retorna os stakes ACTIVE e SETTLED do evento.
// SETTLED entram para que re-execuções da liquidação enxerguem o conjunto
// completo e pulem quem já foi pago.
func (p *Postgres) ListStakesForSettlement(ctx context.Context, eventID string) ([]domain.StakeRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, event_id, stake_amount_cents, participation_tier,
		       team_choice, multiplier, expected_reward_cents, status, created_at, updated_at
		FROM stake_records
		WHERE event_id=$1 AND status IN ('ACTIVE','SETTLED')
		ORDER BY created_at`,
		eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.StakeRecord
	for rows.Next() {
		var s domain.StakeRecord
		if err := rows.Scan(&s.ID, &s.UserID, &s.EventID, &s.StakeAmountCents, &s.ParticipationTier,
			&s.TeamChoice, &s.Multiplier, &s.ExpectedRewardCents, &s.Status,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
