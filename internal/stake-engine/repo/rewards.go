package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/campusplay/stake-engine/internal/shared/db"
	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
)

// ApplyReward efetiva a recompensa de um stake numa única transação:
// insere o reward CALCULATED, credita o saldo (com linha no ledger),
// marca o reward DISTRIBUTED e o stake SETTLED.
//
// Idempotência: a unique (event_id, user_id) é a guarda. Se o par já tem
// recompensa DISTRIBUTED/CALCULATED, retorna ErrRewardExists e nada muda.
// Linhas FAILED de execuções anteriores são retomadas aqui mesmo.
func (p *Postgres) ApplyReward(ctx context.Context, r *domain.RewardRecord) (rewardID string, err error) {
	err = db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		id := uuid.NewString()
		var inserted string
		ierr := tx.QueryRowContext(ctx, `
			INSERT INTO reward_records
			  (id, stake_record_id, event_id, user_id, final_reward_cents, calculation_formula, distribution_status)
			VALUES ($1,$2,$3,$4,$5,$6,'CALCULATED')
			ON CONFLICT ON CONSTRAINT reward_records_event_user_uq DO NOTHING
			RETURNING id`,
			id, r.StakeRecordID, r.EventID, r.UserID, r.FinalRewardCents, r.CalculationFormula,
		).Scan(&inserted)

		switch {
		case ierr == sql.ErrNoRows:
			// Já existe linha para (event, user): retoma apenas se FAILED.
			var status string
			if err := tx.QueryRowContext(ctx, `
				SELECT id, distribution_status FROM reward_records
				WHERE event_id=$1 AND user_id=$2
				FOR UPDATE`,
				r.EventID, r.UserID).Scan(&inserted, &status); err != nil {
				return err
			}
			if status != domain.DistributionFailed {
				return ErrRewardExists
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE reward_records
				SET final_reward_cents=$2, calculation_formula=$3,
				    distribution_status='CALCULATED', updated_at=NOW()
				WHERE id=$1`,
				inserted, r.FinalRewardCents, r.CalculationFormula); err != nil {
				return err
			}
		case ierr != nil:
			return ierr
		}
		rewardID = inserted

		if r.FinalRewardCents > 0 {
			if err := creditBalance(ctx, tx, r.UserID, r.FinalRewardCents,
				"reward:"+r.EventID, rewardID); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE reward_records SET distribution_status='DISTRIBUTED', updated_at=NOW()
			WHERE id=$1`, rewardID); err != nil {
			return err
		}

		// O stake tem que continuar ACTIVE: se foi cancelado entre o cálculo
		// e este commit, a recompensa inteira volta (nada de refund + prêmio).
		res, err := tx.ExecContext(ctx, `
			UPDATE stake_records SET status='SETTLED', updated_at=NOW()
			WHERE id=$1 AND status='ACTIVE'`, r.StakeRecordID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("stake %s: not active at settlement time", r.StakeRecordID)
		}
		return nil
	})
	if err != nil {
		return "", mapError(err)
	}
	return rewardID, nil
}

// MarkRewardFailed grava (melhor esforço) a falha de distribuição do par,
// para que a re-execução da liquidação saiba o que retomar.
func (p *Postgres) MarkRewardFailed(ctx context.Context, r *domain.RewardRecord, reason string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO reward_records
		  (id, stake_record_id, event_id, user_id, final_reward_cents, calculation_formula, distribution_status)
		VALUES ($1,$2,$3,$4,$5,$6,'FAILED')
		ON CONFLICT ON CONSTRAINT reward_records_event_user_uq DO UPDATE
		SET distribution_status='FAILED', updated_at=NOW()
		WHERE reward_records.distribution_status NOT IN ('DISTRIBUTED','CALCULATED')`,
		uuid.NewString(), r.StakeRecordID, r.EventID, r.UserID, r.FinalRewardCents,
		r.CalculationFormula+" | failed: "+reason,
	)
	return mapError(err)
}

// ListRewardsByEvent retorna as recompensas gravadas para um evento.
func (p *Postgres) ListRewardsByEvent(ctx context.Context, eventID string) ([]domain.RewardRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, stake_record_id, event_id, user_id, final_reward_cents,
		       calculation_formula, distribution_status, created_at, updated_at
		FROM reward_records
		WHERE event_id=$1
		ORDER BY created_at`,
		eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.RewardRecord
	for rows.Next() {
		var r domain.RewardRecord
		if err := rows.Scan(&r.ID, &r.StakeRecordID, &r.EventID, &r.UserID, &r.FinalRewardCents,
			&r.CalculationFormula, &r.DistributionStatus, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DistributedRewardUsers retorna os usuários do evento cuja recompensa já
// foi efetivada (DISTRIBUTED). Linhas FAILED ficam de fora de propósito.
func (p *Postgres) DistributedRewardUsers(ctx context.Context, eventID string) (map[string]bool, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT user_id FROM reward_records
		WHERE event_id=$1 AND distribution_status='DISTRIBUTED'`,
		eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		done[userID] = true
	}
	return done, rows.Err()
}
