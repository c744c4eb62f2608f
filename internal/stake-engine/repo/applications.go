package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/campusplay/stake-engine/internal/shared/db"
	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
)

// InsertApplication grava a proposta como DRAFT e a promove para PENDING
// na mesma transação. DRAFT existe como estado representável; a submissão
// sempre entrega a aplicação já na fila de decisão.
func (p *Postgres) InsertApplication(ctx context.Context, a *domain.EventApplication) (string, error) {
	id := uuid.NewString()
	err := db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO event_applications
			  (id, ambassador_id, team_a_name, team_a_roster, team_b_name, team_b_roster,
			   venue, venue_capacity, scheduled_at, priority, status, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'DRAFT',$11)`,
			id, a.AmbassadorID,
			a.TeamA.Name, pq.Array(a.TeamA.Roster),
			a.TeamB.Name, pq.Array(a.TeamB.Roster),
			a.Venue, a.VenueCapacity, a.ScheduledAt, a.Priority, a.Notes,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE event_applications SET status='PENDING', updated_at=NOW() WHERE id=$1`, id)
		return err
	})
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// GetApplication retorna a aplicação pelo id.
func (p *Postgres) GetApplication(ctx context.Context, id string) (*domain.EventApplication, error) {
	var a domain.EventApplication
	err := p.db.QueryRowContext(ctx, `
		SELECT id, ambassador_id, team_a_name, team_a_roster, team_b_name, team_b_roster,
		       venue, venue_capacity, scheduled_at, priority, status, notes, created_at, updated_at
		FROM event_applications WHERE id=$1`, id).
		Scan(&a.ID, &a.AmbassadorID,
			&a.TeamA.Name, pq.Array(&a.TeamA.Roster),
			&a.TeamB.Name, pq.Array(&a.TeamB.Roster),
			&a.Venue, &a.VenueCapacity, &a.ScheduledAt, &a.Priority, &a.Status, &a.Notes,
			&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

// ApproveParams agrupa os parâmetros de aprovação/financiamento.
type ApproveParams struct {
	FeeRuleID       string
	PoolAmountCents int64
	SupportCoeffA   float64
	SupportCoeffB   float64
	Notes           string
}

// Approve decide uma aplicação PENDING e financia o pool numa única transação:
//  1. guarda otimista no status (zero linhas afetadas → já decidida)
//  2. injeção PENDING criada
//  3. saldo do admin debitado pelo valor do pool ("reserva" nunca é implícita)
//  4. injeção marcada COMPLETED
//
// O embaixador dono da aplicação é retornado para compor o evento de domínio.
func (p *Postgres) Approve(ctx context.Context, adminID, applicationID string, params ApproveParams) (ambassadorID string, err error) {
	err = db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE event_applications
			SET status='APPROVED', notes=$2, updated_at=NOW()
			WHERE id=$1 AND status='PENDING'`,
			applicationID, params.Notes,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var cur string
			if err := tx.QueryRowContext(ctx,
				`SELECT status FROM event_applications WHERE id=$1`, applicationID).Scan(&cur); err != nil {
				return err
			}
			return domain.ErrAlreadyDecided
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT ambassador_id FROM event_applications WHERE id=$1`, applicationID).Scan(&ambassadorID); err != nil {
			return err
		}

		injectionID := uuid.NewString()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pool_injections
			  (id, event_id, admin_id, pool_amount_cents, fee_rule_id, support_coeff_a, support_coeff_b, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,'PENDING')`,
			injectionID, applicationID, adminID, params.PoolAmountCents,
			params.FeeRuleID, params.SupportCoeffA, params.SupportCoeffB,
		); err != nil {
			return err
		}

		if err := debitBalance(ctx, tx, adminID, params.PoolAmountCents,
			"pool-injection:"+applicationID, injectionID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE pool_injections SET status='COMPLETED' WHERE id=$1`, injectionID)
		return err
	})
	if err != nil {
		return "", mapError(err)
	}
	return ambassadorID, nil
}

// Reject decide uma aplicação PENDING sem ação de pool.
func (p *Postgres) Reject(ctx context.Context, applicationID, notes string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE event_applications
		SET status='REJECTED', notes=$2, updated_at=NOW()
		WHERE id=$1 AND status='PENDING'`,
		applicationID, notes,
	)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, gerr := p.GetApplication(ctx, applicationID); gerr != nil {
			return gerr
		}
		return domain.ErrAlreadyDecided
	}
	return nil
}

// OpenStaking move APPROVED → PRE_MATCH. No-op idempotente se já PRE_MATCH.
func (p *Postgres) OpenStaking(ctx context.Context, applicationID string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE event_applications
		SET status='PRE_MATCH', updated_at=NOW()
		WHERE id=$1 AND status='APPROVED'`,
		applicationID,
	)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		a, gerr := p.GetApplication(ctx, applicationID)
		if gerr != nil {
			return gerr
		}
		if a.Status == domain.StatusPreMatch {
			return nil
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

// Begin move PRE_MATCH → ACTIVE, exigindo injeção COMPLETED para o evento.
func (p *Postgres) Begin(ctx context.Context, applicationID string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE event_applications
		SET status='ACTIVE', updated_at=NOW()
		WHERE id=$1 AND status='PRE_MATCH'
		  AND EXISTS (
			SELECT 1 FROM pool_injections
			WHERE event_id=$1 AND status='COMPLETED'
		  )`,
		applicationID,
	)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		a, gerr := p.GetApplication(ctx, applicationID)
		if gerr != nil {
			return gerr
		}
		if a.Status != domain.StatusPreMatch {
			return domain.ErrInvalidTransition
		}
		return domain.ErrPoolNotFunded
	}
	return nil
}

// CancelApplication cancela qualquer aplicação que ainda não ficou ACTIVE.
func (p *Postgres) CancelApplication(ctx context.Context, applicationID string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE event_applications
		SET status='CANCELLED', updated_at=NOW()
		WHERE id=$1 AND status IN ('DRAFT','PENDING','APPROVED','PRE_MATCH')`,
		applicationID,
	)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, gerr := p.GetApplication(ctx, applicationID); gerr != nil {
			return gerr
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

// GetCompletedInjection retorna a injeção COMPLETED do evento.
func (p *Postgres) GetCompletedInjection(ctx context.Context, eventID string) (*domain.PoolInjection, error) {
	var inj domain.PoolInjection
	err := p.db.QueryRowContext(ctx, `
		SELECT id, event_id, admin_id, pool_amount_cents, fee_rule_id,
		       support_coeff_a, support_coeff_b, status, created_at
		FROM pool_injections
		WHERE event_id=$1 AND status='COMPLETED'`, eventID).
		Scan(&inj.ID, &inj.EventID, &inj.AdminID, &inj.PoolAmountCents, &inj.FeeRuleID,
			&inj.SupportCoeffA, &inj.SupportCoeffB, &inj.Status, &inj.CreatedAt)
	if err != nil {
		if mapped := mapError(err); mapped == domain.ErrNotFound {
			return nil, domain.ErrPoolNotFunded
		}
		return nil, mapError(err)
	}
	return &inj, nil
}
