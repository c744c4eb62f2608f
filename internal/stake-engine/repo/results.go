package repo

import (
	"context"
	"database/sql"

	"github.com/campusplay/stake-engine/internal/shared/db"
	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
)

// RecordResult insere o resultado da partida e move o evento para COMPLETED
// na mesma transação. A PK em match_results.event_id garante write-once;
// uma segunda tentativa chega aqui como ErrDuplicateResult, sem tocar na
// primeira gravação.
func (p *Postgres) RecordResult(ctx context.Context, r *domain.MatchResult) error {
	err := db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE event_applications
			SET status='COMPLETED', updated_at=NOW()
			WHERE id=$1 AND status='ACTIVE'`,
			r.EventID,
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
				`SELECT status FROM event_applications WHERE id=$1`, r.EventID).Scan(&cur); err != nil {
				return err
			}
			if cur == domain.StatusCompleted {
				return domain.ErrDuplicateResult
			}
			return domain.ErrEventNotActive
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO match_results (event_id, team_a_score, team_b_score, winning_team, recorded_by)
			VALUES ($1,$2,$3,$4,$5)`,
			r.EventID, r.TeamAScore, r.TeamBScore, r.WinningTeam, r.RecordedBy,
		)
		return err
	})
	return mapError(err)
}

// GetResult retorna o resultado gravado para o evento.
func (p *Postgres) GetResult(ctx context.Context, eventID string) (*domain.MatchResult, error) {
	var r domain.MatchResult
	err := p.db.QueryRowContext(ctx, `
		SELECT event_id, team_a_score, team_b_score, winning_team, recorded_by, recorded_at
		FROM match_results WHERE event_id=$1`, eventID).
		Scan(&r.EventID, &r.TeamAScore, &r.TeamBScore, &r.WinningTeam, &r.RecordedBy, &r.RecordedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}
