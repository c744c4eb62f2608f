package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
)

// Facade é a fachada somente-leitura do engine: histórico de recompensas,
// estatísticas de evento e trilha do ledger. Lê apenas estado commitado.
type Facade struct {
	db  *sql.DB
	rdb *redis.Client
	ttl time.Duration
}

func NewFacade(db *sql.DB, rdb *redis.Client, ttl time.Duration) *Facade {
	return &Facade{db: db, rdb: rdb, ttl: ttl}
}

// RewardEntry é uma linha do histórico de recompensas do usuário.
type RewardEntry struct {
	RewardID           string    `json:"reward_id"`
	EventID            string    `json:"event_id"`
	TeamAName          string    `json:"team_a_name"`
	TeamBName          string    `json:"team_b_name"`
	FinalRewardCents   int64     `json:"final_reward_cents"`
	CalculationFormula string    `json:"calculation_formula"`
	DistributionStatus string    `json:"distribution_status"`
	CreatedAt          time.Time `json:"created_at"`
}

// RewardHistory retorna as recompensas do usuário, mais recentes primeiro.
func (f *Facade) RewardHistory(ctx context.Context, userID string) ([]RewardEntry, error) {
	rows, err := f.db.QueryContext(ctx, `
		SELECT r.id, r.event_id, a.team_a_name, a.team_b_name,
		       r.final_reward_cents, r.calculation_formula, r.distribution_status, r.created_at
		FROM reward_records r
		JOIN event_applications a ON a.id = r.event_id
		WHERE r.user_id=$1
		ORDER BY r.created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RewardEntry
	for rows.Next() {
		var e RewardEntry
		if err := rows.Scan(&e.RewardID, &e.EventID, &e.TeamAName, &e.TeamBName,
			&e.FinalRewardCents, &e.CalculationFormula, &e.DistributionStatus, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EventStats é a projeção agregada de um evento.
type EventStats struct {
	EventID               string `json:"event_id"`
	Status                string `json:"status"`
	PoolAmountCents       int64  `json:"pool_amount_cents"`
	StakeCount            int    `json:"stake_count"`
	TotalStakedCents      int64  `json:"total_staked_cents"`
	TotalDistributedCents int64  `json:"total_distributed_cents"`
}

func statsKey(eventID string) string { return fmt.Sprintf("stats:%s", eventID) }

// EventStatistics agrega stakes e recompensas do evento, com cache Redis
// de curta duração. O cache é invalidado pela liquidação via Invalidate.
func (f *Facade) EventStatistics(ctx context.Context, eventID string) (*EventStats, error) {
	if f.rdb != nil {
		if raw, err := f.rdb.Get(ctx, statsKey(eventID)).Result(); err == nil {
			var cached EventStats
			if jerr := json.Unmarshal([]byte(raw), &cached); jerr == nil {
				return &cached, nil
			}
		}
	}

	var stats EventStats
	stats.EventID = eventID

	err := f.db.QueryRowContext(ctx, `
		SELECT a.status,
		       COALESCE(pi.pool_amount_cents, 0),
		       COUNT(s.id),
		       COALESCE(SUM(s.stake_amount_cents), 0),
		       COALESCE((SELECT SUM(final_reward_cents) FROM reward_records
		                 WHERE event_id=$1 AND distribution_status='DISTRIBUTED'), 0)
		FROM event_applications a
		LEFT JOIN pool_injections pi ON pi.event_id = a.id AND pi.status = 'COMPLETED'
		LEFT JOIN stake_records s ON s.event_id = a.id AND s.status IN ('ACTIVE','SETTLED')
		WHERE a.id=$1
		GROUP BY a.status, pi.pool_amount_cents`,
		eventID).
		Scan(&stats.Status, &stats.PoolAmountCents, &stats.StakeCount,
			&stats.TotalStakedCents, &stats.TotalDistributedCents)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if f.rdb != nil {
		if b, jerr := json.Marshal(stats); jerr == nil {
			_ = f.rdb.Set(ctx, statsKey(eventID), b, f.ttl).Err()
		}
	}
	return &stats, nil
}

// Invalidate remove a projeção cacheada do evento (chamado após liquidar).
func (f *Facade) Invalidate(ctx context.Context, eventID string) {
	if f.rdb != nil {
		_ = f.rdb.Del(ctx, statsKey(eventID)).Err()
	}
}

// LedgerHistory retorna a trilha de auditoria de saldo do usuário.
func (f *Facade) LedgerHistory(ctx context.Context, userID string) ([]domain.LedgerEntry, error) {
	rows, err := f.db.QueryContext(ctx, `
		SELECT id, user_id, operation_type, amount_cents, description, related_ref, created_at
		FROM balance_ledger
		WHERE user_id=$1
		ORDER BY id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.OperationType, &e.AmountCents,
			&e.Description, &e.RelatedRef, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
