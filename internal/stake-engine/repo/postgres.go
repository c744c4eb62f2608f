package repo

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
)

// Postgres implementa a persistência de todas as entidades do engine.
// Cada método que compõe mais de uma escrita roda dentro de uma transação;
// nada é visível fora de um commit.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// DB expõe a conexão para health checks e para o advisory lock da liquidação.
func (p *Postgres) DB() *sql.DB { return p.db }

// ErrRewardExists sinaliza que o par (event, user) já tem recompensa gravada.
// A liquidação trata como "já feito" e segue adiante.
var ErrRewardExists = errors.New("reward already recorded for user and event")

// mapError traduz erros do driver para erros de domínio.
// A detecção por constraint é a autoridade; pré-checagens são otimização.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return domain.ErrConcurrencyConflict
		case "23505": // unique_violation
			switch pqErr.Constraint {
			case "stake_records_user_event_active_uq":
				return domain.ErrDuplicateStake
			case "match_results_pkey":
				return domain.ErrDuplicateResult
			case "reward_records_event_user_uq":
				return ErrRewardExists
			case "pool_injections_event_completed_uq":
				return domain.ErrAlreadyDecided
			}
		}
	}

	return err
}
