package settle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"go.uber.org/zap"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
	"github.com/campusplay/stake-engine/internal/stake-engine/repo"
	"github.com/campusplay/stake-engine/pkg/contracts/events"
)

// Repo define as operações de persistência usadas pela liquidação.
type Repo interface {
	GetApplication(ctx context.Context, id string) (*domain.EventApplication, error)
	GetResult(ctx context.Context, eventID string) (*domain.MatchResult, error)
	GetCompletedInjection(ctx context.Context, eventID string) (*domain.PoolInjection, error)
	GetFeeRule(ctx context.Context, id string) (*domain.FeeRule, error)
	ListStakesForSettlement(ctx context.Context, eventID string) ([]domain.StakeRecord, error)
	DistributedRewardUsers(ctx context.Context, eventID string) (map[string]bool, error)
	ApplyReward(ctx context.Context, r *domain.RewardRecord) (string, error)
	MarkRewardFailed(ctx context.Context, r *domain.RewardRecord, reason string) error
}

type Publisher interface {
	PublishRewardSettled(ctx context.Context, e events.RewardSettled) error
}

// Engine executa a liquidação por evento: idempotente, re-invocável, e com
// exclusão mútua por advisory lock (a unique em reward_records continua
// sendo a guarda autoritativa caso duas instâncias corram mesmo assim).
type Engine struct {
	log  *zap.Logger
	db   *sql.DB
	repo Repo
	publ Publisher
}

func NewEngine(log *zap.Logger, db *sql.DB, r Repo, p Publisher) *Engine {
	return &Engine{log: log, db: db, repo: r, publ: p}
}

// Result resume uma execução de liquidação.
type Result struct {
	EventID          string
	Settled          int
	Skipped          int
	Failed           int
	TotalPaidCents   int64
	PayablePoolCents int64
}

// lockKey deriva a chave do advisory lock a partir do id do evento.
func lockKey(eventID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(eventID))
	return int64(h.Sum64())
}

// Settle liquida todos os stakes de um evento COMPLETED.
//
// Ordem: trava o evento, carrega resultado + pool + regra, calcula tudo em
// memória, valida solvência do pool ANTES de qualquer crédito, e então
// aplica recompensa por usuário em transações independentes: a falha de um
// usuário não bloqueia os demais, fica registrada como FAILED e é retomada
// na próxima invocação. Usuários já pagos são pulados sem novo crédito.
func (e *Engine) Settle(ctx context.Context, eventID string) (*Result, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Close()

	key := lockKey(eventID)
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, key); err != nil {
		return nil, fmt.Errorf("advisory lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, key)
	}()

	app, err := e.repo.GetApplication(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if app.Status != domain.StatusCompleted {
		return nil, domain.ErrEventNotCompleted
	}

	result, err := e.repo.GetResult(ctx, eventID)
	if err != nil {
		return nil, err
	}
	inj, err := e.repo.GetCompletedInjection(ctx, eventID)
	if err != nil {
		return nil, err
	}
	rule, err := e.repo.GetFeeRule(ctx, inj.FeeRuleID)
	if err != nil {
		return nil, err
	}

	stakes, err := e.repo.ListStakesForSettlement(ctx, eventID)
	if err != nil {
		return nil, err
	}

	comps, err := Compute(stakes, result, inj, rule)
	if err != nil {
		return nil, err
	}

	var totalStaked int64
	for _, s := range stakes {
		totalStaked += s.StakeAmountCents
	}
	payable := PayablePoolCents(inj, rule, totalStaked)
	if total := TotalFinalCents(comps); total > payable {
		e.log.Error("pool underfunded, settlement aborted",
			zap.String("eventId", eventID),
			zap.Int64("totalCents", total),
			zap.Int64("payableCents", payable),
		)
		return nil, fmt.Errorf("%w: need %d, payable %d", domain.ErrPoolUnderfunded, total, payable)
	}

	done, err := e.repo.DistributedRewardUsers(ctx, eventID)
	if err != nil {
		return nil, err
	}

	res := &Result{EventID: eventID, PayablePoolCents: payable}
	for _, c := range comps {
		if done[c.Stake.UserID] {
			res.Skipped++
			continue
		}

		reward := &domain.RewardRecord{
			StakeRecordID:      c.Stake.ID,
			EventID:            eventID,
			UserID:             c.Stake.UserID,
			FinalRewardCents:   c.FinalCents,
			CalculationFormula: c.Formula,
		}

		rewardID, aerr := e.repo.ApplyReward(ctx, reward)
		switch {
		case aerr == nil:
			res.Settled++
			res.TotalPaidCents += c.FinalCents
			if perr := e.publ.PublishRewardSettled(ctx, events.RewardSettled{
				RewardID:         rewardID,
				StakeID:          c.Stake.ID,
				EventID:          eventID,
				UserID:           c.Stake.UserID,
				Outcome:          c.Outcome,
				FinalRewardCents: c.FinalCents,
			}); perr != nil {
				e.log.Warn("publish reward_settled", zap.Error(perr))
			}
		case errors.Is(aerr, repo.ErrRewardExists):
			res.Skipped++
		default:
			res.Failed++
			e.log.Error("reward apply failed",
				zap.String("eventId", eventID),
				zap.String("userId", c.Stake.UserID),
				zap.Error(aerr),
			)
			if merr := e.repo.MarkRewardFailed(ctx, reward, aerr.Error()); merr != nil {
				e.log.Warn("mark reward failed", zap.Error(merr))
			}
		}
	}

	e.log.Info("settlement finished",
		zap.String("eventId", eventID),
		zap.Int("settled", res.Settled),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Int64("totalPaidCents", res.TotalPaidCents),
	)
	return res, nil
}
