package match

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
	"github.com/campusplay/stake-engine/pkg/contracts/events"
)

// Repo define as operações de persistência usadas pelo recorder.
type Repo interface {
	RecordResult(ctx context.Context, r *domain.MatchResult) error
	GetResult(ctx context.Context, eventID string) (*domain.MatchResult, error)
}

type Publisher interface {
	PublishMatchRecorded(ctx context.Context, e events.MatchRecorded) error
}

// Recorder grava o resultado autoritativo de um evento, exatamente uma vez.
type Recorder struct {
	log  *zap.Logger
	repo Repo
	publ Publisher
}

func NewRecorder(log *zap.Logger, r Repo, p Publisher) *Recorder {
	return &Recorder{log: log, repo: r, publ: p}
}

// WinnerFromScores deriva o vencedor da comparação de placares.
func WinnerFromScores(teamAScore, teamBScore int) string {
	switch {
	case teamAScore > teamBScore:
		return domain.TeamA
	case teamAScore < teamBScore:
		return domain.TeamB
	default:
		return domain.TeamDraw
	}
}

// Record insere o resultado e move o evento para COMPLETED numa transação.
func (r *Recorder) Record(ctx context.Context, eventID string, teamAScore, teamBScore int, recordedBy string) (*domain.MatchResult, error) {
	if eventID == "" || recordedBy == "" {
		return nil, fmt.Errorf("%w: event and recorder required", domain.ErrValidation)
	}
	if teamAScore < 0 || teamBScore < 0 {
		return nil, fmt.Errorf("%w: scores cannot be negative", domain.ErrValidation)
	}

	result := &domain.MatchResult{
		EventID:     eventID,
		TeamAScore:  teamAScore,
		TeamBScore:  teamBScore,
		WinningTeam: WinnerFromScores(teamAScore, teamBScore),
		RecordedBy:  recordedBy,
	}

	if err := r.repo.RecordResult(ctx, result); err != nil {
		return nil, err
	}

	if perr := r.publ.PublishMatchRecorded(ctx, events.MatchRecorded{
		EventID:     eventID,
		TeamAScore:  teamAScore,
		TeamBScore:  teamBScore,
		WinningTeam: result.WinningTeam,
		RecordedBy:  recordedBy,
	}); perr != nil {
		r.log.Warn("publish match_recorded", zap.Error(perr))
	}

	r.log.Info("match result recorded",
		zap.String("eventId", eventID),
		zap.String("winningTeam", result.WinningTeam),
	)
	return result, nil
}
