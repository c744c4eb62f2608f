package repo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
)

func sampleResult() *domain.MatchResult {
	return &domain.MatchResult{
		EventID:     "event-1",
		TeamAScore:  1,
		TeamBScore:  3,
		WinningTeam: domain.TeamB,
		RecordedBy:  "admin-1",
	}
}

// Resultado e transição ACTIVE -> COMPLETED entram na mesma transação.
func TestRecordResultCompletesEvent(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE event_applications").
		WithArgs("event-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO match_results").
		WithArgs("event-1", 1, 3, domain.TeamB, "admin-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := p.RecordResult(context.Background(), sampleResult())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Segunda gravação para o mesmo evento: a primeira permanece intocada e o
// chamador recebe ErrDuplicateResult.
func TestRecordResultDuplicate(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE event_applications").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM event_applications").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("COMPLETED"))
	mock.ExpectRollback()

	err := p.RecordResult(context.Background(), sampleResult())
	assert.ErrorIs(t, err, domain.ErrDuplicateResult)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Evento ainda em PRE_MATCH (ou qualquer estado fora de ACTIVE) não aceita resultado.
func TestRecordResultRequiresActiveEvent(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE event_applications").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM event_applications").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("PRE_MATCH"))
	mock.ExpectRollback()

	err := p.RecordResult(context.Background(), sampleResult())
	assert.ErrorIs(t, err, domain.ErrEventNotActive)
}

func TestGetResultNotFound(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery("SELECT event_id, team_a_score").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"event_id"}))

	_, err := p.GetResult(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
