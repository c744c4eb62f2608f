package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
)

func approveParams() ApproveParams {
	return ApproveParams{
		FeeRuleID:       "rule-1",
		PoolAmountCents: 250000,
		SupportCoeffA:   1.0,
		SupportCoeffB:   1.0,
		Notes:           "ok",
	}
}

// Aprovação completa: guarda otimista, injeção PENDING, débito do admin e
// injeção COMPLETED, tudo numa transação.
func TestApproveFundsPoolInOneTransaction(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE event_applications").
		WithArgs("app-1", "ok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT ambassador_id").
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{"ambassador_id"}).AddRow("amb-1"))
	mock.ExpectExec("INSERT INTO pool_injections").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users").
		WithArgs(int64(250000), "admin-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO balance_ledger").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE pool_injections").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ambassadorID, err := p.Approve(context.Background(), "admin-1", "app-1", approveParams())
	require.NoError(t, err)
	assert.Equal(t, "amb-1", ambassadorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Dois admins concorrentes: a guarda otimista no status faz exatamente um
// vencer; o outro recebe ErrAlreadyDecided e nada é escrito.
func TestApproveAlreadyDecided(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE event_applications").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM event_applications").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("APPROVED"))
	mock.ExpectRollback()

	_, err := p.Approve(context.Background(), "admin-2", "app-1", approveParams())
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Admin sem saldo para o pool: a aprovação inteira volta, status continua PENDING.
func TestApproveAdminWithoutBalanceRollsBack(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE event_applications").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT ambassador_id").
		WillReturnRows(sqlmock.NewRows([]string{"ambassador_id"}).AddRow("amb-1"))
	mock.ExpectExec("INSERT INTO pool_injections").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := p.Approve(context.Background(), "admin-1", "app-1", approveParams())
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenStakingIdempotentWhenAlreadyPreMatch(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectExec("UPDATE event_applications").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, ambassador_id").
		WillReturnRows(applicationRow("PRE_MATCH"))

	err := p.OpenStaking(context.Background(), "app-1")
	assert.NoError(t, err)
}

func TestBeginRequiresFundedPool(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectExec("UPDATE event_applications").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, ambassador_id").
		WillReturnRows(applicationRow("PRE_MATCH"))

	err := p.Begin(context.Background(), "app-1")
	assert.ErrorIs(t, err, domain.ErrPoolNotFunded)
}

func sampleTime() time.Time {
	return time.Date(2025, 11, 20, 19, 30, 0, 0, time.UTC)
}

func applicationRow(status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "ambassador_id", "team_a_name", "team_a_roster", "team_b_name", "team_b_roster",
		"venue", "venue_capacity", "scheduled_at", "priority", "status", "notes", "created_at", "updated_at",
	}).AddRow(
		"app-1", "amb-1", "Falcons", "{}", "Wolves", "{}",
		"Arena Central", 500, sampleTime(), "NORMAL", status, "", sampleTime(), sampleTime(),
	)
}
