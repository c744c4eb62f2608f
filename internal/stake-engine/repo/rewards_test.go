package repo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
)

func sampleReward(cents int64) *domain.RewardRecord {
	return &domain.RewardRecord{
		StakeRecordID:      "stake-1",
		EventID:            "event-1",
		UserID:             "user-1",
		FinalRewardCents:   cents,
		CalculationFormula: "15000 x 0.70 x 1.00 x 0.95 = 9975",
	}
}

// Caminho feliz: insert CALCULATED, crédito com ledger, DISTRIBUTED e stake
// SETTLED, tudo numa transação.
func TestApplyRewardCreditsAndSettles(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO reward_records").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("reward-1"))
	mock.ExpectExec("UPDATE users").
		WithArgs(int64(9975), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO balance_ledger").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE reward_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE stake_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := p.ApplyReward(context.Background(), sampleReward(9975))
	require.NoError(t, err)
	assert.Equal(t, "reward-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Perdedor: registra a recompensa zerada sem creditar saldo nenhum.
func TestApplyRewardZeroSkipsCredit(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO reward_records").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("reward-1"))
	mock.ExpectExec("UPDATE reward_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE stake_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := p.ApplyReward(context.Background(), sampleReward(0))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// O par (event, user) já tem recompensa efetivada: nada muda e o chamador
// recebe ErrRewardExists para contabilizar como skip.
func TestApplyRewardAlreadyDistributed(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO reward_records").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT id, distribution_status FROM reward_records").
		WithArgs("event-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "distribution_status"}).
			AddRow("reward-1", "DISTRIBUTED"))
	mock.ExpectRollback()

	_, err := p.ApplyReward(context.Background(), sampleReward(9975))
	assert.ErrorIs(t, err, ErrRewardExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Linha FAILED de uma execução anterior é retomada: recalcula, credita e
// efetiva na mesma chamada.
func TestApplyRewardResumesFailedRow(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO reward_records").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT id, distribution_status FROM reward_records").
		WillReturnRows(sqlmock.NewRows([]string{"id", "distribution_status"}).
			AddRow("reward-1", "FAILED"))
	mock.ExpectExec("UPDATE reward_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users").
		WithArgs(int64(9975), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO balance_ledger").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE reward_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE stake_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := p.ApplyReward(context.Background(), sampleReward(9975))
	require.NoError(t, err)
	assert.Equal(t, "reward-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Stake cancelado entre o cálculo e o crédito: o UPDATE guardado por status
// não afeta linha e a transação inteira volta, sem refund + prêmio juntos.
func TestApplyRewardAbortsWhenStakeNoLongerActive(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO reward_records").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("reward-1"))
	mock.ExpectExec("UPDATE users").
		WithArgs(int64(9975), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO balance_ledger").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE reward_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE stake_records").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := p.ApplyReward(context.Background(), sampleReward(9975))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRewardExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistributedRewardUsers(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery("SELECT user_id FROM reward_records").
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).
			AddRow("user-a").AddRow("user-b"))

	done, err := p.DistributedRewardUsers(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"user-a": true, "user-b": true}, done)
}
