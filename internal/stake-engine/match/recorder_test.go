package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
	"github.com/campusplay/stake-engine/pkg/contracts/events"
)

type fakeRepo struct {
	recorded  *domain.MatchResult
	recordErr error
}

func (f *fakeRepo) RecordResult(_ context.Context, r *domain.MatchResult) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = r
	return nil
}
func (f *fakeRepo) GetResult(_ context.Context, _ string) (*domain.MatchResult, error) {
	return f.recorded, nil
}

type fakePublisher struct {
	recorded []events.MatchRecorded
}

func (p *fakePublisher) PublishMatchRecorded(_ context.Context, e events.MatchRecorded) error {
	p.recorded = append(p.recorded, e)
	return nil
}

func TestWinnerFromScores(t *testing.T) {
	cases := []struct {
		a, b int
		want string
	}{
		{3, 1, domain.TeamA},
		{0, 2, domain.TeamB},
		{2, 2, domain.TeamDraw},
		{0, 0, domain.TeamDraw},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, WinnerFromScores(c.a, c.b), "%d x %d", c.a, c.b)
	}
}

func TestRecordDerivesWinnerAndPublishes(t *testing.T) {
	f := &fakeRepo{}
	p := &fakePublisher{}
	rec := NewRecorder(zap.NewNop(), f, p)

	result, err := rec.Record(context.Background(), "event-1", 1, 3, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, domain.TeamB, result.WinningTeam)
	assert.Equal(t, domain.TeamB, f.recorded.WinningTeam)

	require.Len(t, p.recorded, 1)
	assert.Equal(t, "event-1", p.recorded[0].EventID)
	assert.Equal(t, domain.TeamB, p.recorded[0].WinningTeam)
}

func TestRecordValidation(t *testing.T) {
	rec := NewRecorder(zap.NewNop(), &fakeRepo{}, &fakePublisher{})

	_, err := rec.Record(context.Background(), "", 1, 0, "admin-1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = rec.Record(context.Background(), "event-1", -1, 0, "admin-1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = rec.Record(context.Background(), "event-1", 1, 0, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// Segundo resultado para o mesmo evento não publica nada.
func TestRecordDuplicateDoesNotPublish(t *testing.T) {
	f := &fakeRepo{recordErr: domain.ErrDuplicateResult}
	p := &fakePublisher{}
	rec := NewRecorder(zap.NewNop(), f, p)

	_, err := rec.Record(context.Background(), "event-1", 1, 3, "admin-1")
	assert.ErrorIs(t, err, domain.ErrDuplicateResult)
	assert.Empty(t, p.recorded)
}
