package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"porchlight/internal/trust/models"
	"porchlight/internal/trust/store"
	id "porchlight/pkg/domain"
	dErrors "porchlight/pkg/domain-errors"
	"porchlight/pkg/platform/sentinel"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *store.InMemory) {
	t.Helper()
	st := store.NewInMemory()
	svc, err := New(st, opts...)
	require.NoError(t, err)
	return svc, st
}

func intPtr(v int) *int { return &v }

func TestApplyScoringEvent_ClampAccumulation(t *testing.T) {
	// Start with no record; apply +50, then +4980 (clamps to 5000), then
	// -10000 (clamps to 0). The log must chain through the clamped values.
	ctx := context.Background()
	svc, _ := newTestService(t)
	userID := id.UserID(uuid.New())
	communityID := id.CommunityID(uuid.New())

	steps := []struct {
		delta      int
		wantBefore int
		wantAfter  int
	}{
		{50, 0, 50},
		{4980, 50, 5000},
		{-10000, 5000, 0},
	}

	for _, step := range steps {
		entry, err := svc.ApplyScoringEvent(ctx, ScoringEvent{
			UserID:       userID,
			CommunityID:  communityID,
			ActionType:   models.ActionExchangeCompleted,
			PointsChange: intPtr(step.delta),
		})
		require.NoError(t, err)
		assert.Equal(t, step.wantBefore, entry.ScoreBefore)
		assert.Equal(t, step.wantAfter, entry.ScoreAfter)
	}

	score, err := svc.GetScore(ctx, userID, communityID)
	require.NoError(t, err)
	assert.Equal(t, 0, score.Score)

	entries, next, err := svc.GetLog(ctx, userID, communityID, 10, "")
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, entries, 3)
	// Newest first; verify the before/after chain has no gaps.
	for i := 0; i < len(entries)-1; i++ {
		assert.Equal(t, entries[i].ScoreBefore, entries[i+1].ScoreAfter)
	}
	assert.Equal(t, 0, entries[0].ScoreAfter)
}

func TestApplyScoringEvent_DefaultsFromCatalog(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	entry, err := svc.ApplyScoringEvent(ctx, ScoringEvent{
		UserID:      id.UserID(uuid.New()),
		CommunityID: id.CommunityID(uuid.New()),
		ActionType:  models.ActionMessageReported,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPoints[models.ActionMessageReported], entry.PointsChange)
	assert.Equal(t, 0, entry.ScoreAfter, "negative delta on a fresh pair clamps at zero")
}

func TestApplyScoringEvent_Idempotency(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	userID := id.UserID(uuid.New())
	communityID := id.CommunityID(uuid.New())

	event := ScoringEvent{
		UserID:      userID,
		CommunityID: communityID,
		ActionType:  models.ActionExchangeCompleted,
		ActionID:    "exchange-42",
	}

	first, err := svc.ApplyScoringEvent(ctx, event)
	require.NoError(t, err)

	replay, err := svc.ApplyScoringEvent(ctx, event)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeDuplicateAction))
	require.NotNil(t, replay, "replay returns the originally logged entry")
	assert.Equal(t, first.ID, replay.ID)

	score, err := svc.GetScore(ctx, userID, communityID)
	require.NoError(t, err)
	assert.Equal(t, first.ScoreAfter, score.Score, "score mutated exactly once")
}

func TestApplyScoringEvent_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	tests := []struct {
		name  string
		event ScoringEvent
	}{
		{"missing user", ScoringEvent{CommunityID: id.CommunityID(uuid.New()), ActionType: models.ActionResourceShared}},
		{"missing community", ScoringEvent{UserID: id.UserID(uuid.New()), ActionType: models.ActionResourceShared}},
		{"unknown action type", ScoringEvent{UserID: id.UserID(uuid.New()), CommunityID: id.CommunityID(uuid.New()), ActionType: "made_up"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ApplyScoringEvent(ctx, tt.event)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
		})
	}
}

type staticMembership bool

func (m staticMembership) IsMember(context.Context, id.UserID, id.CommunityID) (bool, error) {
	return bool(m), nil
}

func TestApplyScoringEvent_MembershipRequired(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, WithMembershipChecker(staticMembership(false)))

	_, err := svc.ApplyScoringEvent(ctx, ScoringEvent{
		UserID:      id.UserID(uuid.New()),
		CommunityID: id.CommunityID(uuid.New()),
		ActionType:  models.ActionExchangeCompleted,
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

// conflictingStore returns ErrConflict for the first N ApplyEntry calls so the
// retry loop can be exercised deterministically.
type conflictingStore struct {
	store.Store
	remaining int
	attempts  int
}

func (s *conflictingStore) ApplyEntry(ctx context.Context, entry *models.TrustScoreLogEntry, isNew bool) error {
	s.attempts++
	if s.remaining > 0 {
		s.remaining--
		return sentinel.ErrConflict
	}
	return s.Store.ApplyEntry(ctx, entry, isNew)
}

func TestApplyScoringEvent_RetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	flaky := &conflictingStore{Store: store.NewInMemory(), remaining: 2}
	svc, err := New(flaky, WithRetryAttempts(3))
	require.NoError(t, err)

	entry, err := svc.ApplyScoringEvent(ctx, ScoringEvent{
		UserID:      id.UserID(uuid.New()),
		CommunityID: id.CommunityID(uuid.New()),
		ActionType:  models.ActionExchangeCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.attempts)
	assert.Equal(t, 50, entry.ScoreAfter)
}

func TestApplyScoringEvent_SurfacesConflictAfterBudget(t *testing.T) {
	ctx := context.Background()
	flaky := &conflictingStore{Store: store.NewInMemory(), remaining: 10}
	svc, err := New(flaky, WithRetryAttempts(3))
	require.NoError(t, err)

	_, err = svc.ApplyScoringEvent(ctx, ScoringEvent{
		UserID:      id.UserID(uuid.New()),
		CommunityID: id.CommunityID(uuid.New()),
		ActionType:  models.ActionExchangeCompleted,
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Equal(t, 3, flaky.attempts)
}

// failingStore surfaces a persistence fault on every call.
type failingStore struct{ store.Store }

var errGatewayDown = errors.New("gateway timeout")

func (failingStore) GetScore(context.Context, id.UserID, id.CommunityID) (*models.TrustScore, error) {
	return nil, errGatewayDown
}

func TestApplyScoringEvent_PersistenceErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	svc, err := New(failingStore{store.NewInMemory()})
	require.NoError(t, err)

	_, err = svc.ApplyScoringEvent(ctx, ScoringEvent{
		UserID:      id.UserID(uuid.New()),
		CommunityID: id.CommunityID(uuid.New()),
		ActionType:  models.ActionExchangeCompleted,
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))
	assert.True(t, errors.Is(err, errGatewayDown), "cause is preserved for operators")
}

func TestGetScore_VirtualZeroForUnscoredPair(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	userID := id.UserID(uuid.New())
	communityID := id.CommunityID(uuid.New())

	score, err := svc.GetScore(ctx, userID, communityID)
	require.NoError(t, err)
	assert.Equal(t, 0, score.Score)

	// Reading must not materialize a row.
	_, err = st.GetScore(ctx, userID, communityID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestGetLog_CursorPagination(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc, _ := newTestService(t, WithClock(func() time.Time {
		tick++
		return now.Add(time.Duration(tick) * time.Second)
	}))
	userID := id.UserID(uuid.New())
	communityID := id.CommunityID(uuid.New())

	for i := 0; i < 5; i++ {
		_, err := svc.ApplyScoringEvent(ctx, ScoringEvent{
			UserID:       userID,
			CommunityID:  communityID,
			ActionType:   models.ActionResourceShared,
			PointsChange: intPtr(10),
		})
		require.NoError(t, err)
	}

	page1, cursor, err := svc.GetLog(ctx, userID, communityID, 2, "")
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotEmpty(t, cursor)
	assert.Equal(t, 50, page1[0].ScoreAfter, "newest entry first")

	page2, cursor, err := svc.GetLog(ctx, userID, communityID, 2, cursor)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.True(t, page2[0].CreatedAt.Before(page1[1].CreatedAt))

	page3, cursor2, err := svc.GetLog(ctx, userID, communityID, 2, cursor)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Empty(t, cursor2, "last page carries no cursor")

	_, _, err = svc.GetLog(ctx, userID, communityID, 2, "!!not-a-cursor!!")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
}
