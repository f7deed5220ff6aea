package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"porchlight/internal/connection/models"
	"porchlight/internal/connection/store"
	id "porchlight/pkg/domain"
	dErrors "porchlight/pkg/domain-errors"
)

func strengthPtr(s models.Strength) *models.Strength { return &s }

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc, err := New(store.NewInMemory(), opts...)
	require.NoError(t, err)
	return svc
}

func TestRate_CreatesInvitedConnection(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	userID := id.UserID(uuid.New())
	otherID := id.UserID(uuid.New())

	conn, err := svc.Rate(ctx, userID, otherID, strengthPtr(models.StrengthTrusted))
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionTypeInvited, conn.Type)
	require.NotNil(t, conn.Strength)
	assert.Equal(t, models.StrengthTrusted, *conn.Strength)
}

func TestRate_RerateKeepsCreatedAt(t *testing.T) {
	// Rating trusted then negative leaves exactly one record with the new
	// strength and the original creation time.
	ctx := context.Background()
	created := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	clock := created
	svc := newTestService(t, WithClock(func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}))
	userID := id.UserID(uuid.New())
	otherID := id.UserID(uuid.New())

	first, err := svc.Rate(ctx, userID, otherID, strengthPtr(models.StrengthTrusted))
	require.NoError(t, err)

	second, err := svc.Rate(ctx, userID, otherID, strengthPtr(models.StrengthNegative))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "still one record")
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "created_at untouched")
	assert.Equal(t, models.StrengthNegative, *second.Strength)

	summary, err := svc.Summary(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalConnections)
}

func TestRate_NilClearsStrengthKeepsRecord(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	userID := id.UserID(uuid.New())
	otherID := id.UserID(uuid.New())

	_, err := svc.Rate(ctx, userID, otherID, strengthPtr(models.StrengthPositive))
	require.NoError(t, err)

	cleared, err := svc.Rate(ctx, userID, otherID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.Strength)

	conn, err := svc.Get(ctx, userID, otherID)
	require.NoError(t, err)
	assert.Nil(t, conn.Strength, "record survives with no rating")
}

func TestRate_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	userID := id.UserID(uuid.New())

	t.Run("self rating rejected", func(t *testing.T) {
		_, err := svc.Rate(ctx, userID, userID, strengthPtr(models.StrengthTrusted))
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("unknown strength rejected", func(t *testing.T) {
		_, err := svc.Rate(ctx, userID, id.UserID(uuid.New()), strengthPtr("excellent"))
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("nil ids rejected", func(t *testing.T) {
		_, err := svc.Rate(ctx, id.UserID{}, userID, nil)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})
}

type staticUsers bool

func (u staticUsers) Exists(context.Context, id.UserID) (bool, error) { return bool(u), nil }

func TestRate_UnknownTargetUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, WithUserChecker(staticUsers(false)))

	_, err := svc.Rate(ctx, id.UserID(uuid.New()), id.UserID(uuid.New()), strengthPtr(models.StrengthNeutral))
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestSummary_RecentBoundedAndOrdered(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	svc := newTestService(t, WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))
	userID := id.UserID(uuid.New())

	others := make([]id.UserID, 7)
	for i := range others {
		others[i] = id.UserID(uuid.New())
		_, err := svc.Rate(ctx, userID, others[i], strengthPtr(models.StrengthNeutral))
		require.NoError(t, err)
	}

	summary, err := svc.Summary(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 7, summary.TotalConnections)
	require.Len(t, summary.RecentConnections, 5, "recent list is bounded")
	assert.Equal(t, others[6], summary.RecentConnections[0].OtherID, "newest first")
	assert.Equal(t, others[2], summary.RecentConnections[4].OtherID)
}

func TestDirectionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	a := id.UserID(uuid.New())
	b := id.UserID(uuid.New())

	_, err := svc.Rate(ctx, a, b, strengthPtr(models.StrengthTrusted))
	require.NoError(t, err)
	_, err = svc.Rate(ctx, b, a, strengthPtr(models.StrengthNegative))
	require.NoError(t, err)

	ab, err := svc.Get(ctx, a, b)
	require.NoError(t, err)
	ba, err := svc.Get(ctx, b, a)
	require.NoError(t, err)

	assert.Equal(t, models.StrengthTrusted, *ab.Strength)
	assert.Equal(t, models.StrengthNegative, *ba.Strength)
}
