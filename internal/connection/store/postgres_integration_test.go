//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"porchlight/internal/connection/models"
	"porchlight/internal/connection/store"
	id "porchlight/pkg/domain"
	"porchlight/pkg/platform/sentinel"
	"porchlight/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "user_connections")
	s.Require().NoError(err)
}

func newConnection(userID, otherID id.UserID, strength *models.Strength) *models.UserConnection {
	return &models.UserConnection{
		ID:        uuid.New(),
		UserID:    userID,
		OtherID:   otherID,
		Type:      models.ConnectionTypeInvited,
		Strength:  strength,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestUpsertPreservesOriginalRecord() {
	ctx := context.Background()
	userID := id.UserID(uuid.New())
	otherID := id.UserID(uuid.New())
	trusted := models.StrengthTrusted
	negative := models.StrengthNegative

	created, err := s.store.Upsert(ctx, newConnection(userID, otherID, &trusted))
	s.Require().NoError(err)

	rerated := newConnection(userID, otherID, &negative)
	rerated.CreatedAt = created.CreatedAt.Add(time.Hour)

	got, err := s.store.Upsert(ctx, rerated)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID, "row identity survives the conflict")
	s.Equal(created.CreatedAt, got.CreatedAt, "created_at is not touched by the upsert")
	s.Equal(models.StrengthNegative, *got.Strength)
}

func (s *PostgresStoreSuite) TestNullStrengthRoundTrip() {
	ctx := context.Background()
	userID := id.UserID(uuid.New())
	otherID := id.UserID(uuid.New())

	_, err := s.store.Upsert(ctx, newConnection(userID, otherID, nil))
	s.Require().NoError(err)

	found, err := s.store.Find(ctx, userID, otherID)
	s.Require().NoError(err)
	s.Nil(found.Strength)
}

func (s *PostgresStoreSuite) TestFindMissingPair() {
	ctx := context.Background()
	_, err := s.store.Find(ctx, id.UserID(uuid.New()), id.UserID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDirectionsAreSeparateRows() {
	ctx := context.Background()
	a := id.UserID(uuid.New())
	b := id.UserID(uuid.New())
	trusted := models.StrengthTrusted

	_, err := s.store.Upsert(ctx, newConnection(a, b, &trusted))
	s.Require().NoError(err)
	_, err = s.store.Upsert(ctx, newConnection(b, a, nil))
	s.Require().NoError(err)

	count, err := s.store.CountByUser(ctx, a)
	s.Require().NoError(err)
	s.Equal(1, count)

	reverse, err := s.store.Find(ctx, b, a)
	s.Require().NoError(err)
	s.Nil(reverse.Strength)
}

func (s *PostgresStoreSuite) TestListRecentOrderAndLimit() {
	ctx := context.Background()
	userID := id.UserID(uuid.New())

	var newest *models.UserConnection
	for i := 0; i < 4; i++ {
		conn := newConnection(userID, id.UserID(uuid.New()), nil)
		conn.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second).Truncate(time.Microsecond)
		_, err := s.store.Upsert(ctx, conn)
		s.Require().NoError(err)
		newest = conn
	}

	recent, err := s.store.ListRecent(ctx, userID, 2)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal(newest.ID, recent[0].ID)
}
