package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"porchlight/internal/block/models"
	id "porchlight/pkg/domain"
)

type BlockStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestBlockStoreSuite(t *testing.T) {
	suite.Run(t, new(BlockStoreSuite))
}

func (s *BlockStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *BlockStoreSuite) TestInsertIsIdempotent() {
	blockerID := id.UserID(uuid.New())
	blockedID := id.UserID(uuid.New())
	first := time.Now().UTC().Truncate(time.Second)

	created, inserted, err := s.store.Insert(s.ctx, &models.BlockedUser{
		BlockerID: blockerID, BlockedID: blockedID, CreatedAt: first,
	})
	s.Require().NoError(err)
	s.True(inserted)
	s.Equal(first, created.CreatedAt)

	repeat, inserted, err := s.store.Insert(s.ctx, &models.BlockedUser{
		BlockerID: blockerID, BlockedID: blockedID, CreatedAt: first.Add(time.Hour),
	})
	s.Require().NoError(err)
	s.False(inserted, "repeated block is a no-op")
	s.Equal(first, repeat.CreatedAt, "original record survives a repeated block")
}

func (s *BlockStoreSuite) TestExistsEitherIsSymmetric() {
	a := id.UserID(uuid.New())
	b := id.UserID(uuid.New())
	c := id.UserID(uuid.New())

	_, _, err := s.store.Insert(s.ctx, &models.BlockedUser{BlockerID: a, BlockedID: b, CreatedAt: time.Now().UTC()})
	s.Require().NoError(err)

	s.Run("forward", func() {
		exists, err := s.store.ExistsEither(s.ctx, a, b)
		s.Require().NoError(err)
		s.True(exists)
	})

	s.Run("reverse", func() {
		exists, err := s.store.ExistsEither(s.ctx, b, a)
		s.Require().NoError(err)
		s.True(exists)
	})

	s.Run("unrelated pair", func() {
		exists, err := s.store.ExistsEither(s.ctx, a, c)
		s.Require().NoError(err)
		s.False(exists)
	})
}

func (s *BlockStoreSuite) TestDeleteRemovesOnlyOneDirection() {
	a := id.UserID(uuid.New())
	b := id.UserID(uuid.New())
	now := time.Now().UTC()

	_, _, err := s.store.Insert(s.ctx, &models.BlockedUser{BlockerID: a, BlockedID: b, CreatedAt: now})
	s.Require().NoError(err)
	_, _, err = s.store.Insert(s.ctx, &models.BlockedUser{BlockerID: b, BlockedID: a, CreatedAt: now})
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(s.ctx, a, b))

	exists, err := s.store.ExistsEither(s.ctx, a, b)
	s.Require().NoError(err)
	s.True(exists, "the reverse block still stands")

	s.Require().NoError(s.store.Delete(s.ctx, b, a))

	exists, err = s.store.ExistsEither(s.ctx, a, b)
	s.Require().NoError(err)
	s.False(exists)

	s.Run("deleting an absent pair is a no-op", func() {
		s.NoError(s.store.Delete(s.ctx, a, b))
	})
}

func (s *BlockStoreSuite) TestListByBlocker() {
	blockerID := id.UserID(uuid.New())
	base := time.Now().UTC().Truncate(time.Second)

	var newest id.UserID
	for i := 0; i < 3; i++ {
		blockedID := id.UserID(uuid.New())
		_, _, err := s.store.Insert(s.ctx, &models.BlockedUser{
			BlockerID: blockerID, BlockedID: blockedID, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		s.Require().NoError(err)
		newest = blockedID
	}
	// A block pointing at the blocker must not show in their own list.
	_, _, err := s.store.Insert(s.ctx, &models.BlockedUser{
		BlockerID: id.UserID(uuid.New()), BlockedID: blockerID, CreatedAt: base,
	})
	s.Require().NoError(err)

	blocks, err := s.store.ListByBlocker(s.ctx, blockerID)
	s.Require().NoError(err)
	s.Require().Len(blocks, 3)
	s.Equal(newest, blocks[0].BlockedID)
	s.True(blocks[0].CreatedAt.After(blocks[2].CreatedAt))
}
