package visibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blockmodels "porchlight/internal/block/models"
	blockstore "porchlight/internal/block/store"
	connmodels "porchlight/internal/connection/models"
	convmodels "porchlight/internal/conversation/models"
	id "porchlight/pkg/domain"
	dErrors "porchlight/pkg/domain-errors"
)

// memoryBlocks adapts the in-memory block store to the gate's predicate.
type memoryBlocks struct {
	store *blockstore.InMemory
}

func newBlocks() *memoryBlocks {
	return &memoryBlocks{store: blockstore.NewInMemory()}
}

func (m *memoryBlocks) IsBlocked(ctx context.Context, userID, otherID id.UserID) (bool, error) {
	return m.store.ExistsEither(ctx, userID, otherID)
}

func (m *memoryBlocks) block(t *testing.T, blockerID, blockedID id.UserID) {
	t.Helper()
	_, _, err := m.store.Insert(context.Background(), &blockmodels.BlockedUser{
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func direct(a, b id.UserID) *convmodels.Conversation {
	return &convmodels.Conversation{
		ID:             id.ConversationID(uuid.New()),
		ParticipantIDs: []id.UserID{a, b},
		LastActivityAt: time.Now().UTC(),
	}
}

func community(participants ...id.UserID) *convmodels.Conversation {
	return &convmodels.Conversation{
		ID:             id.ConversationID(uuid.New()),
		ParticipantIDs: participants,
		LastActivityAt: time.Now().UTC(),
	}
}

func TestFilterConversations(t *testing.T) {
	ctx := context.Background()
	viewer := id.UserID(uuid.New())
	friend := id.UserID(uuid.New())
	enemy := id.UserID(uuid.New())

	t.Run("drops direct conversations with a blocked counterpart", func(t *testing.T) {
		blocks := newBlocks()
		blocks.block(t, viewer, enemy)
		gate := New(blocks)

		withFriend := direct(viewer, friend)
		withEnemy := direct(viewer, enemy)

		kept, err := gate.FilterConversations(ctx, viewer, []*convmodels.Conversation{withFriend, withEnemy})
		require.NoError(t, err)
		require.Len(t, kept, 1)
		assert.Equal(t, withFriend.ID, kept[0].ID)
	})

	t.Run("hides the conversation for the blocked side too", func(t *testing.T) {
		blocks := newBlocks()
		blocks.block(t, viewer, enemy)
		gate := New(blocks)

		conv := direct(viewer, enemy)

		kept, err := gate.FilterConversations(ctx, enemy, []*convmodels.Conversation{conv})
		require.NoError(t, err)
		assert.Empty(t, kept)
	})

	t.Run("community conversations survive blocks between members", func(t *testing.T) {
		blocks := newBlocks()
		blocks.block(t, viewer, enemy)
		gate := New(blocks)

		conv := community(viewer, friend, enemy)

		kept, err := gate.FilterConversations(ctx, viewer, []*convmodels.Conversation{conv})
		require.NoError(t, err)
		require.Len(t, kept, 1)
		assert.Equal(t, conv.ID, kept[0].ID)
	})

	t.Run("no blocks keeps everything", func(t *testing.T) {
		gate := New(newBlocks())

		conversations := []*convmodels.Conversation{
			direct(viewer, friend),
			direct(viewer, enemy),
			community(viewer, friend, enemy),
		}

		kept, err := gate.FilterConversations(ctx, viewer, conversations)
		require.NoError(t, err)
		assert.Len(t, kept, 3)
	})

	t.Run("nil viewer is rejected", func(t *testing.T) {
		gate := New(newBlocks())

		_, err := gate.FilterConversations(ctx, id.UserID{}, nil)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})
}

func TestFilterConnections(t *testing.T) {
	ctx := context.Background()
	viewer := id.UserID(uuid.New())
	friend := id.UserID(uuid.New())
	enemy := id.UserID(uuid.New())

	conn := func(otherID id.UserID) *connmodels.UserConnection {
		return &connmodels.UserConnection{
			ID:        uuid.New(),
			UserID:    viewer,
			OtherID:   otherID,
			Type:      connmodels.ConnectionTypeInvited,
			CreatedAt: time.Now().UTC(),
		}
	}

	t.Run("hides blocked counterparties", func(t *testing.T) {
		blocks := newBlocks()
		blocks.block(t, enemy, viewer)
		gate := New(blocks)

		kept, err := gate.FilterConnections(ctx, viewer, []*connmodels.UserConnection{conn(friend), conn(enemy)})
		require.NoError(t, err)
		require.Len(t, kept, 1)
		assert.Equal(t, friend, kept[0].OtherID, "reverse-direction block hides the connection too")
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		gate := New(newBlocks())

		kept, err := gate.FilterConnections(ctx, viewer, nil)
		require.NoError(t, err)
		assert.Empty(t, kept)
	})
}

type failingChecker struct {
	err error
}

func (f *failingChecker) IsBlocked(context.Context, id.UserID, id.UserID) (bool, error) {
	return false, f.err
}

func TestGateSurfacesCheckerFailures(t *testing.T) {
	ctx := context.Background()
	viewer := id.UserID(uuid.New())
	cause := errors.New("registry down")
	gate := New(&failingChecker{err: cause})

	_, err := gate.FilterConversations(ctx, viewer, []*convmodels.Conversation{direct(viewer, id.UserID(uuid.New()))})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))
	assert.True(t, errors.Is(err, cause))

	_, err = gate.FilterConnections(ctx, viewer, []*connmodels.UserConnection{{OtherID: id.UserID(uuid.New())}})
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))
}
