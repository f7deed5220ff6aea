// Package visibility composes block state into read-side filtering. It owns
// no data: every decision delegates to the block registry's predicate.
package visibility

import (
	"context"
	"log/slog"

	connmodels "porchlight/internal/connection/models"
	convmodels "porchlight/internal/conversation/models"
	id "porchlight/pkg/domain"
	dErrors "porchlight/pkg/domain-errors"
)

// BlockChecker answers whether a block exists between two users in either
// direction.
type BlockChecker interface {
	IsBlocked(ctx context.Context, userID, otherID id.UserID) (bool, error)
}

// Gate filters read models for a viewer. Blocked counterparties are hidden
// from listings, never deleted from the underlying stores.
type Gate struct {
	blocks BlockChecker
	logger *slog.Logger
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

func New(blocks BlockChecker, opts ...Option) *Gate {
	g := &Gate{blocks: blocks, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FilterConversations drops direct conversations whose counterpart is blocked
// in either direction. Community conversations, with more than two
// participants, are always retained; membership surfaces are governed
// elsewhere.
func (g *Gate) FilterConversations(ctx context.Context, viewerID id.UserID, conversations []*convmodels.Conversation) ([]*convmodels.Conversation, error) {
	if viewerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "viewer id is required")
	}

	kept := make([]*convmodels.Conversation, 0, len(conversations))
	for _, conv := range conversations {
		other, direct := conv.DirectCounterpart(viewerID)
		if !direct {
			kept = append(kept, conv)
			continue
		}

		blocked, err := g.blocks.IsBlocked(ctx, viewerID, other)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "visibility check failed")
		}
		if !blocked {
			kept = append(kept, conv)
		}
	}
	return kept, nil
}

// FilterConnections hides connections whose counterparty is blocked in either
// direction.
func (g *Gate) FilterConnections(ctx context.Context, viewerID id.UserID, connections []*connmodels.UserConnection) ([]*connmodels.UserConnection, error) {
	if viewerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "viewer id is required")
	}

	kept := make([]*connmodels.UserConnection, 0, len(connections))
	for _, conn := range connections {
		blocked, err := g.blocks.IsBlocked(ctx, viewerID, conn.OtherID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "visibility check failed")
		}
		if !blocked {
			kept = append(kept, conn)
		}
	}
	return kept, nil
}
