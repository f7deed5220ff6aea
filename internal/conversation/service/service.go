// Package service assembles the conversation listing: raw conversations from
// the messaging store, filtered through the visibility gate, cached per
// viewer. Cached entries are post-filter, so block changes must invalidate
// them; the block registry does that on every mutation.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"porchlight/internal/conversation/models"
	"porchlight/internal/conversation/store"
	"porchlight/internal/platform/cache"
	id "porchlight/pkg/domain"
	dErrors "porchlight/pkg/domain-errors"
)

// Gate filters conversations for a viewer.
type Gate interface {
	FilterConversations(ctx context.Context, viewerID id.UserID, conversations []*models.Conversation) ([]*models.Conversation, error)
}

// Service is the conversation read side.
type Service struct {
	store  store.Store
	gate   Gate
	cache  *cache.Cache
	logger *slog.Logger
	tracer trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func New(st store.Store, gate Gate, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("conversation store is required")
	}
	if gate == nil {
		return nil, fmt.Errorf("visibility gate is required")
	}

	svc := &Service{
		store:  st,
		gate:   gate,
		logger: slog.Default(),
		tracer: otel.Tracer("porchlight/conversation"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// List returns the conversations visible to the viewer, most recent activity
// first. Direct conversations with a blocked counterpart are dropped.
func (s *Service) List(ctx context.Context, viewerID id.UserID) ([]*models.Conversation, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.List")
	defer span.End()

	if viewerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "viewer id is required")
	}

	if s.cache != nil {
		var cached []*models.Conversation
		if s.cache.GetConversations(ctx, viewerID, &cached) {
			return cached, nil
		}
	}

	conversations, err := s.store.ListForUser(ctx, viewerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list conversations failed")
	}

	visible, err := s.gate.FilterConversations(ctx, viewerID, conversations)
	if err != nil {
		return nil, err
	}
	if visible == nil {
		visible = []*models.Conversation{}
	}

	if s.cache != nil {
		s.cache.SetConversations(ctx, viewerID, visible)
	}
	return visible, nil
}
