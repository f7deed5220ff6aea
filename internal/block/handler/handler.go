package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"porchlight/internal/block/models"
	"porchlight/internal/platform/cache"
	"porchlight/internal/platform/metrics"
	"porchlight/internal/platform/middleware"
	"porchlight/internal/transport/http/shared"
	id "porchlight/pkg/domain"
	dErrors "porchlight/pkg/domain-errors"
)

// Service defines the interface for block registry operations.
type Service interface {
	Block(ctx context.Context, blockerID, blockedID id.UserID) (*models.BlockedUser, error)
	Unblock(ctx context.Context, blockerID, blockedID id.UserID) error
	ListBlocked(ctx context.Context, blockerID id.UserID) ([]*models.BlockedUser, error)
}

// Handler handles block endpoints. The blocker is always the authenticated
// user; blocking on someone else's behalf is not a thing.
type Handler struct {
	logger       *slog.Logger
	blocks       Service
	cache        *cache.Cache
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(blocks Service, c *cache.Cache, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		blocks:       blocks,
		cache:        c,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the block routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	blockRouter := chi.NewRouter()
	blockRouter.Use(middleware.Recovery(h.logger))
	blockRouter.Use(middleware.RequestID)
	blockRouter.Use(middleware.Logger(h.logger))
	blockRouter.Use(middleware.Timeout(30 * time.Second))
	blockRouter.Use(middleware.ContentTypeJSON)
	blockRouter.Use(middleware.LatencyMiddleware(h.metrics))
	blockRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	blockRouter.Post("/{blockedID}", h.handleBlock)
	blockRouter.Delete("/{blockedID}", h.handleUnblock)
	blockRouter.Get("/", h.handleList)

	r.Mount("/blocks", blockRouter)
}

func (h *Handler) handleBlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	blockerID, blockedID, err := h.pairIDs(ctx, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	block, err := h.blocks.Block(ctx, blockerID, blockedID)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeBadRequest) {
			h.logger.ErrorContext(ctx, "block failed",
				"request_id", middleware.GetRequestID(ctx),
				"blocked_id", blockedID,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, block)
}

func (h *Handler) handleUnblock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	blockerID, blockedID, err := h.pairIDs(ctx, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.blocks.Unblock(ctx, blockerID, blockedID); err != nil {
		if !dErrors.Is(err, dErrors.CodeBadRequest) {
			h.logger.ErrorContext(ctx, "unblock failed",
				"request_id", middleware.GetRequestID(ctx),
				"blocked_id", blockedID,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type listResponse struct {
	Blocks []*models.BlockedUser `json:"blocks"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	blockerID, err := h.actor(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if h.cache != nil {
		var cached []*models.BlockedUser
		if h.cache.GetBlocked(ctx, blockerID, &cached) {
			shared.WriteJSON(w, http.StatusOK, listResponse{Blocks: cached})
			return
		}
	}

	blocks, err := h.blocks.ListBlocked(ctx, blockerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list blocks failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	if h.cache != nil {
		h.cache.SetBlocked(ctx, blockerID, blocks)
	}
	shared.WriteJSON(w, http.StatusOK, listResponse{Blocks: blocks})
}

func (h *Handler) pairIDs(ctx context.Context, r *http.Request) (id.UserID, id.UserID, error) {
	blockerID, err := h.actor(ctx)
	if err != nil {
		return id.UserID{}, id.UserID{}, err
	}
	blockedID, err := id.ParseUserID(chi.URLParam(r, "blockedID"))
	if err != nil {
		return id.UserID{}, id.UserID{}, err
	}
	return blockerID, blockedID, nil
}

func (h *Handler) actor(ctx context.Context) (id.UserID, error) {
	raw := middleware.GetUserID(ctx)
	if raw == "" {
		return id.UserID{}, dErrors.New(dErrors.CodeInternal, "authentication context error")
	}
	return id.ParseUserID(raw)
}
