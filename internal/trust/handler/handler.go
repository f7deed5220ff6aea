package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"porchlight/internal/platform/metrics"
	"porchlight/internal/platform/middleware"
	"porchlight/internal/transport/http/shared"
	"porchlight/internal/trust/models"
	"porchlight/internal/trust/service"
	id "porchlight/pkg/domain"
	dErrors "porchlight/pkg/domain-errors"
)

// Service defines the interface for trust ledger operations.
type Service interface {
	ApplyScoringEvent(ctx context.Context, event service.ScoringEvent) (*models.TrustScoreLogEntry, error)
	GetScore(ctx context.Context, userID id.UserID, communityID id.CommunityID) (*models.TrustScore, error)
	GetLog(ctx context.Context, userID id.UserID, communityID id.CommunityID, limit int, cursor string) ([]*models.TrustScoreLogEntry, string, error)
}

// Handler handles trust score endpoints.
type Handler struct {
	logger       *slog.Logger
	trust        Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new trust Handler.
func New(trust Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		trust:        trust,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the trust routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	trustRouter := chi.NewRouter()
	trustRouter.Use(middleware.Recovery(h.logger))
	trustRouter.Use(middleware.RequestID)
	trustRouter.Use(middleware.Logger(h.logger))
	trustRouter.Use(middleware.Timeout(30 * time.Second))
	trustRouter.Use(middleware.ContentTypeJSON)
	trustRouter.Use(middleware.LatencyMiddleware(h.metrics))
	trustRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	trustRouter.Post("/events", h.handleApplyEvent)
	trustRouter.Get("/communities/{communityID}/users/{userID}/score", h.handleGetScore)
	trustRouter.Get("/communities/{communityID}/users/{userID}/log", h.handleGetLog)

	r.Mount("/trust", trustRouter)
}

// applyEventRequest is the wire shape for a scoring event.
type applyEventRequest struct {
	UserID       string            `json:"user_id"`
	CommunityID  string            `json:"community_id"`
	ActionType   models.ActionType `json:"action_type"`
	ActionID     string            `json:"action_id,omitempty"`
	PointsChange *int              `json:"points_change,omitempty"`
	Metadata     json.RawMessage   `json:"metadata,omitempty"`
}

type applyEventResponse struct {
	Entry   *models.TrustScoreLogEntry `json:"entry"`
	Warning string                     `json:"warning,omitempty"`
}

func (h *Handler) handleApplyEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req applyEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid scoring event request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	communityID, err := id.ParseCommunityID(req.CommunityID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	entry, err := h.trust.ApplyScoringEvent(ctx, service.ScoringEvent{
		UserID:       userID,
		CommunityID:  communityID,
		ActionType:   req.ActionType,
		ActionID:     req.ActionID,
		PointsChange: req.PointsChange,
		Metadata:     req.Metadata,
	})
	if err != nil {
		// Replays are a successful no-op for idempotent producers.
		if dErrors.Is(err, dErrors.CodeDuplicateAction) {
			shared.WriteJSON(w, http.StatusOK, applyEventResponse{
				Entry:   entry,
				Warning: string(dErrors.CodeDuplicateAction),
			})
			return
		}
		h.logger.ErrorContext(ctx, "apply scoring event failed",
			"request_id", requestID,
			"user_id", req.UserID,
			"community_id", req.CommunityID,
			"action_type", req.ActionType,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, applyEventResponse{Entry: entry})
}

func (h *Handler) handleGetScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, communityID, err := h.pathIDs(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	score, err := h.trust.GetScore(ctx, userID, communityID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get trust score failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, score)
}

type logResponse struct {
	Entries    []*models.TrustScoreLogEntry `json:"entries"`
	NextCursor string                       `json:"next_cursor,omitempty"`
}

func (h *Handler) handleGetLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, communityID, err := h.pathIDs(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid limit"))
			return
		}
	}

	entries, next, err := h.trust.GetLog(ctx, userID, communityID, limit, r.URL.Query().Get("cursor"))
	if err != nil {
		h.logger.ErrorContext(ctx, "get trust score log failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, logResponse{Entries: entries, NextCursor: next})
}

func (h *Handler) pathIDs(r *http.Request) (id.UserID, id.CommunityID, error) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		return id.UserID{}, id.CommunityID{}, err
	}
	communityID, err := id.ParseCommunityID(chi.URLParam(r, "communityID"))
	if err != nil {
		return id.UserID{}, id.CommunityID{}, err
	}
	return userID, communityID, nil
}
