package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"porchlight/internal/connection/models"
	"porchlight/internal/platform/metrics"
	"porchlight/internal/platform/middleware"
	"porchlight/internal/transport/http/shared"
	id "porchlight/pkg/domain"
	dErrors "porchlight/pkg/domain-errors"
)

// Service defines the interface for connection graph operations.
type Service interface {
	Rate(ctx context.Context, userID, otherID id.UserID, strength *models.Strength) (*models.UserConnection, error)
	Summary(ctx context.Context, userID id.UserID) (*models.ConnectionSummary, error)
}

// Visibility filters blocked counterparties out of connection listings.
type Visibility interface {
	FilterConnections(ctx context.Context, viewerID id.UserID, connections []*models.UserConnection) ([]*models.UserConnection, error)
}

// Handler handles connection endpoints. The acting user always comes from the
// authenticated request context, never the body.
type Handler struct {
	logger       *slog.Logger
	connections  Service
	visibility   Visibility
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(connections Service, visibility Visibility, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		connections:  connections,
		visibility:   visibility,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the connection routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	connRouter := chi.NewRouter()
	connRouter.Use(middleware.Recovery(h.logger))
	connRouter.Use(middleware.RequestID)
	connRouter.Use(middleware.Logger(h.logger))
	connRouter.Use(middleware.Timeout(30 * time.Second))
	connRouter.Use(middleware.ContentTypeJSON)
	connRouter.Use(middleware.LatencyMiddleware(h.metrics))
	connRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	connRouter.Put("/{otherID}/rating", h.handleRate)
	connRouter.Get("/summary", h.handleSummary)

	r.Mount("/connections", connRouter)
}

// rateRequest carries the new strength; a null strength clears the rating.
type rateRequest struct {
	Strength *models.Strength `json:"strength"`
}

func (h *Handler) handleRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewerID, err := h.actor(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	otherID, err := id.ParseUserID(chi.URLParam(r, "otherID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	conn, err := h.connections.Rate(ctx, viewerID, otherID, req.Strength)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeBadRequest) && !dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "rate connection failed",
				"request_id", middleware.GetRequestID(ctx),
				"other_id", otherID,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, conn)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewerID, err := h.actor(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	summary, err := h.connections.Summary(ctx, viewerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "connection summary failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	if h.visibility != nil {
		filtered, err := h.visibility.FilterConnections(ctx, viewerID, summary.RecentConnections)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		summary.RecentConnections = filtered
	}

	shared.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) actor(ctx context.Context) (id.UserID, error) {
	raw := middleware.GetUserID(ctx)
	if raw == "" {
		return id.UserID{}, dErrors.New(dErrors.CodeInternal, "authentication context error")
	}
	return id.ParseUserID(raw)
}
