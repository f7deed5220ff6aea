package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"porchlight/internal/conversation/models"
	"porchlight/internal/platform/metrics"
	"porchlight/internal/platform/middleware"
	"porchlight/internal/transport/http/shared"
	id "porchlight/pkg/domain"
	dErrors "porchlight/pkg/domain-errors"
)

// Service defines the interface for the conversation read side.
type Service interface {
	List(ctx context.Context, viewerID id.UserID) ([]*models.Conversation, error)
}

// Handler serves the conversation listing. The visible set depends on the
// viewer's block state, so the response is always per-viewer.
type Handler struct {
	logger        *slog.Logger
	conversations Service
	metrics       *metrics.Metrics
	jwtValidator  middleware.JWTValidator
}

func New(conversations Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:        logger,
		conversations: conversations,
		metrics:       m,
		jwtValidator:  jwtValidator,
	}
}

// Register registers the conversation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	convRouter := chi.NewRouter()
	convRouter.Use(middleware.Recovery(h.logger))
	convRouter.Use(middleware.RequestID)
	convRouter.Use(middleware.Logger(h.logger))
	convRouter.Use(middleware.Timeout(30 * time.Second))
	convRouter.Use(middleware.ContentTypeJSON)
	convRouter.Use(middleware.LatencyMiddleware(h.metrics))
	convRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	convRouter.Get("/", h.handleList)

	r.Mount("/conversations", convRouter)
}

type listResponse struct {
	Conversations []*models.Conversation `json:"conversations"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := middleware.GetUserID(ctx)
	if raw == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	viewerID, err := id.ParseUserID(raw)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	conversations, err := h.conversations.List(ctx, viewerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list conversations failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, listResponse{Conversations: conversations})
}
