package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"puzzleScope/internal/activity"
	"puzzleScope/internal/model"
)

// Service is the read model behind the API, implemented by activity.Reconstructor.
type Service interface {
	ActivityEvents(ctx context.Context, address string) model.Result[model.ActivityEvent]
	HistoricalBalances(ctx context.Context, address string, timeframe model.Timeframe) model.Result[model.BalancePoint]
	Summary(ctx context.Context, address string) (model.Summary, error)
	Achievements(ctx context.Context, address string) model.Result[model.Achievement]
	Roles(ctx context.Context, address string) (model.Roles, error)
	HasEnoughKeys(ctx context.Context, address, amount string) (model.KeyCheck, error)
	AchievementUnlocked(ctx context.Context, address string, id uint64) (model.AchievementStatus, error)
}

// Handler serves the player read API.
type Handler struct {
	service Service
	logger  *zap.Logger
	timeout time.Duration
}

func NewHandler(service Service, logger *zap.Logger, timeout time.Duration) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger, timeout: timeout}
}

// Response is the envelope of every API reply.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router builds the chi router.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	if h.timeout > 0 {
		r.Use(middleware.Timeout(h.timeout))
	}

	r.Get("/health", h.Health)

	r.Route("/api/v1/players/{address}", func(r chi.Router) {
		r.Get("/activity", h.Activity)
		r.Get("/balances", h.Balances)
		r.Get("/summary", h.Summary)
		r.Get("/achievements", h.Achievements)
		r.Get("/achievements/{id}", h.AchievementUnlocked)
		r.Get("/keys", h.Keys)
		r.Get("/roles", h.Roles)
	})

	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// Activity returns the seven-day activity feed.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	address, ok := h.address(w, r)
	if !ok {
		return
	}
	writeResult(h, w, h.service.ActivityEvents(r.Context(), address))
}

// Balances returns the balance history for ?timeframe=day|week|month.
func (h *Handler) Balances(w http.ResponseWriter, r *http.Request) {
	address, ok := h.address(w, r)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("timeframe")
	if raw == "" {
		raw = string(model.TimeframeWeek)
	}
	timeframe, err := model.ParseTimeframe(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	writeResult(h, w, h.service.HistoricalBalances(r.Context(), address, timeframe))
}

// Summary returns the dashboard overview.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	address, ok := h.address(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), address)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, summary)
}

// Achievements returns the unlocked achievement definitions.
func (h *Handler) Achievements(w http.ResponseWriter, r *http.Request) {
	address, ok := h.address(w, r)
	if !ok {
		return
	}
	writeResult(h, w, h.service.Achievements(r.Context(), address))
}

// Roles returns the wallet's access-control roles.
func (h *Handler) Roles(w http.ResponseWriter, r *http.Request) {
	address, ok := h.address(w, r)
	if !ok {
		return
	}
	roles, err := h.service.Roles(r.Context(), address)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, roles)
}

// Keys answers whether the player holds at least ?amount= keys.
func (h *Handler) Keys(w http.ResponseWriter, r *http.Request) {
	address, ok := h.address(w, r)
	if !ok {
		return
	}
	amount := r.URL.Query().Get("amount")
	if amount == "" {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: amount is required", activity.ErrInvalidAmount))
		return
	}
	check, err := h.service.HasEnoughKeys(r.Context(), address, amount)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, check)
}

// AchievementUnlocked reports whether the player holds one achievement.
func (h *Handler) AchievementUnlocked(w http.ResponseWriter, r *http.Request) {
	address, ok := h.address(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid achievement id: %w", err))
		return
	}
	status, err := h.service.AchievementUnlocked(r.Context(), address, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, status)
}

func (h *Handler) address(w http.ResponseWriter, r *http.Request) (string, bool) {
	address, err := activity.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return "", false
	}
	return address.Hex(), true
}

func writeResult[T any](h *Handler, w http.ResponseWriter, result model.Result[T]) {
	if result.IsError() {
		h.writeServiceError(w, result.Err)
		return
	}
	h.writeSuccess(w, result)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, activity.ErrInvalidAddress) || errors.Is(err, activity.ErrInvalidAmount) {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.logger.Warn("upstream read failed", zap.Error(err))
	h.writeError(w, http.StatusBadGateway, err)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("encode response", zap.Error(err))
	}
}

func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, Response{Success: false, Error: err.Error()})
}
