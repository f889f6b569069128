// Package http exposes the tracker operations as a JSON API.
package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tokenmeter/tokenmeter/adapters/metrics"
	"github.com/tokenmeter/tokenmeter/app"
	"github.com/tokenmeter/tokenmeter/config"
	"github.com/tokenmeter/tokenmeter/domain/estimate"
	"github.com/tokenmeter/tokenmeter/domain/pricing"
	"github.com/tokenmeter/tokenmeter/domain/usage"
)

// Handler provides the JSON API endpoints.
type Handler struct {
	tracker *app.TrackerService
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewHandler creates an API handler.
func NewHandler(tracker *app.TrackerService, collector *metrics.Collector, logger zerolog.Logger) *Handler {
	return &Handler{tracker: tracker, metrics: collector, logger: logger}
}

// Router builds the chi router for the API.
func (h *Handler) Router(metricsCfg config.MetricsConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.instrument)

	r.Get("/healthz", h.health)
	if metricsCfg.Enabled {
		r.Handle(metricsCfg.Path, promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/budget", h.getBudget)
		r.Post("/usage", h.postUsage)
		r.Get("/usage/history", h.getHistory)
		r.Post("/estimate/task", h.postEstimateTask)
		r.Post("/estimate/project", h.postEstimateProject)
		r.Get("/recommendations", h.getRecommendations)
		r.Put("/config/budget", h.putBudgetConfig)
		r.Get("/pricing", h.getPricing)
	})

	return r
}

// instrument records request metrics and logs each request.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		if h.metrics != nil {
			h.metrics.RequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(ww.Status())).Inc()
			h.metrics.RequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(elapsed.Seconds())
		}
		h.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", elapsed).
			Msg("request")
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getBudget returns a fresh budget snapshot. Budget queries always
// return a complete snapshot; only storage failures error.
func (h *Handler) getBudget(w http.ResponseWriter, r *http.Request) {
	snap, err := h.tracker.CheckBudget(r.Context())
	if err != nil {
		h.serverError(w, err, "check budget")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type postUsageRequest struct {
	SessionID        string `json:"session_id"`
	Model            string `json:"model,omitempty"`
	InputTokens      int64  `json:"input_tokens"`
	OutputTokens     int64  `json:"output_tokens"`
	CacheReadTokens  int64  `json:"cache_read_tokens,omitempty"`
	CacheWriteTokens int64  `json:"cache_write_tokens,omitempty"`
	TaskDescription  string `json:"task_description,omitempty"`
	Source           string `json:"source,omitempty"`
}

type postUsageResponse struct {
	ID      string  `json:"id"`
	Model   string  `json:"model"`
	CostUSD float64 `json:"cost_usd"`
}

func (h *Handler) postUsage(w http.ResponseWriter, r *http.Request) {
	var req postUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if req.InputTokens < 0 || req.OutputTokens < 0 || req.CacheReadTokens < 0 || req.CacheWriteTokens < 0 {
		writeError(w, http.StatusBadRequest, "token counts must not be negative")
		return
	}
	if req.Source != "" && !usage.ValidSource(usage.Source(req.Source)) {
		writeError(w, http.StatusBadRequest, "unknown source")
		return
	}

	e, err := h.tracker.LogUsage(r.Context(), app.LogUsageInput{
		SessionID:        req.SessionID,
		Model:            req.Model,
		InputTokens:      req.InputTokens,
		OutputTokens:     req.OutputTokens,
		CacheReadTokens:  req.CacheReadTokens,
		CacheWriteTokens: req.CacheWriteTokens,
		TaskDescription:  req.TaskDescription,
		Source:           usage.Source(req.Source),
	})
	if err != nil {
		h.serverError(w, err, "log usage")
		return
	}
	writeJSON(w, http.StatusCreated, postUsageResponse{ID: e.ID, Model: e.Model, CostUSD: e.CostUSD})
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 90 {
			writeError(w, http.StatusBadRequest, "days must be an integer in [1,90]")
			return
		}
		days = n
	}

	report, err := h.tracker.History(r.Context(), days)
	if err != nil {
		h.serverError(w, err, "usage history")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type estimateTaskRequest struct {
	TaskDescription  string `json:"task_description"`
	Complexity       string `json:"complexity,omitempty"`
	FileCount        int    `json:"file_count,omitempty"`
	Model            string `json:"model,omitempty"`
	ExtendedThinking bool   `json:"extended_thinking,omitempty"`
}

func (h *Handler) postEstimateTask(w http.ResponseWriter, r *http.Request) {
	var req estimateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TaskDescription == "" && req.Complexity == "" {
		writeError(w, http.StatusBadRequest, "task_description is required")
		return
	}
	if req.FileCount < 0 {
		writeError(w, http.StatusBadRequest, "file_count must not be negative")
		return
	}

	est, err := h.tracker.EstimateTask(app.EstimateTaskInput{
		TaskDescription:  req.TaskDescription,
		Tier:             estimate.Tier(req.Complexity),
		FileCount:        req.FileCount,
		Model:            req.Model,
		ExtendedThinking: req.ExtendedThinking,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, est)
}

type estimateProjectRequest struct {
	Subtasks []struct {
		Description string `json:"description"`
		Complexity  string `json:"complexity,omitempty"`
		FileCount   int    `json:"file_count,omitempty"`
	} `json:"subtasks"`
	Model            string `json:"model,omitempty"`
	Sessions         int    `json:"sessions,omitempty"`
	ExtendedThinking bool   `json:"extended_thinking,omitempty"`
}

func (h *Handler) postEstimateProject(w http.ResponseWriter, r *http.Request) {
	var req estimateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	subtasks := make([]estimate.Subtask, 0, len(req.Subtasks))
	for _, st := range req.Subtasks {
		if st.FileCount < 0 {
			writeError(w, http.StatusBadRequest, "file_count must not be negative")
			return
		}
		subtasks = append(subtasks, estimate.Subtask{
			Description: st.Description,
			Tier:        estimate.Tier(st.Complexity),
			FileCount:   st.FileCount,
		})
	}

	proj, err := h.tracker.EstimateProject(app.EstimateProjectInput{
		Subtasks:         subtasks,
		Model:            req.Model,
		Sessions:         req.Sessions,
		ExtendedThinking: req.ExtendedThinking,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (h *Handler) getRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tier := estimate.Tier(q.Get("task_complexity"))
	if tier != "" && !estimate.ValidTier(tier) {
		writeError(w, http.StatusBadRequest, "unknown task_complexity")
		return
	}
	isUrgent := true
	if v := q.Get("is_urgent"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "is_urgent must be a boolean")
			return
		}
		isUrgent = b
	}

	recs, err := h.tracker.Recommendations(r.Context(), q.Get("current_model"), tier, isUrgent)
	if err != nil {
		h.serverError(w, err, "recommendations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

type budgetConfigRequest struct {
	DailyLimitUSD        *float64           `json:"daily_limit_usd,omitempty"`
	MonthlyLimitUSD      *float64           `json:"monthly_limit_usd,omitempty"`
	ClearMonthlyLimit    bool               `json:"clear_monthly_limit,omitempty"`
	WarningThresholdPct  *float64           `json:"warning_threshold_pct,omitempty"`
	CriticalThresholdPct *float64           `json:"critical_threshold_pct,omitempty"`
	Plan                 *config.PlanConfig `json:"plan,omitempty"`
	ClearPlan            bool               `json:"clear_plan,omitempty"`
}

func (h *Handler) putBudgetConfig(w http.ResponseWriter, r *http.Request) {
	var req budgetConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cfg, err := h.tracker.ConfigureBudget(app.ConfigureBudgetInput{
		DailyLimitUSD:        req.DailyLimitUSD,
		MonthlyLimitUSD:      req.MonthlyLimitUSD,
		ClearMonthlyLimit:    req.ClearMonthlyLimit,
		WarningThresholdPct:  req.WarningThresholdPct,
		CriticalThresholdPct: req.CriticalThresholdPct,
		Plan:                 req.Plan,
		ClearPlan:            req.ClearPlan,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg.Budget)
}

func (h *Handler) getPricing(w http.ResponseWriter, r *http.Request) {
	type modelPricing struct {
		Model             string  `json:"model"`
		InputPerMTok      float64 `json:"input_per_mtok"`
		OutputPerMTok     float64 `json:"output_per_mtok"`
		CacheReadPerMTok  float64 `json:"cache_read_per_mtok"`
		CacheWritePerMTok float64 `json:"cache_write_per_mtok"`
	}
	table := make([]modelPricing, 0, len(pricing.Table))
	for _, p := range pricing.Table {
		table = append(table, modelPricing{
			Model:             p.Model,
			InputPerMTok:      p.InputPerMTok,
			OutputPerMTok:     p.OutputPerMTok,
			CacheReadPerMTok:  p.CacheReadPerMTok,
			CacheWritePerMTok: p.CacheWritePerMTok,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"models":         table,
		"fallback_model": pricing.FallbackModel,
	})
}

func (h *Handler) serverError(w http.ResponseWriter, err error, op string) {
	h.logger.Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
