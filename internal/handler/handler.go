package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/service"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/errors"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
	"github.com/gorilla/mux"
)

type WrappedHandler struct {
	service WrappedService
	warmup  WarmupPublisher
	ctx     context.Context
}

// * NewWrappedHandler takes the server lifetime context; background warm-ups stop with it.
// * warmup may be nil, in which case warm-ups resolve in-process.
func NewWrappedHandler(ctx context.Context, service WrappedService, warmup WarmupPublisher) *WrappedHandler {
	return &WrappedHandler{
		service: service,
		warmup:  warmup,
		ctx:     ctx,
	}
}

func (h *WrappedHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/users/{username}/wrapped", h.getWrapped).Methods("GET")
	r.HandleFunc("/users/{username}/warmup", h.warmupUser).Methods("POST")
	r.HandleFunc("/stats/averages", h.getAverages).Methods("GET")
	r.HandleFunc("/stats/count", h.getCount).Methods("GET")
}

func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeSuccess(w http.ResponseWriter, status int, data any, message ...string) {
	resp := APIResponse{
		Status: "success",
		Data:   data,
	}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// getWrapped godoc
// @Summary Get wrapped
// @Description Resolve the year-in-review record of a GitHub user, refreshing it from GitHub when the cached copy is stale
// @Tags Wrapped
// @Produce json
// @Param username path string true "GitHub username"
// @Success 200 {object} service.Resolution
// @Failure 400 {object} errors.HTTPErrorResponse "Empty or malformed username"
// @Failure 404 {object} errors.HTTPErrorResponse "User does not exist on GitHub"
// @Failure 429 {object} errors.HTTPErrorResponse "GitHub rate limit exceeded"
// @Failure 502 {object} errors.HTTPErrorResponse "GitHub unavailable or credentials rejected"
// @Router /users/{username}/wrapped [get]
func (h *WrappedHandler) getWrapped(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	res, err := h.service.ResolveUser(r.Context(), username)
	if err != nil {
		logger.Error("wrapped lookup for %q failed: %v", username, err)
		errors.WriteHTTPError(w, err)
		return
	}

	logger.Info("Resolved wrapped for %s (%s)", res.User.Username, res.Outcome)
	writeSuccess(w, http.StatusOK, res, "Successfully resolved wrapped")
}

// warmupUser godoc
// @Summary Warm up wrapped
// @Description Queue a username so its wrapped record is computed before the first visit
// @Tags Wrapped
// @Produce json
// @Param username path string true "GitHub username"
// @Success 202 {object} WarmupResponse
// @Failure 400 {object} errors.HTTPErrorResponse "Empty or malformed username"
// @Router /users/{username}/warmup [post]
func (h *WrappedHandler) warmupUser(w http.ResponseWriter, r *http.Request) {
	username, err := service.ValidateUsername(mux.Vars(r)["username"])
	if err != nil {
		errors.WriteHTTPError(w, err)
		return
	}

	queued := false
	if h.warmup != nil {
		if err := h.warmup.PublishWarmup(r.Context(), username); err != nil {
			logger.Warn("queueing warm-up for %s failed, resolving in-process: %v", username, err)
		} else {
			queued = true
		}
	}

	if !queued {
		go func() {
			if _, err := h.service.ResolveUser(h.ctx, username); err != nil {
				logger.Error("warm-up for %s failed: %v", username, err)
			}
		}()
	}

	writeSuccess(w, http.StatusAccepted, WarmupResponse{Username: username, Queued: queued}, "Warm-up accepted")
}

// getAverages godoc
// @Summary Get averages
// @Description Rounded means across every stored wrapped record
// @Tags Stats
// @Produce json
// @Success 200 {object} models.AverageStats
// @Failure 500 {object} errors.HTTPErrorResponse "Internal Server Error"
// @Router /stats/averages [get]
func (h *WrappedHandler) getAverages(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.AverageStats(r.Context())
	if err != nil {
		errors.WriteHTTPError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, stats, "Successfully computed averages")
}

// getCount godoc
// @Summary Count users
// @Description Number of stored wrapped records plus resolution counters of this process
// @Tags Stats
// @Produce json
// @Success 200 {object} CountResponse
// @Failure 500 {object} errors.HTTPErrorResponse "Internal Server Error"
// @Router /stats/count [get]
func (h *WrappedHandler) getCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountUsers(r.Context())
	if err != nil {
		errors.WriteHTTPError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, CountResponse{Count: count, Outcomes: h.service.Outcomes()}, "Successfully counted users")
}
