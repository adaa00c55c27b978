package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/breakingball/internal/app"
	"github.com/okian/breakingball/internal/domain/gameid"
)

// LoadsHandler queues game loads.
type LoadsHandler struct {
	deps Dependencies
}

// NewLoadsHandler creates a new loads handler.
func NewLoadsHandler(deps Dependencies) *LoadsHandler {
	return &LoadsHandler{deps: deps}
}

// HandlePostLoad handles POST /loads requests.
func (h *LoadsHandler) HandlePostLoad(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_load"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}

	if req.GameID != "" {
		queued, err := h.deps.Enqueue(r.Context(), req.GameID, !req.Refresh)
		if err != nil {
			status, code := classify(err)
			writeError(w, status, code, fmt.Errorf("%s: %w", op, err))
			return
		}
		if !queued {
			writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
			return
		}
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
		return
	}

	start, end, err := req.dates()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	report, err := h.deps.LoadRange(r.Context(), start, end, req.Refresh)
	if err != nil {
		status, code := classify(err)
		writeJSON(w, status, errorResponse{Code: code, Message: fmt.Errorf("%s: %w", op, err).Error(), Report: report})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Report: report})
}

// classify maps loader errors to a status and an error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, gameid.ErrMalformedIdentifier), errors.Is(err, service.ErrInvalidRange):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusBadGateway, "upstream"
	}
}
