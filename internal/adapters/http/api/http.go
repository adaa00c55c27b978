// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/breakingball/internal/app"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Enqueue queues one game load. Returns false when the game is
	// already pending.
	Enqueue(ctx context.Context, id string, skipIfFinal bool) (bool, error)

	// LoadRange queues every game listed between two dates.
	LoadRange(ctx context.Context, start, end time.Time, refresh bool) (*RangeReport, error)
}

// RangeReport mirrors the summary returned by range loads.
type RangeReport = service.RangeReport

// Server wires HTTP routes for the ops API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	loadsHandler  *LoadsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		loadsHandler:  NewLoadsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/loads", MetricsMiddleware(s.loadsHandler.HandlePostLoad, "loads"))
}

// loadRequest is the body of POST /loads. Either GameID or StartDate is
// set; EndDate defaults to StartDate.
type loadRequest struct {
	GameID    string `json:"game_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Refresh   bool   `json:"refresh"`
}

func (l loadRequest) validate() error {
	game := strings.TrimSpace(l.GameID) != ""
	start := strings.TrimSpace(l.StartDate) != ""
	switch {
	case game && start:
		return errors.New("game_id and start_date are exclusive")
	case !game && !start:
		return errors.New("missing start_date or game_id")
	case !start && strings.TrimSpace(l.EndDate) != "":
		return errors.New("end_date needs start_date")
	}
	return nil
}

// dates parses the range; both ends use the YYYY-MM-DD form.
func (l loadRequest) dates() (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, l.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid start_date; must be YYYY-MM-DD")
	}
	if l.EndDate == "" {
		return start, start, nil
	}
	end, err := time.Parse(time.DateOnly, l.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid end_date; must be YYYY-MM-DD")
	}
	return start, end, nil
}

type ackResponse struct {
	Status    string       `json:"status"`
	Duplicate bool         `json:"duplicate,omitempty"`
	Report    *RangeReport `json:"report,omitempty"`
}

type errorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Report  *RangeReport `json:"report,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
