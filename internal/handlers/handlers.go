package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/auth"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/service"
)

// maxBodyBytes bounds JSON bodies and CSV uploads.
const maxBodyBytes = 10 << 20

// Replayer returns recent events so a reconnecting SSE client can catch up
type Replayer interface {
	Since(ts int64) []pubsub.Event
}

// IngestStats reports audited ingests per scrape target
type IngestStats interface {
	IngestCounts(ctx context.Context, since time.Time) (map[string]uint64, error)
}

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// APIHandlers contains all API handler methods
type APIHandlers struct {
	svc     *service.Service
	pubsub  *pubsub.PubSub
	history Replayer
	stats   IngestStats
	checks  map[string]HealthCheck

	// bulkReplace is ReplaceScraped behind the admin guard, set by Register
	bulkReplace http.HandlerFunc
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(svc *service.Service, ps *pubsub.PubSub) *APIHandlers {
	return &APIHandlers{
		svc:    svc,
		pubsub: ps,
		checks: map[string]HealthCheck{"database": svc.Ping},
	}
}

// WithReplay enables ?since= catch-up on the event stream.
func (h *APIHandlers) WithReplay(r Replayer) *APIHandlers {
	h.history = r
	return h
}

// WithIngestStats serves /api/scraper/ingest-counts from the audit sink.
func (h *APIHandlers) WithIngestStats(s IngestStats) *APIHandlers {
	h.stats = s
	return h
}

// WithCheck adds a dependency to /api/health.
func (h *APIHandlers) WithCheck(name string, check HealthCheck) *APIHandlers {
	h.checks[name] = check
	return h
}

// RouteOptions are the guards applied while registering routes
type RouteOptions struct {
	Auth           auth.AuthProvider
	CronSecret     string
	Limiter        *IPRateLimiter
	AllowedOrigins []string
}

// Register mounts every API route on mux.
func (h *APIHandlers) Register(mux *http.ServeMux, opts RouteOptions) {
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return auth.RequireAdmin(opts.Auth, next)
	}
	ingest := func(next http.HandlerFunc) http.Handler {
		var handler http.Handler = next
		if opts.Limiter != nil {
			handler = RateLimitMiddleware(opts.Limiter)(handler)
		}
		return CORSMiddleware(opts.AllowedOrigins)(handler)
	}

	// Public
	mux.HandleFunc("GET /api/schedule", h.GetSchedule)
	mux.HandleFunc("GET /api/dates", h.ListDates)
	mux.HandleFunc("GET /api/tournaments/hybrid", h.ListHybridTournaments)
	mux.HandleFunc("GET /api/tournaments/{slug}/bracket", h.GetBracket)

	// Matches
	mux.HandleFunc("GET /api/matches", admin(h.ListMatches))
	mux.HandleFunc("POST /api/matches", admin(h.CreateMatch))
	mux.HandleFunc("GET /api/matches/{id}", admin(h.GetMatch))
	mux.HandleFunc("GET /api/matches/by-date/{date}", admin(h.ListMatchesByDate))
	mux.HandleFunc("PATCH /api/matches/{id}", admin(h.UpdateMatch))
	mux.HandleFunc("DELETE /api/matches/{id}", admin(h.DeleteMatch))
	mux.HandleFunc("POST /api/matches/{id}/duplicate", admin(h.DuplicateMatch))
	mux.HandleFunc("POST /api/matches/delete", admin(h.DeleteMatches))

	// CSV import
	mux.HandleFunc("POST /api/import/preview", admin(h.PreviewImport))
	mux.HandleFunc("POST /api/import/commit", admin(h.CommitImport))

	// Review queue
	mux.HandleFunc("GET /api/review", admin(h.ListPending))
	mux.HandleFunc("POST /api/review/approve", admin(h.ApproveMatches))
	mux.HandleFunc("POST /api/review/{id}/approve", admin(h.ApproveMatch))
	mux.HandleFunc("POST /api/review/{id}/reject", admin(h.RejectMatch))

	// Tournaments
	mux.HandleFunc("GET /api/tournaments", admin(h.ListTournaments))
	mux.HandleFunc("POST /api/tournaments", admin(h.AddTournament))
	mux.HandleFunc("GET /api/tournaments/names", admin(h.ListTournamentNames))
	mux.HandleFunc("PATCH /api/tournaments/{id}", admin(h.UpdateTournament))
	mux.HandleFunc("DELETE /api/tournaments/{id}", admin(h.DeleteTournament))
	mux.HandleFunc("DELETE /api/tournaments/by-name", admin(h.DeleteTournamentByName))
	mux.HandleFunc("POST /api/tournaments/upgrade", admin(h.UpgradeTournament))

	// Scrape targets and scraper health
	mux.HandleFunc("GET /api/scrape-targets", admin(h.ListTargets))
	mux.HandleFunc("POST /api/scrape-targets", admin(h.CreateTarget))
	mux.HandleFunc("PATCH /api/scrape-targets/{id}", admin(h.UpdateTarget))
	mux.HandleFunc("DELETE /api/scrape-targets/{id}", admin(h.DeleteTarget))
	mux.HandleFunc("GET /api/scraper/health", admin(h.GetScraperHealth))
	mux.Handle("POST /api/scraper/health", ingest(h.RecordScraperHealth))
	mux.HandleFunc("GET /api/scraper/ingest-counts", admin(h.GetIngestCounts))

	// Ingest. A JSON array posted here is a bulk replace and goes through
	// the admin guard like the PUT route.
	h.bulkReplace = admin(h.ReplaceScraped)
	mux.Handle("POST /api/matches/scraped", ingest(h.IngestScraped))
	mux.HandleFunc("PUT /api/matches/scraped", h.bulkReplace)
	mux.Handle("OPTIONS /api/matches/scraped", ingest(preflight))
	mux.HandleFunc("GET /api/matches/scraped", admin(h.ListScraped))
	mux.HandleFunc("POST /api/cron/trigger-scraping", auth.BearerSecret(opts.CronSecret, h.TriggerScraping))

	// Ops
	mux.HandleFunc("GET /api/events", h.EventsSSE)
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /healthz", h.Liveness)
	mux.HandleFunc("GET /readyz", h.Readiness)
}

func preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrIngestionDisabled):
		return http.StatusServiceUnavailable
	case errs.IsValidation(err):
		return http.StatusBadRequest
	case errs.IsNotFound(err):
		return http.StatusNotFound
	case errs.IsPolicy(err):
		return http.StatusForbidden
	case errs.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := map[string]any{"error": err.Error()}

	var verr *errs.ValidationError
	if errors.As(err, &verr) && len(verr.Reasons) > 0 {
		body["reasons"] = verr.Reasons
	}
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// decode reads a bounded JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Warn("Failed to decode request", "path", r.URL.Path, "error", err)
		badRequest(w, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}
