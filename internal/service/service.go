// Package service runs every match, tournament and scrape-target operation
// against the key-value store. Each mutation is a whole-document
// read-modify-write followed by an event on the bus.
package service

import (
	"context"
	"net/http"
	"time"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/csvimport"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/ingest"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
)

// AuditSink receives a copy of every ingest outcome and health record for
// long-term retention. Failures are logged and never fail the operation.
type AuditSink interface {
	RecordIngest(ctx context.Context, e models.IngestEvent) error
	RecordHealth(ctx context.Context, r models.HealthRecord) error
}

// Options configures a Service
type Options struct {
	// IngestionEnabled is the kill switch. When false every mutating
	// operation returns errs.ErrIngestionDisabled.
	IngestionEnabled bool
	WebhookURL       string
	HTTPClient       *http.Client
	Location         *time.Location
	Now              func() time.Time
}

// Service is the application core shared by the HTTP, gRPC and CLI surfaces
type Service struct {
	store      dal.Store
	events     pubsub.Publisher
	audit      AuditSink
	reconciler *ingest.Reconciler
	parsers    *csvimport.Factory
	opts       Options
}

// New creates a service over store. events may be nil.
func New(store dal.Store, events pubsub.Publisher, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	r := ingest.NewReconciler()
	r.Now = opts.Now

	return &Service{
		store:      store,
		events:     events,
		reconciler: r,
		parsers:    csvimport.NewFactory(),
		opts:       opts,
	}
}

// WithAudit attaches an audit sink.
func (s *Service) WithAudit(a AuditSink) *Service {
	s.audit = a
	return s
}

// IngestionEnabled reports the kill switch state.
func (s *Service) IngestionEnabled() bool {
	return s.opts.IngestionEnabled
}

// Today is the current date in the configured timezone.
func (s *Service) Today() string {
	return s.opts.Now().In(s.opts.Location).Format("2006-01-02")
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) guard() error {
	if !s.opts.IngestionEnabled {
		return errs.ErrIngestionDisabled
	}
	return nil
}

func (s *Service) publish(eventType string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(pubsub.NewEvent(eventType, payload))
}

func (s *Service) now() string {
	return models.Timestamp(s.opts.Now())
}

func (s *Service) auditIngest(ctx context.Context, e models.IngestEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordIngest(ctx, e); err != nil {
		logger.Warn("Failed to record ingest audit event", "error", err, "match_id", e.MatchID)
	}
}

func (s *Service) auditHealth(ctx context.Context, r models.HealthRecord) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordHealth(ctx, r); err != nil {
		logger.Warn("Failed to record health audit event", "error", err, "health_id", r.ID)
	}
}
