package ingest

import (
	"time"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/matches"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// Operation is the outcome of a single reconciled payload
type Operation string

const (
	OperationCreated Operation = "created"
	OperationUpdated Operation = "updated"
)

// Result is what the ingestion endpoint reports back to the scraper
type Result struct {
	Operation    Operation    `json:"operation"`
	Match        models.Match `json:"match"`
	AutoApproved bool         `json:"autoApproved"`
	Confidence   string       `json:"confidence"`
}

// Outcome carries the result together with the collections to persist.
type Outcome struct {
	Result  Result
	Matches []models.Match
	Targets []models.ScrapeTarget
}

// Reconciler merges scraper payloads into the scraped collection
type Reconciler struct {
	Now   func() time.Time
	NewID func() string
}

// NewReconciler returns a reconciler on the wall clock with scraped_ ids.
func NewReconciler() *Reconciler {
	return &Reconciler{
		Now:   time.Now,
		NewID: func() string { return dal.NewID("scraped") },
	}
}

// Reconcile validates p against its scrape target and computes the new
// scraped collection and target list. Nothing is persisted here.
//
// Identity is externalRefId only: a match carrying one that is already stored
// is replaced in place and keeps its id; anything else is appended.
// Unless the target auto-approves, the status is forced to pending_approval.
func (r *Reconciler) Reconcile(p ScrapePayload, targets []models.ScrapeTarget, existing []models.Match) (Outcome, error) {
	m, err := p.Normalize()
	if err != nil {
		return Outcome{}, err
	}

	idx := -1
	for i, t := range targets {
		if t.ID == p.ScrapeTargetID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Outcome{}, errs.NotFound("Scrape target", p.ScrapeTargetID)
	}
	target := targets[idx]
	if !target.TournamentMode {
		return Outcome{}, errs.Policy("Tournament mode not enabled for this target")
	}

	if !target.AutoApproval {
		m.Status = models.StatusPendingApproval
	}
	if err := matches.Validate(m); err != nil {
		return Outcome{}, err
	}

	now := models.Timestamp(r.Now())
	m.ScrapedAt = now

	op := OperationCreated
	out := make([]models.Match, 0, len(existing)+1)
	replaced := false
	for _, e := range existing {
		if !replaced && m.ExternalRefID != "" && e.ExternalRefID == m.ExternalRefID {
			m.ID = e.ID
			op = OperationUpdated
			replaced = true
			out = append(out, m)
			continue
		}
		out = append(out, e)
	}
	if !replaced {
		m.ID = r.NewID()
		out = append(out, m)
	}

	updatedTargets := make([]models.ScrapeTarget, len(targets))
	copy(updatedTargets, targets)
	updatedTargets[idx].LastScraped = now

	return Outcome{
		Result: Result{
			Operation:    op,
			Match:        m,
			AutoApproved: target.AutoApproval,
			Confidence:   m.Confidence,
		},
		Matches: out,
		Targets: updatedTargets,
	}, nil
}
