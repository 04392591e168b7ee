package service

import (
	"context"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/ingest"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/matches"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/metrics"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
)

// IngestScrape reconciles one scraper payload into the scraped collection
// and stamps the target's lastScraped. A dry run computes the same result
// and saves nothing; it is allowed while ingestion is disabled.
func (s *Service) IngestScrape(ctx context.Context, p ingest.ScrapePayload, dryRun bool) (ingest.Result, error) {
	if !dryRun {
		if err := s.guard(); err != nil {
			return ingest.Result{}, err
		}
	}

	targets, err := dal.LoadAll[models.ScrapeTarget](ctx, s.store, dal.CollectionScrapeTargets)
	if err != nil {
		return ingest.Result{}, err
	}
	existing, err := dal.LoadAll[models.Match](ctx, s.store, dal.CollectionScrapedMatches)
	if err != nil {
		return ingest.Result{}, err
	}

	out, err := s.reconciler.Reconcile(p, targets, existing)
	if err != nil {
		metrics.ScrapeIngest.WithLabelValues("rejected").Inc()
		logger.Warn("Scraped match rejected", "error", err, "target_id", p.ScrapeTargetID)
		return ingest.Result{}, err
	}
	if dryRun {
		metrics.ScrapeIngest.WithLabelValues("dry_run").Inc()
		return out.Result, nil
	}

	if err := dal.ReplaceAll(ctx, s.store, dal.CollectionScrapedMatches, out.Matches); err != nil {
		return ingest.Result{}, err
	}
	if err := dal.ReplaceAll(ctx, s.store, dal.CollectionScrapeTargets, out.Targets); err != nil {
		return ingest.Result{}, err
	}

	res := out.Result
	metrics.ScrapeIngest.WithLabelValues(string(res.Operation)).Inc()
	logger.Info("Scraped match ingested",
		"operation", res.Operation,
		"match_id", res.Match.ID,
		"target_id", p.ScrapeTargetID,
		"auto_approved", res.AutoApproved,
	)
	s.auditIngest(ctx, models.IngestEvent{
		TargetID:       p.ScrapeTargetID,
		MatchID:        res.Match.ID,
		TournamentName: res.Match.TournamentName,
		Operation:      string(res.Operation),
		AutoApproved:   res.AutoApproved,
		Confidence:     res.Confidence,
		At:             s.opts.Now(),
	})
	s.publish(pubsub.ScrapeIngested, map[string]interface{}{
		"id":           res.Match.ID,
		"operation":    string(res.Operation),
		"autoApproved": res.AutoApproved,
	})
	return res, nil
}

// ScrapedMatches returns the scraped collection as stored.
func (s *Service) ScrapedMatches(ctx context.Context) ([]models.Match, error) {
	return dal.LoadAll[models.Match](ctx, s.store, dal.CollectionScrapedMatches)
}

// ReplaceScraped overwrites the whole scraped collection. Every record is
// cleaned and validated first; an empty list clears the collection.
func (s *Service) ReplaceScraped(ctx context.Context, ms []models.Match) (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}

	cleaned := make([]models.Match, 0, len(ms))
	for _, m := range ms {
		c := matches.CleanMatchData(m)
		if err := matches.Validate(c); err != nil {
			return 0, err
		}
		cleaned = append(cleaned, c)
	}
	if err := dal.ReplaceAll(ctx, s.store, dal.CollectionScrapedMatches, cleaned); err != nil {
		return 0, err
	}

	metrics.ScrapeIngest.WithLabelValues("bulk_update").Inc()
	logger.Info("Scraped collection replaced", "count", len(cleaned))
	s.publish(pubsub.ScrapedReplaced, map[string]interface{}{"count": len(cleaned)})
	return len(cleaned), nil
}
