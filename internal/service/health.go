package service

import (
	"context"
	"math"
	"time"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
)

const (
	maxHealthRecords = 1000
	recentHealthRuns = 50
)

// HealthMetrics summarize the latest runs after a record is stored
type HealthMetrics struct {
	SuccessRate      int    `json:"successRate"`
	RecentSuccesses  int    `json:"recentSuccesses"`
	RecentFailures   int    `json:"recentFailures"`
	AvgDurationMs    int64  `json:"avgDurationMs"`
	MatchesProcessed int    `json:"matchesProcessed"`
	LastExecution    string `json:"lastExecution"`
	Status           string `json:"status"`
}

// HealthReport is the health log listing
type HealthReport struct {
	Logs    []models.HealthRecord `json:"logs"`
	Metrics HealthTotals          `json:"metrics"`
}

// HealthTotals count the whole (optionally workflow-filtered) log
type HealthTotals struct {
	TotalRecords       int    `json:"totalRecords"`
	SuccessCount       int    `json:"successCount"`
	FailureCount       int    `json:"failureCount"`
	OverallSuccessRate int    `json:"overallSuccessRate"`
	RecentActivity     int    `json:"recentActivity"`
	LastActivity       string `json:"lastActivity,omitempty"`
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}

// RecordHealth stores a scraper run report newest first and returns metrics
// over the last 50 runs. The health log is operational telemetry, so it is
// accepted even while ingestion is disabled.
func (s *Service) RecordHealth(ctx context.Context, r models.HealthRecord) (HealthMetrics, error) {
	if r.Status == "" || r.Workflow == "" {
		return HealthMetrics{}, errs.Validation("Missing required fields: status, workflow")
	}
	r.ID = dal.NewID("health")
	if r.Timestamp == "" {
		r.Timestamp = s.now()
	}

	logs, err := dal.LoadAll[models.HealthRecord](ctx, s.store, dal.CollectionScraperHealth)
	if err != nil {
		return HealthMetrics{}, err
	}
	logs = append([]models.HealthRecord{r}, logs...)
	if len(logs) > maxHealthRecords {
		logs = logs[:maxHealthRecords]
	}
	if err := dal.ReplaceAll(ctx, s.store, dal.CollectionScraperHealth, logs); err != nil {
		return HealthMetrics{}, err
	}

	s.auditHealth(ctx, r)
	s.publish(pubsub.ScraperHealth, map[string]interface{}{"id": r.ID, "status": r.Status, "workflow": r.Workflow})

	recent := logs[:min(len(logs), recentHealthRuns)]
	m := HealthMetrics{LastExecution: r.Timestamp, Status: r.Status}
	var durations int64
	timed := 0
	for _, l := range recent {
		switch l.Status {
		case models.HealthCompleted:
			m.RecentSuccesses++
		case models.HealthFailed:
			m.RecentFailures++
		}
		if l.Metrics == nil {
			continue
		}
		if l.Metrics.Duration != nil {
			durations += *l.Metrics.Duration
			timed++
		}
		if l.Metrics.MatchesProcessed != nil {
			m.MatchesProcessed += *l.Metrics.MatchesProcessed
		}
	}
	m.SuccessRate = percent(m.RecentSuccesses, len(recent))
	if timed > 0 {
		m.AvgDurationMs = durations / int64(timed)
	}
	return m, nil
}

// HealthLog returns up to limit records (default 50), optionally for one
// workflow, with totals and the count of records from the last 24 hours.
func (s *Service) HealthLog(ctx context.Context, limit int, workflow string) (HealthReport, error) {
	if limit <= 0 {
		limit = recentHealthRuns
	}
	logs, err := dal.LoadAll[models.HealthRecord](ctx, s.store, dal.CollectionScraperHealth)
	if err != nil {
		return HealthReport{}, err
	}
	if workflow != "" {
		filtered := logs[:0:0]
		for _, l := range logs {
			if l.Workflow == workflow {
				filtered = append(filtered, l)
			}
		}
		logs = filtered
	}

	dayAgo := models.Timestamp(s.opts.Now().Add(-24 * time.Hour))
	totals := HealthTotals{TotalRecords: len(logs)}
	for _, l := range logs {
		switch l.Status {
		case models.HealthCompleted:
			totals.SuccessCount++
		case models.HealthFailed:
			totals.FailureCount++
		}
		if l.Timestamp >= dayAgo {
			totals.RecentActivity++
		}
	}
	totals.OverallSuccessRate = percent(totals.SuccessCount, totals.TotalRecords)
	if len(logs) > 0 {
		totals.LastActivity = logs[0].Timestamp
	}

	return HealthReport{Logs: logs[:min(len(logs), limit)], Metrics: totals}, nil
}
