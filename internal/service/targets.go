package service

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
)

// TargetFilter narrows a target listing. Nil pointers mean "any".
type TargetFilter struct {
	League         string
	TournamentMode *bool
	IsActive       *bool
	Limit          int
}

// TargetSummary counts every stored target regardless of the filter
type TargetSummary struct {
	Total          int            `json:"total"`
	Active         int            `json:"active"`
	TournamentMode int            `json:"tournamentMode"`
	AutoApproval   int            `json:"autoApproval"`
	ByLeague       map[string]int `json:"byLeague"`
}

// TargetList is a filtered target listing
type TargetList struct {
	Targets []models.ScrapeTarget `json:"targets"`
	Count   int                   `json:"count"`
	Summary TargetSummary         `json:"summary"`
}

// TargetPatch is a partial target update
type TargetPatch struct {
	League         *string `json:"league,omitempty"`
	TournamentName *string `json:"tournamentName,omitempty"`
	URL            *string `json:"url,omitempty"`
	IsActive       *bool   `json:"isActive,omitempty"`
	TournamentMode *bool   `json:"tournamentMode,omitempty"`
	AutoApproval   *bool   `json:"autoApproval,omitempty"`
}

// NewTarget is a target creation request. IsActive defaults to true.
type NewTarget struct {
	League         string `json:"league"`
	TournamentName string `json:"tournamentName"`
	URL            string `json:"url"`
	IsActive       *bool  `json:"isActive,omitempty"`
	TournamentMode bool   `json:"tournamentMode"`
	AutoApproval   bool   `json:"autoApproval"`
}

func (s *Service) targets(ctx context.Context) ([]models.ScrapeTarget, error) {
	return dal.LoadAll[models.ScrapeTarget](ctx, s.store, dal.CollectionScrapeTargets)
}

// ListTargets returns the targets matching f, most recently updated first.
func (s *Service) ListTargets(ctx context.Context, f TargetFilter) (TargetList, error) {
	all, err := s.targets(ctx)
	if err != nil {
		return TargetList{}, err
	}

	summary := TargetSummary{Total: len(all), ByLeague: map[string]int{}}
	for _, t := range all {
		if t.IsActive {
			summary.Active++
		}
		if t.TournamentMode {
			summary.TournamentMode++
		}
		if t.AutoApproval {
			summary.AutoApproval++
		}
		summary.ByLeague[t.League]++
	}

	out := slices.DeleteFunc(slices.Clone(all), func(t models.ScrapeTarget) bool {
		return (f.League != "" && t.League != f.League) ||
			(f.TournamentMode != nil && t.TournamentMode != *f.TournamentMode) ||
			(f.IsActive != nil && t.IsActive != *f.IsActive)
	})
	slices.SortStableFunc(out, func(a, b models.ScrapeTarget) int {
		return cmp.Compare(b.UpdatedAt, a.UpdatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return TargetList{Targets: out, Count: len(out), Summary: summary}, nil
}

// CreateTarget adds a scrape target. URLs are unique.
func (s *Service) CreateTarget(ctx context.Context, n NewTarget) (models.ScrapeTarget, error) {
	if err := s.guard(); err != nil {
		return models.ScrapeTarget{}, err
	}
	if n.League == "" || strings.TrimSpace(n.TournamentName) == "" || strings.TrimSpace(n.URL) == "" {
		return models.ScrapeTarget{}, errs.Validation("Missing required fields: league, tournamentName, url")
	}

	all, err := s.targets(ctx)
	if err != nil {
		return models.ScrapeTarget{}, err
	}
	url := strings.TrimSpace(n.URL)
	if slices.ContainsFunc(all, func(t models.ScrapeTarget) bool { return t.URL == url }) {
		return models.ScrapeTarget{}, &errs.ConflictError{Reason: "A scrape target with this URL already exists"}
	}

	now := s.now()
	t := models.ScrapeTarget{
		ID:             dal.NewID("target"),
		League:         n.League,
		TournamentName: strings.TrimSpace(n.TournamentName),
		URL:            url,
		IsActive:       n.IsActive == nil || *n.IsActive,
		TournamentMode: n.TournamentMode,
		AutoApproval:   n.AutoApproval,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := dal.ReplaceAll(ctx, s.store, dal.CollectionScrapeTargets, append(all, t)); err != nil {
		return models.ScrapeTarget{}, err
	}

	logger.Info("Scrape target created", "target_id", t.ID, "league", t.League, "url", t.URL)
	s.publish(pubsub.TargetCreated, map[string]interface{}{"id": t.ID})
	return t, nil
}

// UpdateTarget merges p into a target and bumps updatedAt.
func (s *Service) UpdateTarget(ctx context.Context, id string, p TargetPatch) (models.ScrapeTarget, error) {
	if err := s.guard(); err != nil {
		return models.ScrapeTarget{}, err
	}
	all, err := s.targets(ctx)
	if err != nil {
		return models.ScrapeTarget{}, err
	}
	i := slices.IndexFunc(all, func(t models.ScrapeTarget) bool { return t.ID == id })
	if i < 0 {
		return models.ScrapeTarget{}, errs.NotFound("Scrape target", id)
	}

	t := all[i]
	if p.League != nil {
		t.League = *p.League
	}
	if p.TournamentName != nil {
		t.TournamentName = strings.TrimSpace(*p.TournamentName)
	}
	if p.URL != nil {
		url := strings.TrimSpace(*p.URL)
		if slices.ContainsFunc(all, func(o models.ScrapeTarget) bool { return o.ID != id && o.URL == url }) {
			return models.ScrapeTarget{}, &errs.ConflictError{Reason: "A scrape target with this URL already exists"}
		}
		t.URL = url
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
	if p.TournamentMode != nil {
		t.TournamentMode = *p.TournamentMode
	}
	if p.AutoApproval != nil {
		t.AutoApproval = *p.AutoApproval
	}
	t.UpdatedAt = s.now()
	all[i] = t

	if err := dal.ReplaceAll(ctx, s.store, dal.CollectionScrapeTargets, all); err != nil {
		return models.ScrapeTarget{}, err
	}

	s.publish(pubsub.TargetUpdated, map[string]interface{}{"id": id})
	return t, nil
}

// DeleteTarget removes a target and returns it.
func (s *Service) DeleteTarget(ctx context.Context, id string) (models.ScrapeTarget, error) {
	if err := s.guard(); err != nil {
		return models.ScrapeTarget{}, err
	}
	all, err := s.targets(ctx)
	if err != nil {
		return models.ScrapeTarget{}, err
	}
	i := slices.IndexFunc(all, func(t models.ScrapeTarget) bool { return t.ID == id })
	if i < 0 {
		return models.ScrapeTarget{}, errs.NotFound("Scrape target", id)
	}

	deleted := all[i]
	if err := dal.ReplaceAll(ctx, s.store, dal.CollectionScrapeTargets, slices.Delete(all, i, i+1)); err != nil {
		return models.ScrapeTarget{}, err
	}

	logger.Info("Scrape target deleted", "target_id", id)
	s.publish(pubsub.TargetDeleted, map[string]interface{}{"id": id})
	return deleted, nil
}
