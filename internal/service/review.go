package service

import (
	"context"
	"slices"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/matches"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/sorting"
)

// ListPending returns the review queue, newest first.
func (s *Service) ListPending(ctx context.Context) ([]models.Match, error) {
	all, err := s.AllMatches(ctx)
	if err != nil {
		return nil, err
	}
	pending := matches.Filter(all, func(m models.Match) bool { return m.Status == models.StatusPendingApproval })
	return sorting.ByColumn(pending, sorting.ColumnDate, sorting.Desc), nil
}

// Approve publishes a pending match with the status its scores imply.
func (s *Service) Approve(ctx context.Context, id string) (models.Match, error) {
	approved, err := s.ApproveMany(ctx, []string{id})
	if err != nil {
		return models.Match{}, err
	}
	return approved[0], nil
}

// ApproveMany approves every listed match in one write per collection. Any
// unknown or non-pending id fails the whole batch.
func (s *Service) ApproveMany(ctx context.Context, ids []string) ([]models.Match, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errs.Validation("No match ids given")
	}
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	touched := map[dal.Collection]*[]models.Match{}
	approved := make([]models.Match, 0, len(ids))
	for _, id := range ids {
		coll, ms, i, ok := c.locate(id)
		if !ok {
			return nil, errs.NotFound("Match", id)
		}
		m := (*ms)[i]
		if m.Status != models.StatusPendingApproval {
			return nil, errs.Policy("Match is not pending approval: " + id)
		}
		m.Status = matches.DetermineMatchStatus(m.SetScoresTeam1, m.SetScoresTeam2)
		(*ms)[i] = m
		touched[coll] = ms
		approved = append(approved, m)
	}

	for _, coll := range []dal.Collection{dal.CollectionMatches, dal.CollectionScrapedMatches} {
		ms, ok := touched[coll]
		if !ok {
			continue
		}
		if err := dal.ReplaceAll(ctx, s.store, coll, *ms); err != nil {
			return nil, err
		}
	}

	for _, m := range approved {
		logger.Info("Match approved", "match_id", m.ID, "status", m.Status)
		s.publish(pubsub.MatchApproved, map[string]interface{}{"id": m.ID, "status": string(m.Status)})
	}
	return approved, nil
}

// Reject deletes a pending match.
func (s *Service) Reject(ctx context.Context, id string) error {
	if err := s.guard(); err != nil {
		return err
	}
	c, err := s.load(ctx)
	if err != nil {
		return err
	}
	_, ms, i, ok := c.locate(id)
	if !ok {
		return errs.NotFound("Match", id)
	}
	if (*ms)[i].Status != models.StatusPendingApproval {
		return errs.Policy("Match is not pending approval: " + id)
	}
	if _, err := s.removeWhere(ctx, c, func(m models.Match) bool { return m.ID == id }); err != nil {
		return err
	}

	logger.Info("Match rejected", "match_id", id)
	s.publish(pubsub.MatchRejected, map[string]interface{}{"id": id})
	return nil
}

// PendingIDs returns the ids in the review queue in a stable order.
func PendingIDs(ms []models.Match) []string {
	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		if m.Status == models.StatusPendingApproval {
			ids = append(ids, m.ID)
		}
	}
	slices.Sort(ids)
	return ids
}
