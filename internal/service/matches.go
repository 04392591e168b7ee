package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/ingest"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/matches"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/sorting"
)

// collections holds both match documents. Admin and public views read the
// union; a change addressed by id is written back where the record lives.
type collections struct {
	manual  []models.Match
	scraped []models.Match
}

func (c *collections) all() []models.Match {
	out := make([]models.Match, 0, len(c.manual)+len(c.scraped))
	out = append(out, c.manual...)
	return append(out, c.scraped...)
}

// locate returns the collection holding id, a pointer to its slice and the
// index. ok is false when no record has that id.
func (c *collections) locate(id string) (dal.Collection, *[]models.Match, int, bool) {
	if i := indexOf(c.manual, id); i >= 0 {
		return dal.CollectionMatches, &c.manual, i, true
	}
	if i := indexOf(c.scraped, id); i >= 0 {
		return dal.CollectionScrapedMatches, &c.scraped, i, true
	}
	return "", nil, -1, false
}

func indexOf(ms []models.Match, id string) int {
	return slices.IndexFunc(ms, func(m models.Match) bool { return m.ID == id })
}

func (s *Service) load(ctx context.Context) (*collections, error) {
	manual, err := dal.LoadAll[models.Match](ctx, s.store, dal.CollectionMatches)
	if err != nil {
		return nil, err
	}
	scraped, err := dal.LoadAll[models.Match](ctx, s.store, dal.CollectionScrapedMatches)
	if err != nil {
		return nil, err
	}
	return &collections{manual: manual, scraped: scraped}, nil
}

// removeWhere drops matching records from both collections and writes back
// only the documents that changed. The manual collection is written before
// the scraped one; if the second write fails the first has already landed
// and the returned count covers it.
func (s *Service) removeWhere(ctx context.Context, c *collections, drop func(models.Match) bool) (int, error) {
	removed := 0
	for _, part := range []struct {
		coll dal.Collection
		ms   *[]models.Match
	}{
		{dal.CollectionMatches, &c.manual},
		{dal.CollectionScrapedMatches, &c.scraped},
	} {
		before := len(*part.ms)
		kept := slices.DeleteFunc(slices.Clone(*part.ms), drop)
		if len(kept) == before {
			continue
		}
		if err := dal.ReplaceAll(ctx, s.store, part.coll, kept); err != nil {
			return removed, err
		}
		*part.ms = kept
		removed += before - len(kept)
	}
	return removed, nil
}

// AllMatches returns the union of the manual and scraped collections.
func (s *Service) AllMatches(ctx context.Context) ([]models.Match, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return c.all(), nil
}

// GetMatch looks a match up by id in either collection.
func (s *Service) GetMatch(ctx context.Context, id string) (models.Match, error) {
	c, err := s.load(ctx)
	if err != nil {
		return models.Match{}, err
	}
	_, ms, i, ok := c.locate(id)
	if !ok {
		return models.Match{}, errs.NotFound("Match", id)
	}
	return (*ms)[i], nil
}

// MatchQuery drives the admin table
type MatchQuery struct {
	Sort       string
	Dir        string
	Query      string
	Status     string
	Tournament string
}

// ListMatches filters, searches and sorts the admin table.
func (s *Service) ListMatches(ctx context.Context, q MatchQuery) ([]models.Match, error) {
	all, err := s.AllMatches(ctx)
	if err != nil {
		return nil, err
	}

	if q.Status != "" {
		all = matches.Filter(all, func(m models.Match) bool { return string(m.Status) == q.Status })
	}
	if q.Tournament != "" {
		all = matches.Filter(all, func(m models.Match) bool { return m.TournamentName == q.Tournament })
	}
	all = matches.Search(all, q.Query)

	col := sorting.ParseColumn(q.Sort)
	dir := sorting.DefaultDirection(col)
	switch sorting.Direction(strings.ToLower(q.Dir)) {
	case sorting.Asc:
		dir = sorting.Asc
	case sorting.Desc:
		dir = sorting.Desc
	}
	return sorting.AdminView(matches.WithDerivedWinners(all), col, dir, s.Today()), nil
}

// Create validates an admin-entered match and stores it under a new id.
func (s *Service) Create(ctx context.Context, m models.Match) (models.Match, error) {
	if err := s.guard(); err != nil {
		return models.Match{}, err
	}
	created, err := ingest.ManualPayload{Match: m}.Normalize()
	if err != nil {
		return models.Match{}, err
	}
	created.ID = dal.NewMatchID()

	manual, err := dal.LoadAll[models.Match](ctx, s.store, dal.CollectionMatches)
	if err != nil {
		return models.Match{}, err
	}
	if err := dal.ReplaceAll(ctx, s.store, dal.CollectionMatches, append(manual, created)); err != nil {
		return models.Match{}, err
	}

	logger.Info("Match created", "match_id", created.ID, "tournament", created.TournamentName)
	s.publish(pubsub.MatchCreated, map[string]interface{}{"id": created.ID})
	return created, nil
}

// CreateBulk validates every match first and stores none of them if any is
// invalid.
func (s *Service) CreateBulk(ctx context.Context, ms []models.Match) ([]models.Match, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	created := make([]models.Match, 0, len(ms))
	for i, m := range ms {
		c, err := ingest.ManualPayload{Match: m}.Normalize()
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", i+1, err)
		}
		c.ID = dal.NewMatchID()
		created = append(created, c)
	}
	if len(created) == 0 {
		return created, nil
	}

	manual, err := dal.LoadAll[models.Match](ctx, s.store, dal.CollectionMatches)
	if err != nil {
		return nil, err
	}
	if err := dal.ReplaceAll(ctx, s.store, dal.CollectionMatches, append(manual, created...)); err != nil {
		return nil, err
	}

	logger.Info("Matches created", "count", len(created))
	s.publish(pubsub.MatchesBulkCreated, map[string]interface{}{"count": len(created)})
	return created, nil
}

// Update deep-merges patch into the match with the given id.
func (s *Service) Update(ctx context.Context, id string, patch map[string]any) (models.Match, error) {
	if err := s.guard(); err != nil {
		return models.Match{}, err
	}
	c, err := s.load(ctx)
	if err != nil {
		return models.Match{}, err
	}
	coll, ms, i, ok := c.locate(id)
	if !ok {
		return models.Match{}, errs.NotFound("Match", id)
	}

	updated, err := matches.ApplyPatch((*ms)[i], patch)
	if err != nil {
		return models.Match{}, err
	}
	(*ms)[i] = updated
	if err := dal.ReplaceAll(ctx, s.store, coll, *ms); err != nil {
		return models.Match{}, err
	}

	logger.Info("Match updated", "match_id", id, "collection", coll)
	s.publish(pubsub.MatchUpdated, map[string]interface{}{"id": id})
	return updated, nil
}

// Delete removes one match.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.guard(); err != nil {
		return err
	}
	c, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, _, _, ok := c.locate(id); !ok {
		return errs.NotFound("Match", id)
	}
	if _, err := s.removeWhere(ctx, c, func(m models.Match) bool { return m.ID == id }); err != nil {
		return err
	}

	s.publish(pubsub.MatchDeleted, map[string]interface{}{"id": id})
	return nil
}

// DeleteMany removes every listed match and reports how many existed.
// Unknown ids are ignored.
func (s *Service) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	c, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.removeWhere(ctx, c, func(m models.Match) bool { return slices.Contains(ids, m.ID) })
	if err != nil {
		return n, err
	}
	if n > 0 {
		s.publish(pubsub.MatchesBulkDeleted, map[string]interface{}{"ids": ids, "count": n})
	}
	return n, nil
}

// Duplicate copies a match under a new id into the same collection. The
// copy drops the external reference so the scraper never updates it.
func (s *Service) Duplicate(ctx context.Context, id string) (models.Match, error) {
	if err := s.guard(); err != nil {
		return models.Match{}, err
	}
	c, err := s.load(ctx)
	if err != nil {
		return models.Match{}, err
	}
	coll, ms, i, ok := c.locate(id)
	if !ok {
		return models.Match{}, errs.NotFound("Match", id)
	}

	dup := matches.CleanMatchData((*ms)[i])
	dup.ID = dal.NewMatchID()
	dup.ExternalRefID = ""
	if err := dal.ReplaceAll(ctx, s.store, coll, append(*ms, dup)); err != nil {
		return models.Match{}, err
	}

	s.publish(pubsub.MatchCreated, map[string]interface{}{"id": dup.ID, "duplicateOf": id})
	return dup, nil
}

// DeleteTournamentMatches removes every match whose tournament name equals
// name exactly, and returns the admin-facing message with the count.
func (s *Service) DeleteTournamentMatches(ctx context.Context, name string) (string, int, error) {
	if err := s.guard(); err != nil {
		return "", 0, err
	}
	c, err := s.load(ctx)
	if err != nil {
		return "", 0, err
	}
	n, err := s.removeWhere(ctx, c, func(m models.Match) bool { return m.TournamentName == name })
	if err != nil {
		return "", n, err
	}
	if n == 0 {
		return fmt.Sprintf("Tournament %q has no matches to delete.", name), 0, nil
	}

	logger.Info("Tournament matches deleted", "tournament", name, "count", n)
	s.publish(pubsub.MatchesBulkDeleted, map[string]interface{}{"tournament": name, "count": n})
	return deletedMessage(name, n), n, nil
}

func deletedMessage(name string, n int) string {
	noun := "match"
	if n > 1 {
		noun = "matches"
	}
	return fmt.Sprintf("Successfully deleted tournament %q and %d associated %s.", name, n, noun)
}

// UniqueTournaments lists every tournament name found on matches, sorted.
func (s *Service) UniqueTournaments(ctx context.Context) ([]string, error) {
	counts, err := s.MatchCountByTournament(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// MatchCountByTournament counts matches per tournament name.
func (s *Service) MatchCountByTournament(ctx context.Context) (map[string]int, error) {
	all, err := s.AllMatches(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, m := range all {
		counts[m.TournamentName]++
	}
	return counts, nil
}

// ByDate returns the matches on one date ordered by status then time.
func (s *Service) ByDate(ctx context.Context, date string) ([]models.Match, error) {
	all, err := s.AllMatches(ctx)
	if err != nil {
		return nil, err
	}
	day := matches.Filter(all, func(m models.Match) bool { return m.Date == date })
	return sorting.ByStatusAndTime(matches.WithDerivedWinners(day)), nil
}

// Search is a case-insensitive substring search over both collections.
func (s *Service) Search(ctx context.Context, query string) ([]models.Match, error) {
	all, err := s.AllMatches(ctx)
	if err != nil {
		return nil, err
	}
	return matches.Search(all, query), nil
}
