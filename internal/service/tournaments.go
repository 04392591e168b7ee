package service

import (
	"context"
	"slices"
	"strings"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/matches"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/sorting"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/tournaments"
)

// DeleteResult reports a tournament deletion and its cascade
type DeleteResult struct {
	Tournament     string `json:"tournament"`
	MatchesDeleted int    `json:"matchesDeleted"`
	Message        string `json:"message"`
}

// Tournaments returns the managed tournament records.
func (s *Service) Tournaments(ctx context.Context) ([]models.Tournament, error) {
	return dal.LoadAll[models.Tournament](ctx, s.store, dal.CollectionTournaments)
}

// HybridTournaments merges managed tournaments with the names found on
// matches. league filters the result; blank or "All" keeps everything.
func (s *Service) HybridTournaments(ctx context.Context, league string) ([]models.HybridTournament, error) {
	managed, err := s.Tournaments(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.AllMatches(ctx)
	if err != nil {
		return nil, err
	}
	return tournaments.FilterByLeague(tournaments.BuildHybridView(managed, all, s.Today()), league), nil
}

func validateTournament(t models.Tournament) error {
	var reasons []string
	if strings.TrimSpace(t.Name) == "" {
		reasons = append(reasons, "Tournament name is required")
	}
	if t.StartDate != "" && t.EndDate != "" && t.EndDate < t.StartDate {
		reasons = append(reasons, "End date must not be before start date")
	}
	if len(reasons) > 0 {
		return errs.Validation(reasons...)
	}
	return nil
}

// AddTournament stores a new managed tournament. A blank league is inferred
// from the name.
func (s *Service) AddTournament(ctx context.Context, t models.Tournament) (models.Tournament, error) {
	if err := s.guard(); err != nil {
		return models.Tournament{}, err
	}
	t.Name = strings.TrimSpace(t.Name)
	if err := validateTournament(t); err != nil {
		return models.Tournament{}, err
	}
	if t.League == "" {
		t.League = tournaments.InferLeague(t.Name)
	}
	t.ID = dal.NewID("tournament")

	managed, err := s.Tournaments(ctx)
	if err != nil {
		return models.Tournament{}, err
	}
	if err := dal.ReplaceAll(ctx, s.store, dal.CollectionTournaments, append(managed, t)); err != nil {
		return models.Tournament{}, err
	}

	logger.Info("Tournament added", "tournament_id", t.ID, "name", t.Name)
	s.publish(pubsub.TournamentCreated, map[string]interface{}{"id": t.ID})
	return t, nil
}

// UpdateTournament merges the non-empty fields of patch into a managed
// tournament. The id never changes.
func (s *Service) UpdateTournament(ctx context.Context, id string, patch models.Tournament) (models.Tournament, error) {
	if err := s.guard(); err != nil {
		return models.Tournament{}, err
	}
	managed, err := s.Tournaments(ctx)
	if err != nil {
		return models.Tournament{}, err
	}
	i := slices.IndexFunc(managed, func(t models.Tournament) bool { return t.ID == id })
	if i < 0 {
		return models.Tournament{}, errs.NotFound("Tournament", id)
	}

	t := managed[i]
	if patch.Name != "" {
		t.Name = strings.TrimSpace(patch.Name)
	}
	if patch.League != "" {
		t.League = patch.League
	}
	if patch.StartDate != "" {
		t.StartDate = patch.StartDate
	}
	if patch.EndDate != "" {
		t.EndDate = patch.EndDate
	}
	if err := validateTournament(t); err != nil {
		return models.Tournament{}, err
	}
	managed[i] = t
	if err := dal.ReplaceAll(ctx, s.store, dal.CollectionTournaments, managed); err != nil {
		return models.Tournament{}, err
	}

	s.publish(pubsub.TournamentUpdated, map[string]interface{}{"id": id})
	return t, nil
}

// DeleteTournament deletes a tournament by id and every match that carries
// its name. An inferred id has no managed record, so only the matches go.
func (s *Service) DeleteTournament(ctx context.Context, id string) (DeleteResult, error) {
	if err := s.guard(); err != nil {
		return DeleteResult{}, err
	}
	if tournaments.IsInferredID(id) {
		return s.DeleteTournamentByName(ctx, strings.TrimPrefix(id, tournaments.InferredIDPrefix))
	}

	managed, err := s.Tournaments(ctx)
	if err != nil {
		return DeleteResult{}, err
	}
	i := slices.IndexFunc(managed, func(t models.Tournament) bool { return t.ID == id })
	if i < 0 {
		return DeleteResult{}, errs.NotFound("Tournament", id)
	}
	return s.DeleteTournamentByName(ctx, managed[i].Name)
}

// DeleteTournamentByName removes the matches that share this exact name,
// then every managed record with it. The record is only dropped once the
// cascade succeeded, so a failed delete can be retried from the admin list.
func (s *Service) DeleteTournamentByName(ctx context.Context, name string) (DeleteResult, error) {
	if err := s.guard(); err != nil {
		return DeleteResult{}, err
	}

	msg, n, err := s.DeleteTournamentMatches(ctx, name)
	if err != nil {
		return DeleteResult{}, err
	}

	managed, err := s.Tournaments(ctx)
	if err != nil {
		return DeleteResult{}, err
	}
	kept := slices.DeleteFunc(slices.Clone(managed), func(t models.Tournament) bool { return t.Name == name })
	if len(kept) != len(managed) {
		if err := dal.ReplaceAll(ctx, s.store, dal.CollectionTournaments, kept); err != nil {
			return DeleteResult{}, err
		}
	}

	logger.Info("Tournament deleted", "name", name, "matches_deleted", n)
	s.publish(pubsub.TournamentDeleted, map[string]interface{}{"name": name, "matchesDeleted": n})
	return DeleteResult{Tournament: name, MatchesDeleted: n, Message: msg}, nil
}

// UpgradeTournament turns a tournament known only from match data into a
// managed record with the inferred dates and league.
func (s *Service) UpgradeTournament(ctx context.Context, name string) (models.Tournament, error) {
	if err := s.guard(); err != nil {
		return models.Tournament{}, err
	}
	managed, err := s.Tournaments(ctx)
	if err != nil {
		return models.Tournament{}, err
	}
	if slices.ContainsFunc(managed, func(t models.Tournament) bool { return t.Name == name }) {
		return models.Tournament{}, &errs.ConflictError{Reason: "Tournament is already managed: " + name}
	}

	all, err := s.AllMatches(ctx)
	if err != nil {
		return models.Tournament{}, err
	}
	var dates []string
	found := false
	for _, m := range all {
		if m.TournamentName != name {
			continue
		}
		found = true
		if m.Date != "" {
			dates = append(dates, m.Date)
		}
	}
	if !found {
		return models.Tournament{}, errs.NotFound("Tournament", tournaments.InferredIDPrefix+name)
	}

	t := tournaments.Infer(name, dates, s.Today())
	t.ID = dal.NewID("tournament")
	if err := dal.ReplaceAll(ctx, s.store, dal.CollectionTournaments, append(managed, t)); err != nil {
		return models.Tournament{}, err
	}

	logger.Info("Tournament upgraded", "tournament_id", t.ID, "name", name)
	s.publish(pubsub.TournamentCreated, map[string]interface{}{"id": t.ID, "upgraded": true})
	return t, nil
}

// BracketView is one tournament's public matches in bracket order
type BracketView struct {
	Tournament string              `json:"tournament"`
	League     string              `json:"league"`
	Brand      tournaments.Brand   `json:"brand"`
	Matches    []models.Match      `json:"matches"`
	Draws      []sorting.DrawGroup `json:"draws"`
}

// Bracket finds the tournament whose slug matches and returns its public
// matches. MLP events put Premier rounds first.
func (s *Service) Bracket(ctx context.Context, slug string) (BracketView, error) {
	all, err := s.AllMatches(ctx)
	if err != nil {
		return BracketView{}, err
	}
	public := matches.Filter(all, func(m models.Match) bool { return m.Status.IsPublic() })

	name := ""
	for _, m := range public {
		if sorting.TournamentSlug(m.TournamentName) == slug {
			name = m.TournamentName
			break
		}
	}
	if name == "" {
		return BracketView{}, errs.NotFound("Tournament", slug)
	}

	league := tournaments.InferLeague(name)
	managed, err := s.Tournaments(ctx)
	if err != nil {
		return BracketView{}, err
	}
	if i := slices.IndexFunc(managed, func(t models.Tournament) bool { return t.Name == name }); i >= 0 && managed[i].League != "" {
		league = managed[i].League
	}

	own := matches.WithDerivedWinners(matches.Filter(public, func(m models.Match) bool { return m.TournamentName == name }))
	view := BracketView{
		Tournament: name,
		League:     league,
		Brand:      tournaments.BrandFor(name),
		Matches:    sorting.BracketFor(league, own),
	}
	if groups := sorting.GroupByTournament(own); len(groups) > 0 {
		view.Draws = groups[0].Draws
	}
	return view, nil
}
