package sorting

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// RoundMatches is the leaf level of the grouping
type RoundMatches struct {
	Round   string         `json:"round"`
	Matches []models.Match `json:"matches"`
}

// DrawGroup holds the rounds of one draw
type DrawGroup struct {
	Draw   string         `json:"draw"`
	Rounds []RoundMatches `json:"rounds"`
}

// TournamentGroup holds the draws of one tournament
type TournamentGroup struct {
	Tournament string      `json:"tournament"`
	Draws      []DrawGroup `json:"draws"`
}

// GroupByTournament groups matches tournament → draw → round. Tournaments
// keep first-seen order, draws follow the draw hierarchy, rounds follow the
// bracket order, and matches within a round are ordered Live, Upcoming,
// finished, then earliest time.
func GroupByTournament(ms []models.Match) []TournamentGroup {
	type drawKey struct{ tournament, draw string }
	type roundKey struct{ tournament, draw, round string }

	var tournaments []string
	draws := map[string][]string{}
	rounds := map[drawKey][]string{}
	leaves := map[roundKey][]models.Match{}

	for _, m := range ms {
		dk := drawKey{m.TournamentName, m.DrawName}
		rk := roundKey{m.TournamentName, m.DrawName, m.Round}
		if _, ok := draws[m.TournamentName]; !ok {
			tournaments = append(tournaments, m.TournamentName)
		}
		if !slices.Contains(draws[m.TournamentName], m.DrawName) {
			draws[m.TournamentName] = append(draws[m.TournamentName], m.DrawName)
		}
		if _, ok := leaves[rk]; !ok {
			rounds[dk] = append(rounds[dk], m.Round)
		}
		leaves[rk] = append(leaves[rk], m)
	}

	out := make([]TournamentGroup, 0, len(tournaments))
	for _, t := range tournaments {
		tg := TournamentGroup{Tournament: t}
		for _, d := range SortDraws(draws[t]) {
			dg := DrawGroup{Draw: d}
			rs := slices.Clone(rounds[drawKey{t, d}])
			slices.SortStableFunc(rs, func(a, b string) int {
				return cmp.Compare(RoundPriority(a), RoundPriority(b))
			})
			for _, r := range rs {
				dg.Rounds = append(dg.Rounds, RoundMatches{Round: r, Matches: sortDrawGroup(leaves[roundKey{t, d, r}])})
			}
			tg.Draws = append(tg.Draws, dg)
		}
		out = append(out, tg)
	}
	return out
}

// SortDraws orders draw names by the draw hierarchy. Unknown draws keep their
// relative order after the known ones.
func SortDraws(names []string) []string {
	out := slices.Clone(names)
	slices.SortStableFunc(out, func(a, b string) int {
		return cmp.Compare(DrawPriority(a), DrawPriority(b))
	})
	return out
}

func sortDrawGroup(ms []models.Match) []models.Match {
	out := slices.Clone(ms)
	slices.SortStableFunc(out, func(a, b models.Match) int {
		if c := cmp.Compare(drawGroupStatus(a.Status), drawGroupStatus(b.Status)); c != 0 {
			return c
		}
		return cmp.Compare(a.Time, b.Time)
	})
	return out
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	nonWord    = regexp.MustCompile(`[^\w-]`)
)

// TournamentSlug turns a tournament name into its URL slug.
func TournamentSlug(name string) string {
	s := whitespace.ReplaceAllString(strings.ToLower(name), "-")
	return nonWord.ReplaceAllString(s, "")
}
