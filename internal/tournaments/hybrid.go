// Package tournaments reconciles managed tournament records with the
// tournaments that only exist as names on matches.
package tournaments

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// InferredIDPrefix marks a tournament synthesized from match data.
const InferredIDPrefix = "inferred-"

// BuildHybridView lists every tournament name found on matches plus every
// managed tournament. Managed data wins for a name that has both. Inferred
// tournaments span the min and max match date, falling back to today when
// none of their matches has a date. The result is sorted by name.
func BuildHybridView(managed []models.Tournament, all []models.Match, today string) []models.HybridTournament {
	byName := make(map[string]models.Tournament, len(managed))
	for _, t := range managed {
		byName[t.Name] = t
	}

	var names []string
	counts := map[string]int{}
	dates := map[string][]string{}
	for _, m := range all {
		if _, ok := counts[m.TournamentName]; !ok {
			names = append(names, m.TournamentName)
		}
		counts[m.TournamentName]++
		if m.Date != "" {
			dates[m.TournamentName] = append(dates[m.TournamentName], m.Date)
		}
	}

	out := make([]models.HybridTournament, 0, len(names)+len(managed))
	for _, name := range names {
		if t, ok := byName[name]; ok {
			out = append(out, models.HybridTournament{Tournament: t, IsManaged: true, MatchCount: counts[name]})
			continue
		}
		out = append(out, models.HybridTournament{Tournament: Infer(name, dates[name], today), MatchCount: counts[name]})
	}
	for _, t := range managed {
		if _, ok := counts[t.Name]; !ok {
			out = append(out, models.HybridTournament{Tournament: t, IsManaged: true})
		}
	}

	slices.SortStableFunc(out, func(a, b models.HybridTournament) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}

// Infer synthesizes a tournament record for a name that is only known from
// match data.
func Infer(name string, dates []string, today string) models.Tournament {
	t := models.Tournament{
		ID:        InferredIDPrefix + name,
		Name:      name,
		League:    InferLeague(name),
		StartDate: today,
		EndDate:   today,
	}
	if len(dates) > 0 {
		t.StartDate = slices.Min(dates)
		t.EndDate = slices.Max(dates)
	}
	return t
}

// IsInferredID reports whether id belongs to a synthesized tournament.
func IsInferredID(id string) bool {
	return strings.HasPrefix(id, InferredIDPrefix)
}

// FilterByLeague keeps tournaments of one league. "All" or blank keeps everything.
func FilterByLeague(ts []models.HybridTournament, league string) []models.HybridTournament {
	if league == "" || strings.EqualFold(league, "All") {
		return ts
	}
	out := make([]models.HybridTournament, 0, len(ts))
	for _, t := range ts {
		if t.League == league {
			out = append(out, t)
		}
	}
	return out
}
