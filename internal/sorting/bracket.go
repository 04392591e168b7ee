package sorting

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// Bracket orders a tournament's matches by round (Finals first), then status,
// then earliest time.
func Bracket(ms []models.Match) []models.Match {
	out := slices.Clone(ms)
	slices.SortStableFunc(out, compareBracket)
	return out
}

// BracketMLP puts every Premier level match before Challenger level, then
// applies the Bracket order within each level.
func BracketMLP(ms []models.Match) []models.Match {
	out := slices.Clone(ms)
	slices.SortStableFunc(out, func(a, b models.Match) int {
		ap, bp := isPremier(a.Round), isPremier(b.Round)
		if ap != bp {
			if ap {
				return -1
			}
			return 1
		}
		return compareBracket(a, b)
	})
	return out
}

// BracketFor picks the MLP variant for MLP tournaments.
func BracketFor(league string, ms []models.Match) []models.Match {
	if strings.EqualFold(league, "MLP") {
		return BracketMLP(ms)
	}
	return Bracket(ms)
}

func isPremier(round string) bool {
	return strings.Contains(strings.ToLower(round), "premier")
}

func compareBracket(a, b models.Match) int {
	if c := cmp.Compare(RoundPriority(a.Round), RoundPriority(b.Round)); c != 0 {
		return c
	}
	if c := cmp.Compare(bracketStatus(a.Status), bracketStatus(b.Status)); c != 0 {
		return c
	}
	return cmp.Compare(a.Time, b.Time)
}
