package matches

import (
	"strings"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// Search keeps matches whose player names, tournament, draw, round or court
// contain the query, case-insensitively. A blank query returns the input.
func Search(ms []models.Match, query string) []models.Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ms
	}

	out := make([]models.Match, 0, len(ms))
	for _, m := range ms {
		players := strings.ToLower(strings.Join(m.AllPlayerNames(), " "))
		if strings.Contains(players, q) ||
			strings.Contains(strings.ToLower(m.TournamentName), q) ||
			strings.Contains(strings.ToLower(m.DrawName), q) ||
			strings.Contains(strings.ToLower(m.Round), q) ||
			strings.Contains(strings.ToLower(m.Court), q) {
			out = append(out, m)
		}
	}
	return out
}

// Filter keeps matches for which keep returns true.
func Filter(ms []models.Match, keep func(models.Match) bool) []models.Match {
	out := make([]models.Match, 0, len(ms))
	for _, m := range ms {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
