package matches

import "github.com/Billy-Davies-2/picklewickel-scores/internal/models"

// Winners is the derived winner pair for a match
type Winners struct {
	Team1 bool `json:"team1IsWinner"`
	Team2 bool `json:"team2IsWinner"`
}

// DeriveWinners returns the explicit winner flags when either is set.
// Otherwise a Completed match with scores is won by whoever took the last
// set. This is last-set-only, not a count of sets.
func DeriveWinners(m models.Match) Winners {
	if m.Team1.IsWinner || m.Team2.IsWinner {
		return Winners{Team1: m.Team1.IsWinner, Team2: m.Team2.IsWinner}
	}

	n := min(len(m.SetScoresTeam1), len(m.SetScoresTeam2))
	if m.Status != models.StatusCompleted || n == 0 {
		return Winners{}
	}

	a, b := m.SetScoresTeam1[n-1], m.SetScoresTeam2[n-1]
	return Winners{Team1: a > b, Team2: b > a}
}

// DetermineMatchStatus decides whether a reviewed match is over, using best of
// three. A set is won at 11 by two, or by the higher score once either side
// reaches 15. Any unfinished set makes the match Live. No scores at all is
// trusted as final.
func DetermineMatchStatus(scoresTeam1, scoresTeam2 []int) models.Status {
	if len(scoresTeam1) == 0 || len(scoresTeam2) == 0 {
		return models.StatusCompleted
	}

	team1Sets, team2Sets := 0, 0
	for i := 0; i < min(len(scoresTeam1), len(scoresTeam2)); i++ {
		s1, s2 := scoresTeam1[i], scoresTeam2[i]
		switch {
		case s1 >= 11 && s1-s2 >= 2:
			team1Sets++
		case s2 >= 11 && s2-s1 >= 2:
			team2Sets++
		case s1 >= 15 || s2 >= 15:
			if s1 > s2 {
				team1Sets++
			} else {
				team2Sets++
			}
		default:
			return models.StatusLive
		}
	}

	if team1Sets >= 2 || team2Sets >= 2 {
		return models.StatusCompleted
	}
	return models.StatusLive
}

// WithDerivedWinners returns copies of ms with the winner flags filled in by
// DeriveWinners. Stored records are never changed; this is for views only.
func WithDerivedWinners(ms []models.Match) []models.Match {
	out := make([]models.Match, len(ms))
	for i, m := range ms {
		w := DeriveWinners(m)
		c := m.Clone()
		c.Team1.IsWinner = w.Team1
		c.Team2.IsWinner = w.Team2
		out[i] = c
	}
	return out
}
