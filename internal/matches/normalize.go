// Package matches holds the pure match-level rules: normalization,
// fingerprinting, derived winner and status, partial updates and search.
package matches

import (
	"fmt"
	"strings"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

const (
	DefaultDrawName = "Main Draw"
	DefaultRound    = "R1"
)

// CleanMatchData is applied before every persistence write regardless of
// where the record came from. It drops blank players and fills an empty draw
// name or round. Nothing else is coerced.
func CleanMatchData(m models.Match) models.Match {
	c := m.Clone()
	c.Team1.Players = nonBlankPlayers(c.Team1.Players)
	c.Team2.Players = nonBlankPlayers(c.Team2.Players)

	if strings.TrimSpace(c.DrawName) == "" {
		c.DrawName = DefaultDrawName
	}
	if strings.TrimSpace(c.Round) == "" {
		c.Round = DefaultRound
	}
	return c
}

func nonBlankPlayers(players []models.Player) []models.Player {
	out := make([]models.Player, 0, len(players))
	for _, p := range players {
		if strings.TrimSpace(p.Name) != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the record-level invariants every ingestion path must
// uphold: score arrays pair up, the status is known and at most one team is
// marked the winner.
func Validate(m models.Match) error {
	var reasons []string

	if len(m.SetScoresTeam1) != len(m.SetScoresTeam2) {
		reasons = append(reasons, fmt.Sprintf("set score arrays differ in length (%d vs %d)",
			len(m.SetScoresTeam1), len(m.SetScoresTeam2)))
	}
	for i := range m.SetScoresTeam1 {
		if m.SetScoresTeam1[i] < 0 || (i < len(m.SetScoresTeam2) && m.SetScoresTeam2[i] < 0) {
			reasons = append(reasons, fmt.Sprintf("set %d has a negative score", i+1))
			break
		}
	}
	if !m.Status.IsPublic() && m.Status != models.StatusPendingApproval {
		reasons = append(reasons, fmt.Sprintf("invalid status %q", m.Status))
	}
	if m.Team1.IsWinner && m.Team2.IsWinner {
		reasons = append(reasons, "both teams cannot be winners")
	}

	if len(reasons) > 0 {
		return errs.Validation(reasons...)
	}
	return nil
}
