package matches

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// FormatPlayers renders a team as "A / B", or "TBD" when it has no players.
func FormatPlayers(t models.Team) string {
	if len(t.Players) == 0 {
		return "TBD"
	}
	return strings.Join(t.Names(), " / ")
}

// FormatScores renders set pairs as "11-5, 11-7", or "-" with no scores.
func FormatScores(scoresTeam1, scoresTeam2 []int) string {
	if len(scoresTeam1) == 0 || len(scoresTeam2) == 0 {
		return "-"
	}

	sets := make([]string, 0, len(scoresTeam1))
	for i, s1 := range scoresTeam1 {
		s2 := 0
		if i < len(scoresTeam2) {
			s2 = scoresTeam2[i]
		}
		sets = append(sets, fmt.Sprintf("%d-%d", s1, s2))
	}
	return strings.Join(sets, ", ")
}

// FormatTime12h turns "14:05" into "2:05 PM". Anything without a colon is
// returned unchanged.
func FormatTime12h(hhmm string) string {
	hours, minutes, ok := strings.Cut(hhmm, ":")
	if !ok {
		return hhmm
	}
	h, err := strconv.Atoi(hours)
	if err != nil {
		return hhmm
	}

	ampm := "AM"
	if h >= 12 {
		ampm = "PM"
	}
	h12 := h
	switch {
	case h == 0:
		h12 = 12
	case h > 12:
		h12 = h - 12
	}
	return fmt.Sprintf("%d:%s %s", h12, minutes, ampm)
}
