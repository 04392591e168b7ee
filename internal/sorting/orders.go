// Package sorting implements the named orderings and groupings used by the
// admin table, the public schedule and the tournament bracket pages. Every
// function is stable and returns a new slice.
package sorting

import "github.com/Billy-Davies-2/picklewickel-scores/internal/models"

// roundOrder ranks rounds from Finals down to the consolation draws.
var roundOrder = map[string]int{
	"Finals":        1,
	"Bronze Match":  2,
	"Semifinals":    3,
	"Quarterfinals": 4,
	"Round of 16":   5,
	"Round of 32":   6,
	"Round of 64":   7,
	"Round of 128":  8,
	"Pool Play":     20,
	"Qualifiers":    98,
	"Back Draw":     99,
}

const defaultRoundPriority = 50

// RoundPriority returns the bracket rank of a round name. Unknown rounds sit
// between the knockout rounds and Pool Play.
func RoundPriority(round string) int {
	if p, ok := roundOrder[round]; ok {
		return p
	}
	return defaultRoundPriority
}

// drawOrder is the semantic hierarchy of draw names within a tournament.
var drawOrder = map[string]int{
	// Pro
	"Men's Doubles":   1,
	"Women's Doubles": 2,
	"Mixed Doubles":   3,
	"Men's Singles":   4,
	"Women's Singles": 5,
	// Senior
	"Senior Men's Doubles":   10,
	"Senior Women's Doubles": 11,
	"Senior Mixed Doubles":   12,
	"Senior Men's Singles":   13,
	"Senior Women's Singles": 14,
	// Champions
	"Champions Men's Doubles":   20,
	"Champions Women's Doubles": 21,
	"Champions Mixed Doubles":   22,
	"Champions Men's Singles":   23,
	"Champions Women's Singles": 24,
	// Masters
	"Masters Men's Doubles":   30,
	"Masters Women's Doubles": 31,
	"Masters Mixed Doubles":   32,
	"Masters Men's Singles":   33,
	"Masters Women's Singles": 34,
}

const defaultDrawPriority = 99

// DrawPriority returns the display rank of a draw name.
func DrawPriority(draw string) int {
	if p, ok := drawOrder[draw]; ok {
		return p
	}
	return defaultDrawPriority
}

// PriorityRounds are always shown expanded on the public schedule, in this order.
var PriorityRounds = []string{"Finals", "Bronze Match", "Semifinals", "Quarterfinals", "Round of 16", "Round of 32"}

func isPriorityRound(round string) bool {
	for _, r := range PriorityRounds {
		if r == round {
			return true
		}
	}
	return false
}

// bracketStatus orders Live, Upcoming, Completed, Forfeit, Walkover, then anything else.
func bracketStatus(s models.Status) int {
	switch s {
	case models.StatusLive:
		return 0
	case models.StatusUpcoming:
		return 1
	case models.StatusCompleted:
		return 2
	case models.StatusForfeit:
		return 3
	case models.StatusWalkover:
		return 4
	}
	return 5
}

// adminStatus collapses every finished state together after Live and Upcoming.
func adminStatus(s models.Status) int {
	switch s {
	case models.StatusLive:
		return 0
	case models.StatusUpcoming:
		return 1
	}
	return 2
}

// scheduleStatus puts Upcoming first within a public round bucket.
func scheduleStatus(s models.Status) int {
	switch {
	case s == models.StatusUpcoming:
		return 0
	case s.IsFinal():
		return 1
	}
	return 2
}

// drawGroupStatus is the within-draw order on the scores page.
func drawGroupStatus(s models.Status) int {
	switch {
	case s == models.StatusLive:
		return 0
	case s == models.StatusUpcoming:
		return 1
	case s.IsFinal():
		return 2
	}
	return 3
}

// dateTime is the combined chronological key. Dates and times are zero padded
// so the concatenation sorts lexically.
func dateTime(m models.Match) string {
	return m.Date + "T" + m.Time
}
