package sorting

import (
	"cmp"
	"slices"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// RoundGroup is one round bucket on the public schedule
type RoundGroup struct {
	Round    string         `json:"round"`
	Expanded bool           `json:"expanded"`
	Matches  []models.Match `json:"matches"`
}

// Schedule is the public view of a single date
type Schedule struct {
	Date        string         `json:"date"`
	Live        []models.Match `json:"live"`
	Priority    []RoundGroup   `json:"priority"`
	Collapsible []RoundGroup   `json:"collapsible"`
}

// Empty reports whether the schedule has nothing to show.
func (s Schedule) Empty() bool {
	return len(s.Live) == 0 && len(s.Priority) == 0 && len(s.Collapsible) == 0
}

// PublicSchedule buckets the matches of one date. Live matches come first.
// The remaining matches are grouped by round: priority rounds are always
// expanded, every other round is collapsed unless there are no priority
// rounds, in which case the first one opens. Pending matches never appear.
func PublicSchedule(ms []models.Match, date string) Schedule {
	s := Schedule{Date: date, Live: []models.Match{}, Priority: []RoundGroup{}, Collapsible: []RoundGroup{}}

	byRound := map[string][]models.Match{}
	var rounds []string
	for _, m := range ms {
		if m.Date != date || !m.Status.IsPublic() {
			continue
		}
		if m.Status == models.StatusLive {
			s.Live = append(s.Live, m)
			continue
		}
		if _, ok := byRound[m.Round]; !ok {
			rounds = append(rounds, m.Round)
		}
		byRound[m.Round] = append(byRound[m.Round], m)
	}

	s.Live = sortRoundBucket(s.Live)

	for _, r := range PriorityRounds {
		if group, ok := byRound[r]; ok {
			s.Priority = append(s.Priority, RoundGroup{Round: r, Expanded: true, Matches: sortRoundBucket(group)})
		}
	}

	rest := slices.DeleteFunc(slices.Clone(rounds), isPriorityRound)
	slices.SortStableFunc(rest, func(a, b string) int {
		return cmp.Compare(RoundPriority(a), RoundPriority(b))
	})
	for _, r := range rest {
		s.Collapsible = append(s.Collapsible, RoundGroup{Round: r, Matches: sortRoundBucket(byRound[r])})
	}
	if len(s.Priority) == 0 && len(s.Collapsible) > 0 {
		s.Collapsible[0].Expanded = true
	}
	return s
}

// sortRoundBucket orders Upcoming first, then finished matches, then the
// rest, latest time first.
func sortRoundBucket(ms []models.Match) []models.Match {
	out := slices.Clone(ms)
	slices.SortStableFunc(out, func(a, b models.Match) int {
		if c := cmp.Compare(scheduleStatus(a.Status), scheduleStatus(b.Status)); c != 0 {
			return c
		}
		return cmp.Compare(b.Time, a.Time)
	})
	if out == nil {
		return []models.Match{}
	}
	return out
}

// AvailableDates returns the distinct dates of public matches, ascending.
func AvailableDates(ms []models.Match) []string {
	seen := map[string]struct{}{}
	dates := []string{}
	for _, m := range ms {
		if !m.Status.IsPublic() || m.Date == "" {
			continue
		}
		if _, ok := seen[m.Date]; ok {
			continue
		}
		seen[m.Date] = struct{}{}
		dates = append(dates, m.Date)
	}
	slices.Sort(dates)
	return dates
}

// PickDate chooses the date to open the schedule on. An explicitly requested
// date always wins; otherwise today if it has matches, else the earliest date.
func PickDate(dates []string, requested, today string) string {
	if requested != "" {
		return requested
	}
	if slices.Contains(dates, today) || len(dates) == 0 {
		return today
	}
	return dates[0]
}
