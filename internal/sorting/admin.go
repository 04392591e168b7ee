package sorting

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// Column is a sortable admin table column
type Column string

const (
	ColumnDate       Column = "date"
	ColumnTime       Column = "time"
	ColumnTournament Column = "tournament"
	ColumnDraw       Column = "draw"
	ColumnPlayers    Column = "players"
	ColumnStatus     Column = "status"
	ColumnCourt      Column = "court"
)

// Direction is asc or desc
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseColumn maps a query value to a column, falling back to date.
func ParseColumn(s string) Column {
	switch c := Column(strings.ToLower(s)); c {
	case ColumnDate, ColumnTime, ColumnTournament, ColumnDraw, ColumnPlayers, ColumnStatus, ColumnCourt:
		return c
	}
	return ColumnDate
}

// DefaultDirection is desc for the date column and asc for the rest.
func DefaultDirection(c Column) Direction {
	if c == ColumnDate {
		return Desc
	}
	return Asc
}

// NextSort returns the column and direction after a header click: the same
// column toggles, a new column starts at its default direction.
func NextSort(current Column, dir Direction, clicked Column) (Column, Direction) {
	if current == clicked {
		if dir == Asc {
			return clicked, Desc
		}
		return clicked, Asc
	}
	return clicked, DefaultDirection(clicked)
}

// AdminView is what the admin table shows: date descending is the default
// view; any other column or direction is an explicit single-key sort.
func AdminView(ms []models.Match, col Column, dir Direction, today string) []models.Match {
	if col == ColumnDate && dir == Desc {
		return AdminDefault(ms, today)
	}
	return ByColumn(ms, col, dir)
}

// AdminDefault puts today's matches first (Live, Upcoming, then the rest,
// each by time descending) followed by every other date, newest first.
func AdminDefault(ms []models.Match, today string) []models.Match {
	var todays, others []models.Match
	for _, m := range ms {
		if m.Date == today {
			todays = append(todays, m)
		} else {
			others = append(others, m)
		}
	}

	slices.SortStableFunc(todays, func(a, b models.Match) int {
		if c := cmp.Compare(adminStatus(a.Status), adminStatus(b.Status)); c != 0 {
			return c
		}
		return cmp.Compare(b.Time, a.Time)
	})
	slices.SortStableFunc(others, func(a, b models.Match) int {
		if c := cmp.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.Time, a.Time)
	})

	out := make([]models.Match, 0, len(ms))
	out = append(out, todays...)
	return append(out, others...)
}

// ByColumn sorts on a single column.
func ByColumn(ms []models.Match, col Column, dir Direction) []models.Match {
	key := columnKey(col)
	out := slices.Clone(ms)
	slices.SortStableFunc(out, func(a, b models.Match) int {
		c := key(a, b)
		if dir == Desc {
			return -c
		}
		return c
	})
	return out
}

func columnKey(col Column) func(a, b models.Match) int {
	switch col {
	case ColumnTime:
		return func(a, b models.Match) int { return cmp.Compare(a.Time, b.Time) }
	case ColumnTournament:
		return func(a, b models.Match) int {
			return cmp.Compare(strings.ToLower(a.TournamentName), strings.ToLower(b.TournamentName))
		}
	case ColumnDraw:
		return func(a, b models.Match) int {
			return cmp.Compare(strings.ToLower(a.DrawName), strings.ToLower(b.DrawName))
		}
	case ColumnPlayers:
		return func(a, b models.Match) int { return cmp.Compare(leadPlayer(a), leadPlayer(b)) }
	case ColumnStatus:
		return func(a, b models.Match) int { return cmp.Compare(bracketStatus(a.Status), bracketStatus(b.Status)) }
	case ColumnCourt:
		return func(a, b models.Match) int {
			return cmp.Compare(strings.ToLower(a.Court), strings.ToLower(b.Court))
		}
	}
	return func(a, b models.Match) int { return cmp.Compare(dateTime(a), dateTime(b)) }
}

func leadPlayer(m models.Match) string {
	if len(m.Team1.Players) == 0 {
		return ""
	}
	return strings.ToLower(m.Team1.Players[0].Name)
}

// ByStatusAndTime orders Live, Upcoming, Completed, Forfeit, Walkover, then
// anything else, earliest time first.
func ByStatusAndTime(ms []models.Match) []models.Match {
	out := slices.Clone(ms)
	slices.SortStableFunc(out, func(a, b models.Match) int {
		if c := cmp.Compare(bracketStatus(a.Status), bracketStatus(b.Status)); c != 0 {
			return c
		}
		return cmp.Compare(a.Time, b.Time)
	})
	return out
}
