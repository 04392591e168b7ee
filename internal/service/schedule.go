package service

import (
	"context"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/matches"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/sorting"
)

// ScheduleView is the public schedule for one date plus the dates that have
// public matches
type ScheduleView struct {
	sorting.Schedule
	Dates []string `json:"dates"`
}

// Schedule builds the public schedule. A blank date picks today when it has
// matches, otherwise the earliest date with matches.
func (s *Service) Schedule(ctx context.Context, date string) (ScheduleView, error) {
	all, err := s.AllMatches(ctx)
	if err != nil {
		return ScheduleView{}, err
	}
	dates := sorting.AvailableDates(all)
	picked := sorting.PickDate(dates, date, s.Today())
	return ScheduleView{Schedule: sorting.PublicSchedule(matches.WithDerivedWinners(all), picked), Dates: dates}, nil
}

// Dates lists the dates that have public matches, ascending.
func (s *Service) Dates(ctx context.Context) ([]string, error) {
	all, err := s.AllMatches(ctx)
	if err != nil {
		return nil, err
	}
	return sorting.AvailableDates(all), nil
}

// EmptySchedule is what the public page shows when the store is unreachable.
func (s *Service) EmptySchedule(date string) ScheduleView {
	if date == "" {
		date = s.Today()
	}
	return ScheduleView{Schedule: sorting.PublicSchedule(nil, date), Dates: []string{}}
}
