package timeline

import (
	"fmt"

	md "wuyrush.io/chronos/models"
)

// Level is the zoom level of the timeline
type Level string

const (
	LevelYearOverview Level = "YEAR_OVERVIEW"
	LevelMonthDetail  Level = "MONTH_DETAIL"
)

// DefaultYear is the year a fresh timeline is centered on
const DefaultYear = 2025

// ViewState is the immutable zoom state of a visitor's timeline. Year is the year shown in month detail, and is
// kept while at the overview so re-entering lands where the visitor left.
type ViewState struct {
	Level Level `json:"level"`
	Year  int   `json:"year"`
}

// Initial returns the state every visitor starts in
func Initial() ViewState {
	return ViewState{Level: LevelYearOverview, Year: DefaultYear}
}

// Valid reports whether s is a state Reduce could have produced
func (s ViewState) Valid() bool {
	return (s.Level == LevelYearOverview || s.Level == LevelMonthDetail) && s.Year >= md.MinYear && s.Year <= md.MaxYear
}

// Action transitions a ViewState
type Action interface {
	apply(ViewState) (ViewState, error)
}

// ActivateYear zooms into the month detail of Year
type ActivateYear struct {
	Year int
}

func (a ActivateYear) apply(_ ViewState) (ViewState, error) {
	if a.Year < md.MinYear || a.Year > md.MaxYear {
		return ViewState{}, fmt.Errorf("year %d is outside of %d-%d", a.Year, md.MinYear, md.MaxYear)
	}
	return ViewState{Level: LevelMonthDetail, Year: a.Year}, nil
}

// ShowOverview zooms back out to the year overview
type ShowOverview struct{}

func (ShowOverview) apply(s ViewState) (ViewState, error) {
	return ViewState{Level: LevelYearOverview, Year: s.Year}, nil
}

// Reduce applies a to s. On error s is returned unchanged.
func Reduce(s ViewState, a Action) (ViewState, error) {
	next, err := a.apply(s)
	if err != nil {
		return s, err
	}
	return next, nil
}
