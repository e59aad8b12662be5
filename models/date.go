package models

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire format of Date
	DateLayout = "2006-01-02"
	// MinYear and MaxYear bound the supported display range of the timeline, inclusive
	MinYear = 1940
	MaxYear = 2050
)

// Date is a calendar date without time of day or location. The zero value lies outside of the display range.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses s in DateLayout, rejecting dates which don't exist on the calendar
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// InDisplayRange reports whether d falls into the years the timeline renders
func (d Date) InDisplayRange() bool {
	return d.Year >= MinYear && d.Year <= MaxYear
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
