package booking

import (
	"errors"
	"time"
)

const (
	// FirstSlotHour is the local hour of the first bookable slot of a day.
	FirstSlotHour = 8
	// LastSlotHour is the local hour at which the last slot of a day ends.
	LastSlotHour = 20
	// SlotsPerDay is the number of hourly slots offered each day.
	SlotsPerDay = LastSlotHour - FirstSlotHour
	// DaysPerWeek is the number of days covered by a grid.
	DaysPerWeek = 7
	// SlotsPerWeek is the size of a full weekly grid.
	SlotsPerWeek = SlotsPerDay * DaysPerWeek
	// SlotDuration is the length of a single slot.
	SlotDuration = time.Hour
)

// ErrSlotOutOfRange indicates a day offset or hour outside the weekly grid.
var ErrSlotOutOfRange = errors.New("booking: slot outside weekly grid")

// Slot is a one hour bookable unit identified by its absolute start.
type Slot struct {
	Start time.Time
	Day   int
	Hour  int
}

// End returns the exclusive end of the slot.
func (s Slot) End() time.Time {
	return s.Start.Add(SlotDuration)
}

// ID returns the canonical identifier of the slot: its start in RFC 3339 UTC.
func (s Slot) ID() string {
	return SlotID(s.Start)
}

// SlotID formats an instant the same way slot identifiers are formatted.
func SlotID(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Grid generates weekly slot catalogs in a fixed location.
type Grid struct {
	location *time.Location
}

// NewGrid constructs a Grid for the provided location. If loc is nil, UTC is used.
func NewGrid(loc *time.Location) *Grid {
	if loc == nil {
		loc = time.UTC
	}
	return &Grid{location: loc}
}

// Location returns the location week boundaries are computed in.
func (g *Grid) Location() *time.Location {
	if g == nil || g.location == nil {
		return time.UTC
	}
	return g.location
}

// WeekStart returns Monday 00:00 of the week containing ref.
func (g *Grid) WeekStart(ref time.Time) time.Time {
	loc := g.Location()
	local := ref.In(loc)
	offset := (int(local.Weekday()) + 6) % 7
	y, m, d := local.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
}

// WeekEnd returns the exclusive end of the week containing ref.
func (g *Grid) WeekEnd(ref time.Time) time.Time {
	start := g.WeekStart(ref)
	y, m, d := start.Date()
	return time.Date(y, m, d+DaysPerWeek, 0, 0, 0, 0, g.Location())
}

// PreviousWeek returns the start of the week before the one containing ref.
func (g *Grid) PreviousWeek(ref time.Time) time.Time {
	start := g.WeekStart(ref)
	y, m, d := start.Date()
	return time.Date(y, m, d-DaysPerWeek, 0, 0, 0, 0, g.Location())
}

// NextWeek returns the start of the week after the one containing ref.
func (g *Grid) NextWeek(ref time.Time) time.Time {
	return g.WeekEnd(ref)
}

// SlotAt computes the slot for a day offset (0 is Monday) and local start hour.
//
// The start is derived from the calendar date rather than by adding durations,
// so the same wall-clock slot yields the same instant across DST changes.
func (g *Grid) SlotAt(weekStart time.Time, day, hour int) (Slot, error) {
	if day < 0 || day >= DaysPerWeek || hour < FirstSlotHour || hour >= LastSlotHour {
		return Slot{}, ErrSlotOutOfRange
	}
	loc := g.Location()
	y, m, d := g.WeekStart(weekStart).Date()
	start := time.Date(y, m, d+day, hour, 0, 0, 0, loc)
	return Slot{Start: start, Day: day, Hour: hour}, nil
}

// Week returns the ordered slots of the week containing ref, day-major then by hour.
func (g *Grid) Week(ref time.Time) []Slot {
	weekStart := g.WeekStart(ref)
	slots := make([]Slot, 0, SlotsPerWeek)
	for day := 0; day < DaysPerWeek; day++ {
		for hour := FirstSlotHour; hour < LastSlotHour; hour++ {
			slot, _ := g.SlotAt(weekStart, day, hour)
			slots = append(slots, slot)
		}
	}
	return slots
}

// IsCanonical reports whether t is the start of a slot on the grid.
func (g *Grid) IsCanonical(t time.Time) bool {
	local := t.In(g.Location())
	if local.Minute() != 0 || local.Second() != 0 || local.Nanosecond() != 0 {
		return false
	}
	return local.Hour() >= FirstSlotHour && local.Hour() < LastSlotHour
}

// Contains reports whether t falls inside the week that starts at weekStart.
func (g *Grid) Contains(weekStart, t time.Time) bool {
	start := g.WeekStart(weekStart)
	end := g.WeekEnd(weekStart)
	return !t.Before(start) && t.Before(end)
}

// WeekStart returns Monday 00:00 in loc of the week containing ref.
func WeekStart(ref time.Time, loc *time.Location) time.Time {
	return NewGrid(loc).WeekStart(ref)
}

// IsCanonicalSlot reports whether t is the start of a grid slot in loc.
func IsCanonicalSlot(t time.Time, loc *time.Location) bool {
	return NewGrid(loc).IsCanonical(t)
}
