package services

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yeremiapane/restaurant-pos/models"
)

// TimeRange is a reservation window as minute-of-day offsets. Both ends
// are read on the reservation's own date, so a range whose end is before
// its start ("23:00-01:00") never contains any minute.
type TimeRange struct {
	Start int
	End   int
}

// ParseTimeRange reads "HH:MM-HH:MM".
func ParseTimeRange(s string) (TimeRange, error) {
	startRaw, endRaw, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return TimeRange{}, fmt.Errorf("time range %q: missing '-'", s)
	}
	start, err := parseClock(startRaw)
	if err != nil {
		return TimeRange{}, fmt.Errorf("time range %q: %w", s, err)
	}
	end, err := parseClock(endRaw)
	if err != nil {
		return TimeRange{}, fmt.Errorf("time range %q: %w", s, err)
	}
	return TimeRange{Start: start, End: end}, nil
}

func parseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("clock %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("clock %q: bad hour", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock %q: bad minute", s)
	}
	return hour*60 + minute, nil
}

func (r TimeRange) Contains(minute int) bool {
	return r.Start <= minute && minute < r.End
}

func (r TimeRange) Overnight() bool {
	return r.End < r.Start
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", r.Start/60, r.Start%60, r.End/60, r.End%60)
}

func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

var (
	ErrEmptyRange      = errors.New("reservation must start before it ends")
	ErrReservationDate = errors.New("reservation date must be YYYY-MM-DD")
)

// ValidateReservationWindow is applied before a reservation is sent to the
// API. Overnight ranges are rejected along with empty ones.
func ValidateReservationWindow(date, timeRange string) error {
	_, err := CanonicalReservationWindow(date, timeRange)
	return err
}

// CanonicalReservationWindow validates the window and returns the range in
// zero-padded "HH:MM-HH:MM" form.
func CanonicalReservationWindow(date, timeRange string) (string, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return "", ErrReservationDate
	}
	r, err := ParseTimeRange(timeRange)
	if err != nil {
		return "", err
	}
	if r.Start >= r.End {
		return "", ErrEmptyRange
	}
	return r.String(), nil
}

// Decision is the outcome of evaluating one unit at one instant.
type Decision struct {
	Change bool
	From   models.UnitStatus
	To     models.UnitStatus
	Reason string
	// Reservation is the active window that caused a move to reserved.
	Reservation *models.Reservation
}

const (
	ReasonReservationStarted = "reservation started"
	ReasonReservationEnded   = "reservation ended"
)

// Decide derives the status a unit should have at now. Only the
// reservation-driven transitions are produced: any status becomes reserved
// while a window is open, and reserved falls back to empty once none is.
// Units in ordered or waiting states are never reverted.
func Decide(unit models.SeatingUnit, now time.Time) Decision {
	active, ok := firstActive(unit.Reservations, now)
	switch {
	case ok && unit.Status != models.StatusReserved:
		return Decision{
			Change:      true,
			From:        unit.Status,
			To:          models.StatusReserved,
			Reason:      ReasonReservationStarted,
			Reservation: &active,
		}
	case !ok && unit.Status == models.StatusReserved:
		return Decision{
			Change: true,
			From:   unit.Status,
			To:     models.StatusEmpty,
			Reason: ReasonReservationEnded,
		}
	}
	return Decision{From: unit.Status, To: unit.Status}
}

func firstActive(reservations []models.Reservation, now time.Time) (models.Reservation, bool) {
	today := now.Format(models.DateLayout)
	minute := MinuteOfDay(now)
	for _, r := range reservations {
		if r.Date != today {
			continue
		}
		window, err := ParseTimeRange(r.Time)
		if err != nil {
			continue
		}
		if window.Contains(minute) {
			return r, true
		}
	}
	return models.Reservation{}, false
}

// ActiveReservations returns today's open windows ordered by start time.
func ActiveReservations(unit models.SeatingUnit, now time.Time) []models.Reservation {
	return todays(unit, now, func(w TimeRange, minute int) bool { return w.Contains(minute) })
}

// UpcomingReservations returns today's windows that have not started yet.
func UpcomingReservations(unit models.SeatingUnit, now time.Time) []models.Reservation {
	return todays(unit, now, func(w TimeRange, minute int) bool { return w.Start > minute })
}

// DisplayReservation picks the reservation shown on a unit's card: the
// earliest-starting open window.
func DisplayReservation(unit models.SeatingUnit, now time.Time) (models.Reservation, bool) {
	active := ActiveReservations(unit, now)
	if len(active) == 0 {
		return models.Reservation{}, false
	}
	return active[0], true
}

func todays(unit models.SeatingUnit, now time.Time, keep func(TimeRange, int) bool) []models.Reservation {
	today := now.Format(models.DateLayout)
	minute := MinuteOfDay(now)

	type windowed struct {
		r models.Reservation
		w TimeRange
	}
	var matches []windowed
	for _, r := range unit.Reservations {
		if r.Date != today {
			continue
		}
		w, err := ParseTimeRange(r.Time)
		if err != nil || !keep(w, minute) {
			continue
		}
		matches = append(matches, windowed{r: r, w: w})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].w.Start < matches[j].w.Start })

	out := make([]models.Reservation, len(matches))
	for i, m := range matches {
		out[i] = m.r
	}
	return out
}
