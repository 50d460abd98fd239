package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-pos/models"
)

var today = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return today.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func unitWith(status models.UnitStatus, reservations ...models.Reservation) models.SeatingUnit {
	return models.SeatingUnit{ID: 1, Number: "5", Status: status, Kind: models.KindTable, Reservations: reservations}
}

func reservation(date, window string) models.Reservation {
	return models.Reservation{Table: 1, Date: date, Time: window, Name: "Aziz"}
}

func TestParseTimeRange(t *testing.T) {
	r, err := ParseTimeRange("13:00-14:30")
	require.NoError(t, err)
	assert.Equal(t, TimeRange{Start: 780, End: 870}, r)
	assert.Equal(t, "13:00-14:30", r.String())

	r, err = ParseTimeRange(" 9:05 - 10:00 ")
	require.NoError(t, err)
	assert.Equal(t, 545, r.Start)

	for _, bad := range []string{"", "13:00", "13-14", "25:00-26:00", "12:60-13:00", "ab:cd-12:00"} {
		_, err := ParseTimeRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestDecideReservationStarts(t *testing.T) {
	u := unitWith(models.StatusEmpty, reservation("2026-03-14", "13:00-14:00"))

	d := Decide(u, at(13, 30))
	assert.True(t, d.Change)
	assert.Equal(t, models.StatusEmpty, d.From)
	assert.Equal(t, models.StatusReserved, d.To)
	require.NotNil(t, d.Reservation)
	assert.Equal(t, "13:00-14:00", d.Reservation.Time)
}

func TestDecideActiveWindowWinsOverAnyStatus(t *testing.T) {
	for _, status := range models.AllStatuses {
		u := unitWith(status, reservation("2026-03-14", "13:00-14:00"))
		d := Decide(u, at(13, 0))
		if status == models.StatusReserved {
			assert.False(t, d.Change, status)
			continue
		}
		assert.True(t, d.Change, status)
		assert.Equal(t, models.StatusReserved, d.To, status)
	}
}

func TestDecideReservationEnds(t *testing.T) {
	u := unitWith(models.StatusReserved, reservation("2026-03-14", "13:00-14:00"))

	d := Decide(u, at(14, 5))
	assert.True(t, d.Change)
	assert.Equal(t, models.StatusEmpty, d.To)
	assert.Equal(t, ReasonReservationEnded, d.Reason)

	// end is exclusive
	d = Decide(u, at(14, 0))
	assert.Equal(t, models.StatusEmpty, d.To)
}

func TestDecideLeavesServiceStatesAlone(t *testing.T) {
	for _, status := range []models.UnitStatus{
		models.StatusOrdered,
		models.StatusWaitingFood,
		models.StatusWaitingService,
		models.StatusWaitingBill,
		models.StatusEmpty,
	} {
		u := unitWith(status, reservation("2026-03-14", "10:00-11:00"))
		d := Decide(u, at(14, 5))
		assert.False(t, d.Change, status)
		assert.Equal(t, status, d.To, status)
	}
}

func TestDecideIgnoresOtherDays(t *testing.T) {
	u := unitWith(models.StatusEmpty, reservation("2026-03-15", "13:00-14:00"))
	assert.False(t, Decide(u, at(13, 30)).Change)

	u = unitWith(models.StatusReserved, reservation("2026-03-13", "13:00-14:00"))
	d := Decide(u, at(13, 30))
	assert.True(t, d.Change)
	assert.Equal(t, models.StatusEmpty, d.To)
}

// Windows that cross midnight are read as same-day offsets and are never
// open. A reserved unit with only such a window is released.
func TestDecideOvernightWindowNeverActive(t *testing.T) {
	r, err := ParseTimeRange("23:00-01:00")
	require.NoError(t, err)
	assert.True(t, r.Overnight())

	u := unitWith(models.StatusEmpty, reservation("2026-03-14", "23:00-01:00"))
	for _, now := range []time.Time{at(23, 30), at(0, 30), at(12, 0)} {
		assert.False(t, Decide(u, now).Change, now)
	}

	u.Status = models.StatusReserved
	assert.Equal(t, models.StatusEmpty, Decide(u, at(23, 30)).To)
}

func TestDecideSkipsUnparseableWindows(t *testing.T) {
	u := unitWith(models.StatusEmpty,
		reservation("2026-03-14", "soon"),
		reservation("2026-03-14", "13:00-14:00"),
	)
	assert.Equal(t, models.StatusReserved, Decide(u, at(13, 10)).To)
}

func TestDecideIsStable(t *testing.T) {
	u := unitWith(models.StatusEmpty, reservation("2026-03-14", "13:00-14:00"))
	assert.Equal(t, Decide(u, at(13, 30)), Decide(u, at(13, 30)))
}

func TestDisplayReservationPicksEarliestStart(t *testing.T) {
	u := unitWith(models.StatusReserved,
		reservation("2026-03-14", "13:00-15:00"),
		reservation("2026-03-14", "12:30-14:00"),
		reservation("2026-03-14", "16:00-17:00"),
		reservation("2026-03-15", "12:00-18:00"),
	)

	r, ok := DisplayReservation(u, at(13, 30))
	require.True(t, ok)
	assert.Equal(t, "12:30-14:00", r.Time)

	upcoming := UpcomingReservations(u, at(13, 30))
	require.Len(t, upcoming, 1)
	assert.Equal(t, "16:00-17:00", upcoming[0].Time)

	_, ok = DisplayReservation(u, at(15, 30))
	assert.False(t, ok)
}

func TestCanonicalReservationWindow(t *testing.T) {
	got, err := CanonicalReservationWindow("2026-03-14", "9:00-10:05")
	require.NoError(t, err)
	assert.Equal(t, "09:00-10:05", got)

	_, err = CanonicalReservationWindow("2026-03-14", "10:00-9:00")
	assert.ErrorIs(t, err, ErrEmptyRange)
}

func TestValidateReservationWindow(t *testing.T) {
	assert.NoError(t, ValidateReservationWindow("2026-03-14", "13:00-14:00"))
	assert.ErrorIs(t, ValidateReservationWindow("2026-03-14", "14:00-14:00"), ErrEmptyRange)
	assert.ErrorIs(t, ValidateReservationWindow("2026-03-14", "23:00-01:00"), ErrEmptyRange)
	assert.ErrorIs(t, ValidateReservationWindow("14.03.2026", "13:00-14:00"), ErrReservationDate)
	assert.Error(t, ValidateReservationWindow("2026-03-14", "1pm-2pm"))
}
