package models

import (
	"fmt"
	"strings"
)

type UnitKind string

const (
	KindTable     UnitKind = "tables"
	KindRoom      UnitKind = "rooms"
	KindHotelRoom UnitKind = "hotel-rooms"
)

func ParseUnitKind(s string) (UnitKind, error) {
	switch UnitKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindTable, "table", "":
		return KindTable, nil
	case KindRoom, "room":
		return KindRoom, nil
	case KindHotelRoom, "hotel-room":
		return KindHotelRoom, nil
	}
	return "", fmt.Errorf("unknown seating unit kind %q", s)
}

// HasReservations reports whether units of this kind carry reservation
// windows. Hotel rooms are tracked by number only.
func (k UnitKind) HasReservations() bool {
	return k == KindTable || k == KindRoom
}

type UnitStatus string

const (
	StatusEmpty          UnitStatus = "empty"
	StatusReserved       UnitStatus = "reserved"
	StatusOrdered        UnitStatus = "ordered"
	StatusWaitingFood    UnitStatus = "waiting-food"
	StatusWaitingService UnitStatus = "waiting-service"
	StatusWaitingBill    UnitStatus = "waiting-bill"
)

var AllStatuses = []UnitStatus{
	StatusEmpty,
	StatusReserved,
	StatusOrdered,
	StatusWaitingFood,
	StatusWaitingService,
	StatusWaitingBill,
}

// ParseStatus accepts the canonical values plus the legacy "waiting-waiter"
// spelling and underscore variants still emitted by older clients.
func ParseStatus(s string) (UnitStatus, error) {
	v := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	if v == "waiting-waiter" {
		return StatusWaitingService, nil
	}
	for _, st := range AllStatuses {
		if UnitStatus(v) == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// SeatingUnit is a table, cabin/room or hotel room as served by the remote API.
type SeatingUnit struct {
	ID           int           `json:"id"`
	Number       string        `json:"number"`
	Chairs       int           `json:"chairs"`
	Status       UnitStatus    `json:"status"`
	Reservations []Reservation `json:"reservations,omitempty"`
	CreatedAt    Timestamp     `json:"created_at"`

	Kind UnitKind `json:"-"`
}
