package apiclient

import (
	"context"
	"fmt"

	"github.com/yeremiapane/restaurant-pos/models"
)

const (
	PathTables           = "/tables/"
	PathRooms            = "/rooms/"
	PathHotelRooms       = "/hotel-room-number/"
	PathReservations     = "/reservations/"
	PathRoomReservations = "/room-reservations/"
	PathCategories       = "/categories/"
	PathProducts         = "/products/"
	PathBaskets          = "/baskets/"
	PathRoomBaskets      = "/room-baskets/"
	PathTimeWindows      = "/restoranttime/"
)

// Units wraps a seating-unit collection and stamps Kind on every unit it
// returns.
type Units struct {
	*Resource[models.SeatingUnit]
	kind models.UnitKind
}

func (u *Units) Kind() models.UnitKind {
	return u.kind
}

func (u *Units) List(ctx context.Context) ([]models.SeatingUnit, error) {
	units, err := u.Resource.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range units {
		units[i].Kind = u.kind
	}
	return units, nil
}

func (u *Units) Get(ctx context.Context, id int) (models.SeatingUnit, error) {
	unit, _, err := u.GetVersioned(ctx, id)
	return unit, err
}

func (u *Units) GetVersioned(ctx context.Context, id int) (models.SeatingUnit, string, error) {
	unit, etag, err := u.Resource.GetVersioned(ctx, id)
	unit.Kind = u.kind
	return unit, etag, err
}

// FindByNumber lists the collection and returns the unit whose display
// number matches.
func (u *Units) FindByNumber(ctx context.Context, number string) (models.SeatingUnit, error) {
	units, err := u.List(ctx)
	if err != nil {
		return models.SeatingUnit{}, err
	}
	for _, unit := range units {
		if unit.Number == number {
			return unit, nil
		}
	}
	return models.SeatingUnit{}, fmt.Errorf("%s number %s: %w", u.kind, number, ErrNotFound)
}

// SetStatus patches only the status field.
func (u *Units) SetStatus(ctx context.Context, id int, status models.UnitStatus) error {
	_, err := u.Patch(ctx, id, map[string]models.UnitStatus{"status": status})
	return err
}

func (c *Client) Units(kind models.UnitKind) (*Units, error) {
	var path string
	switch kind {
	case models.KindTable:
		path = PathTables
	case models.KindRoom:
		path = PathRooms
	case models.KindHotelRoom:
		path = PathHotelRooms
	default:
		return nil, fmt.Errorf("%s: %w", kind, ErrUnsupportedKind)
	}
	return &Units{Resource: NewResource[models.SeatingUnit](c, path), kind: kind}, nil
}

func (c *Client) Reservations(kind models.UnitKind) (*Resource[models.Reservation], error) {
	switch kind {
	case models.KindTable:
		return NewResource[models.Reservation](c, PathReservations), nil
	case models.KindRoom:
		return NewResource[models.Reservation](c, PathRoomReservations), nil
	}
	return nil, fmt.Errorf("%s reservations: %w", kind, ErrUnsupportedKind)
}

func (c *Client) Baskets(kind models.UnitKind) (*Resource[models.Basket], error) {
	switch kind {
	case models.KindTable:
		return NewResource[models.Basket](c, PathBaskets), nil
	case models.KindRoom:
		return NewResource[models.Basket](c, PathRoomBaskets), nil
	}
	return nil, fmt.Errorf("%s baskets: %w", kind, ErrUnsupportedKind)
}

func (c *Client) Categories() *Resource[models.Category] {
	return NewResource[models.Category](c, PathCategories)
}

func (c *Client) Products() *Resource[models.Product] {
	return NewResource[models.Product](c, PathProducts)
}

func (c *Client) TimeWindows() *Resource[models.TimeWindow] {
	return NewResource[models.TimeWindow](c, PathTimeWindows)
}
