package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yeremiapane/restaurant-pos/models"
)

var (
	ErrUnknownProduct = errors.New("unknown product")
	ErrNoItems        = errors.New("order has no items")
)

// OrderLine is one product picked at checkout. The cart only holds
// membership, so Quantity is chosen here and defaults to 1.
type OrderLine struct {
	Product  int `json:"product"`
	Quantity int `json:"quantity"`
}

// MergeLines keeps the order of first appearance and sums repeated
// products. Quantities below 1 count as 1.
func MergeLines(lines []OrderLine) []OrderLine {
	index := make(map[int]int, len(lines))
	out := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			l.Quantity = 1
		}
		if i, ok := index[l.Product]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.Product] = len(out)
		out = append(out, l)
	}
	return out
}

// BuildBasket snapshots each product's current price into the basket and
// fills service and total cost. The owner field follows the unit kind.
func BuildBasket(unit models.SeatingUnit, lines []OrderLine, catalog map[int]models.Product, serviceRate float64, note string) (models.Basket, error) {
	lines = MergeLines(lines)
	if len(lines) == 0 {
		return models.Basket{}, ErrNoItems
	}

	basket := models.Basket{Note: strings.TrimSpace(note), Items: make([]models.BasketItem, 0, len(lines))}
	switch unit.Kind {
	case models.KindTable:
		basket.Table = unit.ID
	case models.KindRoom:
		basket.Room = unit.ID
	default:
		return models.Basket{}, fmt.Errorf("%s cannot hold orders", unit.Kind)
	}

	for _, l := range lines {
		product, ok := catalog[l.Product]
		if !ok {
			return models.Basket{}, fmt.Errorf("%w: %d", ErrUnknownProduct, l.Product)
		}
		basket.Items = append(basket.Items, models.BasketItem{
			Product:  product.ID,
			Quantity: l.Quantity,
			Cost:     product.Price,
		})
	}
	basket.Price(serviceRate)
	return basket, nil
}

func CatalogByID(products []models.Product) map[int]models.Product {
	out := make(map[int]models.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out
}
