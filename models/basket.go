package models

import "math"

type Basket struct {
	ID          int          `json:"id,omitempty"`
	Table       int          `json:"table,omitempty"`
	Room        int          `json:"room,omitempty"`
	Items       []BasketItem `json:"items"`
	ServiceCost float64      `json:"service_cost"`
	TotalCost   float64      `json:"total_cost"`
	Note        string       `json:"note"`
	CreatedAt   Timestamp    `json:"created_at"`
}

func (b Basket) UnitID() int {
	if b.Table != 0 {
		return b.Table
	}
	return b.Room
}

func (b Basket) Subtotal() float64 {
	var sum float64
	for _, it := range b.Items {
		sum += it.LineTotal()
	}
	return roundCents(sum)
}

// Price fills ServiceCost and TotalCost from the items and a service rate
// (0.1 for ten percent).
func (b *Basket) Price(serviceRate float64) {
	subtotal := b.Subtotal()
	b.ServiceCost = roundCents(subtotal * serviceRate)
	b.TotalCost = roundCents(subtotal + b.ServiceCost)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
