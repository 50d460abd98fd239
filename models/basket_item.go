package models

type BasketItem struct {
	Product  int     `json:"product"`
	Quantity int     `json:"quantity"`
	Cost     float64 `json:"cost"`
}

func (i BasketItem) LineTotal() float64 {
	return i.Cost * float64(i.Quantity)
}
