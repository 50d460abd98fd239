package models

type Category struct {
	ID     int    `json:"id,omitempty"`
	NameUz string `json:"name_uz"`
	NameRu string `json:"name_ru"`
	NameEn string `json:"name_en"`
}

func (c Category) Name(locale string) string {
	return pickLocale(locale, c.NameUz, c.NameRu, c.NameEn)
}

// TimeWindow is one entry of the restaurant's working-time list.
type TimeWindow struct {
	ID   int    `json:"id,omitempty"`
	Time string `json:"time"`
}
