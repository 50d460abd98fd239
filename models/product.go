package models

// Locales served by the API, in fallback order.
const (
	LocaleUz = "uz"
	LocaleRu = "ru"
	LocaleEn = "en"
)

var Locales = []string{LocaleUz, LocaleRu, LocaleEn}

type Product struct {
	ID            int     `json:"id,omitempty"`
	NameUz        string  `json:"name_uz"`
	NameRu        string  `json:"name_ru"`
	NameEn        string  `json:"name_en"`
	DescriptionUz string  `json:"description_uz"`
	DescriptionRu string  `json:"description_ru"`
	DescriptionEn string  `json:"description_en"`
	Price         float64 `json:"price"`
	Time          int     `json:"time"`
	Category      int     `json:"category"`
	IsVegan       bool    `json:"is_vegan"`
	IsHalal       bool    `json:"is_halal"`
	Image         string  `json:"image,omitempty"`
}

func (p Product) Name(locale string) string {
	return pickLocale(locale, p.NameUz, p.NameRu, p.NameEn)
}

func (p Product) Description(locale string) string {
	return pickLocale(locale, p.DescriptionUz, p.DescriptionRu, p.DescriptionEn)
}

// pickLocale returns the requested translation, falling back through
// Locales when it is empty.
func pickLocale(locale, uz, ru, en string) string {
	byLocale := map[string]string{LocaleUz: uz, LocaleRu: ru, LocaleEn: en}
	if v := byLocale[locale]; v != "" {
		return v
	}
	for _, l := range Locales {
		if v := byLocale[l]; v != "" {
			return v
		}
	}
	return ""
}
