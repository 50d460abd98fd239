package controllers

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/yeremiapane/restaurant-pos/models"
)

var (
	supportedTags = []language.Tag{language.Uzbek, language.Russian, language.English}
	localeMatcher = language.NewMatcher(supportedTags)
)

// localeFrom picks uz, ru or en from ?lang= first and Accept-Language
// second. Uzbek is the default.
func localeFrom(c *gin.Context) string {
	if lang := c.Query("lang"); lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			return matchLocale(tag)
		}
	}
	tags, _, err := language.ParseAcceptLanguage(c.GetHeader("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return models.LocaleUz
	}
	return matchLocale(tags...)
}

func matchLocale(tags ...language.Tag) string {
	_, index, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return models.LocaleUz
	}
	switch supportedTags[index] {
	case language.Russian:
		return models.LocaleRu
	case language.English:
		return models.LocaleEn
	}
	return models.LocaleUz
}
