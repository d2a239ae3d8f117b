package app

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// requestLocale picks the locale string of a request: an explicit "locale"
// query parameter, then the preferred Accept-Language tag, then fallback.
// Tags come back in the lang_REGION form ("en_US").
func requestLocale(r *http.Request, fallback string) string {
	if explicit := queryParam(r.URL.Query(), "locale"); explicit != "" {
		return explicit
	}
	header := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if header == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 || tags[0] == language.Und {
		return fallback
	}
	return localeString(tags[0])
}

func localeString(tag language.Tag) string {
	base, _ := tag.Base()
	region, confidence := tag.Region()
	if confidence == language.Exact {
		return base.String() + "_" + region.String()
	}
	return base.String()
}

// languageCode is the first two characters of a locale string.
func languageCode(locale string) string {
	runes := []rune(locale)
	if len(runes) < 2 {
		return locale
	}
	return string(runes[:2])
}
