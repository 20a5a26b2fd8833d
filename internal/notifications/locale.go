package notifications

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale is one of the languages the notification catalog ships.
type Locale string

const (
	LocaleZH Locale = "zh"
	LocaleEN Locale = "en"
)

// Tag returns the language tag the catalog is keyed by.
func (l Locale) Tag() language.Tag {
	if l == LocaleEN {
		return language.English
	}
	return language.Chinese
}

// NormalizeLocale maps free-form input to a supported locale. Empty input
// maps to Chinese, any zh-prefixed value to Chinese, everything else to English.
func NormalizeLocale(raw string) Locale {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return LocaleZH
	}
	if strings.HasPrefix(strings.ToLower(raw), "zh") {
		return LocaleZH
	}
	return LocaleEN
}

var acceptMatcher = language.NewMatcher([]language.Tag{language.Chinese, language.English})

// LocaleFromAcceptLanguage picks the best supported locale from an
// Accept-Language header. It returns "" when the header is empty or unparsable
// so callers can apply NormalizeLocale's default.
func LocaleFromAcceptLanguage(header string) Locale {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, index, confidence := acceptMatcher.Match(tags...)
	if confidence == language.No {
		return LocaleEN
	}
	if index == 0 {
		return LocaleZH
	}
	return LocaleEN
}
