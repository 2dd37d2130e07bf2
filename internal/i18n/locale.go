package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

const (
	English    = "en"
	Indonesian = "id"
	Chinese    = "zh"
)

var (
	supported = []language.Tag{language.English, language.Indonesian, language.Chinese}
	matcher   = language.NewMatcher(supported)
)

// Supported reports whether locale is one of the served locales.
func Supported(locale string) bool {
	switch locale {
	case English, Indonesian, Chinese:
		return true
	}
	return false
}

// Match picks the best served locale for an Accept-Language style value.
// ok is false when nothing in raw matched better than the default.
func Match(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return English, false
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return English, false
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return English, false
	}
	return base(supported[idx]), true
}

// Normalize maps any locale string onto a served locale, falling back to English.
func Normalize(locale string) string {
	if Supported(locale) {
		return locale
	}
	m, _ := Match(locale)
	return m
}

func base(tag language.Tag) string {
	b, _ := tag.Base()
	return b.String()
}
