/*
locale.go - Locale negotiation

PURPOSE:
  Maps client-supplied language hints (query param, Accept-Language header)
  onto the two locales the renderer supports. Japanese is the default: the
  storefront and the operations team are Japanese-first, English exists for
  the cross-border shop.
*/
package schedule

import "golang.org/x/text/language"

var localeMatcher = language.NewMatcher([]language.Tag{
	language.Japanese, // default
	language.English,
})

// MatchLocale picks the best supported locale from the given hints, in
// priority order. Hints may be empty strings or full Accept-Language values;
// anything unintelligible falls through to Japanese.
func MatchLocale(hints ...string) Locale {
	var tags []language.Tag
	for _, h := range hints {
		if h == "" {
			continue
		}
		if parsed, _, err := language.ParseAcceptLanguage(h); err == nil {
			tags = append(tags, parsed...)
		}
	}

	tag, _, _ := localeMatcher.Match(tags...)
	base, _ := tag.Base()
	if base.String() == "en" {
		return LocaleEN
	}
	return LocaleJA
}
