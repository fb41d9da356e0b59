package seo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugRunes = 80

var slugNormalizer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL slug: decompose and strip combining marks, lowercase,
// collapse everything that is not a letter or digit into single hyphens, and
// cap the length. CJK characters are letters and survive as-is; WordPress
// accepts unicode slugs.
func Slugify(title string) string {
	normalized, _, err := transform.String(slugNormalizer, title)
	if err != nil {
		normalized = title
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(normalized) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := b.String()
	if runeCount := len([]rune(slug)); runeCount > maxSlugRunes {
		slug = string([]rune(slug)[:maxSlugRunes])
		slug = strings.TrimRight(slug, "-")
	}
	return slug
}
