package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives the case- and whitespace-normalized natural key used
// to look up terms by display name. Accented characters are reduced to
// their ASCII base, runs of non-alphanumerics collapse to single
// hyphens.
func Slugify(name string) string {
	plain, _, err := transform.String(deaccent, name)
	if err != nil {
		plain = name
	}

	var b strings.Builder
	lastHyphen := true // swallow leading separators
	for _, r := range strings.ToLower(plain) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
