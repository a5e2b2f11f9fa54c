package compare

import "strings"

// diacriticFold maps the accented runes that appear in Spanish category names
// to their base letters. Equivalent to NFD decomposition plus combining-mark
// removal for this alphabet.
var diacriticFold = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u', 'ü': 'u', 'ñ': 'n',
	'Á': 'A', 'É': 'E', 'Í': 'I', 'Ó': 'O', 'Ú': 'U', 'Ü': 'U', 'Ñ': 'N',
	'à': 'a', 'è': 'e', 'ì': 'i', 'ò': 'o', 'ù': 'u',
}

func stripDiacritics(s string) string {
	return strings.Map(func(r rune) rune {
		if base, ok := diacriticFold[r]; ok {
			return base
		}
		return r
	}, s)
}

// NormalizeCategory produces the join key for thematic merging: lowercase,
// diacritics stripped, trimmed. "Educación" and "educacion" collapse to the
// same key.
func NormalizeCategory(name string) string {
	return strings.TrimSpace(strings.ToLower(stripDiacritics(name)))
}
