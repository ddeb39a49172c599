package catalog

import "regexp"

// wordPattern builds the whole-word, case-insensitive match
// expression for a literal query, in RE2 syntax. Boundaries are
// strict: "Shirt" matches "Red Shirt" but not "Shirts".
func wordPattern(query string) string {
	return `(?i)\b` + regexp.QuoteMeta(query) + `\b`
}

// wordPatternPosix is the same expression in Postgres ARE syntax,
// which spells word boundaries \y instead of \b. QuoteMeta escaping
// is valid in both dialects: a backslash before punctuation always
// means the literal character.
func wordPatternPosix(query string) string {
	return `(?i)\y` + regexp.QuoteMeta(query) + `\y`
}
