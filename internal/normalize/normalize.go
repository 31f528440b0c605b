// Package normalize implements the single, centrally owned title
// normalization contract (spec §4.8): a sort key used for matching and
// drift comparisons, and search variants for LIKE-style catalog lookups.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ligatures expands the ligature characters the spec calls out by name.
// Both cases are covered since titles arrive with arbitrary capitalization.
var ligatures = strings.NewReplacer(
	"œ", "oe", "Œ", "Oe",
	"æ", "ae", "Æ", "Ae",
)

// leadingArticles are stripped (or "moved", which for a pure sort key is
// equivalent to dropping them) when they open a title.
var leadingArticles = []string{"the ", "le ", "la ", "les ", "l'", "un ", "une ", "der ", "die ", "das "}

// isInvisible reports whether r is a zero-width/format character that must
// not affect sort-key equality (spec: sort_key(T) == sort_key(T +
// zero-width-char)). The Unicode "Format" category (Cf) covers the
// zero-width space/joiner/non-joiner, BOM, soft hyphen, and word joiner.
func isInvisible(r rune) bool {
	return unicode.Is(unicode.Cf, r)
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldAccents(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}

func stripInvisible(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isInvisible(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SortKey produces the canonical form of a title used for ordering,
// matching, and drift comparison. It strips invisible Unicode, expands
// ligatures, folds accents, skips leading non-alphanumeric runes, drops a
// single leading article, and lowercases.
func SortKey(title string) string {
	s := stripInvisible(title)
	s = ligatures.Replace(s)
	s = foldAccents(s)
	s = strings.ToLower(strings.TrimSpace(s))

	// Skip leading non-alphanumeric runes (Unicode-aware, not a fixed
	// character class like `\W`).
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, article := range leadingArticles {
		if strings.HasPrefix(s, article) {
			s = s[len(article):]
			break
		}
	}

	return strings.Join(strings.Fields(s), " ")
}

// SearchVariants returns the set of strings a repository should OR over
// with a LIKE-style predicate, since many embedded SQL engines only do
// ASCII-only case-insensitive matching.
func SearchVariants(query string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	add(query)

	expanded := ligatures.Replace(query)
	add(expanded)

	// Ligature-collapsed: the reverse direction, so "oeil" also matches "œil".
	collapsed := strings.NewReplacer("oe", "œ", "Oe", "Œ", "ae", "æ", "Ae", "Æ").Replace(query)
	add(collapsed)

	add(foldAccents(expanded))
	add(strings.ToLower(expanded))
	add(strings.ToUpper(expanded))
	add(strings.ToLower(foldAccents(expanded)))

	return out
}

// tokenize splits a sort-keyed title into its word tokens.
func tokenize(s string) []string {
	return strings.Fields(SortKey(s))
}

// TokenSetRatio computes a 0-100 token-set-ratio-style similarity: tokens
// are deduplicated into sets, the shared tokens anchor the comparison, and
// the extra tokens on either side are penalized proportionally. This is
// order-invariant and duplicate-invariant, per the spec's definition of
// "token-set ratio".
func TokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for t := range setA {
		if setB[t] {
			shared++
		}
	}

	// Dice coefficient over the token sets, scaled to 0-100.
	base := 200.0 * float64(shared) / float64(len(setA)+len(setB))

	// Bonus when one set is a subset of the other (handles "Aliens" vs
	// "Aliens (Special Edition)" scoring higher than pure Dice would).
	if shared == len(setA) || shared == len(setB) {
		base = base*0.5 + 50
	}

	if base > 100 {
		base = 100
	}
	return base
}

func tokenSet(s string) map[string]bool {
	m := map[string]bool{}
	for _, t := range tokenize(s) {
		m[t] = true
	}
	return m
}
