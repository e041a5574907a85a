// Package textnorm implements the text-normalization derivations shared
// by the signature builder and matcher: clean_text, norm_key,
// normalize_weird_digits, and canonical_item_key.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	colorCodeRe   = regexp.MustCompile(`§.`)
	nonTextRunRe  = regexp.MustCompile(`[^\p{L}\p{N}\s']`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	parenRunRe    = regexp.MustCompile(`\([^)]*\)`)
	bracketRunRe  = regexp.MustCompile(`\[[^\]]*\]`)
	letterDigitRe = regexp.MustCompile(`([\p{L}])(\d)|(\d)([\p{L}])`)
)

// NormalizeWeirdDigits maps circled, fullwidth, dingbat-circled,
// negative-circled, superscript, and subscript digit code-points to
// their ASCII equivalents. Unrecognized runes pass through unchanged.
func NormalizeWeirdDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if v, ok := weirdDigitValue(r); ok {
			b.WriteString(v)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CleanText strips legacy color codes, applies Unicode compatibility
// normalization, straightens curly apostrophes, drops any character
// that is not a letter, digit, whitespace, or apostrophe, and collapses
// whitespace.
func CleanText(s string) string {
	s = colorCodeRe.ReplaceAllString(s, "")
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "’", "'")
	s = strings.ReplaceAll(s, "‘", "'")
	s = nonTextRunRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormKey maps hyphens/underscores to spaces (before CleanText, which
// would otherwise drop them), then lowercases CleanText's output,
// removes apostrophes, and collapses whitespace.
func NormKey(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return ' '
		}
		return r
	}, s)
	s = CleanText(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "'", "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func stripStarGlyphs(s string) string {
	var b strings.Builder
	for _, r := range s {
		if IsStarLike(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func splitLetterDigitBoundaries(s string) string {
	return letterDigitRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := letterDigitRe.FindStringSubmatch(m)
		if sub[1] != "" {
			return sub[1] + " " + sub[2]
		}
		return sub[3] + " " + sub[4]
	})
}

// CanonicalItemKey derives the normalized identity of an item name:
// stable under reforge prefixes, star glyphs, and trailing variant
// digits.
func CanonicalItemKey(itemName string) string {
	s := NormalizeWeirdDigits(itemName)
	s = colorCodeRe.ReplaceAllString(s, "")
	s = stripStarGlyphs(s)
	s = parenRunRe.ReplaceAllString(s, "")
	s = bracketRunRe.ReplaceAllString(s, "")
	s = splitLetterDigitBoundaries(s)
	s = NormKey(s)

	tokens := strings.Fields(s)
	tokens = dropPetLevelPrefix(tokens)
	tokens = dropLeadingReforges(tokens)
	return strings.Join(tokens, " ")
}

func dropPetLevelPrefix(tokens []string) []string {
	if len(tokens) < 2 {
		return tokens
	}
	if tokens[0] == "lvl" || tokens[0] == "lv" || tokens[0] == "level" {
		if isDigits(tokens[1]) {
			return tokens[2:]
		}
	}
	return tokens
}

func dropLeadingReforges(tokens []string) []string {
	dropped := 0
	for dropped < 2 && len(tokens) > 0 && reforgePrefixes[tokens[0]] {
		tokens = tokens[1:]
		dropped++
	}
	return tokens
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
