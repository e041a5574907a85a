package textnorm

// StarGlyphs is the set of star/circle marker runes used both to strip
// decorative star clusters from item names during canonicalization and
// to recognize a star cluster during text-based star-count parsing.
var StarGlyphs = map[rune]bool{
	'✪': true, '★': true, '☆': true, '✯': true, '✰': true,
	'●': true, '⬤': true, '○': true, '◉': true, '◎': true, '◍': true,
}

// separatorRunes are characters tolerated between star glyphs, or
// between a star cluster and a trailing digit/roman-numeral token.
var separatorRunes = map[rune]bool{
	' ': true, '\t': true, '-': true, '_': true, '.': true, ',': true,
}

// IsStarLike reports whether r is one of the star/circle marker glyphs.
func IsStarLike(r rune) bool { return StarGlyphs[r] }

// IsSeparator reports whether r is tolerated as filler between star
// glyphs or between a star cluster and a trailing count token.
func IsSeparator(r rune) bool { return separatorRunes[r] }

// digitSets maps each enumerated weird-digit alphabet to its ASCII
// value table. Each string's rune at index i represents value base+i.
var digitSets = []struct {
	runes string
	base  int // digit value of first rune
}{
	{"⓪①②③④⑤⑥⑦⑧⑨", 0},
	{"０１２３４５６７８９", 0},
	{"➊➋➌➍➎➏➐➑➒➓", 1},
	{"❶❷❸❹❺❻❼❽❾❿", 1},
	{"⓵⓶⓷⓸⓹⓺⓻⓼⓽⓾", 1},
	{"⁰¹²³⁴⁵⁶⁷⁸⁹", 0},
	{"₀₁₂₃₄₅₆₇₈₉", 0},
}

// weirdDigitValue returns the ASCII digit string for r (may be "10"),
// and whether r belongs to any enumerated weird-digit alphabet.
func weirdDigitValue(r rune) (string, bool) {
	for _, set := range digitSets {
		runes := []rune(set.runes)
		for i, cand := range runes {
			if cand == r {
				v := set.base + i
				if v == 10 {
					return "10", true
				}
				return string(rune('0' + v)), true
			}
		}
	}
	return "", false
}

// reforgePrefixes is the enumerated vocabulary of leading item-name
// words that modify stats but not identity. Order doesn't matter; the
// set is checked token-by-token, up to two leading tokens.
var reforgePrefixes = buildReforgeSet()

func buildReforgeSet() map[string]bool {
	names := []string{
		"ancient", "necrotic", "spiritual", "withered", "strengthened",
		"reinforced", "headstrong", "unpleasant", "bulky", "treacherous",
		"fair", "epic", "fast", "gentle", "heroic", "legendary", "odd",
		"sharp", "spicy", "superior", "forceful", "deadly", "fine",
		"grand", "hasty", "neat", "rapid", "unreal", "awkward", "rich",
		"candied", "submerged", "reforged", "renowned", "giant",
		"empowered", "ambered", "glistening", "strong", "demonic",
		"godly", "pure", "smart", "wise", "clean", "fierce", "heavy",
		"light", "mythic", "pretty", "titanic", "simple", "keen",
		"suspicious", "warped", "fabled", "silky", "bloody", "shaded",
		"toil", "blessed", "fruitful", "waxed", "pitchin", "salty",
		"rooted", "snowy", "perfect", "festive", "gilded", "dirty",
		"chomp", "fanged", "double", "bit", // "Double-bit Axe": NormKey maps the hyphen to a space before tokenization, so the two halves are listed separately
		"moil", "lumberjack",
		"lustrous", "magnetic", "stellar", "mithraic", "auspicious",
		"refined", "earthy", "blooming", "loving", "ridiculous", "zooming",
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
