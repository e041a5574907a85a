package signature

import (
	"strings"

	"auctionintel/internal/textnorm"
)

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// resolveStars implements the §4.C.3 priority chain.
func (b *builder) resolveStars(extra map[string]any, itemName, lore string) (dstars, mstars int) {
	d := clamp(toIntOr(extra["dungeon_item_level"], 0), 0, 10)
	u := clamp(toIntOr(extra["upgrade_level"], 0), 0, 10)

	switch {
	case d > 5:
		dstars, mstars = 5, d-5
	case u > 5:
		dstars, mstars = 5, u-5
	case d > 0 && u > 0:
		dstars, mstars = clamp(d, 0, 5), clamp(u, 0, 5)
	case d > 0:
		dstars, mstars = d, 0
	case u > 0:
		b.logFallback("upgrade_level without dungeon_item_level; disambiguating via text star count")
		total := coflnetStars10FromText(itemName + " " + lore)
		if total >= 6 {
			dstars, mstars = 5, u
		} else {
			dstars, mstars = u, 0
		}
	default:
		total := coflnetStars10FromText(itemName + " " + lore)
		dstars, mstars = minInt(total, 5), maxInt(0, total-5)
	}

	if mstars > 0 && dstars != 5 {
		b.logFallback("master stars without full dungeon stars; forcing dstars=5")
		dstars = 5
	}
	return dstars, mstars
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var romanToValue = map[string]int{"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5}

// coflnetStars10FromText implements the text-based star count fallback
// described in spec §4.C.3: locate a trailing star-glyph cluster (up to
// 5 glyphs, tolerating a small separator budget) within the last 80
// characters of the input, then, for a full cluster of 5, inspect the
// token immediately following it: a single digit 1-5 or a Roman numeral
// I-V adds that many stars.
func coflnetStars10FromText(s string) int {
	s = textnorm.NormalizeWeirdDigits(s)
	runes := []rune(s)
	if len(runes) > 80 {
		runes = runes[len(runes)-80:]
	}

	lastStar := -1
	for i := len(runes) - 1; i >= 0; i-- {
		if textnorm.IsStarLike(runes[i]) {
			lastStar = i
			break
		}
	}
	if lastStar == -1 {
		return 0
	}

	count := 0
	sepBudget := 12
	i := lastStar
	for i >= 0 && count < 5 {
		if textnorm.IsStarLike(runes[i]) {
			count++
			i--
			continue
		}
		if textnorm.IsSeparator(runes[i]) && sepBudget > 0 {
			sepBudget--
			i--
			continue
		}
		break
	}

	if count < 5 {
		return count
	}

	tail := strings.TrimLeft(string(runes[lastStar+1:]), " \t-_.,")
	if tail == "" {
		return 5
	}
	first := strings.Fields(tail)
	if len(first) == 0 {
		return 5
	}
	tok := first[0]
	if len(tok) == 1 && tok[0] >= '1' && tok[0] <= '5' {
		return 5 + int(tok[0]-'0')
	}
	if v, ok := romanToValue[strings.ToUpper(tok)]; ok {
		return 5 + v
	}
	return 5
}
