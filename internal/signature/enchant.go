package signature

import (
	"regexp"
	"strconv"
	"strings"
)

func normalizeEnchantKey(raw string) string {
	s := strings.ToLower(raw)
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.TrimPrefix(s, "ultimate ")
	return strings.TrimSpace(s)
}

// mergeEnchant records level for name, keeping the max seen.
func mergeEnchant(m map[string]int, name string, level int) {
	if name == "" {
		return
	}
	if cur, ok := m[name]; !ok || level > cur {
		m[name] = level
	}
}

var ultimateStringRe = regexp.MustCompile(`(?i)^([a-z_]+)_(\d+)$`)

// collectEnchantments reads extra.enchantments and extra.ultimate_enchant
// into a normalized name -> max level map, per spec §4.C.2.
func collectEnchantments(extra map[string]any) map[string]int {
	out := map[string]int{}

	if raw, ok := extra["enchantments"].(map[string]any); ok {
		for k, v := range raw {
			mergeEnchant(out, normalizeEnchantKey(k), toIntOr(v, 0))
		}
	}

	switch ue := extra["ultimate_enchant"].(type) {
	case string:
		if m := ultimateStringRe.FindStringSubmatch(ue); m != nil {
			lvl, _ := strconv.Atoi(m[2])
			mergeEnchant(out, normalizeEnchantKey(m[1]), lvl)
		}
	case map[string]any:
		name := firstNonEmpty(ue, "enchant", "enchantment", "id")
		lvl := 0
		for _, k := range []string{"level", "lvl", "tier"} {
			if v, ok := ue[k]; ok {
				lvl = toIntOr(v, 0)
				break
			}
		}
		if name != "" {
			mergeEnchant(out, normalizeEnchantKey(name), lvl)
		}
	}

	return out
}
