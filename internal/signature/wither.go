package signature

import "strings"

var witherImpactItems = map[string]bool{
	"hyperion": true, "astraea": true, "scylla": true, "valkyrie": true,
}

var requiredScrolls = []string{"implosion_scroll", "shadow_warp_scroll", "wither_shield_scroll"}

// witherImpact implements spec §4.C.4.
func witherImpact(canonicalKey, lore string, extra map[string]any) bool {
	if !witherImpactItems[canonicalKey] {
		return false
	}
	if strings.Contains(strings.ToLower(lore), "wither impact") {
		return true
	}

	found := map[string]bool{}
	for k, v := range extra {
		if !strings.Contains(strings.ToLower(k), "scroll") {
			continue
		}
		collectScrollStrings(v, found)
	}
	for _, req := range requiredScrolls {
		if !found[req] {
			return false
		}
	}
	return true
}

func collectScrollStrings(v any, found map[string]bool) {
	switch t := v.(type) {
	case string:
		found[strings.ToLower(t)] = true
	case []any:
		for _, e := range t {
			collectScrollStrings(e, found)
		}
	}
}
