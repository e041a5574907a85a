package signature

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"auctionintel/internal/textnorm"
)

var petLevelPrefixRe = regexp.MustCompile(`(?i)^\s*\[?\s*(lvl|lv|level)\s+(\d+)\]?`)

// petLevel implements spec §4.C.5.
func petLevel(extra map[string]any, itemName string) int {
	if raw, ok := getString(extra["petInfo"]); ok && raw != "" {
		var parsed struct {
			Level any `json:"level"`
		}
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			lvl := toIntOr(parsed.Level, 0)
			if lvl >= 1 && lvl <= 200 {
				return lvl
			}
		}
	}
	if m := petLevelPrefixRe.FindStringSubmatch(itemName); m != nil {
		lvl, _ := strconv.Atoi(m[2])
		if lvl >= 1 && lvl <= 200 {
			return lvl
		}
	}
	return 0
}

var heldItemLoreRe = regexp.MustCompile(`(?i)^(held item|pet item)\s*[: ]\s*(.+)$`)

// petHeldItem implements spec §4.C.7.
func petHeldItem(extra map[string]any, lore string) string {
	raw := firstNonEmpty(extra, "petItem", "pet_item", "heldItem", "held_item", "petHeldItem", "pet_held_item")
	if raw != "" {
		return textnorm.NormKey(raw)
	}
	for _, line := range strings.Split(lore, "\n") {
		if m := heldItemLoreRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return textnorm.NormKey(m[2])
		}
	}
	return ""
}
