// Package signature implements the deterministic content-fingerprint
// builder described in spec §4.C: it turns an item's name, lore, tier,
// and binary attribute payload into a canonical, ordered, delimited
// token string.
package signature

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"auctionintel/internal/attrparse"
	"auctionintel/internal/textnorm"
)

// Input carries the four upstream fields the signature is derived from.
type Input struct {
	ItemName  string
	Lore      string
	Tier      string
	ItemBytes string
}

// Logger is the minimal structured-logging surface the signature
// builder needs; satisfied by *zap.SugaredLogger. A nil Logger is
// valid and silences fallback-path logging.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
}

type builder struct {
	logger Logger
}

func (b *builder) logFallback(msg string) {
	if b.logger != nil {
		b.logger.Debugw(msg)
	}
}

// Build derives the canonical signature string for in. A nil logger is
// accepted. Build never returns an error: malformed input degrades to
// fewer tokens, per spec §4.B/§4.C/§7.
func Build(in Input, logger Logger) string {
	b := &builder{logger: logger}

	extra := attrparse.Parse(in.ItemBytes)
	canonicalKey := textnorm.CanonicalItemKey(in.ItemName)

	enchants := collectEnchantments(extra)
	dstars, mstars := b.resolveStars(extra, in.ItemName, in.Lore)
	stars10 := dstars + mstars

	wither := witherImpact(canonicalKey, in.Lore, extra)
	petLvl := petLevel(extra, in.ItemName)

	dye := textnorm.NormKey(firstNonEmpty(extra, "dye_item"))
	skin := textnorm.NormKey(firstNonEmpty(extra, "skin"))
	petskin := textnorm.NormKey(firstNonEmpty(extra, "petSkin", "pet_skin"))
	heldItem := petHeldItem(extra, in.Lore)

	var tokens []string
	emit := func(key, value string) {
		if value == "" || value == "none" || value == "0" {
			return
		}
		tokens = append(tokens, key+":"+tokenSafe(value))
	}

	if in.Tier != "" {
		emit("tier", strings.ToLower(in.Tier))
	}
	emit("dstars", strconv.Itoa(dstars))
	emit("mstars", strconv.Itoa(mstars))
	if stars10 > 0 || dstars > 0 || mstars > 0 {
		emit("stars10", strconv.Itoa(stars10))
	}
	if wither {
		emit("wither_impact", "1")
	}
	if petLvl > 0 {
		emit("pet_level", strconv.Itoa(petLvl))
	}
	emit("dye", dye)
	emit("skin", skin)
	emit("petskin", petskin)
	emit("pet_item", heldItem)

	names := make([]string, 0, len(enchants))
	for name := range enchants {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tokens = append(tokens, fmt.Sprintf("%s:%d", tokenSafe(name), enchants[name]))
	}

	return strings.Join(tokens, "|")
}

func tokenSafe(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}
