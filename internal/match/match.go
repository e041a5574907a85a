// Package match implements the strict three-state match-quality
// comparison between a user query and a stored signature (spec §4.D).
package match

import (
	"strconv"

	"auctionintel/internal/signature"
)

// Quality is the tri-state match-quality outcome.
type Quality int

const (
	None Quality = iota
	Partial
	Perfect
)

func (q Quality) String() string {
	switch q {
	case Perfect:
		return "PERFECT"
	case Partial:
		return "PARTIAL"
	default:
		return "NONE"
	}
}

// Filters bundles the hard-filter fields of a query; "" / 0 means
// unspecified.
type Filters struct {
	Tier          string
	WitherImpact  bool
	WitherImpactSet bool
	Dye           string
	Skin          string
	Petskin       string
	MinPetLevel   int
	PetItem       string
}

// Query is the full set of matcher inputs for one candidate comparison.
type Query struct {
	Stars10    int // 0 means unrequested
	Enchants   map[string]int
	Filters    Filters
}

// Match implements spec §4.D against a candidate's raw signature
// string.
func Match(q Query, candidateSignature string) Quality {
	if candidateSignature == "" {
		if q.Stars10 == 0 && len(q.Enchants) == 0 && isFilterBundleEmpty(q.Filters) {
			return Perfect
		}
		return None
	}

	tok := signature.ParseTokens(candidateSignature)
	if !applyHardFilters(q.Filters, tok) {
		return None
	}

	partial := false

	if q.Stars10 > 0 {
		candStars := atoiOr(tok.Reserved["stars10"], 0)
		diff := absInt(candStars - q.Stars10)
		switch {
		case diff == 0:
		case diff == 1:
			partial = true
		default:
			return None
		}
	}

	for name, reqLevel := range q.Enchants {
		candLevel, ok := tok.Enchants[name]
		if !ok || candLevel == 0 {
			return None
		}
		levelDiff := absInt(candLevel - reqLevel)
		bucketDiff := TierBucketDiff(TierBucket(name, candLevel), TierBucket(name, reqLevel))
		diff := maxInt(levelDiff, bucketDiff)
		switch {
		case diff == 0:
		case diff == 1:
			partial = true
		default:
			return None
		}
	}

	if partial {
		return Partial
	}
	return Perfect
}

func isFilterBundleEmpty(f Filters) bool {
	return f.Tier == "" && !f.WitherImpactSet && f.Dye == "" && f.Skin == "" &&
		f.Petskin == "" && f.MinPetLevel == 0 && f.PetItem == ""
}

func applyHardFilters(f Filters, tok signature.Tokens) bool {
	if f.Tier != "" && f.Tier != "none" && tok.Reserved["tier"] != f.Tier {
		return false
	}
	if f.WitherImpactSet {
		candWither := tok.Reserved["wither_impact"] == "1"
		if f.WitherImpact != candWither {
			return false
		}
	}
	if f.Dye != "" && f.Dye != "none" && tok.Reserved["dye"] != f.Dye {
		return false
	}
	if f.Skin != "" && f.Skin != "none" && tok.Reserved["skin"] != f.Skin {
		return false
	}
	if f.Petskin != "" && f.Petskin != "none" && tok.Reserved["petskin"] != f.Petskin {
		return false
	}
	if f.PetItem != "" && f.PetItem != "none" && tok.Reserved["pet_item"] != f.PetItem {
		return false
	}
	if f.MinPetLevel > 0 {
		candLevel := atoiOr(tok.Reserved["pet_level"], 0)
		if candLevel < f.MinPetLevel {
			return false
		}
	}
	return true
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
