package signature

import "strings"

// ReservedKeys are the feature-token names that can never collide with
// an enchantment name, per spec §3/§9.
var ReservedKeys = map[string]bool{
	"tier": true, "dstars": true, "mstars": true, "stars10": true,
	"wither_impact": true, "pet_level": true, "pet_item": true,
	"dye": true, "skin": true, "petskin": true,
}

// Tokens is a parsed signature: reserved feature tokens plus an
// enchantment name -> level map.
type Tokens struct {
	Reserved  map[string]string
	Enchants  map[string]int
}

// ParseTokens inverts Build's token emission, satisfying the invariant
// that emitting then parsing a signature yields the same token set.
func ParseTokens(sig string) Tokens {
	out := Tokens{Reserved: map[string]string{}, Enchants: map[string]int{}}
	if sig == "" {
		return out
	}
	for _, tok := range strings.Split(sig, "|") {
		kv := strings.SplitN(tok, ":", 2)
		if len(kv) != 2 {
			continue
		}
		key, val := kv[0], kv[1]
		if ReservedKeys[key] {
			out.Reserved[key] = val
			continue
		}
		lvl := toIntOr(val, 0)
		out.Enchants[key] = lvl
	}
	return out
}
