package match

// Bucket is the discrete rarity classification for an (enchantment
// name, level) pair, per the GLOSSARY's "Enchantment tier bucket".
type Bucket int

const (
	BucketMisc Bucket = iota - 1
	BucketBB
	BucketB
	BucketA
	BucketAA
	BucketAAA
)

// rank orders buckets for diff computation: MISC is the odd one
// out and ranked below BB per spec's "MISC → -1".
func (b Bucket) rank() int { return int(b) }

// tierTable maps an enchantment name to the highest level that still
// falls in each bucket, lowest bucket first. A level falls into the
// first bucket whose max it does not exceed, and into AAA above the
// last max. This is
// a representative subset of the Hypixel Skyblock enchant rarity
// table; entries not listed default to BucketB for level>=1 and
// BucketBB otherwise, a conservative default rather than a lookup
// failure.
var tierTable = map[string][]int{
	// thresholds: index 0 = BB max, 1 = B max, 2 = A max, 3 = AA max; above -> AAA
	"sharpness":     {2, 4, 5, 6},
	"protection":    {2, 4, 5, 6},
	"efficiency":    {2, 4, 5, 6},
	"looting":       {1, 2, 3, 3},
	"critical":      {2, 4, 5, 6},
	"ultimate wise": {1, 2, 3, 5},
	"power":         {2, 4, 5, 6},
	"growth":        {2, 4, 5, 6},
	"vitality":      {1, 2, 3, 4},
	"first strike":  {1, 2, 3, 4},
	"telekinesis":   {0, 0, 1, 1},
	"scavenger":     {1, 2, 3, 3},
}

// TierBucket returns the rarity bucket for a (name, level) pair.
func TierBucket(name string, level int) Bucket {
	thresholds, ok := tierTable[name]
	if !ok {
		if level <= 0 {
			return BucketBB
		}
		return BucketB
	}
	for i, max := range thresholds {
		if level <= max {
			return Bucket(i)
		}
	}
	return BucketAAA
}

// TierBucketDiff computes the rarity-rank distance between two buckets.
func TierBucketDiff(a, b Bucket) int {
	d := a.rank() - b.rank()
	if d < 0 {
		return -d
	}
	return d
}
