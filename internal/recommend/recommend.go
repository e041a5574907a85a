// Package recommend implements the price recommender of spec §4.E: it
// pools historical sales by match quality, derives a recommended price
// range, ranks the closest three comparables, and scans live BIN
// listings for a currently-buyable match.
package recommend

import (
	"context"
	"fmt"
	"sort"

	"auctionintel/internal/match"
	"auctionintel/internal/signature"
	"auctionintel/internal/store"
)

const (
	salesLookback = 50000
	salesWindowMs = int64(120 * 24 * 60 * 60 * 1000)

	// defaultAliveWindowMs is used when a Query does not set
	// AliveWindowMs; it matches ALIVE_WINDOW_MS's documented default.
	defaultAliveWindowMs = int64(8 * 60 * 1000)

	liveScanLimit = 6000
)

// Store is the subset of *store.Store the recommender reads from,
// narrowed to an interface so tests can supply a fake.
type Store interface {
	QueryRecentSalesByItem(ctx context.Context, itemKey string, sinceTS int64, limit int) ([]store.RecentSale, error)
	QueryLiveBinByItem(ctx context.Context, itemKey string, sinceTS int64, limit int) ([]store.LiveBinAuction, error)
}

// Logger is the minimal logging surface used for degraded-signature
// warnings; satisfied by *zap.SugaredLogger.
type Logger interface {
	Warnw(msg string, keysAndValues ...any)
}

// Query is the full set of recommender inputs, per spec §4.E.
type Query struct {
	ItemKey  string
	ItemName string // display name shown to the caller; not used for per-row signature re-derivation
	Stars10  int
	Enchants map[string]int
	Filters  match.Filters

	// AliveWindowMs bounds how recent a live BIN listing must be to
	// count as "currently buyable" (spec §4.E step 7). Zero uses
	// defaultAliveWindowMs; a caller wires this from ALIVE_WINDOW_MS.
	AliveWindowMs int64
}

// Candidate is one ranked comparable sale, per spec §4.E step 6.
type Candidate struct {
	UUID        string
	FinalPrice  int64
	EndedTS     int64
	Quality     match.Quality
	Score       int
	Matched     []string
	AllEnchants []string
}

// LiveBest is the best currently-buyable match, per spec §4.E step 7.
type LiveBest struct {
	UUID        string
	StartingBid int64
	Quality     match.Quality
}

// Result is the recommender's full response shape, per spec §4.E step 8.
type Result struct {
	Recommended *int64
	RangeLow    *int64
	RangeHigh   *int64
	RangeCount  int
	Top3        []Candidate
	LiveBest    *LiveBest
	Note        string
}

// Recommend runs the algorithm of spec §4.E against st for q. now is
// the caller's current time in epoch milliseconds (time.Now().UnixMilli
// in production), passed in rather than read internally so callers can
// test window boundaries deterministically.
func Recommend(ctx context.Context, st Store, logger Logger, now int64, q Query) (Result, error) {
	if q.ItemKey == "" {
		return Result{Note: "pick an item from suggestions"}, nil
	}
	q.Stars10 = clampStars10(q.Stars10)

	sales, err := st.QueryRecentSalesByItem(ctx, q.ItemKey, now-salesWindowMs, salesLookback)
	if err != nil {
		return Result{}, fmt.Errorf("query recent sales: %w", err)
	}

	mq := match.Query{Stars10: q.Stars10, Enchants: q.Enchants, Filters: q.Filters}

	var perfectPrices, partialPrices []int64
	var candidates []Candidate

	for _, sale := range sales {
		if sale.Price <= 0 {
			continue
		}
		sig := sale.Signature
		if sig == "" {
			sig = signature.Build(signature.Input{
				ItemName:  sale.ItemName,
				Tier:      sale.Tier,
				Lore:      sale.ItemLore,
				ItemBytes: sale.ItemBytes,
			}, nil)
			if sig == "" && logger != nil {
				logger.Warnw("recommend: sale has no derivable signature", "uuid", sale.UUID)
			}
		}

		quality := match.Match(mq, sig)
		if quality == match.None {
			continue
		}

		switch quality {
		case match.Perfect:
			perfectPrices = append(perfectPrices, sale.Price)
		case match.Partial:
			partialPrices = append(partialPrices, sale.Price)
		}

		tok := signature.ParseTokens(sig)
		penalty := scorePenalty(q, tok)
		score := 10 - penalty
		if score < 0 {
			score = 0
		}
		candidates = append(candidates, Candidate{
			UUID:        sale.UUID,
			FinalPrice:  sale.Price,
			EndedTS:     sale.EndedTS,
			Quality:     quality,
			Score:       score,
			Matched:     matchedEnchants(q, tok),
			AllEnchants: allEnchantsSorted(tok),
		})
	}

	pool := perfectPrices
	if len(pool) == 0 {
		pool = partialPrices
	}

	res := Result{RangeCount: len(pool)}
	if len(pool) > 0 {
		sorted := append([]int64(nil), pool...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		med := quantile(sorted, 0.5)
		low := quantile(sorted, 0.15)
		high := quantile(sorted, 0.85)
		res.Recommended = &med
		res.RangeLow = &low
		res.RangeHigh = &high
	} else {
		res.Note = "no comparable sales found"
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.EndedTS != b.EndedTS {
			return a.EndedTS > b.EndedTS
		}
		return a.FinalPrice < b.FinalPrice
	})
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	res.Top3 = candidates

	liveBest, err := scanLive(ctx, st, logger, now, q, mq)
	if err != nil {
		return Result{}, err
	}
	res.LiveBest = liveBest

	return res, nil
}

func scanLive(ctx context.Context, st Store, logger Logger, now int64, q Query, mq match.Query) (*LiveBest, error) {
	aliveWindowMs := q.AliveWindowMs
	if aliveWindowMs <= 0 {
		aliveWindowMs = defaultAliveWindowMs
	}
	live, err := st.QueryLiveBinByItem(ctx, q.ItemKey, now-aliveWindowMs, liveScanLimit)
	if err != nil {
		return nil, fmt.Errorf("query live bin: %w", err)
	}
	for _, a := range live {
		sig := a.Signature
		if sig == "" {
			sig = signature.Build(signature.Input{
				ItemName:  a.ItemName,
				Tier:      a.Tier,
				Lore:      a.ItemLore,
				ItemBytes: a.ItemBytes,
			}, nil)
			if sig == "" && logger != nil {
				logger.Warnw("recommend: live auction has no derivable signature", "uuid", a.UUID)
			}
		}
		quality := match.Match(mq, sig)
		if quality != match.None {
			return &LiveBest{UUID: a.UUID, StartingBid: a.StartingBid, Quality: quality}, nil
		}
	}
	return nil, nil
}

// scorePenalty computes 2*stars_diff + enchant_diff summed across
// requested enchantments, per spec §4.E step 5.
func scorePenalty(q Query, tok signature.Tokens) int {
	penalty := 0
	if q.Stars10 > 0 {
		candStars := toIntOr(tok.Reserved["stars10"], 0)
		penalty += 2 * absInt(candStars-q.Stars10)
	}
	for name, reqLevel := range q.Enchants {
		candLevel := tok.Enchants[name]
		levelDiff := absInt(candLevel - reqLevel)
		bucketDiff := match.TierBucketDiff(match.TierBucket(name, candLevel), match.TierBucket(name, reqLevel))
		diff := levelDiff
		if bucketDiff > diff {
			diff = bucketDiff
		}
		penalty += diff
	}
	return penalty
}

// matchedEnchants returns the requested enchantments the candidate
// actually carries, ordered by highest tier bucket first then name.
func matchedEnchants(q Query, tok signature.Tokens) []string {
	var names []string
	for name := range q.Enchants {
		if lvl, ok := tok.Enchants[name]; ok && lvl > 0 {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		bi := match.TierBucket(names[i], tok.Enchants[names[i]])
		bj := match.TierBucket(names[j], tok.Enchants[names[j]])
		if bi != bj {
			return bi > bj
		}
		return names[i] < names[j]
	})
	return names
}

// allEnchantsSorted returns every enchantment on the candidate, sorted
// by tier bucket descending then name ascending, per spec §4.E step 6.
func allEnchantsSorted(tok signature.Tokens) []string {
	names := make([]string, 0, len(tok.Enchants))
	for name := range tok.Enchants {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		bi := match.TierBucket(names[i], tok.Enchants[names[i]])
		bj := match.TierBucket(names[j], tok.Enchants[names[j]])
		if bi != bj {
			return bi > bj
		}
		return names[i] < names[j]
	})
	return names
}

// clampStars10 clamps an out-of-range requested stars10 to [0,10]
// rather than erroring, per spec §7's validation policy.
func clampStars10(v int) int {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func toIntOr(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	neg := false
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		n = -n
	}
	return n
}
