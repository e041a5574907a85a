package recommend

import (
	"context"
	"testing"

	"auctionintel/internal/match"
	"auctionintel/internal/store"
)

type fakeStore struct {
	sales []store.RecentSale
	live  []store.LiveBinAuction

	lastLiveSinceTS int64
}

func (f *fakeStore) QueryRecentSalesByItem(ctx context.Context, itemKey string, sinceTS int64, limit int) ([]store.RecentSale, error) {
	return f.sales, nil
}

func (f *fakeStore) QueryLiveBinByItem(ctx context.Context, itemKey string, sinceTS int64, limit int) ([]store.LiveBinAuction, error) {
	f.lastLiveSinceTS = sinceTS
	return f.live, nil
}

func TestRecommendPartialVsPerfectScenario(t *testing.T) {
	// spec §8 scenario 6: two sales, one perfect (stars10=10 matching
	// exactly), one partial (stars10=9, diff=1), both carrying the
	// requested sharpness 7 enchant.
	fs := &fakeStore{
		sales: []store.RecentSale{
			{UUID: "perfect-uuid", Price: 1_000_000, EndedTS: 1000, Signature: "tier:legendary|stars10:10|sharpness:7"},
			{UUID: "partial-uuid", Price: 800_000, EndedTS: 900, Signature: "tier:legendary|stars10:9|sharpness:7"},
		},
	}

	q := Query{
		ItemKey:  "hyperion",
		Stars10:  10,
		Enchants: map[string]int{"sharpness": 7},
	}

	res, err := Recommend(context.Background(), fs, nil, 100000, q)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if res.Recommended == nil || *res.Recommended != 1_000_000 {
		t.Fatalf("recommended = %v, want 1000000", res.Recommended)
	}
	if res.RangeCount != 1 {
		t.Fatalf("range_count = %d, want 1 (perfect pool only)", res.RangeCount)
	}
	if len(res.Top3) != 2 {
		t.Fatalf("top3 len = %d, want 2", len(res.Top3))
	}
	if res.Top3[0].UUID != "perfect-uuid" {
		t.Errorf("top3[0] = %s, want perfect-uuid ranked first", res.Top3[0].UUID)
	}
	if res.Top3[0].Quality != match.Perfect {
		t.Errorf("top3[0].Quality = %v, want Perfect", res.Top3[0].Quality)
	}
	if res.Top3[1].Quality != match.Partial {
		t.Errorf("top3[1].Quality = %v, want Partial", res.Top3[1].Quality)
	}
}

func TestRecommendNoComparables(t *testing.T) {
	fs := &fakeStore{}
	res, err := Recommend(context.Background(), fs, nil, 100000, Query{ItemKey: "nonexistent"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Recommended != nil {
		t.Errorf("recommended = %v, want nil", res.Recommended)
	}
	if res.Note == "" {
		t.Error("expected a note explaining the empty result")
	}
	if len(res.Top3) != 0 {
		t.Errorf("top3 len = %d, want 0", len(res.Top3))
	}
}

func TestRecommendDegradedSignatureFallback(t *testing.T) {
	// An empty stored signature must be re-derived from the row's own
	// display fields rather than dropped, per spec §4.E step 2.
	fs := &fakeStore{
		sales: []store.RecentSale{
			{UUID: "u1", ItemName: "Hyperion", Price: 500_000, EndedTS: 500, Signature: "", Tier: "LEGENDARY"},
		},
	}
	res, err := Recommend(context.Background(), fs, nil, 100000, Query{ItemKey: "hyperion", ItemName: "Hyperion"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.RangeCount != 1 {
		t.Fatalf("range_count = %d, want 1", res.RangeCount)
	}
}

func TestRecommendRederivesFromRowNameNotQueryName(t *testing.T) {
	// Stars10 falls back to counting glyphs in the item's own display
	// name when no dungeon/upgrade level is present in extra attribute
	// bytes (spec §4.C.3). If re-derivation borrowed the query's generic
	// display name instead of the row's own, a starred sale would look
	// unstarred and fail a Stars10 filter it should pass.
	fs := &fakeStore{
		sales: []store.RecentSale{
			{UUID: "u1", ItemName: "✪✪✪✪✪ Hyperion", Price: 900_000, EndedTS: 500, Signature: "", Tier: "LEGENDARY"},
		},
	}
	res, err := Recommend(context.Background(), fs, nil, 100000, Query{ItemKey: "hyperion", ItemName: "Hyperion", Stars10: 5})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(res.Top3) != 1 {
		t.Fatalf("top3 len = %d, want 1 (row's own starred name should re-derive stars10:5)", len(res.Top3))
	}
	if res.Top3[0].Quality != match.Perfect {
		t.Errorf("top3[0].Quality = %v, want Perfect", res.Top3[0].Quality)
	}
}

func TestRecommendLiveScanUsesConfiguredAliveWindow(t *testing.T) {
	fs := &fakeStore{
		live: []store.LiveBinAuction{
			{UUID: "match", StartingBid: 200, Signature: "stars10:10"},
		},
	}
	now := int64(1_000_000)
	if _, err := Recommend(context.Background(), fs, nil, now, Query{ItemKey: "x", Stars10: 10, AliveWindowMs: 60_000}); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if want := now - 60_000; fs.lastLiveSinceTS != want {
		t.Errorf("live scan sinceTS = %d, want %d (AliveWindowMs should override the default)", fs.lastLiveSinceTS, want)
	}

	if _, err := Recommend(context.Background(), fs, nil, now, Query{ItemKey: "x", Stars10: 10}); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if want := now - defaultAliveWindowMs; fs.lastLiveSinceTS != want {
		t.Errorf("live scan sinceTS = %d, want %d (zero AliveWindowMs should fall back to the default)", fs.lastLiveSinceTS, want)
	}
}

func TestRecommendLiveScanPicksFirstPassing(t *testing.T) {
	fs := &fakeStore{
		live: []store.LiveBinAuction{
			{UUID: "no-match", StartingBid: 100, Signature: "stars10:2"},
			{UUID: "match", StartingBid: 200, Signature: "stars10:10"},
		},
	}
	res, err := Recommend(context.Background(), fs, nil, 100000, Query{ItemKey: "x", Stars10: 10})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.LiveBest == nil {
		t.Fatal("expected a live_best result")
	}
	if res.LiveBest.UUID != "match" {
		t.Errorf("live_best.UUID = %s, want match", res.LiveBest.UUID)
	}
}

func TestRecommendEmptyItemKeyReturnsNoteWithoutQuery(t *testing.T) {
	fs := &fakeStore{}
	res, err := Recommend(context.Background(), fs, nil, 100000, Query{})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Note == "" {
		t.Error("expected a suggestions note for an empty item key")
	}
	if res.Recommended != nil {
		t.Errorf("recommended = %v, want nil", res.Recommended)
	}
}

func TestRecommendClampsOutOfRangeStars10(t *testing.T) {
	fs := &fakeStore{
		sales: []store.RecentSale{
			{UUID: "u1", Price: 500_000, EndedTS: 500, Signature: "stars10:10"},
		},
	}
	res, err := Recommend(context.Background(), fs, nil, 100000, Query{ItemKey: "hyperion", Stars10: 999})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.RangeCount != 1 {
		t.Fatalf("range_count = %d, want 1 (stars10=999 should clamp to 10 and match exactly)", res.RangeCount)
	}
}

func TestQuantileEndpoints(t *testing.T) {
	sorted := []int64{100, 200, 300, 400, 500}
	if got := quantile(sorted, 0); got != 100 {
		t.Errorf("quantile(0) = %d, want 100", got)
	}
	if got := quantile(sorted, 1); got != 500 {
		t.Errorf("quantile(1) = %d, want 500", got)
	}
	if got := quantile(sorted, 0.5); got != 300 {
		t.Errorf("quantile(0.5) = %d, want 300", got)
	}
	if got := quantile(nil, 0.5); got != 0 {
		t.Errorf("quantile(nil) = %d, want 0", got)
	}
}
