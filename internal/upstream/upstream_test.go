package upstream

import (
	"context"
	"testing"
)

func TestMockFeedDeterministic(t *testing.T) {
	f1 := &MockFeed{TotalPages: 3, PerPage: 5, Seed: 42}
	f2 := &MockFeed{TotalPages: 3, PerPage: 5, Seed: 42}

	for page := 0; page < 3; page++ {
		p1, err := f1.FetchPage(context.Background(), page)
		if err != nil {
			t.Fatalf("FetchPage(%d): %v", page, err)
		}
		p2, err := f2.FetchPage(context.Background(), page)
		if err != nil {
			t.Fatalf("FetchPage(%d): %v", page, err)
		}
		if len(p1.Auctions) != len(p2.Auctions) {
			t.Fatalf("page %d: len mismatch %d vs %d", page, len(p1.Auctions), len(p2.Auctions))
		}
		for i := range p1.Auctions {
			if p1.Auctions[i] != p2.Auctions[i] {
				t.Errorf("page %d auction %d differs: %+v vs %+v", page, i, p1.Auctions[i], p2.Auctions[i])
			}
		}
	}
}

func TestMockFeedDifferentSeedsDiverge(t *testing.T) {
	f1 := &MockFeed{TotalPages: 1, PerPage: 5, Seed: 1}
	f2 := &MockFeed{TotalPages: 1, PerPage: 5, Seed: 2}

	p1, _ := f1.FetchPage(context.Background(), 0)
	p2, _ := f2.FetchPage(context.Background(), 0)

	same := true
	for i := range p1.Auctions {
		if p1.Auctions[i].StartingBid != p2.Auctions[i].StartingBid {
			same = false
			break
		}
	}
	if same {
		t.Error("expected different seeds to produce different auction data")
	}
}

func TestMockFeedPastLastPageIsEmpty(t *testing.T) {
	f := &MockFeed{TotalPages: 2, PerPage: 5, Seed: 1}
	p, err := f.FetchPage(context.Background(), 2)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(p.Auctions) != 0 {
		t.Errorf("expected no auctions past the last page, got %d", len(p.Auctions))
	}
	if !p.Success {
		t.Error("expected Success=true even for an empty trailing page")
	}
}

func TestMockFeedDefaults(t *testing.T) {
	f := NewMockFeed()
	p, err := f.FetchPage(context.Background(), 0)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(p.Auctions) == 0 {
		t.Error("expected NewMockFeed() defaults to produce at least one auction on page 0")
	}
}

func TestNewHTTPFeedRequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPFeed(HTTPFeedOptions{}); err == nil {
		t.Error("expected an error when BaseURL is empty")
	}
}
