// Package upstream fetches the paginated auction feed described in
// spec §6, using a small adapter interface with a live HTTP
// implementation and a deterministic mock used in development and
// tests.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Auction is one row of the upstream feed's auctions array, per spec §6.
type Auction struct {
	UUID        string `json:"uuid"`
	ItemName    string `json:"item_name"`
	BIN         bool   `json:"bin"`
	Start       int64  `json:"start"`
	End         int64  `json:"end"`
	StartingBid int64  `json:"starting_bid"`
	HighestBid  int64  `json:"highest_bid"`
	Tier        string `json:"tier,omitempty"`
	ItemLore    string `json:"item_lore,omitempty"`
	ItemBytes   string `json:"item_bytes,omitempty"`
}

// Page is one page of the upstream feed's response.
type Page struct {
	Success    bool      `json:"success"`
	TotalPages int       `json:"totalPages"`
	Auctions   []Auction `json:"auctions"`
}

// Feed abstracts the upstream auction house feed.
type Feed interface {
	FetchPage(ctx context.Context, page int) (Page, error)
}

// ─────────────────────────────────────────────────────────────────
// HTTP feed
// ─────────────────────────────────────────────────────────────────

// HTTPFeed fetches pages from the real upstream endpoint.
type HTTPFeed struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	userAgent string
}

type HTTPFeedOptions struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewHTTPFeed(opts HTTPFeedOptions) (*HTTPFeed, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, errors.New("BaseURL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}
	to := opts.Timeout
	if to <= 0 {
		to = 25 * time.Second
	}
	return &HTTPFeed{
		baseURL:   strings.TrimRight(base, "/"),
		apiKey:    opts.APIKey,
		client:    &http.Client{Timeout: to},
		userAgent: "auctionintel/1.0",
	}, nil
}

func (f *HTTPFeed) FetchPage(ctx context.Context, page int) (Page, error) {
	u, err := url.Parse(f.baseURL + "/auctions")
	if err != nil {
		return Page{}, err
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	if f.apiKey != "" {
		q.Set("key", f.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return Page{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, fmt.Errorf("upstream http status %d", resp.StatusCode)
	}

	var p Page
	if err := json.Unmarshal(body, &p); err != nil {
		return Page{}, fmt.Errorf("page payload parse: %w", err)
	}
	if !p.Success {
		return Page{}, errors.New("upstream reported success=false")
	}
	return p, nil
}

// ─────────────────────────────────────────────────────────────────
// Mock feed
// ─────────────────────────────────────────────────────────────────

// MockFeed synthesizes a deterministic multi-page auction snapshot for
// development and tests.
type MockFeed struct {
	TotalPages    int
	PerPage       int
	Seed          int64
	IncludeExtras bool
}

func NewMockFeed() *MockFeed {
	return &MockFeed{TotalPages: 2, PerPage: 20, Seed: 1}
}

func (f *MockFeed) FetchPage(ctx context.Context, page int) (Page, error) {
	select {
	case <-ctx.Done():
		return Page{}, ctx.Err()
	default:
	}

	total := f.TotalPages
	if total <= 0 {
		total = 1
	}
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	if page >= total {
		return Page{Success: true, TotalPages: total, Auctions: nil}, nil
	}

	h := fnv64(fmt.Sprintf("page|%d", page)) ^ uint64(f.Seed)
	r := rand.New(rand.NewSource(int64(h)))

	now := time.Now().UnixMilli()
	auctions := make([]Auction, 0, perPage)
	for i := 0; i < perPage; i++ {
		uuid := fmt.Sprintf("%032d", page*perPage+i)
		stars := r.Intn(6)
		name := fmt.Sprintf("%s Hyperion", strings.Repeat("✦", stars))
		auctions = append(auctions, Auction{
			UUID:        uuid,
			ItemName:    name,
			BIN:         r.Intn(2) == 0,
			Start:       now - int64(r.Intn(3600000)),
			End:         now + int64(r.Intn(3600000)),
			StartingBid: int64(1_000_000 + r.Intn(9_000_000)),
			HighestBid:  0,
			Tier:        "LEGENDARY",
		})
	}
	return Page{Success: true, TotalPages: total, Auctions: auctions}, nil
}

func fnv64(s string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	var h uint64 = offset64
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}
