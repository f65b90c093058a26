package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GoPolymarket/polymarket-go-sdk/pkg/clob"
	"github.com/GoPolymarket/polymarket-go-sdk/pkg/clob/clobtypes"
	"github.com/shopspring/decimal"
)

// ErrNoPrice means the venue has no usable price for the token right now.
var ErrNoPrice = errors.New("no usable price")

// BookPricer derives a token midpoint from the CLOB orderbook.
type BookPricer struct {
	timeout time.Duration
	fetch   func(ctx context.Context, tokenID string) (clobtypes.OrderBook, error)
}

func NewBookPricer(client clob.Client, timeout time.Duration) *BookPricer {
	return newBookPricer(func(ctx context.Context, tokenID string) (clobtypes.OrderBook, error) {
		book, err := client.OrderBook(ctx, &clobtypes.BookRequest{TokenID: tokenID})
		if err != nil {
			return clobtypes.OrderBook{}, err
		}
		return clobtypes.OrderBook(book), nil
	}, timeout)
}

func newBookPricer(fetch func(context.Context, string) (clobtypes.OrderBook, error), timeout time.Duration) *BookPricer {
	return &BookPricer{fetch: fetch, timeout: timeout}
}

// Midpoint returns (best bid + best ask) / 2. Levels are not assumed sorted.
func (p *BookPricer) Midpoint(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	book, err := p.fetch(ctx, tokenID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("orderbook %s: %w", tokenID, err)
	}
	return BookMid(book)
}

// BookMid computes the midpoint of an orderbook snapshot.
func BookMid(book clobtypes.OrderBook) (decimal.Decimal, error) {
	bid, okBid := bestLevel(book.Bids, func(a, b decimal.Decimal) bool { return a.GreaterThan(b) })
	ask, okAsk := bestLevel(book.Asks, func(a, b decimal.Decimal) bool { return a.LessThan(b) })
	if !okBid || !okAsk {
		return decimal.Zero, ErrNoPrice
	}
	return bid.Add(ask).Div(decimal.NewFromInt(2)), nil
}

func bestLevel(levels []clobtypes.PriceLevel, better func(a, b decimal.Decimal) bool) (decimal.Decimal, bool) {
	var best decimal.Decimal
	found := false
	for _, lvl := range levels {
		px, err := decimal.NewFromString(strings.TrimSpace(lvl.Price))
		if err != nil {
			continue
		}
		if !found || better(px, best) {
			best = px
			found = true
		}
	}
	return best, found
}

// MidpointClient reads GET {clob}/midpoint?token_id=... directly.
type MidpointClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewMidpointClient(baseURL string, timeout time.Duration, httpClient *http.Client) *MidpointClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &MidpointClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: httpClient,
	}
}

type midpointResponse struct {
	Mid      *FlexString `json:"mid"`
	Midpoint *FlexString `json:"midpoint"`
	Price    *FlexString `json:"price"`
}

// Midpoint never retries; any non-200 or null value yields ErrNoPrice.
func (c *MidpointClient) Midpoint(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	endpoint := c.baseURL + "/midpoint?" + url.Values{"token_id": {tokenID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return decimal.Zero, ErrNoPrice
	}

	var body midpointResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, ErrNoPrice
	}
	for _, v := range []*FlexString{body.Mid, body.Midpoint, body.Price} {
		if v == nil || *v == "" {
			continue
		}
		px, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, ErrNoPrice
		}
		return px, nil
	}
	return decimal.Zero, ErrNoPrice
}
