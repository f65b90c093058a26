package normalize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GoPolymarket/polymarket-regime/internal/feed"
	"github.com/shopspring/decimal"
)

// PriceSource returns the live midpoint for an outcome token.
type PriceSource interface {
	Midpoint(ctx context.Context, tokenID string) (decimal.Decimal, error)
}

var (
	ErrNoTokens       = errors.New("market has no usable token list")
	ErrNoFallback     = errors.New("no fallback outcome prices")
	ErrLengthMismatch = errors.New("fallback prices do not match token count")
	ErrBadPrice       = errors.New("unparseable fallback price")
	ErrZeroSum        = errors.New("prices sum to zero")
	ErrDuplicateLabel = errors.New("duplicate outcome label")
)

const precision = 4

// Normalize turns one market into a probability distribution over its
// outcome labels. Live midpoints are used only when every token prices and
// there are at least two; otherwise the market's listed outcomePrices are
// used for all outcomes.
func Normalize(ctx context.Context, m feed.Market, prices PriceSource) (Distribution, error) {
	if !m.ClobTokenIDs.Valid || len(m.ClobTokenIDs.Items) == 0 {
		return nil, ErrNoTokens
	}
	tokens := m.ClobTokenIDs.Items

	raw := make([]decimal.Decimal, len(tokens))
	live := 0
	for i, tok := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		px, err := prices.Midpoint(ctx, tok)
		if err != nil || px.IsNegative() {
			continue
		}
		raw[i] = px
		live++
	}

	// Partial live pricing is discarded wholesale.
	if live < 2 || live < len(tokens) {
		fallback, err := fallbackPrices(m.OutcomePrices, len(tokens))
		if err != nil {
			return nil, err
		}
		raw = fallback
	}

	total := decimal.Zero
	for _, p := range raw {
		total = total.Add(p)
	}
	if total.IsZero() {
		return nil, ErrZeroSum
	}

	labels := Labels(m.Outcomes, len(tokens))
	seen := make(map[string]bool, len(labels))
	dist := make(Distribution, len(tokens))
	for i := range tokens {
		if seen[labels[i]] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, labels[i])
		}
		seen[labels[i]] = true
		dist[i] = Outcome{
			Label:       labels[i],
			Probability: raw[i].DivRound(total, precision).InexactFloat64(),
		}
	}
	return dist, nil
}

func fallbackPrices(list feed.EncodedList, n int) ([]decimal.Decimal, error) {
	if !list.Present || !list.Valid || len(list.Items) == 0 {
		return nil, ErrNoFallback
	}
	if len(list.Items) != n {
		return nil, fmt.Errorf("%w: %d prices for %d tokens", ErrLengthMismatch, len(list.Items), n)
	}
	out := make([]decimal.Decimal, n)
	for i, s := range list.Items {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadPrice, s)
		}
		out[i] = d
	}
	return out, nil
}

// Labels resolves outcome labels for n tokens: the declared list when it
// lines up, "No"/"Yes" for binary markets, else Outcome_0..n-1.
func Labels(declared feed.EncodedList, n int) []string {
	if declared.Valid && len(declared.Items) == n {
		return declared.Items
	}
	if n == 2 {
		return []string{"No", "Yes"}
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Outcome_%d", i)
	}
	return out
}

// Reason maps a rejection to a short metric label.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNoTokens):
		return "no_tokens"
	case errors.Is(err, ErrNoFallback):
		return "no_fallback"
	case errors.Is(err, ErrLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, ErrBadPrice):
		return "bad_price"
	case errors.Is(err, ErrZeroSum):
		return "zero_sum"
	case errors.Is(err, ErrDuplicateLabel):
		return "duplicate_label"
	default:
		return "other"
	}
}
