package signal

import (
	"strings"

	"github.com/GoPolymarket/polymarket-regime/internal/extract"
	"github.com/GoPolymarket/polymarket-regime/internal/feed"
	"github.com/shopspring/decimal"
)

const (
	BiasAggressive  = "Aggressive"
	BiasModerate    = "Moderate"
	BiasRestrictive = "Restrictive"
	BiasUnknown     = "Unknown"
)

// GroupSignal is the probability-weighted expected number of rate cuts.
type GroupSignal struct {
	ExpectedCuts *float64 `json:"expected_cuts"`
	CutBias      string   `json:"cut_bias"`
}

// Known reports whether the signal carries an expectation.
func (g *GroupSignal) Known() bool {
	return g != nil && g.ExpectedCuts != nil && g.CutBias != BiasUnknown
}

// FedCuts reads a multi-outcome rate-cut event. Each outcome label maps to
// a cut count; markets whose labels and prices do not line up are skipped.
func FedCuts(event *feed.Event) GroupSignal {
	unknown := GroupSignal{CutBias: BiasUnknown}
	if event == nil {
		return unknown
	}

	expected := decimal.Zero
	found := false
	for _, m := range event.Markets {
		labels, prices := m.Outcomes, m.OutcomePrices
		if !labels.Valid || !prices.Valid || len(labels.Items) == 0 || len(prices.Items) == 0 {
			continue
		}
		if len(labels.Items) != len(prices.Items) {
			continue
		}
		for i, label := range labels.Items {
			n, ok := extract.CutCount(label)
			if !ok {
				continue
			}
			p, err := decimal.NewFromString(strings.TrimSpace(prices.Items[i]))
			if err != nil {
				continue
			}
			expected = expected.Add(p.Mul(decimal.NewFromInt(int64(n))))
			found = true
		}
	}
	if !found {
		return unknown
	}

	cuts := expected.Round(2).InexactFloat64()
	bias := BiasRestrictive
	switch {
	case expected.GreaterThanOrEqual(decimal.NewFromInt(3)):
		bias = BiasAggressive
	case expected.GreaterThanOrEqual(decimal.NewFromInt(1)):
		bias = BiasModerate
	}
	return GroupSignal{ExpectedCuts: &cuts, CutBias: bias}
}
