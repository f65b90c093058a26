package telegramtmpl

import (
	"fmt"
	"strings"

	"github.com/GoPolymarket/polymarket-regime/internal/report"
)

// AdviceInput describes inputs for generating digest highlights and warnings.
type AdviceInput struct {
	Sentiment            string
	Risk                 string
	Volatility           string
	RecessionProbability *float64
	BubbleRisk           *float64
	MarketFragility      *float64
	UpsideProbability    *float64
	Corrections          int
}

func AdviceInputFromReport(r *report.Report, corrections int) AdviceInput {
	return AdviceInput{
		Sentiment:            r.MarketSentiment.Label,
		Risk:                 r.MarketRegime.Risk,
		Volatility:           r.MarketRegime.Volatility,
		RecessionProbability: r.CrowdSignals.RecessionProbability,
		BubbleRisk:           r.RiskIndicators.BubbleRisk,
		MarketFragility:      r.RiskIndicators.MarketFragility,
		UpsideProbability:    r.RiskIndicators.UpsideProbability,
		Corrections:          corrections,
	}
}

// BuildHighlightsWarnings derives short digest bullets from a report.
func BuildHighlightsWarnings(in AdviceInput) (highlights []string, warnings []string) {
	highlights = make([]string, 0, 3)
	warnings = make([]string, 0, 4)

	switch strings.ToLower(strings.TrimSpace(in.Risk)) {
	case "risk-on":
		highlights = append(highlights, "Risk-On regime: growth sectors favored.")
	case "risk-off":
		warnings = append(warnings, "Risk-Off regime: defensive sectors favored.")
	}
	if in.UpsideProbability != nil && *in.UpsideProbability >= 60 {
		highlights = append(highlights, fmt.Sprintf("Upside probability is strong (%.0f).", *in.UpsideProbability))
	}
	if in.RecessionProbability != nil && *in.RecessionProbability > 0.6 {
		warnings = append(warnings, fmt.Sprintf("Recession probability is high (%.0f%%).", *in.RecessionProbability*100))
	}
	if strings.EqualFold(strings.TrimSpace(in.Volatility), "Elevated") {
		warnings = append(warnings, "Volatility is elevated.")
	}
	if in.BubbleRisk != nil && *in.BubbleRisk >= 70 {
		warnings = append(warnings, fmt.Sprintf("Bubble risk is elevated (%.0f).", *in.BubbleRisk))
	}
	if in.MarketFragility != nil && *in.MarketFragility >= 70 {
		warnings = append(warnings, fmt.Sprintf("Market fragility is elevated (%.0f).", *in.MarketFragility))
	}
	if in.Corrections > 0 {
		warnings = append(warnings, fmt.Sprintf("%d guardrail correction(s) applied.", in.Corrections))
	}
	if len(highlights) == 0 && len(warnings) == 0 {
		highlights = append(highlights, "No regime stress signals.")
	}
	return highlights, warnings
}
