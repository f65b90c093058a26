// Package guardrail repairs a generated report so it satisfies the domain
// invariants the model was asked, but not guaranteed, to respect.
package guardrail

import (
	"sort"
	"strconv"
	"strings"

	"github.com/GoPolymarket/polymarket-regime/internal/config"
	"github.com/GoPolymarket/polymarket-regime/internal/report"
	"github.com/GoPolymarket/polymarket-regime/internal/signal"
)

const (
	RecessionThreshold = 0.6
	ScoreCap           = 60.0
	MaxTopStocks       = 3
	unknownBias        = "Unknown"
)

// Rule names, in application order.
const (
	RuleRecession       = "recession"
	RuleVolatility      = "volatility"
	RuleLiquidity       = "liquidity"
	RuleGroupSignal     = "group_signal"
	RuleEnum            = "enum"
	RuleAssetKeys       = "asset_keys"
	RuleAssetConfidence = "asset_confidence"
	RuleRange           = "range"
	RuleStockUniverse   = "stock_universe"
)

// Constraints carries the facts the report is checked against.
type Constraints struct {
	Companies      []string
	CompanySignals map[string]signal.EntitySignal
	Group          *signal.GroupSignal
	StockUniverse  []config.StockConfig
}

// Correction records one change made to the report.
type Correction struct {
	Rule  string `json:"rule"`
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type corrections []Correction

func (c *corrections) add(rule, field, from, to string) {
	*c = append(*c, Correction{Rule: rule, Field: field, From: from, To: to})
}

// Validate applies every rule in order, mutating r in place, and returns
// the corrections it made.
func Validate(r *report.Report, c Constraints) []Correction {
	if r == nil {
		return nil
	}
	var out corrections
	enforceRecession(r, &out)
	enforceVolatility(r, &out)
	enforceLiquidity(r, &out)
	enforceGroupSignal(r, c.Group, &out)
	canonicalize(r, &out)
	filterAssets(r, c.Companies, &out)
	applyConfidence(r, c.CompanySignals, &out)
	clampRanges(r, &out)
	filterStocks(r, c.StockUniverse, &out)
	return out
}

func enforceRecession(r *report.Report, out *corrections) {
	p := r.CrowdSignals.RecessionProbability
	if p == nil || *p <= RecessionThreshold {
		return
	}
	if strings.EqualFold(strings.TrimSpace(r.MarketSentiment.Label), "Bullish") {
		out.add(RuleRecession, "market_sentiment.label", r.MarketSentiment.Label, "Neutral")
		r.MarketSentiment.Label = "Neutral"
	}
	capScore(r, RuleRecession, out)
	if r.MarketRegime.Risk != "Risk-Off" {
		out.add(RuleRecession, "market_regime.risk", r.MarketRegime.Risk, "Risk-Off")
		r.MarketRegime.Risk = "Risk-Off"
	}
}

func enforceVolatility(r *report.Report, out *corrections) {
	if strings.EqualFold(strings.TrimSpace(r.MarketRegime.Volatility), "Elevated") {
		capScore(r, RuleVolatility, out)
	}
}

func capScore(r *report.Report, rule string, out *corrections) {
	s := r.MarketSentiment.Score
	if s == nil || *s <= ScoreCap {
		return
	}
	out.add(rule, "market_sentiment.score", num(*s), num(ScoreCap))
	v := ScoreCap
	r.MarketSentiment.Score = &v
}

func enforceLiquidity(r *report.Report, out *corrections) {
	cs := r.CrowdSignals
	if strings.EqualFold(cs.FedPolicyBias, "Hawkish") &&
		strings.EqualFold(cs.RateCutBias, "Unlikely") &&
		strings.EqualFold(strings.TrimSpace(r.MarketRegime.Liquidity), "Easing") {
		out.add(RuleLiquidity, "market_regime.liquidity", r.MarketRegime.Liquidity, "Neutral")
		r.MarketRegime.Liquidity = "Neutral"
	}
}

func enforceGroupSignal(r *report.Report, g *signal.GroupSignal, out *corrections) {
	if g.Known() {
		return
	}
	if r.CrowdSignals.FedPolicyBias != unknownBias {
		out.add(RuleGroupSignal, "crowd_signals.fed_policy_bias", r.CrowdSignals.FedPolicyBias, unknownBias)
		r.CrowdSignals.FedPolicyBias = unknownBias
	}
	if r.CrowdSignals.RateCutBias != unknownBias {
		out.add(RuleGroupSignal, "crowd_signals.rate_cut_bias", r.CrowdSignals.RateCutBias, unknownBias)
		r.CrowdSignals.RateCutBias = unknownBias
	}
}

func canonicalize(r *report.Report, out *corrections) {
	fix := func(field string, v *string, allowed []string, fallback string) {
		to := Canonical(*v, allowed, fallback)
		if to != *v {
			out.add(RuleEnum, field, *v, to)
			*v = to
		}
	}
	fix("market_sentiment.label", &r.MarketSentiment.Label, report.SentimentLabels, "Neutral")
	fix("market_regime.risk", &r.MarketRegime.Risk, report.RiskLabels, "Transitional")
	fix("market_regime.liquidity", &r.MarketRegime.Liquidity, report.LiquidityLabels, "Neutral")
	fix("market_regime.volatility", &r.MarketRegime.Volatility, report.VolatilityLabels, "Normal")
	for _, k := range sortedKeys(r.AssetOutlook) {
		a := r.AssetOutlook[k]
		fix("asset_outlook."+k+".bias", &a.Bias, report.BiasLabels, "Negative")
		r.AssetOutlook[k] = a
	}
	for i := range r.TopStocks {
		fix("top_stocks["+strconv.Itoa(i)+"].expected_outperformance",
			&r.TopStocks[i].ExpectedOutperformance, report.OutperformLabels, "Moderate")
	}
}

// Canonical returns the member of allowed equal to v ignoring case and
// surrounding space, or fallback.
func Canonical(v string, allowed []string, fallback string) string {
	v = strings.TrimSpace(v)
	for _, a := range allowed {
		if strings.EqualFold(a, v) {
			return a
		}
	}
	return fallback
}

func filterAssets(r *report.Report, companies []string, out *corrections) {
	allowed := make(map[string]bool, len(companies))
	for _, c := range companies {
		allowed[strings.ToLower(strings.TrimSpace(c))] = true
	}
	for _, k := range sortedKeys(r.AssetOutlook) {
		if !allowed[strings.ToLower(strings.TrimSpace(k))] {
			out.add(RuleAssetKeys, "asset_outlook."+k, "present", "removed")
			delete(r.AssetOutlook, k)
		}
	}
}

func applyConfidence(r *report.Report, signals map[string]signal.EntitySignal, out *corrections) {
	if len(signals) == 0 {
		return
	}
	byKey := make(map[string]signal.EntitySignal, len(signals))
	for k, s := range signals {
		byKey[strings.ToLower(strings.TrimSpace(k))] = s
	}
	for _, k := range sortedKeys(r.AssetOutlook) {
		sig, ok := byKey[strings.ToLower(strings.TrimSpace(k))]
		if !ok || sig.Confidence == nil {
			continue
		}
		a := r.AssetOutlook[k]
		if a.Confidence != nil && *a.Confidence == *sig.Confidence {
			continue
		}
		out.add(RuleAssetConfidence, "asset_outlook."+k+".confidence", optNum(a.Confidence), num(*sig.Confidence))
		v := *sig.Confidence
		a.Confidence = &v
		r.AssetOutlook[k] = a
	}
}

func clampRanges(r *report.Report, out *corrections) {
	clamp := func(field string, p *float64, lo, hi float64) {
		if p == nil {
			return
		}
		v := *p
		switch {
		case v < lo:
			v = lo
		case v > hi:
			v = hi
		default:
			return
		}
		out.add(RuleRange, field, num(*p), num(v))
		*p = v
	}
	clamp("market_sentiment.score", r.MarketSentiment.Score, 0, 100)
	clamp("crowd_signals.recession_probability", r.CrowdSignals.RecessionProbability, 0, 1)
	clamp("risk_indicators.bubble_risk", r.RiskIndicators.BubbleRisk, 0, 100)
	clamp("risk_indicators.market_fragility", r.RiskIndicators.MarketFragility, 0, 100)
	clamp("risk_indicators.upside_probability", r.RiskIndicators.UpsideProbability, 0, 100)
	for _, k := range sortedKeys(r.AssetOutlook) {
		a := r.AssetOutlook[k]
		clamp("asset_outlook."+k+".confidence", a.Confidence, 0, 1)
	}
}

func filterStocks(r *report.Report, universe []config.StockConfig, out *corrections) {
	known := make(map[string]bool, len(universe))
	for _, s := range universe {
		known[strings.ToUpper(s.Ticker)] = true
	}
	seen := make(map[string]bool)
	kept := r.TopStocks[:0]
	for _, s := range r.TopStocks {
		ticker := strings.ToUpper(strings.TrimSpace(s.Ticker))
		if len(universe) > 0 && !known[ticker] {
			out.add(RuleStockUniverse, "top_stocks", s.Ticker, "removed")
			continue
		}
		if seen[ticker] {
			out.add(RuleStockUniverse, "top_stocks", s.Ticker, "duplicate removed")
			continue
		}
		seen[ticker] = true
		kept = append(kept, s)
	}
	if len(kept) > MaxTopStocks {
		for _, s := range kept[MaxTopStocks:] {
			out.add(RuleStockUniverse, "top_stocks", s.Ticker, "truncated")
		}
		kept = kept[:MaxTopStocks]
	}
	r.TopStocks = kept
}

func sortedKeys(m map[string]report.AssetOutlook) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func optNum(p *float64) string {
	if p == nil {
		return "null"
	}
	return num(*p)
}
