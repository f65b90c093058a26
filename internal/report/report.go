// Package report models the generated macro regime report and recovers it
// from free-form model output.
package report

// Report is the structured regime assessment. It is untrusted until the
// guardrail validator has run over it.
type Report struct {
	MarketSentiment Sentiment               `json:"market_sentiment"`
	MarketRegime    Regime                  `json:"market_regime"`
	CrowdSignals    CrowdSignals            `json:"crowd_signals"`
	AssetOutlook    map[string]AssetOutlook `json:"asset_outlook"`
	TopStocks       []Stock                 `json:"top_stocks"`
	RiskIndicators  RiskIndicators          `json:"risk_indicators"`
}

type Sentiment struct {
	Label string   `json:"label"`
	Score *float64 `json:"score"`
}

type Regime struct {
	Risk       string `json:"risk"`
	Liquidity  string `json:"liquidity"`
	Volatility string `json:"volatility"`
}

type CrowdSignals struct {
	FedPolicyBias        string   `json:"fed_policy_bias"`
	RecessionProbability *float64 `json:"recession_probability"`
	RateCutBias          string   `json:"rate_cut_bias"`
}

type AssetOutlook struct {
	Bias       string   `json:"bias"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

type Stock struct {
	Name                   string `json:"name"`
	Ticker                 string `json:"ticker"`
	Sector                 string `json:"sector"`
	Reasoning              string `json:"reasoning"`
	ExpectedOutperformance string `json:"expected_outperformance"`
}

type RiskIndicators struct {
	BubbleRisk        *float64 `json:"bubble_risk"`
	MarketFragility   *float64 `json:"market_fragility"`
	UpsideProbability *float64 `json:"upside_probability"`
}

// Closed label sets.
var (
	SentimentLabels  = []string{"Bullish", "Neutral", "Bearish"}
	RiskLabels       = []string{"Risk-On", "Risk-Off", "Transitional"}
	LiquidityLabels  = []string{"Easing", "Neutral", "Tightening"}
	VolatilityLabels = []string{"Low", "Normal", "Elevated"}
	BiasLabels       = []string{"Positive", "Neutral", "Negative"}
	OutperformLabels = []string{"Moderate", "High"}
)
