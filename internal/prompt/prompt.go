// Package prompt renders the regime analysis prompt.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/GoPolymarket/polymarket-regime/internal/config"
	"github.com/GoPolymarket/polymarket-regime/internal/market"
	"github.com/GoPolymarket/polymarket-regime/internal/signal"
)

// System is the default system instruction.
const System = "You are a deterministic macro market intelligence engine. You follow the rules exactly and answer with valid JSON only."

type Input struct {
	Group         *signal.GroupSignal
	Companies     map[string]signal.EntitySignal
	Markets       []market.Compressed
	StockUniverse []config.StockConfig
}

type sector struct {
	Name   string
	Stocks []config.StockConfig
}

type view struct {
	GroupJSON     string
	CompaniesJSON string
	MarketsJSON   string
	Sectors       []sector
}

var tmpl = template.Must(template.New("regime").Parse(`You are given probabilistic signals derived from live prediction market data.
Infer the current macro regime and produce a regime-consistent outlook for the
selected assets and stocks.

FED RATE CUT SIGNAL:
{{.GroupJSON}}

COMPANY SIGNALS:
{{.CompaniesJSON}}

INPUT DATA:
{{.MarketsJSON}}

STOCK SELECTION UNIVERSE:
You may ONLY select stocks from the following list.
{{range .Sectors}}
{{.Name}}:
{{- range .Stocks}}
- {{.Name}} ({{.Ticker}})
{{- end}}
{{end}}
OUTPUT REQUIREMENTS:
Return ONE valid JSON object with the following structure:

{
  "market_sentiment": {
    "label": "Bullish | Neutral | Bearish",
    "score": integer between 0 and 100
  },
  "market_regime": {
    "risk": "Risk-On | Risk-Off | Transitional",
    "liquidity": "Easing | Neutral | Tightening",
    "volatility": "Low | Normal | Elevated"
  },
  "crowd_signals": {
    "fed_policy_bias": "",
    "recession_probability": number between 0 and 1,
    "rate_cut_bias": ""
  },
  "asset_outlook": {
    "<asset_name>": {
      "bias": "Positive | Neutral | Negative",
      "confidence": number between 0 and 1,
      "reasoning": ""
    }
  },
  "top_stocks": [
    {
      "name": "",
      "ticker": "",
      "sector": "",
      "reasoning": "",
      "expected_outperformance": "Moderate | High"
    }
  ],
  "risk_indicators": {
    "bubble_risk": integer between 0 and 100,
    "market_fragility": integer between 0 and 100,
    "upside_probability": integer between 0 and 100
  }
}

STOCK SELECTION RULES:
- Every selected stock must be justified by the inferred macro regime
- In Risk-Off regimes prefer defensive sectors (Healthcare, Consumer Staples, Energy)
- In Risk-On regimes prefer growth sectors (Technology)
- Do not select stocks that contradict the regime
- Stocks must be individual operating companies with a valid ticker; ETFs, indices, sector funds and baskets are forbidden
- Return exactly 3 stocks in "top_stocks"

RULES:
- Base conclusions only on the provided probabilities and signals
- Prioritize rates, yields, inflation and recession risk
- Do not mention prediction markets
- Do not add text outside the JSON object
- asset_outlook entries must correspond to the provided COMPANY SIGNALS
- Use company signal confidence as the asset confidence
- Reasoning must reference signal strength and dispersion where available
- Reasoning strings must be at most 25 words
- fed_policy_bias and rate_cut_bias must be derived from FED RATE CUT SIGNAL
- If expected_cuts is null, set both fields to "Unknown"
- Do not include probabilities or percentages in labels

CONSISTENCY RULES:
- If recession_probability > 0.6: market_sentiment must not be "Bullish" and market_regime.risk must be "Risk-Off"
- If fed_policy_bias is "Hawkish" and rate_cut_bias is "Unlikely": liquidity must not be "Easing"
- If volatility is "Elevated": market_sentiment.score must be at most 60

Sentiment scoring guidance:
- 0-30 = Bearish
- 31-60 = Neutral
- 61-100 = Bullish

Return ONLY valid JSON.
`))

// Build renders the prompt. Identical inputs yield identical text.
func Build(in Input) (string, error) {
	group, err := indent(in.Group)
	if err != nil {
		return "", fmt.Errorf("encode group signal: %w", err)
	}
	companies := in.Companies
	if companies == nil {
		companies = map[string]signal.EntitySignal{}
	}
	comp, err := indent(companies)
	if err != nil {
		return "", fmt.Errorf("encode company signals: %w", err)
	}
	markets := in.Markets
	if markets == nil {
		markets = []market.Compressed{}
	}
	mk, err := indent(markets)
	if err != nil {
		return "", fmt.Errorf("encode markets: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, view{
		GroupJSON:     group,
		CompaniesJSON: comp,
		MarketsJSON:   mk,
		Sectors:       bySector(in.StockUniverse),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func indent(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// bySector groups stocks by sector in first-seen order.
func bySector(stocks []config.StockConfig) []sector {
	var out []sector
	idx := make(map[string]int)
	for _, s := range stocks {
		i, ok := idx[s.Sector]
		if !ok {
			i = len(out)
			idx[s.Sector] = i
			out = append(out, sector{Name: s.Sector})
		}
		out[i].Stocks = append(out[i].Stocks, s)
	}
	return out
}
