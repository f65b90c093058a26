package telegramtmpl

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/GoPolymarket/polymarket-regime/internal/report"
)

// RegimeData describes the data required to render a regime digest.
type RegimeData struct {
	RunID                string
	Sentiment            string
	Score                string
	Risk                 string
	Liquidity            string
	Volatility           string
	RecessionProbability string
	RateCutBias          string
	Assets               []AssetLine
	TopStocks            []string
	Highlights           []string
	Warnings             []string
	Corrections          int
}

type AssetLine struct {
	Key        string
	Bias       string
	Confidence string
}

// BuildRegimeData normalizes a validated report into a renderable payload.
func BuildRegimeData(runID string, r *report.Report, corrections int) RegimeData {
	d := RegimeData{RunID: runID, Corrections: corrections}
	if r == nil {
		return d
	}
	d.Sentiment = strings.ToUpper(strings.TrimSpace(r.MarketSentiment.Label))
	d.Score = fmtNum(r.MarketSentiment.Score, "%.0f")
	d.Risk = r.MarketRegime.Risk
	d.Liquidity = r.MarketRegime.Liquidity
	d.Volatility = r.MarketRegime.Volatility
	d.RecessionProbability = fmtPct(r.CrowdSignals.RecessionProbability)
	d.RateCutBias = r.CrowdSignals.RateCutBias

	keys := make([]string, 0, len(r.AssetOutlook))
	for k := range r.AssetOutlook {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a := r.AssetOutlook[k]
		d.Assets = append(d.Assets, AssetLine{Key: k, Bias: a.Bias, Confidence: fmtNum(a.Confidence, "%.2f")})
	}
	for _, s := range r.TopStocks {
		d.TopStocks = append(d.TopStocks, fmt.Sprintf("%s (%s)", s.Name, s.Ticker))
	}
	d.Highlights, d.Warnings = BuildHighlightsWarnings(AdviceInputFromReport(r, corrections))
	return d
}

// RenderRegimeHTML renders a regime digest in Telegram HTML parse mode.
func RenderRegimeHTML(d RegimeData) string {
	var b strings.Builder
	b.WriteString("<b>Macro Regime</b>\n")
	if d.RunID != "" {
		b.WriteString("Run: <code>" + esc(d.RunID) + "</code>\n")
	}
	b.WriteString(fmt.Sprintf("Sentiment: %s (%s)\n", esc(d.Sentiment), esc(d.Score)))
	b.WriteString(fmt.Sprintf("Risk: %s\nLiquidity: %s\nVolatility: %s\n", esc(d.Risk), esc(d.Liquidity), esc(d.Volatility)))
	b.WriteString(fmt.Sprintf("Recession: %s\nRate Cuts: %s\n", esc(d.RecessionProbability), esc(d.RateCutBias)))
	if len(d.Assets) > 0 {
		b.WriteString("\n<b>Assets</b>\n")
		for _, a := range d.Assets {
			b.WriteString(fmt.Sprintf("- %s: %s (conf %s)\n", esc(a.Key), esc(a.Bias), esc(a.Confidence)))
		}
	}
	if len(d.TopStocks) > 0 {
		b.WriteString("\n<b>Top Stocks</b>\n")
		for _, s := range d.TopStocks {
			b.WriteString("- " + esc(s) + "\n")
		}
	}
	if len(d.Highlights) > 0 {
		b.WriteString("\n<b>Highlights</b>\n")
		for _, h := range d.Highlights {
			b.WriteString("- " + esc(h) + "\n")
		}
	}
	if len(d.Warnings) > 0 {
		b.WriteString("\n<b>Warnings</b>\n")
		for _, w := range d.Warnings {
			b.WriteString("- " + esc(w) + "\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func esc(s string) string { return html.EscapeString(s) }

func fmtNum(p *float64, format string) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *p)
}

func fmtPct(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", *p*100)
}
