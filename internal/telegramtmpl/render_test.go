package telegramtmpl

import (
	"strings"
	"testing"

	"github.com/GoPolymarket/polymarket-regime/internal/report"
)

func sampleReport() *report.Report {
	return &report.Report{
		MarketSentiment: report.Sentiment{Label: "Neutral", Score: fp(55)},
		MarketRegime:    report.Regime{Risk: "Risk-Off", Liquidity: "Neutral", Volatility: "Normal"},
		CrowdSignals:    report.CrowdSignals{FedPolicyBias: "Unknown", RecessionProbability: fp(0.65), RateCutBias: "Unknown"},
		AssetOutlook: map[string]report.AssetOutlook{
			"NVDA": {Bias: "Neutral", Confidence: fp(0.371)},
			"AAPL": {Bias: "Negative"},
		},
		TopStocks: []report.Stock{
			{Name: "Johnson & Johnson", Ticker: "JNJ"},
			{Name: "Procter & Gamble", Ticker: "PG"},
		},
	}
}

func TestBuildRegimeData(t *testing.T) {
	d := BuildRegimeData("run-1", sampleReport(), 3)
	if d.Sentiment != "NEUTRAL" {
		t.Fatalf("expected upper-cased sentiment, got %q", d.Sentiment)
	}
	if d.Score != "55" {
		t.Fatalf("expected score 55, got %q", d.Score)
	}
	if d.RecessionProbability != "65%" {
		t.Fatalf("expected 65%%, got %q", d.RecessionProbability)
	}
	if len(d.Assets) != 2 || d.Assets[0].Key != "AAPL" {
		t.Fatalf("expected sorted assets, got %+v", d.Assets)
	}
	if d.Assets[0].Confidence != "n/a" || d.Assets[1].Confidence != "0.37" {
		t.Fatalf("unexpected confidences %+v", d.Assets)
	}
	if len(d.Warnings) == 0 {
		t.Fatal("expected warnings for high recession probability")
	}
}

func TestRenderRegimeHTML(t *testing.T) {
	msg := RenderRegimeHTML(BuildRegimeData("run-1", sampleReport(), 1))
	for _, want := range []string{
		"<b>Macro Regime</b>",
		"Run: <code>run-1</code>",
		"Sentiment: NEUTRAL (55)",
		"Risk: Risk-Off",
		"Recession: 65%",
		"<b>Assets</b>\n- AAPL: Negative (conf n/a)\n- NVDA: Neutral (conf 0.37)",
		"Johnson &amp; Johnson (JNJ)",
		"<b>Warnings</b>",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in message:\n%s", want, msg)
		}
	}
	if strings.HasSuffix(msg, "\n") {
		t.Fatal("expected trimmed output")
	}
}

func TestBuildRegimeDataNilReport(t *testing.T) {
	d := BuildRegimeData("run-2", nil, 0)
	if d.RunID != "run-2" || d.Sentiment != "" {
		t.Fatalf("unexpected data %+v", d)
	}
}
