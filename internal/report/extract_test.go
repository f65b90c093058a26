package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Here is the report:\n{\"a\":{\"b\":2}}\nThanks!", `{"a":{"b":2}}`},
		{"braces in strings", `note {"r":"use } and { freely","q":"\"}"}`, `{"r":"use } and { freely","q":"\"}"}`},
		{"trailing commas", "{\"a\":[1,2,],\n\"b\":{\"c\":1,},\n}", `{"a":[1,2],"b":{"c":1}}`},
		{"comma inside string kept", `{"a":"x,}"}`, `{"a":"x,}"}`},
		{"first of two", `{"first":true} {"second":true}`, `{"first":true}`},
		{"skips broken first", `{not json} then {"ok":1}`, `{"ok":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractObject(tc.in)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestExtractObjectErrors(t *testing.T) {
	_, err := ExtractObject("no json here")
	assert.ErrorIs(t, err, ErrNoJSONObject)

	_, err = ExtractObject(`{"a": 1`)
	assert.ErrorIs(t, err, ErrNoJSONObject)

	_, err = ExtractObject(`{a: 1}`)
	assert.ErrorIs(t, err, ErrInvalidJSON)

	// An unclosed outer object must not yield one of its nested values.
	_, err = ExtractObject(`{"market_sentiment": {"label": "Bullish", "score": 70}, "top_stocks": [`)
	assert.ErrorIs(t, err, ErrNoJSONObject)

	// Nested objects of a malformed candidate are skipped along with it.
	_, err = ExtractObject(`{"a": {"b": 1} oops}`)
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestExtractObjectBraceHeavyGarbage(t *testing.T) {
	_, err := ExtractObject(strings.Repeat("{", 200000))
	assert.ErrorIs(t, err, ErrNoJSONObject)

	got, err := ExtractObject(strings.Repeat("{x} ", 50000) + `{"ok":1}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":1}`, string(got))
}

func TestParse(t *testing.T) {
	raw := "```json\n" + `{
  "market_sentiment": {"label": "Bullish", "score": 72},
  "market_regime": {"risk": "Risk-On", "liquidity": "Easing", "volatility": "Low"},
  "crowd_signals": {"fed_policy_bias": "Dovish", "recession_probability": 0.22, "rate_cut_bias": "Likely"},
  "asset_outlook": {"NVDA": {"bias": "Positive", "confidence": 0.41, "reasoning": "Upside targets priced."}},
  "top_stocks": [{"name": "NVIDIA", "ticker": "NVDA", "sector": "Technology", "reasoning": "AI demand.", "expected_outperformance": "High"}],
  "risk_indicators": {"bubble_risk": 55, "market_fragility": 30, "upside_probability": 64},
}` + "\n```"
	r, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Bullish", r.MarketSentiment.Label)
	require.NotNil(t, r.MarketSentiment.Score)
	assert.Equal(t, 72.0, *r.MarketSentiment.Score)
	require.NotNil(t, r.CrowdSignals.RecessionProbability)
	assert.Equal(t, 0.22, *r.CrowdSignals.RecessionProbability)
	assert.Equal(t, "Positive", r.AssetOutlook["NVDA"].Bias)
	require.Len(t, r.TopStocks, 1)
	assert.Equal(t, "High", r.TopStocks[0].ExpectedOutperformance)
	assert.Equal(t, 64.0, *r.RiskIndicators.UpsideProbability)
}

func TestParseTruncatedOutput(t *testing.T) {
	raw := "```json\n" + `{
  "market_sentiment": {"label": "Bullish", "score": 72},
  "market_regime": {"risk": "Risk-On", "liquidity": "Easing", "volatility": "Low"},
  "crowd_signals": {"fed_policy_bias": "Dovish", "recession_probability": 0.7, "rate_cut_bias": "Likely"},
  "asset_outlook": {"NVDA": {"bias": "Positive", "confidence": 0.41, "reasoning": "Upside."}},
  "top_stocks": [{"name": "NVIDIA", "ticker": "NVDA", "sector": "Tech`
	r, err := Parse(raw)
	require.Error(t, err)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrNoJSONObject)
}

func TestParseRejectsObjectWithoutReportSections(t *testing.T) {
	r, err := Parse(`Sentiment: {"label": "Bullish", "score": 72}`)
	require.Error(t, err)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrNotReport)
}

func TestParseWrongTypes(t *testing.T) {
	_, err := Parse(`{"market_sentiment": {"label": 5}}`)
	assert.Error(t, err)
}

func TestNewFailure(t *testing.T) {
	raw := "I cannot comply. " + strings.Repeat("é", 2000)
	_, err := Parse(raw)
	require.Error(t, err)

	f := NewFailure(err, raw)
	assert.Equal(t, "LLM_OUTPUT_PARSE_FAILED", f.Code)
	assert.NotEmpty(t, f.Message)
	assert.Equal(t, 1500, len([]rune(f.RawOutput)))
	assert.True(t, strings.HasPrefix(raw, f.RawOutput))

	short := NewFailure(nil, "tiny")
	assert.Equal(t, "tiny", short.RawOutput)
	assert.Equal(t, "unknown error", short.Message)
}
