package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDollarThreshold(t *testing.T) {
	cases := []struct {
		q    string
		want int
		ok   bool
	}{
		{"Will NVIDIA reach $200 by February?", 200, true},
		{"Will Nvidia hit $1,000 in 2026?", 1000, true},
		{"Will NVIDIA reach $187.50?", 187, true},
		{"Will NVIDIA reach $ 250?", 250, true},
		{"Will NVIDIA reach $200 or $300?", 200, true},
		{"Will NVIDIA reach new highs?", 0, false},
		{"Costs $abc", 0, false},
		{"$", 0, false},
	}
	for _, tc := range cases {
		got, ok := DollarThreshold(tc.q)
		assert.Equal(t, tc.ok, ok, tc.q)
		assert.Equal(t, tc.want, got, tc.q)
	}
}

func TestCutCount(t *testing.T) {
	cases := []struct {
		label string
		want  int
		ok    bool
	}{
		{"No", 0, true},
		{"No change", 0, true},
		{"none", 0, true},
		{"Zero cuts", 0, true},
		{"1 cut", 1, true},
		{"2 cuts", 2, true},
		{"12+ cuts (300+ bps)", 12, true},
		{"Nov meeting: 3 cuts", 3, true},
		{"unknown", 0, false},
		{"Yes", 0, false},
	}
	for _, tc := range cases {
		got, ok := CutCount(tc.label)
		assert.Equal(t, tc.ok, ok, tc.label)
		assert.Equal(t, tc.want, got, tc.label)
	}
}

func TestMentionsEntity(t *testing.T) {
	assert.True(t, MentionsEntity("Will NVIDIA reach $200?", []string{"nvidia"}))
	assert.True(t, MentionsEntity("Will NVDA close above $150?", []string{"NVIDIA", "nvda"}))
	assert.False(t, MentionsEntity("Will Apple reach $300?", []string{"nvidia"}))
	assert.False(t, MentionsEntity("anything", []string{"", " "}))
}

func TestIsPriceTarget(t *testing.T) {
	assert.True(t, IsPriceTarget("Will NVIDIA reach $200?"))
	assert.True(t, IsPriceTarget("Will NVIDIA HIT $200?"))
	assert.True(t, IsPriceTarget("NVIDIA above $150 on Friday?"))
	assert.False(t, IsPriceTarget("NVIDIA largest company?"))
}
