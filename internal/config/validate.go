package config

import (
	"fmt"
	"strings"
)

// Validate checks high-impact runtime configuration constraints.
func (c Config) Validate() error {
	if c.Polymarket.GammaBaseURL == "" {
		return fmt.Errorf("polymarket.gamma_base_url must be set")
	}
	src := strings.ToLower(strings.TrimSpace(c.Polymarket.PriceSource))
	if src != "book" && src != "midpoint" {
		return fmt.Errorf("polymarket.price_source must be 'book' or 'midpoint', got %q", c.Polymarket.PriceSource)
	}
	if src == "midpoint" && c.Polymarket.ClobBaseURL == "" {
		return fmt.Errorf("polymarket.clob_base_url must be set for price_source=midpoint")
	}
	if c.Polymarket.EventPacing < 0 {
		return fmt.Errorf("polymarket.event_pacing must be >= 0, got %v", c.Polymarket.EventPacing)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BackoffBase < 0 {
		return fmt.Errorf("retry.backoff_base must be >= 0, got %v", c.Retry.BackoffBase)
	}
	if c.Retry.BackoffFactor < 1 {
		return fmt.Errorf("retry.backoff_factor must be >= 1, got %f", c.Retry.BackoffFactor)
	}

	if c.Cache.UseCache && strings.TrimSpace(c.Cache.Path) == "" {
		return fmt.Errorf("cache.path must be set when cache.use_cache is true")
	}
	if c.Cache.MaxAge < 0 {
		return fmt.Errorf("cache.max_age must be >= 0, got %v", c.Cache.MaxAge)
	}

	provider := strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if provider != "claude" && provider != "gemini" {
		return fmt.Errorf("llm.provider must be 'claude' or 'gemini', got %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be > 0, got %v", c.LLM.Timeout)
	}

	seen := make(map[string]bool, len(c.Events))
	for _, e := range c.Events {
		if e.Key == "" || e.ID == "" {
			return fmt.Errorf("events: key and id are required (key=%q id=%q)", e.Key, e.ID)
		}
		if seen[e.Key] {
			return fmt.Errorf("events: duplicate key %q", e.Key)
		}
		seen[e.Key] = true
	}
	for _, p := range c.Signals.Companies {
		if p.Ticker == "" {
			return fmt.Errorf("signals.companies: ticker is required")
		}
		if p.MaterialityMin < 0 {
			return fmt.Errorf("signals.companies[%s].materiality_min must be >= 0", p.Ticker)
		}
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.enabled requires bot_token and chat_id")
	}
	return nil
}
