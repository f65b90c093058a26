package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Polymarket PolymarketConfig `yaml:"polymarket"`
	Retry      RetryConfig      `yaml:"retry"`
	Breaker    BreakerConfig    `yaml:"breaker"`
	Cache      CacheConfig      `yaml:"cache"`
	LLM        LLMConfig        `yaml:"llm"`
	Signals    SignalsConfig    `yaml:"signals"`
	Engine     EngineConfig     `yaml:"engine"`
	API        APIConfig        `yaml:"api"`
	Telegram   TelegramConfig   `yaml:"telegram"`

	Events        []EventConfig `yaml:"events"`
	StockUniverse []StockConfig `yaml:"stock_universe"`
}

type PolymarketConfig struct {
	GammaBaseURL string        `yaml:"gamma_base_url"`
	ClobBaseURL  string        `yaml:"clob_base_url"`
	EventTimeout time.Duration `yaml:"event_timeout"`
	PriceTimeout time.Duration `yaml:"price_timeout"`
	EventPacing  time.Duration `yaml:"event_pacing"`
	// book reads the SDK client's CLOB orderbook; midpoint calls ClobBaseURL directly.
	PriceSource string `yaml:"price_source"`
}

// RetryConfig bounds retries of idempotent GET calls.
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	BackoffBase   time.Duration `yaml:"backoff_base"`
	BackoffFactor float64       `yaml:"backoff_factor"`
	StatusCodes   []int         `yaml:"status_codes"`
}

type BreakerConfig struct {
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
}

type CacheConfig struct {
	Path     string        `yaml:"path"`
	UseCache bool          `yaml:"use_cache"`
	MaxAge   time.Duration `yaml:"max_age"` // 0 = never stale
}

type LLMConfig struct {
	Provider     string        `yaml:"provider"` // claude|gemini
	Model        string        `yaml:"model"`    // empty = provider default
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxTokens    int           `yaml:"max_tokens"`
	Temperature  float32       `yaml:"temperature"`
	SystemPrompt string        `yaml:"system_prompt"`
	BaseURL      string        `yaml:"base_url"`
}

type SignalsConfig struct {
	Companies []CompanyProfile `yaml:"companies"`
	// Categories groups event keys by macro theme; CompanyCategories maps a
	// ticker to the themes that move it. Only used when engine.auto_expand is on.
	Categories        map[string][]string `yaml:"categories"`
	CompanyCategories map[string][]string `yaml:"company_categories"`
}

// CompanyProfile describes an entity that has a family of price-target markets.
type CompanyProfile struct {
	Ticker         string   `yaml:"ticker"`
	Aliases        []string `yaml:"aliases"`
	MaterialityMin int      `yaml:"materiality_min"`
}

type EngineConfig struct {
	AutoExpand bool `yaml:"auto_expand"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// EventConfig is one entry of the event catalog.
type EventConfig struct {
	Key         string `yaml:"key" json:"key"`
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
	Category    string `yaml:"category" json:"category"`
	Group       bool   `yaml:"group" json:"group"`
}

type StockConfig struct {
	Name   string `yaml:"name" json:"name"`
	Ticker string `yaml:"ticker" json:"ticker"`
	Sector string `yaml:"sector" json:"sector"`
}

func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "console",
		Polymarket: PolymarketConfig{
			GammaBaseURL: "https://gamma-api.polymarket.com",
			ClobBaseURL:  "https://clob.polymarket.com",
			EventTimeout: 15 * time.Second,
			PriceTimeout: 10 * time.Second,
			EventPacing:  300 * time.Millisecond,
			PriceSource:  "book",
		},
		Retry: RetryConfig{
			MaxAttempts:   5,
			BackoffBase:   1500 * time.Millisecond,
			BackoffFactor: 2,
			StatusCodes:   []int{429, 500, 502, 503, 504},
		},
		Breaker: BreakerConfig{
			ConsecutiveFailures: 5,
			OpenTimeout:         60 * time.Second,
		},
		Cache: CacheConfig{
			Path:     "polymarket_cache.json",
			UseCache: true,
		},
		LLM: LLMConfig{
			Provider:     "claude",
			Timeout:      90 * time.Second,
			MaxTokens:    4096,
			SystemPrompt: "You are a macro market intelligence engine.",
		},
		Signals: SignalsConfig{
			Companies: []CompanyProfile{
				{Ticker: "NVDA", Aliases: []string{"NVIDIA"}, MaterialityMin: 200},
			},
			Categories: map[string][]string{
				"rates":           {"fed_decision_march", "treasury_yield_high", "treasury_yield_low"},
				"recession":       {"us_recession_2026"},
				"inflation":       {"inflation_2026"},
				"liquidity":       {"microstrategy_btc_sale"},
				"ai_progress":     {"ai_frontiermath_90"},
				"crypto":          {"microstrategy_btc_sale"},
				"nvidia_specific": {"nvidia_february_2026"},
			},
			CompanyCategories: map[string][]string{
				"NVDA":  {"nvidia_specific", "ai_progress", "rates", "liquidity", "recession"},
				"MSFT":  {"ai_progress", "rates", "recession"},
				"GOOGL": {"ai_progress", "rates", "recession"},
				"AAPL":  {"rates", "inflation", "recession"},
				"AMZN":  {"consumer_spending", "rates", "inflation", "recession"},
				"XOM":   {"inflation", "rates", "recession"},
				"JNJ":   {"recession", "rates"},
			},
		},
		API: APIConfig{
			Addr: ":8000",
		},
		Events:        DefaultEvents(),
		StockUniverse: DefaultStockUniverse(),
	}
}

// DefaultEvents is the built-in event catalog, in fetch order.
func DefaultEvents() []EventConfig {
	return []EventConfig{
		{Key: "fed_decision_march", ID: "67284", Label: "Fed decision in March", Description: "Near-term policy action expectations", Category: "Monetary Policy"},
		{Key: "treasury_yield_high", ID: "79104", Label: "Treasury yield upper bound", Description: "Market expectations for long-term yields", Category: "Inflation & Liquidity"},
		{Key: "treasury_yield_low", ID: "79123", Label: "Treasury yield lower bound", Description: "Downside yield expectations", Category: "Inflation & Liquidity"},
		{Key: "microstrategy_btc_sale", ID: "16167", Label: "Crypto institutional stress", Description: "Liquidity stress signals in crypto markets", Category: "Risk Appetite"},
		{Key: "ai_frontiermath_90", ID: "79080", Label: "AI frontier progress", Description: "Risk appetite for frontier technology", Category: "Risk Appetite"},
		{Key: "inflation_2026", ID: "80773", Label: "Inflation outlook 2026", Description: "Long-term inflation expectations", Category: "Inflation & Liquidity"},
		{Key: "us_recession_2026", ID: "48802", Label: "US recession probability", Description: "Probability of economic contraction by 2026", Category: "Growth & Recession"},
		{Key: "nvidia_february_2026", ID: "186955", Label: "NVIDIA price targets", Description: "Market-implied upside expectations", Category: "Technology"},
		{Key: "fed_rate_cuts_2026", ID: "51456", Label: "Fed rate cuts in 2026", Description: "Market-implied expectations for monetary easing", Category: "Monetary Policy", Group: true},
	}
}

// DefaultStockUniverse is the closed set of stocks the report may pick from.
func DefaultStockUniverse() []StockConfig {
	return []StockConfig{
		{Name: "NVIDIA", Ticker: "NVDA", Sector: "Technology"},
		{Name: "Microsoft", Ticker: "MSFT", Sector: "Technology"},
		{Name: "Alphabet", Ticker: "GOOGL", Sector: "Technology"},
		{Name: "Amazon", Ticker: "AMZN", Sector: "Technology"},
		{Name: "Apple", Ticker: "AAPL", Sector: "Technology"},
		{Name: "Exxon Mobil", Ticker: "XOM", Sector: "Energy"},
		{Name: "Chevron", Ticker: "CVX", Sector: "Energy"},
		{Name: "Procter & Gamble", Ticker: "PG", Sector: "Consumer Staples"},
		{Name: "Coca-Cola", Ticker: "KO", Sector: "Consumer Staples"},
		{Name: "Johnson & Johnson", Ticker: "JNJ", Sector: "Healthcare"},
		{Name: "Pfizer", Ticker: "PFE", Sector: "Healthcare"},
		{Name: "JPMorgan Chase", Ticker: "JPM", Sector: "Financials"},
		{Name: "Bank of America", Ticker: "BAC", Sector: "Financials"},
	}
}

func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("REGIME_LLM_PROVIDER")); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("REGIME_LLM_MODEL")); v != "" {
		c.LLM.Model = v
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini":
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	default:
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	}
	if v := os.Getenv("REGIME_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("REGIME_USE_CACHE")); v != "" {
		c.Cache.UseCache = strings.EqualFold(v, "true") || v == "1"
	}
	if v := strings.TrimSpace(os.Getenv("REGIME_LOG_LEVEL")); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
}

// Event returns the catalog entry for key.
func (c Config) Event(key string) (EventConfig, bool) {
	for _, e := range c.Events {
		if e.Key == key {
			return e, true
		}
	}
	return EventConfig{}, false
}
