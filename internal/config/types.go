package config

import "strings"

// Config is the main configuration carrier.
type Config struct {
	App         AppConfig         `toml:"app"`
	Storage     StorageConfig     `toml:"storage"`
	Signals     SignalsConfig     `toml:"signals"`
	Eligibility EligibilityConfig `toml:"eligibility"`
	Content     ContentConfig     `toml:"content"`
	Generative  GenerativeConfig  `toml:"generative"`
	Pipeline    PipelineConfig    `toml:"pipeline"`
}

type AppConfig struct {
	Env       string `toml:"env"`
	LogLevel  string `toml:"log_level"`
	HTTPAddr  string `toml:"http_addr"`
	LogPath   string `toml:"log_path"`
	ModelLog  string `toml:"model_log_path"`
	ModelDump bool   `toml:"model_dump_payload"`
}

type StorageConfig struct {
	Path      string `toml:"path"`
	AuditPath string `toml:"audit_path"`
	SeedDemo  bool   `toml:"seed_demo"`
}

// SignalsConfig tunes subscription and income detection. Zero values fall
// back to the extractor defaults.
type SignalsConfig struct {
	SubscriptionLookbackDays    int     `toml:"subscription_lookback_days"`
	SubscriptionMinOccurrences  int     `toml:"subscription_min_occurrences"`
	SubscriptionAmountTolerance float64 `toml:"subscription_amount_tolerance"`
	SubscriptionMinGapDays      int     `toml:"subscription_min_gap_days"`
	SubscriptionMaxGapDays      int     `toml:"subscription_max_gap_days"`
	IncomeLookbackDays          int     `toml:"income_lookback_days"`
}

type EligibilityConfig struct {
	ProductsPath string `toml:"products_path"`
}

type ContentConfig struct {
	MinItems        int `toml:"min_items"`
	MaxItems        int `toml:"max_items"`
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`
}

// GenerativeConfig describes the optional model-backed rationale path. When
// disabled the composer always uses templates.
type GenerativeConfig struct {
	Enabled        bool              `toml:"enabled"`
	APIURL         string            `toml:"api_url"`
	APIKey         string            `toml:"api_key"`
	Model          string            `toml:"model"`
	Headers        map[string]string `toml:"headers"`
	TimeoutSeconds int               `toml:"timeout_seconds"`
	MaxRetries     int               `toml:"max_retries"`
}

type PipelineConfig struct {
	Workers         int  `toml:"workers"`
	RunOnStart      bool `toml:"run_on_start"`
	IntervalSeconds int  `toml:"interval_seconds"`
}

// keySet tracks which config key paths were set explicitly in the files.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes the default rule for a single field.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
