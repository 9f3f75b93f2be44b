package config

import "strings"

const (
	defaultAppEnv            = "dev"
	defaultAppLogLevel       = "info"
	defaultAppHTTPAddr       = ":9984"
	defaultAppLogPath        = "data/logs/fincoach.log"
	defaultAppModelLogPath   = "data/logs/fincoach-model.log"
	defaultStoragePath       = "data/db/fincoach.db"
	defaultStorageAuditPath  = "data/db/fincoach-audit.db"
	defaultProductsPath      = "configs/products.yaml"
	defaultContentMinItems   = 2
	defaultContentMaxItems   = 3
	defaultContentCacheTTL   = 900
	defaultGenerativeTimeout = 30
	defaultGenerativeRetries = 2
	defaultPipelineWorkers   = 4
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Storage.applyDefaults(keys)
	c.Signals.applyDefaults(keys)
	c.Eligibility.applyDefaults(keys)
	c.Content.applyDefaults(keys)
	c.Generative.applyDefaults(keys)
	c.Pipeline.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
		stringFieldDefault("app.model_log_path", &a.ModelLog, defaultAppModelLogPath),
	)
}

func (s *StorageConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("storage.path", &s.Path, defaultStoragePath),
		stringFieldDefault("storage.audit_path", &s.AuditPath, defaultStorageAuditPath),
		boolFieldDefault("storage.seed_demo", &s.SeedDemo, true),
	)
}

func (s *SignalsConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	// Detection tuning keeps the extractor defaults; only negatives are
	// scrubbed so the extractor never sees nonsense.
	if s.SubscriptionLookbackDays < 0 {
		s.SubscriptionLookbackDays = 0
	}
	if s.SubscriptionMinOccurrences < 0 {
		s.SubscriptionMinOccurrences = 0
	}
	if s.SubscriptionAmountTolerance < 0 {
		s.SubscriptionAmountTolerance = 0
	}
	if s.SubscriptionMinGapDays < 0 {
		s.SubscriptionMinGapDays = 0
	}
	if s.SubscriptionMaxGapDays < 0 {
		s.SubscriptionMaxGapDays = 0
	}
	if s.IncomeLookbackDays < 0 {
		s.IncomeLookbackDays = 0
	}
}

func (e *EligibilityConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("eligibility.products_path", &e.ProductsPath, defaultProductsPath),
	)
}

func (c *ContentConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "content.min_items",
			need:  func() bool { return c.MinItems <= 0 },
			apply: func() { c.MinItems = defaultContentMinItems },
		},
		fieldDefault{
			key:   "content.max_items",
			need:  func() bool { return c.MaxItems <= 0 },
			apply: func() { c.MaxItems = defaultContentMaxItems },
		},
		fieldDefault{
			key:   "content.cache_ttl_seconds",
			need:  func() bool { return c.CacheTTLSeconds <= 0 },
			apply: func() { c.CacheTTLSeconds = defaultContentCacheTTL },
		},
	)
}

func (g *GenerativeConfig) applyDefaults(keys keySet) {
	if g == nil {
		return
	}
	if g.Headers == nil {
		g.Headers = make(map[string]string)
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "generative.timeout_seconds",
			need:  func() bool { return g.TimeoutSeconds <= 0 },
			apply: func() { g.TimeoutSeconds = defaultGenerativeTimeout },
		},
		fieldDefault{
			key:   "generative.max_retries",
			need:  func() bool { return g.MaxRetries <= 0 },
			apply: func() { g.MaxRetries = defaultGenerativeRetries },
		},
	)
}

func (p *PipelineConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("pipeline.run_on_start", &p.RunOnStart, true),
		fieldDefault{
			key:   "pipeline.workers",
			need:  func() bool { return p.Workers <= 0 },
			apply: func() { p.Workers = defaultPipelineWorkers },
		},
	)
	if p.IntervalSeconds < 0 {
		p.IntervalSeconds = 0
	}
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
