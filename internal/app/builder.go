package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"fincoach/internal/config"
	"fincoach/internal/content"
	"fincoach/internal/eligibility"
	"fincoach/internal/logger"
	"fincoach/internal/persona"
	"fincoach/internal/pipeline"
	"fincoach/internal/provider"
	"fincoach/internal/rationale"
	"fincoach/internal/signal"
	"fincoach/internal/store/auditlog"
	"fincoach/internal/store/gormstore"
	apihttp "fincoach/internal/transport/http"
)

func build(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := gormstore.New(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if cfg.Storage.SeedDemo {
		if err := db.SeedDemo(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed demo records: %w", err)
		}
	}
	audit, err := auditlog.Open(cfg.Storage.AuditPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	registry := buildRegistry(cfg.Eligibility.ProductsPath)
	gate := eligibility.NewGate(registry, audit)

	extractor := buildExtractor(cfg.Signals)
	selector := content.NewSelector(content.DefaultCatalog(), cfg.Content.MinItems, cfg.Content.MaxItems)
	tone := content.NewToneGate(audit)

	var generator *content.Generator
	if cfg.Generative.Enabled {
		client := &provider.OpenAIChatClient{
			BaseURL:      cfg.Generative.APIURL,
			APIKey:       cfg.Generative.APIKey,
			Model:        cfg.Generative.Model,
			Timeout:      time.Duration(cfg.Generative.TimeoutSeconds) * time.Second,
			MaxRetries:   cfg.Generative.MaxRetries,
			ExtraHeaders: cfg.Generative.Headers,
		}
		model := provider.NewOpenAIModelProvider(cfg.Generative.Model, true, client)
		cache := content.NewGeneratedCache(time.Duration(cfg.Content.CacheTTLSeconds) * time.Second)
		generator, err = content.NewGenerator(model, cache, tone)
		if err != nil {
			audit.Close()
			db.Close()
			return nil, fmt.Errorf("build generator: %w", err)
		}
		logger.Infof("generative content enabled via model %s", cfg.Generative.Model)
	}

	runner := &pipeline.Runner{
		Store:      db,
		Extractor:  extractor,
		Classifier: persona.NewClassifier(),
		Selector:   selector,
		Generator:  generator,
		Tone:       tone,
		Gate:       gate,
		Composer:   rationale.NewComposer(),
		Traces:     rationale.NewTraceBuilder(),
		Workers:    cfg.Pipeline.Workers,
	}

	server, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr: cfg.App.HTTPAddr,
		Router: &apihttp.Router{
			Store:  db,
			Runner: runner,
			Audit:  audit,
		},
	})
	if err != nil {
		audit.Close()
		db.Close()
		return nil, fmt.Errorf("build http server: %w", err)
	}

	return &App{
		cfg:    cfg,
		store:  db,
		audit:  audit,
		runner: runner,
		server: server,
	}, nil
}

func buildRegistry(path string) *eligibility.Registry {
	if _, err := os.Stat(path); err != nil {
		logger.Warnf("product rules file %s unavailable, eligibility falls back to keyword checks: %v", path, err)
		return eligibility.NewStaticRegistry(nil)
	}
	registry, err := eligibility.NewRegistry(path)
	if err != nil {
		logger.Warnf("product registry load failed, eligibility falls back to keyword checks: %v", err)
		return eligibility.NewStaticRegistry(nil)
	}
	return registry
}

func buildExtractor(cfg config.SignalsConfig) *signal.Extractor {
	e := signal.NewExtractor()
	if cfg.SubscriptionLookbackDays > 0 {
		e.SubscriptionLookbackDays = cfg.SubscriptionLookbackDays
	}
	if cfg.SubscriptionMinOccurrences > 0 {
		e.SubscriptionMinOccurrences = cfg.SubscriptionMinOccurrences
	}
	if cfg.SubscriptionAmountTolerance > 0 {
		e.SubscriptionAmountTolerance = cfg.SubscriptionAmountTolerance
	}
	if cfg.SubscriptionMinGapDays > 0 {
		e.SubscriptionMinGapDays = cfg.SubscriptionMinGapDays
	}
	if cfg.SubscriptionMaxGapDays > 0 {
		e.SubscriptionMaxGapDays = cfg.SubscriptionMaxGapDays
	}
	if cfg.IncomeLookbackDays > 0 {
		e.IncomeLookbackDays = cfg.IncomeLookbackDays
	}
	return e
}
