package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fincoach/internal/config"
	"fincoach/internal/logger"
	"fincoach/internal/pipeline"
	"fincoach/internal/store/auditlog"
	"fincoach/internal/store/gormstore"
	apihttp "fincoach/internal/transport/http"
)

// App wires the stores, pipeline and HTTP server and drives their lifecycle.
type App struct {
	cfg    *config.Config
	store  *gormstore.GormStore
	audit  *auditlog.Store
	runner *pipeline.Runner
	server *apihttp.Server
}

// New builds the application from config without starting anything.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return build(context.Background(), cfg)
}

// Runner exposes the pipeline runner, mainly for harnesses.
func (a *App) Runner() *pipeline.Runner {
	if a == nil {
		return nil
	}
	return a.runner
}

// Run starts the HTTP server and the pipeline schedule, blocking until ctx
// is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Infof("http server listening on %s", a.server.Addr())
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		return a.runSchedule(ctx)
	})

	return group.Wait()
}

// runSchedule performs the optional startup batch run and then re-runs the
// pipeline on the configured interval.
func (a *App) runSchedule(ctx context.Context) error {
	if a.cfg.Pipeline.RunOnStart {
		if err := a.runBatch(ctx); err != nil {
			return err
		}
	}
	interval := time.Duration(a.cfg.Pipeline.IntervalSeconds) * time.Second
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.runBatch(ctx); err != nil {
				return err
			}
		}
	}
}

func (a *App) runBatch(ctx context.Context) error {
	results, err := a.runner.RunAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("batch pipeline run: %w", err)
	}
	total := 0
	for _, res := range results {
		total += res.Recommendations
	}
	logger.Infof("batch pipeline run complete: users=%d recommendations=%d", len(results), total)
	return nil
}

func (a *App) close() {
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			logger.Warnf("close audit log: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("close store: %v", err)
		}
	}
}
