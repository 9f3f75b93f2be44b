package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fincoach/internal/content"
	"fincoach/internal/eligibility"
	"fincoach/internal/logger"
	"fincoach/internal/persona"
	"fincoach/internal/rationale"
	"fincoach/internal/signal"
	"fincoach/internal/store"
	"fincoach/internal/types"
)

// Runner executes the full per-user pipeline: extract signals, classify,
// check consent, select and gate content, compose rationales and persist
// recommendations with their traces. Each user's run happens inside one
// UnitOfWork so partial state never lands.
type Runner struct {
	Store      store.Store
	Extractor  *signal.Extractor
	Classifier *persona.Classifier
	Selector   *content.Selector
	Generator  *content.Generator
	Tone       *content.ToneGate
	Gate       *eligibility.Gate
	Composer   *rationale.Composer
	Traces     *rationale.TraceBuilder

	Workers int
	Now     func() time.Time
}

// Result summarizes one user's pipeline run.
type Result struct {
	UserID          string
	Persona         persona.Persona
	SignalCount     int
	Recommendations int
	ConsentAbsent   bool
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// RunUser executes the pipeline for one user. Signals and persona are always
// computed and persisted; recommendations are produced only when consent is
// granted. Recommendations append; callers wanting a clean slate use
// ClearUser first.
func (r *Runner) RunUser(ctx context.Context, userID string) (Result, error) {
	result := Result{UserID: userID}
	uow, err := r.Store.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin pipeline for %s: %w", userID, err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := uow.Rollback(); rbErr != nil {
				logger.Warnf("pipeline rollback for %s failed: %v", userID, rbErr)
			}
		}
	}()

	recs, err := uow.Records().FetchUser(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("fetch records for %s: %w", userID, err)
	}

	now := r.now()
	var active signal.Set
	for _, window := range signal.Windows() {
		sigs := r.Extractor.Extract(recs, window, now)
		if err := uow.Signals().ReplaceForWindow(ctx, userID, window, sigs); err != nil {
			return result, fmt.Errorf("store signals for %s/%s: %w", userID, window, err)
		}
		// Classification runs over the short window; the long window is
		// persisted for trend queries.
		if window == signal.Window30d {
			active = signal.NewSet(userID, window, sigs)
		}
	}
	result.SignalCount = active.Len()

	label, criteria := r.Classifier.Classify(active)
	assignment := persona.Assignment{
		UserID:     userID,
		Persona:    label,
		Criteria:   criteria,
		AssignedAt: now,
	}
	if err := uow.Personas().Upsert(ctx, assignment); err != nil {
		return result, fmt.Errorf("upsert persona for %s: %w", userID, err)
	}
	result.Persona = label

	granted, err := uow.Consents().Granted(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("read consent for %s: %w", userID, err)
	}
	if !granted {
		result.ConsentAbsent = true
		if err := uow.Commit(); err != nil {
			return result, err
		}
		committed = true
		logger.Infof("pipeline user=%s persona=%s consent absent, no recommendations", userID, label)
		return result, nil
	}

	items := r.Selector.Select(label, active)
	if r.Generator != nil {
		items = r.Generator.Generate(ctx, userID, label, active, items)
	}

	for _, item := range items {
		decision := r.Gate.Check(ctx, userID, eligibility.Candidate{
			Title:      item.Title,
			ProductKey: item.ProductKey,
		}, recs, active)
		if !decision.Eligible {
			logger.Infof("pipeline user=%s excluded %q: %s", userID, item.Title, decision.Reason)
			continue
		}
		if r.Tone != nil && item.Reason != content.ReasonGenerated {
			r.Tone.ReviewTemplate(ctx, userID, item)
		}
		rationaleText := r.Composer.Compose(item, label, active)
		rec := types.Recommendation{
			ID:        uuid.NewString(),
			UserID:    userID,
			Persona:   string(label),
			Title:     item.Title,
			Body:      item.Body,
			Rationale: rationaleText,
			CreatedAt: now,
		}
		steps := r.Traces.Build(item, assignment, active, rationaleText)
		if err := uow.Recommendations().CreateWithTrace(ctx, rec, steps); err != nil {
			return result, fmt.Errorf("store recommendation for %s: %w", userID, err)
		}
		result.Recommendations++
	}

	if err := uow.Commit(); err != nil {
		return result, err
	}
	committed = true
	logger.Infof("pipeline user=%s persona=%s signals=%d recommendations=%d",
		userID, label, result.SignalCount, result.Recommendations)
	return result, nil
}

// RunAll processes every known user. Per-user runs are independent, so they
// fan out across Workers goroutines, each with its own UnitOfWork.
func (r *Runner) RunAll(ctx context.Context) ([]Result, error) {
	uow, err := r.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	userIDs, err := uow.Records().ListUserIDs(ctx)
	if rbErr := uow.Rollback(); rbErr != nil {
		logger.Warnf("list users rollback failed: %v", rbErr)
	}
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	results := make([]Result, len(userIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, userID := range userIDs {
		i, userID := i, userID
		g.Go(func() error {
			res, err := r.RunUser(gctx, userID)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ClearUser deletes the user's recommendations and traces together and drops
// any cached generative content, leaving signals and persona in place.
func (r *Runner) ClearUser(ctx context.Context, userID string) error {
	uow, err := r.Store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := uow.Recommendations().DeleteForUser(ctx, userID); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			logger.Warnf("clear rollback for %s failed: %v", userID, rbErr)
		}
		return fmt.Errorf("clear recommendations for %s: %w", userID, err)
	}
	if err := uow.Commit(); err != nil {
		return err
	}
	if r.Generator != nil {
		r.Generator.InvalidateUser(userID)
	}
	return nil
}

// RevokeConsent clears the consent flag and deletes the user's
// recommendations and traces in the same transaction.
func (r *Runner) RevokeConsent(ctx context.Context, userID string) error {
	uow, err := r.Store.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := uow.Rollback(); rbErr != nil {
				logger.Warnf("revoke rollback for %s failed: %v", userID, rbErr)
			}
		}
	}()
	if err := uow.Consents().Set(ctx, userID, false); err != nil {
		return fmt.Errorf("revoke consent for %s: %w", userID, err)
	}
	if err := uow.Recommendations().DeleteForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete recommendations for %s: %w", userID, err)
	}
	if err := uow.Commit(); err != nil {
		return err
	}
	committed = true
	if r.Generator != nil {
		r.Generator.InvalidateUser(userID)
	}
	logger.Infof("consent revoked for user=%s, recommendations cleared", userID)
	return nil
}
