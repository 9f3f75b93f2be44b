package eligibility

import (
	"context"
	"fmt"
	"strings"

	"fincoach/internal/logger"
	"fincoach/internal/signal"
	"fincoach/internal/store/auditlog"
	"fincoach/internal/types"
)

// Candidate is one piece of content awaiting an eligibility decision.
type Candidate struct {
	Title      string
	ProductKey string
}

// Decision is the outcome of the gate for one candidate.
type Decision struct {
	Eligible bool
	Reason   string
}

// ScoreSource supplies a credit score when one is known. The bureau
// integration does not exist yet, so the default source reports no score and
// the score check passes everything through.
type ScoreSource func(userID string) (int, bool)

// Gate filters content candidates against product rules. Checks run in a
// fixed order and the first failure wins: blacklist, conflicting holdings,
// income threshold, credit score.
type Gate struct {
	registry *Registry
	audit    auditlog.Sink
	score    ScoreSource
}

// NewGate builds a gate over the given registry. A nil audit sink is
// replaced with a no-op.
func NewGate(registry *Registry, audit auditlog.Sink) *Gate {
	if audit == nil {
		audit = auditlog.NopSink{}
	}
	return &Gate{registry: registry, audit: audit}
}

// SetScoreSource installs a credit score lookup.
func (g *Gate) SetScoreSource(src ScoreSource) { g.score = src }

// Check decides whether one candidate may be shown to the user. Exclusions
// and permissive assumptions are written to the audit trail; audit failures
// are logged and never change the decision.
func (g *Gate) Check(ctx context.Context, userID string, cand Candidate, recs types.RecordSet, sigs signal.Set) Decision {
	product, mapped := g.resolve(cand)
	if !mapped {
		return g.legacyCheck(ctx, userID, cand, recs)
	}

	if product.Blacklisted {
		return g.exclude(ctx, userID, cand.Title, fmt.Sprintf("product %s is blacklisted", product.ID))
	}

	if holding, conflict := conflictingHolding(product, recs); conflict {
		return g.exclude(ctx, userID, cand.Title,
			fmt.Sprintf("user already holds a conflicting %s account (%s)", holding.Type, holding.Name))
	}

	if product.MinAnnualIncome > 0 {
		monthly, known := sigs.Value(signal.TypeIncomeMonthlyEstimate)
		if !known {
			g.record(ctx, userID, cand.Title, "assumed_eligible",
				fmt.Sprintf("income unknown, product %s requires %.0f/yr", product.ID, product.MinAnnualIncome))
		} else if annual := monthly * 12; annual < product.MinAnnualIncome {
			return g.exclude(ctx, userID, cand.Title,
				fmt.Sprintf("estimated annual income %.2f below product minimum %.2f", annual, product.MinAnnualIncome))
		}
	}

	if product.MinCreditScore > 0 && g.score != nil {
		if score, ok := g.score(userID); ok && score < product.MinCreditScore {
			return g.exclude(ctx, userID, cand.Title,
				fmt.Sprintf("credit score %d below product minimum %d", score, product.MinCreditScore))
		}
	}

	return Decision{Eligible: true}
}

func (g *Gate) resolve(cand Candidate) (Product, bool) {
	if g.registry == nil {
		return Product{}, false
	}
	if key := strings.TrimSpace(cand.ProductKey); key != "" {
		if p, ok := g.registry.Product(key); ok {
			return p, true
		}
	}
	return g.registry.MatchTitle(cand.Title)
}

// legacyCheck covers content with no product mapping: a coarse keyword scan
// that keeps savings pitches away from users who already save and card
// pitches away from users who already carry a card.
func (g *Gate) legacyCheck(ctx context.Context, userID string, cand Candidate, recs types.RecordSet) Decision {
	title := strings.ToLower(cand.Title)
	switch {
	case strings.Contains(title, "savings account"):
		for _, a := range recs.Accounts {
			if a.IsSavings() {
				return g.exclude(ctx, userID, cand.Title, "user already holds a savings account")
			}
		}
	case strings.Contains(title, "credit card"):
		for _, a := range recs.Accounts {
			if a.IsCredit() {
				return g.exclude(ctx, userID, cand.Title, "user already holds a credit card")
			}
		}
	}
	return Decision{Eligible: true}
}

func conflictingHolding(product Product, recs types.RecordSet) (types.Account, bool) {
	for _, a := range recs.Accounts {
		for _, t := range product.ExcludedAccountTypes {
			if strings.EqualFold(strings.TrimSpace(t), string(a.Type)) {
				return a, true
			}
		}
		for _, sub := range product.ExcludedSubtypes {
			if strings.EqualFold(strings.TrimSpace(sub), a.Subtype) {
				return a, true
			}
		}
	}
	return types.Account{}, false
}

func (g *Gate) exclude(ctx context.Context, userID, title, reason string) Decision {
	g.record(ctx, userID, title, "excluded", reason)
	return Decision{Eligible: false, Reason: reason}
}

func (g *Gate) record(ctx context.Context, userID, title, decision, reason string) {
	err := g.audit.Append(ctx, auditlog.Entry{
		UserID:   userID,
		Stage:    auditlog.StageEligibility,
		Subject:  title,
		Decision: decision,
		Reason:   reason,
	})
	if err != nil {
		logger.Warnf("audit append failed for user %s: %v", userID, err)
	}
}
