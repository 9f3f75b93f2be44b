package signal

import (
	"time"

	"fincoach/internal/logger"
	"fincoach/internal/types"
)

// Extractor derives signals from one user's raw records. All extraction is
// pure over the record set: same records, same clock, same signals.
//
// Missing data is never an error. A user with no qualifying accounts or
// transactions yields zero signals for the affected categories and the
// remaining categories proceed untouched.
type Extractor struct {
	SubscriptionLookbackDays    int
	SubscriptionMinOccurrences  int
	SubscriptionAmountTolerance float64
	SubscriptionMinGapDays      int
	SubscriptionMaxGapDays      int
	IncomeLookbackDays          int
}

// NewExtractor returns an extractor with the fixed product thresholds.
func NewExtractor() *Extractor {
	return &Extractor{
		SubscriptionLookbackDays:    90,
		SubscriptionMinOccurrences:  3,
		SubscriptionAmountTolerance: 1.00,
		SubscriptionMinGapDays:      27,
		SubscriptionMaxGapDays:      33,
		IncomeLookbackDays:          180,
	}
}

// Extract computes the full signal batch for one (user, window) pair.
func (e *Extractor) Extract(recs types.RecordSet, window Window, now time.Time) []Signal {
	if e == nil {
		return nil
	}
	var out []Signal
	out = append(out, e.creditSignals(recs, window)...)
	out = append(out, e.subscriptionSignals(recs, window, now)...)

	income, monthlyIncome := e.incomeSignals(recs, window, now)
	out = append(out, income...)
	out = append(out, e.savingsSignals(recs, window, now, monthlyIncome)...)
	out = append(out, e.profileSignals(recs, window)...)

	logger.Debugf("signal extract user=%s window=%s signals=%d", recs.UserID, window, len(out))
	return out
}

// profileSignals describe how much raw material the user has at all. They are
// omitted entirely for users with no records, keeping the zero-signal
// contract for empty users.
func (e *Extractor) profileSignals(recs types.RecordSet, window Window) []Signal {
	if len(recs.Accounts) == 0 && len(recs.Transactions) == 0 {
		return nil
	}
	return []Signal{
		{UserID: recs.UserID, Type: TypeAccountCount, Window: window, Value: Float(float64(len(recs.Accounts)))},
		{UserID: recs.UserID, Type: TypeTransactionCount, Window: window, Value: Float(float64(len(recs.Transactions)))},
	}
}
