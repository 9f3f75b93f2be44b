package signal

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Window is a fixed lookback label signals are computed against.
type Window string

const (
	Window30d  Window = "30d"
	Window180d Window = "180d"
)

// Windows returns the window labels every pipeline run computes.
func Windows() []Window { return []Window{Window30d, Window180d} }

// Duration converts the label into a lookback duration.
// Returns false for labels it cannot parse.
func (w Window) Duration() (time.Duration, bool) {
	s := strings.TrimSpace(string(w))
	if len(s) < 2 || s[len(s)-1] != 'd' {
		return 0, false
	}
	days, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || days <= 0 {
		return 0, false
	}
	return time.Duration(days) * 24 * time.Hour, true
}

// Signal type identifiers. New types are additive; consumers must tolerate
// unknown types.
const (
	TypeCreditUtilizationMax    = "credit_utilization_max"
	TypeCreditUtilizationAvg    = "credit_utilization_avg"
	TypeCreditCardCount         = "credit_card_count"
	TypeCreditUtilizationFlag30 = "credit_utilization_flag_30"
	TypeCreditUtilizationFlag50 = "credit_utilization_flag_50"
	TypeCreditUtilizationFlag80 = "credit_utilization_flag_80"
	TypeCreditOverdue           = "credit_overdue"
	TypeCreditMonthlyInterest   = "credit_monthly_interest"

	TypeSubscriptionCount        = "subscription_count"
	TypeSubscriptionMonthlySpend = "subscription_monthly_spend"
	TypeSubscriptionShare        = "subscription_share"

	TypeIncomeMonthlyEstimate = "income_monthly_estimate"
	TypeIncomeDepositCount    = "income_deposit_count"

	TypeSavingsBalance   = "savings_balance_total"
	TypeSavingsNetInflow = "savings_net_inflow"
	TypeSavingsRate      = "savings_rate"

	TypeAccountCount     = "account_count"
	TypeTransactionCount = "transaction_count"
)

// Metadata is the structured payload attached to a signal. Each category has
// its own concrete type so consumers know at compile time what it contains.
type Metadata interface {
	Kind() string
}

// Metadata kind tags, used for persistence.
const (
	MetaKindCreditCards   = "credit_cards"
	MetaKindSubscriptions = "subscriptions"
	MetaKindIncome        = "income"
	MetaKindSavings       = "savings"
)

// CardUtilization captures one credit card's contribution to utilization math.
type CardUtilization struct {
	AccountID   string   `json:"account_id"`
	Name        string   `json:"name"`
	Balance     float64  `json:"balance"`
	Limit       float64  `json:"limit"`
	Utilization float64  `json:"utilization"`
	APR         *float64 `json:"apr,omitempty"`
	Overdue     bool     `json:"overdue"`
}

// CreditCardMeta lists the cards that produced a credit signal.
type CreditCardMeta struct {
	Cards []CardUtilization `json:"cards"`
}

func (CreditCardMeta) Kind() string { return MetaKindCreditCards }

// SubscriptionGroup is one qualifying recurring-merchant group.
type SubscriptionGroup struct {
	Merchant      string  `json:"merchant"`
	Occurrences   int     `json:"occurrences"`
	MonthlyAmount float64 `json:"monthly_amount"`
	AvgGapDays    float64 `json:"avg_gap_days"`
}

// SubscriptionMeta lists the merchant groups behind a subscription signal.
type SubscriptionMeta struct {
	Merchants []SubscriptionGroup `json:"merchants"`
}

func (SubscriptionMeta) Kind() string { return MetaKindSubscriptions }

// MerchantNames returns the qualifying merchant names in catalog order.
func (m SubscriptionMeta) MerchantNames() []string {
	out := make([]string, 0, len(m.Merchants))
	for _, g := range m.Merchants {
		out = append(out, g.Merchant)
	}
	return out
}

// IncomeMeta describes the detected payroll source behind an income signal.
type IncomeMeta struct {
	Cadence        string  `json:"cadence"`
	TypicalDeposit float64 `json:"typical_deposit"`
	DepositCount   int     `json:"deposit_count"`
	Source         string  `json:"source"`
}

func (IncomeMeta) Kind() string { return MetaKindIncome }

// SavingsMeta lists the savings accounts contributing to a savings signal.
type SavingsMeta struct {
	AccountNames []string `json:"account_names"`
}

func (SavingsMeta) Kind() string { return MetaKindSavings }

// Signal is one derived fact about a user's finances, scoped to a window.
// A nil Value means the signal is metadata-only.
type Signal struct {
	UserID string
	Type   string
	Window Window
	Value  *float64
	Meta   Metadata
}

// Float builds a *float64 in place.
func Float(v float64) *float64 { return &v }

// Set is a read-only view over one (user, window) signal batch, keyed by type.
type Set struct {
	UserID  string
	Window  Window
	signals map[string]Signal
}

// NewSet indexes signals by type. Later duplicates win, matching the
// replace-on-recompute storage semantics.
func NewSet(userID string, window Window, signals []Signal) Set {
	m := make(map[string]Signal, len(signals))
	for _, sig := range signals {
		m[sig.Type] = sig
	}
	return Set{UserID: userID, Window: window, signals: m}
}

// Value returns the numeric value for a signal type. The second return is
// false when the signal is absent or has no numeric value.
func (s Set) Value(sigType string) (float64, bool) {
	sig, ok := s.signals[sigType]
	if !ok || sig.Value == nil {
		return 0, false
	}
	return *sig.Value, true
}

// Flag reports whether a flag-valued signal is set to 1.0.
func (s Set) Flag(sigType string) bool {
	v, ok := s.Value(sigType)
	return ok && v >= 1.0
}

// Lookup returns the full signal for a type.
func (s Set) Lookup(sigType string) (Signal, bool) {
	sig, ok := s.signals[sigType]
	return sig, ok
}

// Meta returns the metadata attached to a signal type, or nil.
func (s Set) Meta(sigType string) Metadata {
	if sig, ok := s.signals[sigType]; ok {
		return sig.Meta
	}
	return nil
}

// Len reports how many signals the set holds.
func (s Set) Len() int { return len(s.signals) }

// All returns the signals sorted by type for deterministic iteration.
func (s Set) All() []Signal {
	out := make([]Signal, 0, len(s.signals))
	for _, sig := range s.signals {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
