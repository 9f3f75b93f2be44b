package types

import (
	"strings"
	"time"
)

// AccountType mirrors the aggregator's top-level account classification.
type AccountType string

const (
	AccountTypeDepository AccountType = "depository"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeLiability  AccountType = "liability"
)

// Account is a raw ingested account record. Immutable once ingested except
// for balance refresh.
type Account struct {
	ID             string
	UserID         string
	Name           string
	Type           AccountType
	Subtype        string
	CurrentBalance float64

	// Credit accounts only.
	CreditLimit *float64
	APR         *float64
	IsOverdue   bool

	// Liability accounts only.
	InterestRate *float64
}

// IsCredit reports whether the account is a credit-type account.
func (a Account) IsCredit() bool {
	return a.Type == AccountTypeCredit
}

// IsSavings reports whether the account is a depository savings account.
func (a Account) IsSavings() bool {
	return a.Type == AccountTypeDepository &&
		strings.EqualFold(strings.TrimSpace(a.Subtype), "savings")
}

// Transaction is a raw, append-only transaction record.
// Amount is signed: negative means money leaving the account.
type Transaction struct {
	ID           string
	AccountID    string
	UserID       string
	Date         time.Time
	Amount       float64
	MerchantName string
	Category     string
	Pending      bool
}

// Outflow reports whether the transaction moved money out of the account.
func (t Transaction) Outflow() bool { return t.Amount < 0 }

// Consent is the per-user flag gating recommendation generation.
type Consent struct {
	UserID    string
	Granted   bool
	UpdatedAt time.Time
}

// RecordSet bundles one user's raw records for a pipeline run.
type RecordSet struct {
	UserID       string
	Accounts     []Account
	Transactions []Transaction
}

// CreditAccounts returns the credit-type accounts in the set.
func (r RecordSet) CreditAccounts() []Account {
	var out []Account
	for _, acct := range r.Accounts {
		if acct.IsCredit() {
			out = append(out, acct)
		}
	}
	return out
}
