package persona

import "time"

// Persona is the single behavioral label assigned to a user.
type Persona string

const (
	HighUtilization   Persona = "high_utilization"
	SubscriptionHeavy Persona = "subscription_heavy"
	VariableIncome    Persona = "variable_income"
	SavingsBuilder    Persona = "savings_builder"
	FinancialNewcomer Persona = "financial_newcomer"
	Neutral           Persona = "neutral"
)

// All lists every persona in priority order, highest first. Neutral is the
// terminal default and must stay last.
func All() []Persona {
	return []Persona{
		HighUtilization,
		SubscriptionHeavy,
		VariableIncome,
		SavingsBuilder,
		FinancialNewcomer,
		Neutral,
	}
}

// Valid reports whether p is a known persona label.
func Valid(p Persona) bool {
	for _, known := range All() {
		if p == known {
			return true
		}
	}
	return false
}

// Assignment is the single active persona record for a user. Reassignment
// overwrites it wholesale; there is no history.
type Assignment struct {
	UserID     string
	Persona    Persona
	Criteria   string
	AssignedAt time.Time
}
