package model

import (
	"gorm.io/datatypes"
)

type AccountModel struct {
	ID             string   `gorm:"column:id;primaryKey"`
	UserID         string   `gorm:"column:user_id;index"`
	Name           string   `gorm:"column:name"`
	Type           string   `gorm:"column:type"`
	Subtype        string   `gorm:"column:subtype"`
	CurrentBalance float64  `gorm:"column:current_balance"`
	CreditLimit    *float64 `gorm:"column:credit_limit"`
	APR            *float64 `gorm:"column:apr"`
	IsOverdue      int      `gorm:"column:is_overdue"`
	InterestRate   *float64 `gorm:"column:interest_rate"`
	CreatedAtUnix  int64    `gorm:"column:created_at"`
}

func (AccountModel) TableName() string { return "accounts" }

type TransactionModel struct {
	ID            string  `gorm:"column:id;primaryKey"`
	AccountID     string  `gorm:"column:account_id;index"`
	UserID        string  `gorm:"column:user_id;index"`
	DateUnix      int64   `gorm:"column:date"`
	Amount        float64 `gorm:"column:amount"`
	MerchantName  string  `gorm:"column:merchant_name"`
	Category      string  `gorm:"column:category"`
	Pending       int     `gorm:"column:pending"`
	CreatedAtUnix int64   `gorm:"column:created_at"`
}

func (TransactionModel) TableName() string { return "transactions" }

type ConsentModel struct {
	UserID        string `gorm:"column:user_id;primaryKey"`
	Granted       int    `gorm:"column:granted"`
	UpdatedAtUnix int64  `gorm:"column:updated_at"`
}

func (ConsentModel) TableName() string { return "consents" }

// SignalModel rows are replaced wholesale on re-extraction for the same
// (user, window); the unique index backs that upsert.
type SignalModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	UserID        string         `gorm:"column:user_id;uniqueIndex:idx_signal,priority:1"`
	SignalType    string         `gorm:"column:signal_type;uniqueIndex:idx_signal,priority:2"`
	Window        string         `gorm:"column:window;uniqueIndex:idx_signal,priority:3"`
	Value         *float64       `gorm:"column:value"`
	Meta          datatypes.JSON `gorm:"column:meta;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
}

func (SignalModel) TableName() string { return "signals" }

// PersonaAssignmentModel holds exactly one active row per user.
type PersonaAssignmentModel struct {
	UserID         string `gorm:"column:user_id;primaryKey"`
	Persona        string `gorm:"column:persona"`
	Criteria       string `gorm:"column:criteria"`
	AssignedAtUnix int64  `gorm:"column:assigned_at"`
}

func (PersonaAssignmentModel) TableName() string { return "persona_assignments" }

type RecommendationModel struct {
	ID            string `gorm:"column:id;primaryKey"`
	UserID        string `gorm:"column:user_id;index"`
	Persona       string `gorm:"column:persona"`
	Title         string `gorm:"column:title"`
	Body          string `gorm:"column:body"`
	Rationale     string `gorm:"column:rationale"`
	CreatedAtUnix int64  `gorm:"column:created_at"`
}

func (RecommendationModel) TableName() string { return "recommendations" }

// TraceStepModel rows exist only as a complete 1..4 run per recommendation.
type TraceStepModel struct {
	ID               int64          `gorm:"column:id;primaryKey"`
	RecommendationID string         `gorm:"column:recommendation_id;uniqueIndex:idx_trace,priority:1"`
	StepNumber       int            `gorm:"column:step_number;uniqueIndex:idx_trace,priority:2"`
	Reasoning        string         `gorm:"column:reasoning"`
	DataCited        datatypes.JSON `gorm:"column:data_cited;type:TEXT"`
	CreatedAtUnix    int64          `gorm:"column:created_at"`
}

func (TraceStepModel) TableName() string { return "decision_trace_steps" }
