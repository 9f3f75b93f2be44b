package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fincoach/internal/persona"
	"fincoach/internal/signal"
	"fincoach/internal/store/model"
	"fincoach/internal/types"
)

// --------------------- Records (read-only) -------------------------

type recordRepo struct {
	tx *gorm.DB
}

func (r *recordRepo) FetchUser(ctx context.Context, userID string) (types.RecordSet, error) {
	userID = strings.TrimSpace(userID)
	if r == nil || r.tx == nil {
		return types.RecordSet{}, fmt.Errorf("record repo not initialized")
	}
	if userID == "" {
		return types.RecordSet{}, fmt.Errorf("user_id required")
	}
	var accounts []model.AccountModel
	if err := r.tx.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&accounts).Error; err != nil {
		return types.RecordSet{}, err
	}
	var txns []model.TransactionModel
	if err := r.tx.WithContext(ctx).Where("user_id = ?", userID).Order("date ASC, id ASC").Find(&txns).Error; err != nil {
		return types.RecordSet{}, err
	}
	set := types.RecordSet{UserID: userID}
	for _, m := range accounts {
		set.Accounts = append(set.Accounts, accountModelToRecord(m))
	}
	for _, m := range txns {
		set.Transactions = append(set.Transactions, transactionModelToRecord(m))
	}
	return set, nil
}

func (r *recordRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	if r == nil || r.tx == nil {
		return nil, fmt.Errorf("record repo not initialized")
	}
	var ids []string
	err := r.tx.WithContext(ctx).
		Model(&model.AccountModel{}).
		Distinct("user_id").
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// --------------------- Consents -------------------------

type consentRepo struct {
	tx *gorm.DB
}

func (r *consentRepo) Granted(ctx context.Context, userID string) (bool, error) {
	if r == nil || r.tx == nil {
		return false, fmt.Errorf("consent repo not initialized")
	}
	var m model.ConsentModel
	err := r.tx.WithContext(ctx).Where("user_id = ?", strings.TrimSpace(userID)).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No consent record means no consent.
			return false, nil
		}
		return false, err
	}
	return m.Granted != 0, nil
}

func (r *consentRepo) Set(ctx context.Context, userID string, granted bool) error {
	if r == nil || r.tx == nil {
		return fmt.Errorf("consent repo not initialized")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user_id required")
	}
	val := 0
	if granted {
		val = 1
	}
	m := model.ConsentModel{UserID: userID, Granted: val, UpdatedAtUnix: time.Now().Unix()}
	return r.tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"granted", "updated_at"}),
		}).
		Create(&m).Error
}

// --------------------- Signals -------------------------

type signalRepo struct {
	tx *gorm.DB
}

// ReplaceForWindow deletes all prior signals for the (user, window) pair and
// writes the new batch, making re-extraction idempotent.
func (r *signalRepo) ReplaceForWindow(ctx context.Context, userID string, window signal.Window, signals []signal.Signal) error {
	if r == nil || r.tx == nil {
		return fmt.Errorf("signal repo not initialized")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user_id required")
	}
	if err := r.tx.WithContext(ctx).
		Where("user_id = ? AND window = ?", userID, string(window)).
		Delete(&model.SignalModel{}).Error; err != nil {
		return err
	}
	if len(signals) == 0 {
		return nil
	}
	now := time.Now().Unix()
	models := make([]model.SignalModel, 0, len(signals))
	for _, sig := range signals {
		meta, err := model.EncodeSignalMeta(sig.Meta)
		if err != nil {
			return err
		}
		models = append(models, model.SignalModel{
			UserID:        userID,
			SignalType:    sig.Type,
			Window:        string(window),
			Value:         sig.Value,
			Meta:          meta,
			CreatedAtUnix: now,
		})
	}
	return r.tx.WithContext(ctx).Create(&models).Error
}

func (r *signalRepo) ListForWindow(ctx context.Context, userID string, window signal.Window) ([]signal.Signal, error) {
	if r == nil || r.tx == nil {
		return nil, fmt.Errorf("signal repo not initialized")
	}
	var models []model.SignalModel
	err := r.tx.WithContext(ctx).
		Where("user_id = ? AND window = ?", strings.TrimSpace(userID), string(window)).
		Order("signal_type ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]signal.Signal, 0, len(models))
	for _, m := range models {
		meta, err := model.DecodeSignalMeta(m.Meta)
		if err != nil {
			return nil, err
		}
		out = append(out, signal.Signal{
			UserID: m.UserID,
			Type:   m.SignalType,
			Window: signal.Window(m.Window),
			Value:  m.Value,
			Meta:   meta,
		})
	}
	return out, nil
}

// --------------------- Personas -------------------------

type personaRepo struct {
	tx *gorm.DB
}

// Upsert replaces the user's assignment wholesale; assignments are never
// append-only history.
func (r *personaRepo) Upsert(ctx context.Context, assignment persona.Assignment) error {
	if r == nil || r.tx == nil {
		return fmt.Errorf("persona repo not initialized")
	}
	userID := strings.TrimSpace(assignment.UserID)
	if userID == "" {
		return fmt.Errorf("user_id required")
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now()
	}
	m := model.PersonaAssignmentModel{
		UserID:         userID,
		Persona:        string(assignment.Persona),
		Criteria:       assignment.Criteria,
		AssignedAtUnix: assignment.AssignedAt.Unix(),
	}
	return r.tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"persona", "criteria", "assigned_at"}),
		}).
		Create(&m).Error
}

func (r *personaRepo) Get(ctx context.Context, userID string) (persona.Assignment, bool, error) {
	if r == nil || r.tx == nil {
		return persona.Assignment{}, false, fmt.Errorf("persona repo not initialized")
	}
	var m model.PersonaAssignmentModel
	err := r.tx.WithContext(ctx).Where("user_id = ?", strings.TrimSpace(userID)).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return persona.Assignment{}, false, nil
		}
		return persona.Assignment{}, false, err
	}
	return persona.Assignment{
		UserID:     m.UserID,
		Persona:    persona.Persona(m.Persona),
		Criteria:   m.Criteria,
		AssignedAt: time.Unix(m.AssignedAtUnix, 0),
	}, true, nil
}

// --------------------- Recommendations + traces -------------------------

type recommendationRepo struct {
	tx *gorm.DB
}

// CreateWithTrace writes a recommendation and its four trace steps as one
// unit. Anything other than a complete ordered 1..4 run is rejected.
func (r *recommendationRepo) CreateWithTrace(ctx context.Context, rec types.Recommendation, steps []types.TraceStep) error {
	if r == nil || r.tx == nil {
		return fmt.Errorf("recommendation repo not initialized")
	}
	if strings.TrimSpace(rec.UserID) == "" {
		return fmt.Errorf("user_id required")
	}
	if len(steps) != types.TraceStepCount {
		return fmt.Errorf("recommendation requires exactly %d trace steps, got %d", types.TraceStepCount, len(steps))
	}
	for i, step := range steps {
		if step.Step != i+1 {
			return fmt.Errorf("trace steps must be ordered 1..%d, step %d has number %d", types.TraceStepCount, i+1, step.Step)
		}
	}
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	recModel := model.RecommendationModel{
		ID:            rec.ID,
		UserID:        strings.TrimSpace(rec.UserID),
		Persona:       rec.Persona,
		Title:         rec.Title,
		Body:          rec.Body,
		Rationale:     rec.Rationale,
		CreatedAtUnix: rec.CreatedAt.Unix(),
	}
	if err := r.tx.WithContext(ctx).Create(&recModel).Error; err != nil {
		return err
	}
	stepModels := make([]model.TraceStepModel, 0, len(steps))
	for _, step := range steps {
		cited, err := model.EncodeDataCited(step.DataCited)
		if err != nil {
			return err
		}
		stepModels = append(stepModels, model.TraceStepModel{
			RecommendationID: rec.ID,
			StepNumber:       step.Step,
			Reasoning:        step.Reasoning,
			DataCited:        cited,
			CreatedAtUnix:    rec.CreatedAt.Unix(),
		})
	}
	return r.tx.WithContext(ctx).Create(&stepModels).Error
}

func (r *recommendationRepo) ListForUser(ctx context.Context, userID string) ([]types.Recommendation, error) {
	if r == nil || r.tx == nil {
		return nil, fmt.Errorf("recommendation repo not initialized")
	}
	var models []model.RecommendationModel
	err := r.tx.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]types.Recommendation, 0, len(models))
	for _, m := range models {
		out = append(out, types.Recommendation{
			ID:        m.ID,
			UserID:    m.UserID,
			Persona:   m.Persona,
			Title:     m.Title,
			Body:      m.Body,
			Rationale: m.Rationale,
			CreatedAt: time.Unix(m.CreatedAtUnix, 0),
		})
	}
	return out, nil
}

func (r *recommendationRepo) Trace(ctx context.Context, recommendationID string) ([]types.TraceStep, error) {
	if r == nil || r.tx == nil {
		return nil, fmt.Errorf("recommendation repo not initialized")
	}
	var models []model.TraceStepModel
	err := r.tx.WithContext(ctx).
		Where("recommendation_id = ?", strings.TrimSpace(recommendationID)).
		Order("step_number ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]types.TraceStep, 0, len(models))
	for _, m := range models {
		cited, err := model.DecodeDataCited(m.DataCited)
		if err != nil {
			return nil, err
		}
		out = append(out, types.TraceStep{
			RecommendationID: m.RecommendationID,
			Step:             m.StepNumber,
			Reasoning:        m.Reasoning,
			DataCited:        cited,
		})
	}
	return out, nil
}

// DeleteForUser removes the user's recommendations together with their trace
// steps so no orphaned traces remain. Used by the consent-revocation path.
func (r *recommendationRepo) DeleteForUser(ctx context.Context, userID string) error {
	if r == nil || r.tx == nil {
		return fmt.Errorf("recommendation repo not initialized")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user_id required")
	}
	var ids []string
	if err := r.tx.WithContext(ctx).
		Model(&model.RecommendationModel{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := r.tx.WithContext(ctx).
		Where("recommendation_id IN ?", ids).
		Delete(&model.TraceStepModel{}).Error; err != nil {
		return err
	}
	return r.tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.RecommendationModel{}).Error
}

// --------------------- Model conversion helpers -------------------------

func accountModelToRecord(m model.AccountModel) types.Account {
	return types.Account{
		ID:             m.ID,
		UserID:         m.UserID,
		Name:           m.Name,
		Type:           types.AccountType(m.Type),
		Subtype:        m.Subtype,
		CurrentBalance: m.CurrentBalance,
		CreditLimit:    m.CreditLimit,
		APR:            m.APR,
		IsOverdue:      m.IsOverdue != 0,
		InterestRate:   m.InterestRate,
	}
}

func transactionModelToRecord(m model.TransactionModel) types.Transaction {
	return types.Transaction{
		ID:           m.ID,
		AccountID:    m.AccountID,
		UserID:       m.UserID,
		Date:         time.Unix(m.DateUnix, 0).UTC(),
		Amount:       m.Amount,
		MerchantName: m.MerchantName,
		Category:     m.Category,
		Pending:      m.Pending != 0,
	}
}
