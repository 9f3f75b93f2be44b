package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincoach/internal/content"
	"fincoach/internal/eligibility"
	"fincoach/internal/persona"
	"fincoach/internal/rationale"
	"fincoach/internal/signal"
	"fincoach/internal/store"
	"fincoach/internal/types"
)

// memStore is an in-memory Store for pipeline tests. Writes apply
// immediately; commit and rollback are no-ops.
type memStore struct {
	mu       sync.Mutex
	records  map[string]types.RecordSet
	consents map[string]bool
	signals  map[string]map[signal.Window][]signal.Signal
	personas map[string]persona.Assignment
	recs     map[string][]types.Recommendation
	traces   map[string][]types.TraceStep
}

func newMemStore() *memStore {
	return &memStore{
		records:  make(map[string]types.RecordSet),
		consents: make(map[string]bool),
		signals:  make(map[string]map[signal.Window][]signal.Signal),
		personas: make(map[string]persona.Assignment),
		recs:     make(map[string][]types.Recommendation),
		traces:   make(map[string][]types.TraceStep),
	}
}

func (s *memStore) Begin(context.Context) (store.UnitOfWork, error) { return &memUOW{s: s}, nil }
func (s *memStore) Close() error                                    { return nil }

type memUOW struct{ s *memStore }

func (u *memUOW) Commit() error   { return nil }
func (u *memUOW) Rollback() error { return nil }

func (u *memUOW) Records() store.RecordRepository                 { return memRecords{u.s} }
func (u *memUOW) Consents() store.ConsentRepository               { return memConsents{u.s} }
func (u *memUOW) Signals() store.SignalRepository                 { return memSignals{u.s} }
func (u *memUOW) Personas() store.PersonaRepository               { return memPersonas{u.s} }
func (u *memUOW) Recommendations() store.RecommendationRepository { return memRecs{u.s} }

type memRecords struct{ s *memStore }

func (r memRecords) FetchUser(_ context.Context, userID string) (types.RecordSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	recs, ok := r.s.records[userID]
	if !ok {
		return types.RecordSet{UserID: userID}, nil
	}
	return recs, nil
}

func (r memRecords) ListUserIDs(context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]string, 0, len(r.s.records))
	for id := range r.s.records {
		ids = append(ids, id)
	}
	return ids, nil
}

type memConsents struct{ s *memStore }

func (c memConsents) Granted(_ context.Context, userID string) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.consents[userID], nil
}

func (c memConsents) Set(_ context.Context, userID string, granted bool) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if granted {
		c.s.consents[userID] = true
	} else {
		delete(c.s.consents, userID)
	}
	return nil
}

type memSignals struct{ s *memStore }

func (r memSignals) ReplaceForWindow(_ context.Context, userID string, window signal.Window, signals []signal.Signal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.signals[userID] == nil {
		r.s.signals[userID] = make(map[signal.Window][]signal.Signal)
	}
	r.s.signals[userID][window] = append([]signal.Signal(nil), signals...)
	return nil
}

func (r memSignals) ListForWindow(_ context.Context, userID string, window signal.Window) ([]signal.Signal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]signal.Signal(nil), r.s.signals[userID][window]...), nil
}

type memPersonas struct{ s *memStore }

func (r memPersonas) Upsert(_ context.Context, assignment persona.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.personas[assignment.UserID] = assignment
	return nil
}

func (r memPersonas) Get(_ context.Context, userID string) (persona.Assignment, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.personas[userID]
	return a, ok, nil
}

type memRecs struct{ s *memStore }

func (r memRecs) CreateWithTrace(_ context.Context, rec types.Recommendation, steps []types.TraceStep) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.recs[rec.UserID] = append(r.s.recs[rec.UserID], rec)
	copied := append([]types.TraceStep(nil), steps...)
	for i := range copied {
		copied[i].RecommendationID = rec.ID
	}
	r.s.traces[rec.ID] = copied
	return nil
}

func (r memRecs) ListForUser(_ context.Context, userID string) ([]types.Recommendation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]types.Recommendation(nil), r.s.recs[userID]...), nil
}

func (r memRecs) Trace(_ context.Context, recommendationID string) ([]types.TraceStep, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]types.TraceStep(nil), r.s.traces[recommendationID]...), nil
}

func (r memRecs) DeleteForUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.recs[userID] {
		delete(r.s.traces, rec.ID)
	}
	delete(r.s.recs, userID)
	return nil
}

func newTestRunner(s *memStore) *Runner {
	return &Runner{
		Store:      s,
		Extractor:  signal.NewExtractor(),
		Classifier: persona.NewClassifier(),
		Selector:   content.NewSelector(content.DefaultCatalog(), 2, 3),
		Tone:       content.NewToneGate(nil),
		Gate:       eligibility.NewGate(eligibility.NewStaticRegistry(nil), nil),
		Composer:   rationale.NewComposer(),
		Traces:     rationale.NewTraceBuilder(),
		Workers:    2,
		Now:        func() time.Time { return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC) },
	}
}

func fptr(v float64) *float64 { return &v }

func seedHighUtilUser(s *memStore, userID string, consent bool) {
	s.records[userID] = types.RecordSet{
		UserID: userID,
		Accounts: []types.Account{
			{ID: "card-1", UserID: userID, Name: "Everyday Card", Type: types.AccountTypeCredit,
				CurrentBalance: 3750, CreditLimit: fptr(5000), APR: fptr(22)},
		},
	}
	if consent {
		s.consents[userID] = true
	}
}

func seedIrregularIncomeUser(s *memStore, userID string) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	txns := make([]types.Transaction, 0, 4)
	for i, daysAgo := range []int{10, 55, 100, 145} {
		txns = append(txns, types.Transaction{
			ID:           "gig-" + string(rune('a'+i)),
			UserID:       userID,
			AccountID:    "chk-1",
			Date:         now.AddDate(0, 0, -daysAgo),
			Amount:       950 + float64(i)*120,
			MerchantName: "Gig Platform",
		})
	}
	s.records[userID] = types.RecordSet{
		UserID: userID,
		Accounts: []types.Account{
			{ID: "chk-1", UserID: userID, Name: "Checking", Type: types.AccountTypeDepository, Subtype: "checking", CurrentBalance: 2100},
		},
		Transactions: txns,
	}
	s.consents[userID] = true
}

func TestRunUserIrregularIncomeReachesVariableIncome(t *testing.T) {
	s := newMemStore()
	seedIrregularIncomeUser(s, "u1")
	r := newTestRunner(s)

	res, err := r.RunUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, persona.VariableIncome, res.Persona)

	// Deposits 45 days apart never fit inside the short window, yet the
	// cadence still has to show up in the set the classifier reads.
	assignment, ok := s.personas["u1"]
	require.True(t, ok)
	assert.Contains(t, assignment.Criteria, "irregular schedule")
	assert.Contains(t, assignment.Criteria, "Gig Platform")
	assert.Greater(t, res.Recommendations, 0)
}

func TestRunUserConsentAbsentSkipsRecommendations(t *testing.T) {
	s := newMemStore()
	seedHighUtilUser(s, "u1", false)
	r := newTestRunner(s)

	res, err := r.RunUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, res.ConsentAbsent)
	assert.Equal(t, 0, res.Recommendations)

	// Signals and persona still land.
	assignment, ok := s.personas["u1"]
	require.True(t, ok)
	assert.Equal(t, persona.HighUtilization, assignment.Persona)
	assert.NotEmpty(t, s.signals["u1"][signal.Window30d])
	assert.Empty(t, s.recs["u1"])
}

func TestRunUserEmptyProfileGetsNeutralContent(t *testing.T) {
	s := newMemStore()
	s.records["ghost"] = types.RecordSet{UserID: "ghost"}
	s.consents["ghost"] = true
	r := newTestRunner(s)

	res, err := r.RunUser(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, persona.Neutral, res.Persona)
	assert.Equal(t, 0, res.SignalCount)
	assert.Equal(t, 2, res.Recommendations)

	for _, rec := range s.recs["ghost"] {
		assert.Contains(t, rec.Rationale, rationale.Disclaimer)
		assert.Contains(t, rec.Rationale, "not yet have enough account activity")
		steps := s.traces[rec.ID]
		require.Len(t, steps, types.TraceStepCount)
		for i, step := range steps {
			assert.Equal(t, i+1, step.Step)
			assert.Equal(t, rec.ID, step.RecommendationID)
		}
	}
}

func TestRunUserHighUtilizationEndToEnd(t *testing.T) {
	s := newMemStore()
	seedHighUtilUser(s, "u1", true)
	r := newTestRunner(s)

	res, err := r.RunUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, persona.HighUtilization, res.Persona)
	require.Equal(t, 3, res.Recommendations)

	recs := s.recs["u1"]
	assert.Equal(t, "Understanding Credit Utilization", recs[0].Title)
	assert.Contains(t, recs[0].Rationale, "75.0%")
	assert.Contains(t, recs[0].Rationale, "Everyday Card")

	steps := s.traces[recs[0].ID]
	require.Len(t, steps, types.TraceStepCount)
	assert.Contains(t, steps[1].Reasoning, "Everyday Card")
	assert.Equal(t, string(persona.HighUtilization), steps[1].DataCited["persona"])
}

func TestRunAllProcessesEveryUser(t *testing.T) {
	s := newMemStore()
	seedHighUtilUser(s, "u1", true)
	s.records["ghost"] = types.RecordSet{UserID: "ghost"}
	s.consents["ghost"] = true
	r := newTestRunner(s)

	results, err := r.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	total := 0
	for _, res := range results {
		total += res.Recommendations
	}
	assert.Equal(t, 5, total)
}

func TestRevokeConsentDeletesRecommendationsAndTraces(t *testing.T) {
	s := newMemStore()
	seedHighUtilUser(s, "u1", true)
	r := newTestRunner(s)

	_, err := r.RunUser(context.Background(), "u1")
	require.NoError(t, err)
	require.NotEmpty(t, s.recs["u1"])

	require.NoError(t, r.RevokeConsent(context.Background(), "u1"))
	assert.False(t, s.consents["u1"])
	assert.Empty(t, s.recs["u1"])
	assert.Empty(t, s.traces)

	// A rerun after revocation computes signals but produces nothing.
	res, err := r.RunUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, res.ConsentAbsent)
	assert.Equal(t, 0, res.Recommendations)
}

func TestClearUserThenRerunIsDeterministic(t *testing.T) {
	s := newMemStore()
	seedHighUtilUser(s, "u1", true)
	r := newTestRunner(s)

	_, err := r.RunUser(context.Background(), "u1")
	require.NoError(t, err)
	first := titlesOf(s.recs["u1"])

	require.NoError(t, r.ClearUser(context.Background(), "u1"))
	assert.Empty(t, s.recs["u1"])

	_, err = r.RunUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, first, titlesOf(s.recs["u1"]))
}

func titlesOf(recs []types.Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Title)
	}
	return out
}
