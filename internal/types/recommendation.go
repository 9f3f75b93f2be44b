package types

import "time"

// Recommendation is one piece of educational content produced for a user.
// Created only when eligibility and consent both pass, always together with
// its four trace steps.
type Recommendation struct {
	ID        string
	UserID    string
	Persona   string
	Title     string
	Body      string
	Rationale string
	CreatedAt time.Time
}

// TraceStep is one of the four ordered audit steps attached to a
// recommendation. Step numbers 1-4 have fixed meaning:
// signal detected, persona assigned, recommendation selected,
// rationale generated.
type TraceStep struct {
	RecommendationID string
	Step             int
	Reasoning        string
	DataCited        map[string]any
}

// TraceStepCount is the fixed number of steps per recommendation.
const TraceStepCount = 4
