package provider

import (
	"context"
	"strings"
)

// ModelProvider is one generative backend the composer can call.
type ModelProvider interface {
	ID() string
	Enabled() bool
	Call(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Static always returns a fixed body. Used in tests and as a wiring stub
// when no real backend is configured.
type Static struct {
	Name   string
	Output string
	Err    error
}

func (s *Static) ID() string { return s.Name }

func (s *Static) Enabled() bool { return strings.TrimSpace(s.Name) != "" }

func (s *Static) Call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Output, nil
}
