// Package recommend turns an analytics report into narrative recommendations
// through an external completion provider, falling back to locally computed
// advice when the provider is missing, failing or unintelligible.
package recommend

import (
	"context"
	"errors"
	"time"
)

// ErrProviderUnavailable marks failures to obtain a completion at all.
var ErrProviderUnavailable = errors.New("recommendation provider unavailable")

// Provider sends a prompt and returns the raw completion text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Source tells how a Result was obtained.
type Source string

const (
	// SourceStructured is a completion that parsed and validated as JSON.
	SourceStructured Source = "structured"
	// SourceExtracted is a completion recovered from free text.
	SourceExtracted Source = "extracted"
	// SourceFallback is advice computed locally from the report.
	SourceFallback Source = "fallback"
)

// Priority of an action.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Action is one recommended step.
type Action struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Detail   string   `json:"detail,omitempty" validate:"max=2000"`
	Priority Priority `json:"priority" validate:"required,oneof=high medium low"`
}

// Recommendations is the payload asked of the provider.
type Recommendations struct {
	Summary string   `json:"summary" validate:"max=4000"`
	Actions []Action `json:"actions" validate:"required,min=1,max=20,dive"`
}

// Result is a tagged recommendation set. Reason explains a fallback.
type Result struct {
	Source          Source          `json:"source"`
	Provider        string          `json:"provider,omitempty"`
	Reason          string          `json:"reason,omitempty"`
	Recommendations Recommendations `json:"recommendations"`
	GeneratedAt     time.Time       `json:"generated_at"`
}
