// Package effects defines effect types as data structures representing I/O operations.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string // "debug", "info", "warn"
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// AuditEffect records one change to a session in its event history.
type AuditEffect struct {
	SessionID string
	Operation string // e.g., "set_position", "complete_stage"
	Target    string // clause id, stage id, dimension...
	Field     string
	OldValue  string
	NewValue  string
}

func (e AuditEffect) EffectType() string { return "audit" }

// Notification kinds carried by NotifyEffect.
const (
	NotifyStageCompleted   = "stage_completed"
	NotifyStageAdvanced    = "stage_advanced"
	NotifySessionCompleted = "session_completed"
)

// NotifyEffect represents a message for the notification dispatcher.
type NotifyEffect struct {
	Kind      string
	SessionID string
	Reference string
	Stage     string
	Message   string
}

func (e NotifyEffect) EffectType() string { return "notify" }
