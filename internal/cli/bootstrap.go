// Package cli provides CLI commands for the clarence application.
package cli

import (
	"context"
	"fmt"

	"github.com/example/clarence/internal/core/party"
	"github.com/example/clarence/internal/ctxutil"
)

// globalActorID stores the acting party for the current CLI invocation.
// Set once at startup by SetActor.
var globalActorID string

// SetActor stores the acting party. Should be called once at CLI startup in
// PersistentPreRunE.
func SetActor(raw string) error {
	if raw == "" {
		globalActorID = ""
		return nil
	}
	p, err := party.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid --as '%s'. Use 'requesting' or 'fulfilling'", raw)
	}
	globalActorID = string(p)
	return nil
}

// GetActorID returns the stored acting party.
// Returns empty string if SetActor was not called.
func GetActorID() string {
	return globalActorID
}

// NewContext creates a context.Background() with the current actor embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() context.Context {
	ctx := context.Background()
	if globalActorID != "" {
		return ctxutil.WithActorID(ctx, globalActorID)
	}
	return ctx
}
