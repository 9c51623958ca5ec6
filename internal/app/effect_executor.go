// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/clarence/internal/core/effects"
	"github.com/example/clarence/internal/ctxutil"
	"github.com/example/clarence/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor with real I/O.
type DefaultEffectExecutor struct {
	events   secondary.EventLog
	notifier secondary.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewEffectExecutor creates a new DefaultEffectExecutor. A nil notifier
// drops notifications.
func NewEffectExecutor(events secondary.EventLog, notifier secondary.Notifier, logger *zap.Logger) *DefaultEffectExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultEffectExecutor{
		events:   events,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Execute runs every effect in order. A failing effect does not stop the
// ones after it; all failures are joined into the returned error.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	var errs []error
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			errs = append(errs, fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err))
		}
	}
	return errors.Join(errs...)
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.AuditEffect:
		return e.executeAudit(ctx, typed)
	case effects.NotifyEffect:
		e.executeNotify(ctx, typed)
		return nil
	case effects.LogEffect:
		e.executeLog(typed)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executeAudit(ctx context.Context, eff effects.AuditEffect) error {
	if e.events == nil {
		return nil
	}
	actor := ctxutil.ActorFromContext(ctx)
	if actor == "" {
		actor = "system"
	}
	return e.events.Append(ctx, &secondary.SessionEventRecord{
		SessionID: eff.SessionID,
		Actor:     actor,
		Operation: eff.Operation,
		Target:    eff.Target,
		FieldName: eff.Field,
		OldValue:  eff.OldValue,
		NewValue:  eff.NewValue,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	})
}

// Notification failures are logged, never returned.
func (e *DefaultEffectExecutor) executeNotify(ctx context.Context, eff effects.NotifyEffect) {
	if e.notifier == nil {
		return
	}
	err := e.notifier.Notify(ctx, secondary.Notification{
		Kind:      eff.Kind,
		SessionID: eff.SessionID,
		Reference: eff.Reference,
		Stage:     eff.Stage,
		Message:   eff.Message,
	})
	if err != nil {
		e.logger.Warn("notification failed",
			zap.String("kind", eff.Kind),
			zap.String("session_id", eff.SessionID),
			zap.Error(err))
	}
}

func (e *DefaultEffectExecutor) executeLog(eff effects.LogEffect) {
	fields := make([]zap.Field, 0, len(eff.Fields))
	for k, v := range eff.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	switch eff.Level {
	case "debug":
		e.logger.Debug(eff.Message, fields...)
	case "warn":
		e.logger.Warn(eff.Message, fields...)
	default:
		e.logger.Info(eff.Message, fields...)
	}
}
