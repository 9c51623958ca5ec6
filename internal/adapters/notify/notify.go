// Package notify contains Notifier implementations.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/example/clarence/internal/core/effects"
	"github.com/example/clarence/internal/ports/secondary"
)

// LogNotifier writes notifications to the structured log at debug level.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier backed by logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

// Notify implements secondary.Notifier.
func (n *LogNotifier) Notify(ctx context.Context, note secondary.Notification) error {
	n.logger.Debug(note.Message,
		zap.String("kind", note.Kind),
		zap.String("session_id", note.SessionID),
		zap.String("reference", note.Reference),
		zap.String("stage", note.Stage),
	)
	return nil
}

// ConsoleNotifier prints one coloured line per notification.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleNotifier creates a notifier that writes to out.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

// SetOutput redirects subsequent notifications to out.
func (n *ConsoleNotifier) SetOutput(out io.Writer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.out = out
}

// Notify implements secondary.Notifier.
func (n *ConsoleNotifier) Notify(ctx context.Context, note secondary.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, err := fmt.Fprintf(n.out, "%s %s %s\n", marker(note.Kind), note.Reference, note.Message)
	return err
}

func marker(kind string) string {
	switch kind {
	case effects.NotifySessionCompleted:
		return color.New(color.FgHiMagenta).Sprint("★")
	case effects.NotifyStageCompleted:
		return color.New(color.FgGreen).Sprint("✓")
	case effects.NotifyStageAdvanced:
		return color.New(color.FgCyan).Sprint("→")
	default:
		return color.New(color.FgYellow).Sprint("•")
	}
}

// Multi fans a notification out to several notifiers. Every notifier is
// attempted; the first error is returned.
type Multi []secondary.Notifier

// Notify implements secondary.Notifier.
func (m Multi) Notify(ctx context.Context, note secondary.Notification) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, note); err != nil && first == nil {
			first = err
		}
	}
	return first
}
