package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/clarence/internal/core/effects"
	"github.com/example/clarence/internal/ports/secondary"
)

func sampleNotification() secondary.Notification {
	return secondary.Notification{
		Kind:      effects.NotifyStageAdvanced,
		SessionID: "sess-1",
		Reference: "NEG-0001",
		Stage:     "foundation",
		Message:   "advanced to foundation",
	}
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), sampleNotification()))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "advanced to foundation", entries[0].Message)
	assert.Equal(t, "notify", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, "stage_advanced", fields["kind"])
	assert.Equal(t, "NEG-0001", fields["reference"])
}

func TestConsoleNotifier(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	n := NewConsoleNotifier(&buf)

	require.NoError(t, n.Notify(context.Background(), sampleNotification()))
	note := sampleNotification()
	note.Kind = effects.NotifySessionCompleted
	note.Message = "negotiation completed"
	require.NoError(t, n.Notify(context.Background(), note))

	assert.Equal(t, "→ NEG-0001 advanced to foundation\n★ NEG-0001 negotiation completed\n", buf.String())
}

func TestConsoleNotifier_SetOutput(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var first, second bytes.Buffer
	n := NewConsoleNotifier(&first)
	n.SetOutput(&second)

	require.NoError(t, n.Notify(context.Background(), sampleNotification()))

	assert.Empty(t, first.String())
	assert.Equal(t, "→ NEG-0001 advanced to foundation\n", second.String())
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) Notify(ctx context.Context, n secondary.Notification) error {
	f.calls++
	return errors.New("webhook down")
}

func TestMulti_AttemptsEveryNotifier(t *testing.T) {
	first := &failingNotifier{}
	second := &failingNotifier{}

	err := Multi{first, second}.Notify(context.Background(), sampleNotification())

	assert.EqualError(t, err, "webhook down")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}
