package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_ReplacesCurrent(t *testing.T) {
	var mu sync.Mutex
	var seen []Message
	n := New(0, func(m Message) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, m)
	})

	n.Info("generating")
	n.Error("generation failed")

	m, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, Message{Severity: Error, Text: "generation failed"}, m)
	assert.Len(t, seen, 2)
}

func TestNotifier_AutoDismiss(t *testing.T) {
	n := New(20*time.Millisecond, nil)
	n.Success("saved")

	_, ok := n.Current()
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		_, ok := n.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestNotifier_ReplacementRestartsTTL(t *testing.T) {
	n := New(50*time.Millisecond, nil)
	n.Info("first")
	time.Sleep(30 * time.Millisecond)
	n.Info("second")
	time.Sleep(30 * time.Millisecond)

	m, ok := n.Current()
	require.True(t, ok, "the first timer must not dismiss the second message")
	assert.Equal(t, "second", m.Text)
}

func TestNotifier_Dismiss(t *testing.T) {
	n := New(time.Hour, nil)
	n.Error("x")
	n.Dismiss()

	_, ok := n.Current()
	assert.False(t, ok)
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "info", Info.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "error", Error.String())
}
