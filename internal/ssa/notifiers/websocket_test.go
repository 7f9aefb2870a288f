package notifiers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewWebSocketNotifier(t *testing.T) {
	notifier := NewWebSocketNotifier("test-ws")
	defer notifier.Close()

	require.NotNil(t, notifier)
	require.Equal(t, "test-ws", notifier.ID())
	require.Equal(t, "websocket", notifier.Type())
}

func TestWebSocketNotifier_GetUpgrader(t *testing.T) {
	notifier := NewWebSocketNotifier("test")
	defer notifier.Close()

	upgrader := notifier.GetUpgrader()
	require.NotZero(t, upgrader.ReadBufferSize)
	require.NotZero(t, upgrader.WriteBufferSize)
}

func TestWebSocketNotifier_NotifyWithNoClients(t *testing.T) {
	notifier := NewWebSocketNotifier("test")
	defer notifier.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	require.NoError(t, notifier.Notify(ctx, testEvent()))
}

func TestWebSocketNotifier_Close(t *testing.T) {
	notifier := NewWebSocketNotifier("test")
	require.NoError(t, notifier.Close())
}
