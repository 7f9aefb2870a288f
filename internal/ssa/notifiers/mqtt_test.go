package notifiers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMQTTNotifierFailsAgainstUnreachableBroker(t *testing.T) {
	// No broker listening on that port: Connect should fail rather than
	// hang or panic, and NewMQTTNotifier should surface that as an error.
	_, err := NewMQTTNotifier("test-mqtt", "tcp://localhost:18830", "achem/events", 0)
	require.Error(t, err)
}
