package mqttc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopics(t *testing.T) {
	t.Parallel()
	require.Equal(t, "sim/decisions/guard-1", DecisionTopic("guard-1"))
	require.Equal(t, []string{"sim/commands/host-a", "sim/commands/all"}, CommandTopics("host-a"))
	require.Equal(t, "sim/status/host-a", StatusTopic("host-a"))

	id, ok := ActorFromTopic(DecisionTopic("x"))
	require.True(t, ok)
	require.Equal(t, "x", id)
	_, ok = ActorFromTopic("sim/decisions/")
	require.False(t, ok)
	_, ok = ActorFromTopic("sim/commands/x")
	require.False(t, ok)
}

func TestNilClient(t *testing.T) {
	t.Parallel()
	var c *Client
	require.False(t, c.Connected())
	c.Publish("t", nil)
	c.PublishRetained("t", nil)
	c.Subscribe("t", nil)
	c.Close()
}
