package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := Parse([]byte(`
host_id: sim-1
actors:
  - id: guard
    tree: patrol
    blackboard:
      hp: 10
`))
	require.NoError(t, err)
	require.Equal(t, "sim-1", cfg.HostID)
	require.EqualValues(t, DefaultTickRate, cfg.TickRate)
	require.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	require.Equal(t, 100*time.Millisecond, cfg.TickInterval())
	require.Len(t, cfg.Actors, 1)
	require.Equal(t, 10, cfg.Actors[0].Blackboard["hp"])
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("HTTP_ADDR", ":9999")

	cfg, err := Parse([]byte(`mqtt_broker: tcp://ignored:1883`))
	require.NoError(t, err)
	require.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
	require.Equal(t, "/tmp/x.db", cfg.DBPath)
	require.Equal(t, ":9999", cfg.HTTPAddr)
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")

	_, err := Parse([]byte(`actors: [{id: a}]`))
	require.ErrorContains(t, err, "tree is required")

	_, err = Parse([]byte(`actors: [{id: a, tree: t}, {id: a, tree: t}]`))
	require.ErrorContains(t, err, "duplicate id")

	_, err = Parse([]byte(`remote: {addr: "host:22"}`))
	require.ErrorContains(t, err, "remote")

	_, err = Parse([]byte(`tick_rate: [`))
	require.ErrorContains(t, err, "parse config")
}

func TestLoad(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "not found")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_rate: 20\nhttp_addr: \":7000\"\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.EqualValues(t, 20, cfg.TickRate)
	require.Equal(t, ":7000", cfg.HTTPAddr)
}
