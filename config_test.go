package poark

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubertat/poark/control"
	"github.com/hubertat/poark/pins"
)

func TestLoadConfigJson(t *testing.T) {
	pk, err := LoadConfig(filepath.Join("testdata", "config.json"))
	require.NoError(t, err)

	assert.Equal(t, "bench", pk.Name)
	assert.Equal(t, "mqtt://127.0.0.1:1883", pk.MqttBroker)
	assert.True(t, strings.HasPrefix(pk.ClientId, "bench-"), "generated client id: %s", pk.ClientId)
	assert.Equal(t, 20*time.Millisecond, pk.Loop.Interval)
	require.NotNil(t, pk.Loop.ResendDelayTicks)
	assert.Equal(t, 40, *pk.Loop.ResendDelayTicks)
	assert.Equal(t, uint64(1000), pk.Loop.MaxTicks)
	assert.Equal(t, "set_pins_mode", pk.ModeTopic)
	assert.Equal(t, "pins", pk.ReadingsTopic)

	require.NotNil(t, pk.Pins)
	assert.Equal(t, []pins.PinId{2, 3}, pk.Pins.PwmPins)
	assert.Equal(t, pins.PinId(55), pk.Pins.ControlPin)
	assert.Equal(t, uint8(45), pk.Pins.ServoInitial)

	require.NotNil(t, pk.Http)
	assert.Equal(t, "from-file", pk.Http.Token)
	assert.Nil(t, pk.Influx)
}

func TestLoadConfigYaml(t *testing.T) {
	pk, err := LoadConfig(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "bench-yaml", pk.Name)
	assert.Equal(t, "fixed-client", pk.ClientId)
	assert.Equal(t, "board/pins", pk.ReadingsTopic)
	assert.Equal(t, 5*time.Millisecond, pk.Loop.Interval)
	assert.True(t, pk.Mock)
	assert.Equal(t, control.DefaultLayout(), *pk.Pins)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("POARK_MQTT_BROKER", "mqtt://broker.local:1883")
	t.Setenv("POARK_CLIENT_ID", "env-client")
	t.Setenv("POARK_HTTP_TOKEN", "from-env")

	pk, err := LoadConfig(filepath.Join("testdata", "config.json"))
	require.NoError(t, err)

	assert.Equal(t, "mqtt://broker.local:1883", pk.MqttBroker)
	assert.Equal(t, "env-client", pk.ClientId)
	assert.Equal(t, "from-env", pk.Http.Token)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join("testdata", "missing.json"))
	assert.Error(t, err)

	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"Name": `), 0600))
	_, err = LoadConfig(broken)
	assert.Error(t, err)

	badInterval := filepath.Join(dir, "interval.json")
	require.NoError(t, os.WriteFile(badInterval, []byte(`{"TickInterval": "fast"}`), 0600))
	_, err = LoadConfig(badInterval)
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	pk := &Poark{}
	require.NoError(t, pk.ApplyDefaults())

	assert.Equal(t, "poark", pk.Name)
	assert.NotEmpty(t, pk.ClientId)
	assert.Equal(t, "set_pins_state", pk.StateTopic)
	assert.Equal(t, control.DefaultLayout(), *pk.Pins)
	assert.Zero(t, pk.Loop.Interval, "loop falls back to its own default interval")
}
