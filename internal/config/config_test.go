package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
db_path: /tmp/rwchcd-test.db
http_port: 8080
poll_interval_seconds: 10
sleeping_delay_seconds: 600
relays:
  - id: burner
    pin: 9
    active_high: true
boiler:
  id: boiler1
  sensor_body: body
  relay_burner: burner
  limit_tmin_c: 20
  limit_tmax_c: 80
  limit_thardmax_c: 95
  hysteresis_k: 5
  burner_min_seconds: 60
  tfreeze_c: 3
  idle_mode: always
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	return path
}

func TestValidateRejectsMissingBoiler(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.validate())
}

func TestValidateRejectsDuplicateRelayIDs(t *testing.T) {
	cfg := &Config{
		Boiler: BoilerEntry{ID: "b1"},
		Relays: []RelayConfig{{ID: "burner"}, {ID: "burner"}},
	}
	assert.Error(t, cfg.validate())
}

func TestValveAlgoOfMapsKnownStrings(t *testing.T) {
	assert.Equal(t, 2, int(ValveAlgoOf("pi")))
	assert.Equal(t, 1, int(ValveAlgoOf("sapprox")))
	assert.Equal(t, 0, int(ValveAlgoOf("bangbang")))
}
