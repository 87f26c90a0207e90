package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 3*time.Second, cfg.Simulation.TickInterval)
	assert.Equal(t, 2*time.Second, cfg.Simulation.NoticeTTL)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9090"
monster_name: "Pika"
seed: 42
simulation:
  tick_interval: 500ms
  action_duration: 0s
tuning:
  max_clients: 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "Pika", cfg.MonsterName)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 500*time.Millisecond, cfg.Simulation.TickInterval)
	assert.Equal(t, time.Duration(0), cfg.Simulation.ActionDuration)
	assert.Equal(t, 2*time.Second, cfg.Simulation.NoticeTTL, "untouched keys keep defaults")
	assert.Equal(t, 3, cfg.Tuning.MaxClients)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation: [oops"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PET_TICK_INTERVAL", "10s")
	t.Setenv("PET_LOCALE", "en")
	t.Setenv("PET_SEED", "7")
	t.Setenv("PET_RATE_LIMIT", "not-a-duration")
	t.Setenv("PET_TUNING", "low")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Simulation.TickInterval)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 250*time.Millisecond, cfg.Network.RateLimit)
	assert.Equal(t, LowResourceTuning(), cfg.Tuning)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Simulation.TickInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MonsterName = ""
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}
