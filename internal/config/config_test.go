package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiosim/internal/game"
)

var studioEnv = []string{
	"PORT", "DATABASE_URL",
	"STUDIO_STORE", "STUDIO_DATA_DIR", "STUDIO_SQLITE_PATH",
	"STUDIO_SEED", "STUDIO_BALANCE_PRESET", "STUDIO_BALANCE_FILE",
	"STUDIO_API_ADDR", "STUDIO_API_BASE_URL",
	"STUDIO_WORKER_TICK_EVERY", "STUDIO_WORKER_RUN_ONCE",
}

// clearEnv unsets every variable the loaders read; t.Setenv restores them.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range studioEnv {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadAPIFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("STUDIO_DATA_DIR", dir)

	cfg, err := LoadAPIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "file", cfg.Store.Kind)
	assert.Equal(t, filepath.Join(dir, "saves.db"), cfg.Store.SQLitePath)
	assert.Equal(t, "default", cfg.Game.BalancePreset)
	assert.Zero(t, cfg.Game.Seed)
}

func TestLoadAPIFromEnvPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("STUDIO_DATA_DIR", t.TempDir())
	t.Setenv("STUDIO_API_ADDR", ":9000")
	t.Setenv("PORT", "7070")

	cfg, err := LoadAPIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
}

func TestStoreKindValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("STUDIO_DATA_DIR", t.TempDir())

	t.Setenv("STUDIO_STORE", "postgres")
	_, err := LoadAPIFromEnv()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/studio")
	cfg, err := LoadAPIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Options().Kind)

	t.Setenv("STUDIO_STORE", "Redis")
	_, err = LoadCLIFromEnv()
	assert.ErrorContains(t, err, "STUDIO_STORE")
}

func TestLoadCLIFromEnvTrimsBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STUDIO_DATA_DIR", t.TempDir())
	t.Setenv("STUDIO_API_BASE_URL", "https://studio.example.com/ ")
	t.Setenv("STUDIO_SEED", "42")

	cfg, err := LoadCLIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://studio.example.com", cfg.APIBaseURL)
	assert.Equal(t, int64(42), cfg.Game.Seed)
}

func TestLoadWorkerFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STUDIO_DATA_DIR", t.TempDir())
	t.Setenv("STUDIO_WORKER_TICK_EVERY", "30s")
	t.Setenv("STUDIO_WORKER_RUN_ONCE", "true")

	cfg, err := LoadWorkerFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.TickEvery)
	assert.True(t, cfg.RunOnce)

	t.Setenv("STUDIO_WORKER_TICK_EVERY", "0s")
	_, err = LoadWorkerFromEnv()
	assert.Error(t, err)

	t.Setenv("STUDIO_WORKER_TICK_EVERY", "soon")
	_, err = LoadWorkerFromEnv()
	assert.Error(t, err)
}

func TestBalancePresetAndFile(t *testing.T) {
	cfg, err := GameConfig{BalancePreset: "hard"}.Balance()
	require.NoError(t, err)
	assert.Equal(t, game.HardBalance(), cfg)

	_, err = GameConfig{BalancePreset: "impossible"}.Balance()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "balance.yaml")
	require.NoError(t, os.WriteFile(path, []byte("event_chance_per_week: 0\nfatigue_per_week: 4\n"), 0o600))

	cfg, err = GameConfig{BalancePreset: "casual", BalanceFile: path}.Balance()
	require.NoError(t, err)
	want := game.CasualBalance()
	want.EventChancePerWeek = 0
	want.FatiguePerWeek = 4
	assert.Equal(t, want, cfg)
}

func TestLoadBalanceFileErrors(t *testing.T) {
	_, err := LoadBalanceFile(filepath.Join(t.TempDir(), "missing.yaml"), game.DefaultBalance())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fatigue_per_week: [1, 2]\n"), 0o600))
	base := game.DefaultBalance()
	got, err := LoadBalanceFile(path, base)
	assert.Error(t, err)
	assert.Equal(t, base, got)
}
