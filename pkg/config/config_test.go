package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/toponimo/pkg/linking"
	"github.com/soundprediction/toponimo/pkg/ranking"
	"github.com/soundprediction/toponimo/pkg/recognizer"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ranking.MethodExact, cfg.Ranking.Method)
	assert.Equal(t, linking.MethodMostPopular, cfg.Linking.Method)
	assert.Equal(t, 2.0, cfg.Linking.Exponent)
	assert.Equal(t, recognizer.ProviderService, cfg.Recognizer.Provider)
	assert.Equal(t, 30*time.Second, cfg.Recognizer.Timeout)
	assert.True(t, cfg.Gazetteer.FilterEnabled)
	assert.Equal(t, 3, cfg.Gazetteer.Filter.TopMentions)
	assert.Equal(t, 0.03, cfg.Gazetteer.Filter.MinimumRelevance)
	assert.Equal(t, "jsonl", cfg.Results.Format)
	assert.False(t, cfg.CircuitBreaker.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "toponimo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ranking:
  method: editdistance
  min_score: 0.6
linking:
  method: bydistance
recognizer:
  timeout: 45s
results:
  format: parquet
  path: ./out
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ranking.MethodEditDistance, cfg.Ranking.Method)
	assert.Equal(t, 0.6, cfg.Ranking.MinScore)
	assert.Equal(t, linking.MethodByDistance, cfg.Linking.Method)
	assert.Equal(t, 45*time.Second, cfg.Recognizer.Timeout)
	assert.Equal(t, "parquet", cfg.Results.Format)
	// Untouched sections keep their defaults.
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 2.0, cfg.Linking.Exponent)
}

func TestLoadEnvOverrides(t *testing.T) {
	resetViper(t)

	t.Setenv("TOPONIMO_RANKING_METHOD", "containment")
	t.Setenv("TOPONIMO_LOG_LEVEL", "debug")
	t.Setenv("TOPONIMO_SCORER_API_KEY", "sk-scorer")
	t.Setenv("NEO4J_PASSWORD", "hunter2")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ranking.MethodContainment, cfg.Ranking.Method)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "sk-scorer", cfg.Scorer.APIKey)
	assert.Equal(t, "hunter2", cfg.Coordinates.Password)
}

func TestValidate(t *testing.T) {
	resetViper(t)

	cfg, err := Load("")
	require.NoError(t, err)

	bad := *cfg
	bad.Ranking.Method = "fuzzy"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Linking.Method = linking.MethodDelegated
	bad.Scorer.Endpoint = ""
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Results.Format = "csv"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Gazetteer.VariantsPath = ""
	assert.Error(t, bad.Validate())
}

func TestWriteDefault(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "toponimo.yaml")
	require.NoError(t, WriteDefault(path))

	// Refuses to clobber.
	assert.Error(t, WriteDefault(path))

	// The template round-trips through Load and validates.
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ranking.MethodExact, cfg.Ranking.Method)
	assert.Equal(t, linking.MethodMostPopular, cfg.Linking.Method)
}
