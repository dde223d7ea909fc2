package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5", cfg.OpenWeatherBaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.Equal(t, time.UTC, cfg.Location)
	assert.True(t, cfg.Development())
	assert.Len(t, cfg.Cities, 6)
	assert.Len(t, cfg.CityIDs(), 6)
	assert.Equal(t, cfg.Cities[0].ID, cfg.CityIDs()[0])
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadCacheDuration(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("CACHE_DURATION", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL())
}

func TestLoadInvalidCacheDuration(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("CACHE_DURATION", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadCitiesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	cities := `[{"id": 524901, "name": "Moscow", "country": "RU"}, {"id": 703448, "name": "Kyiv", "country": "UA"}]`
	require.NoError(t, os.WriteFile(path, []byte(cities), 0o600))

	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("CITIES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Cities, 2)
	assert.Equal(t, []int{524901, 703448}, cfg.CityIDs())
}

func TestLoadInvalidCitiesFile(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("CITIES_FILE", filepath.Join(t.TempDir(), "missing.json"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadInvalidTimeZone(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("TIME_ZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}
