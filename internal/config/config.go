package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/mkovalv/city-weather/internal/weather"
)

var validate = validator.New()

// AppConfig is the full application configuration, read from environment
// variables with sensible defaults.
type AppConfig struct {
	Port        string `env:"PORT" envDefault:"5000"`
	Env         string `env:"APP_ENV" envDefault:"development"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	OpenWeatherAPIKey  string        `env:"OPENWEATHER_API_KEY" validate:"required"`
	OpenWeatherBaseURL string        `env:"OPENWEATHER_BASE_URL" envDefault:"https://api.openweathermap.org/data/2.5"`
	HTTPTimeout        time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	// CacheDuration is the record TTL in minutes.
	CacheDuration int `env:"CACHE_DURATION" envDefault:"5" validate:"gt=0"`

	// TimeZone controls how sunrise/sunset clock strings are rendered.
	TimeZone string `env:"TIME_ZONE" envDefault:"UTC"`

	AuthDomain   string `env:"AUTH_DOMAIN"`
	AuthAudience string `env:"AUTH_AUDIENCE"`
	AuthSecret   string `env:"AUTH_JWT_SECRET"`

	// WarmInterval enables the background cache warmer when > 0.
	WarmInterval time.Duration `env:"WARM_INTERVAL" envDefault:"0"`

	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"100" validate:"gt=0"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`

	// CitiesFile optionally points at a JSON array of cities; the built-in
	// dashboard set is used when unset.
	CitiesFile string `env:"CITIES_FILE"`

	Cities   []weather.City `env:"-" validate:"min=1,dive"`
	Location *time.Location `env:"-" validate:"-"`
}

// defaultCities is the dashboard's built-in city set, keyed by OpenWeather
// city ids.
var defaultCities = []weather.City{
	{ID: 2643743, Name: "London", Country: "GB"},
	{ID: 5128581, Name: "New York", Country: "US"},
	{ID: 1850144, Name: "Tokyo", Country: "JP"},
	{ID: 2988507, Name: "Paris", Country: "FR"},
	{ID: 2147714, Name: "Sydney", Country: "AU"},
	{ID: 292223, Name: "Dubai", Country: "AE"},
}

// Load reads configuration from the environment (and .env, when present).
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cities, err := loadCities(cfg.CitiesFile)
	if err != nil {
		return nil, err
	}
	cfg.Cities = cities

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", cfg.TimeZone, err)
	}
	cfg.Location = loc

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// CacheTTL returns the record time-to-live as a duration.
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheDuration) * time.Minute
}

// Development reports whether the app runs in development mode. Error
// responses carry internal detail only in this mode.
func (c *AppConfig) Development() bool {
	return c.Env == "development"
}

// CityIDs returns the ids of the configured city set, in configured order.
func (c *AppConfig) CityIDs() []int {
	ids := make([]int, len(c.Cities))
	for i, city := range c.Cities {
		ids[i] = city.ID
	}
	return ids
}

func loadCities(path string) ([]weather.City, error) {
	if path == "" {
		return defaultCities, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cities file: %w", err)
	}

	var cities []weather.City
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("parse cities file %s: %w", path, err)
	}
	return cities, nil
}
