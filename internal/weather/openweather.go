package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mkovalv/city-weather/internal/metrics"
)

// Client abstracts the upstream source of current weather for a single city.
type Client interface {
	FetchCurrent(ctx context.Context, cityID int) (Record, error)
}

// openWeatherResponse mirrors the subset of the OpenWeatherMap current
// weather payload this service consumes.
type openWeatherResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Visibility float64 `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
}

// OpenWeatherClient fetches current weather from OpenWeatherMap by city id.
// Calls are wrapped in a circuit breaker; the client never retries — retry
// policy, if any, belongs to the caller.
type OpenWeatherClient struct {
	baseURL string
	apiKey  string
	tz      *time.Location
	httpc   *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherClient(httpc *http.Client, baseURL, apiKey string, tz *time.Location) *OpenWeatherClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	if tz == nil {
		tz = time.UTC
	}

	return &OpenWeatherClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		tz:      tz,
		httpc:   httpc,
		circuit: cb,
	}
}

func (c *OpenWeatherClient) FetchCurrent(ctx context.Context, cityID int) (Record, error) {
	if c.apiKey == "" {
		return Record{}, &UpstreamError{Message: "openweather api key is not configured"}
	}

	values := url.Values{}
	values.Set("id", strconv.Itoa(cityID))
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")
	u := fmt.Sprintf("%s/weather?%s", c.baseURL, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Record{}, err
	}

	start := time.Now()
	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.httpc.Do(req)
		if execErr != nil {
			return nil, &UpstreamError{Message: execErr.Error()}
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, &UpstreamError{Message: readErr.Error()}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &UpstreamError{
				StatusCode: resp.StatusCode,
				Message:    upstreamMessage(body, resp.StatusCode),
			}
		}

		var payload openWeatherResponse
		if decErr := json.Unmarshal(body, &payload); decErr != nil {
			return nil, &UpstreamError{Message: "malformed weather payload"}
		}
		return payload, nil
	})
	metrics.UpstreamCallDuration.WithLabelValues(upstreamStatusLabel(err)).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Record{}, &UpstreamError{Message: "weather provider temporarily unavailable"}
		}
		var ue *UpstreamError
		if errors.As(err, &ue) {
			return Record{}, ue
		}
		return Record{}, &UpstreamError{Message: err.Error()}
	}

	payload, ok := result.(openWeatherResponse)
	if !ok {
		return Record{}, &UpstreamError{Message: "unexpected result type from circuit breaker"}
	}

	return newRecord(payload, c.tz, time.Now().UTC()), nil
}

// newRecord normalizes a raw upstream payload into a Record.
func newRecord(p openWeatherResponse, tz *time.Location, now time.Time) Record {
	rec := Record{
		ID:      p.ID,
		Name:    p.Name,
		Country: p.Sys.Country,
		Temperature: Temperature{
			Current:   roundDegrees(p.Main.Temp),
			Min:       roundDegrees(p.Main.TempMin),
			Max:       roundDegrees(p.Main.TempMax),
			FeelsLike: roundDegrees(p.Main.FeelsLike),
		},
		Details: Details{
			Pressure:   p.Main.Pressure,
			Humidity:   p.Main.Humidity,
			Visibility: visibilityKm(p.Visibility),
			WindSpeed:  p.Wind.Speed,
			WindDegree: p.Wind.Deg,
			Sunrise:    FormatClock(p.Sys.Sunrise, tz),
			Sunset:     FormatClock(p.Sys.Sunset, tz),
		},
		Timestamp: now,
		Cached:    false,
	}

	if len(p.Weather) > 0 {
		rec.Weather = Summary{
			Main:        p.Weather[0].Main,
			Description: p.Weather[0].Description,
			Icon:        p.Weather[0].Icon,
		}
	}

	return rec
}

// upstreamMessage extracts the provider's error message when the body
// carries one, e.g. {"cod":"404","message":"city not found"}.
func upstreamMessage(body []byte, statusCode int) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fmt.Sprintf("unexpected status code: %d", statusCode)
}

func upstreamStatusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.StatusCode != 0 {
		return strconv.Itoa(ue.StatusCode)
	}
	return "error"
}
