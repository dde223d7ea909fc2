package weather

import (
	"time"
)

// City identifies a location in the upstream provider's namespace.
// The set of known cities is supplied through configuration.
type City struct {
	ID      int    `json:"id" validate:"required,gt=0"`
	Name    string `json:"name" validate:"required"`
	Country string `json:"country" validate:"required"`
}

// Summary is the high-level weather condition block.
type Summary struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Temperature holds whole-degree Celsius readings.
type Temperature struct {
	Current   int `json:"current"`
	Min       int `json:"min"`
	Max       int `json:"max"`
	FeelsLike int `json:"feelsLike"`
}

// Details holds the secondary measurements shown on the detail view.
// Visibility is kilometers formatted to one decimal place; sunrise and
// sunset are clock strings in the configured timezone.
type Details struct {
	Pressure   int     `json:"pressure"`
	Humidity   int     `json:"humidity"`
	Visibility string  `json:"visibility"`
	WindSpeed  float64 `json:"windSpeed"`
	WindDegree int     `json:"windDegree"`
	Sunrise    string  `json:"sunrise"`
	Sunset     string  `json:"sunset"`
}

// Record is the normalized current-weather snapshot for one city.
// Records are never mutated after creation; cache hits return a copy
// with only Cached flipped.
type Record struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Country     string      `json:"country"`
	Weather     Summary     `json:"weather"`
	Temperature Temperature `json:"temperature"`
	Details     Details     `json:"details"`
	Timestamp   time.Time   `json:"timestamp"`
	Cached      bool        `json:"cached"`
}
