package weather

import (
	"math"
	"strconv"
	"time"
)

// roundDegrees rounds a raw Celsius reading to the nearest whole degree.
func roundDegrees(v float64) int {
	return int(math.Round(v))
}

// visibilityKm converts a visibility in meters to a kilometer string
// with one decimal place, e.g. 8500 -> "8.5".
func visibilityKm(meters float64) string {
	return strconv.FormatFloat(meters/1000, 'f', 1, 64)
}

// FormatClock renders an epoch-seconds instant as an "h:mm AM/PM" clock
// string in the given location. Kept pure so tests can assert exact output.
func FormatClock(epoch int64, loc *time.Location) string {
	return time.Unix(epoch, 0).In(loc).Format("3:04 PM")
}
