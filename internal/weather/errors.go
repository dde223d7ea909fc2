package weather

import "fmt"

// UpstreamError is returned when the weather provider is unreachable,
// responds with a non-success status, or returns a malformed payload.
// StatusCode is the upstream HTTP status when one was received, else 0.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream weather provider: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("upstream weather provider: %s", e.Message)
}
