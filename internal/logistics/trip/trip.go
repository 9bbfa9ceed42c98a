// Package trip validates odometer readings and derives trip metrics for
// delivery trucks.
package trip

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrValidation marks every failure returned by this package.
var ErrValidation = errors.New("trip: invalid reading")

// ValidationError describes a rejected odometer reading.
type ValidationError struct {
	Field   string
	Reading float64
	Limit   float64
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("trip: %s %.1f %s", e.Field, e.Reading, e.Reason)
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Metrics is the derived summary of a finished trip.
type Metrics struct {
	Distance        float64 `json:"distance"`
	DurationMinutes int64   `json:"durationMinutes"`
}

// ValidateStartOdometer rejects non-positive readings and readings below the
// truck's last known odometer.
func ValidateStartOdometer(reading float64, lastKnown *float64) error {
	if reading <= 0 {
		return &ValidationError{Field: "startOdometer", Reading: reading, Reason: "must be greater than zero"}
	}
	if lastKnown != nil && reading < *lastKnown {
		return &ValidationError{
			Field:   "startOdometer",
			Reading: reading,
			Limit:   *lastKnown,
			Reason:  fmt.Sprintf("is below last known reading %.1f", *lastKnown),
		}
	}
	return nil
}

// ValidateEndOdometer requires the end reading to exceed the start reading.
func ValidateEndOdometer(end, start float64) error {
	if end <= start {
		return &ValidationError{
			Field:   "endOdometer",
			Reading: end,
			Limit:   start,
			Reason:  fmt.Sprintf("must be greater than start reading %.1f", start),
		}
	}
	return nil
}

// CalculateTripMetrics derives distance and whole elapsed minutes. Ordering of
// the timestamps is not checked here.
func CalculateTripMetrics(startOdometer, endOdometer float64, startAt, endAt time.Time) Metrics {
	elapsed := endAt.Sub(startAt)
	return Metrics{
		Distance:        endOdometer - startOdometer,
		DurationMinutes: int64(math.Floor(float64(elapsed) / float64(time.Minute))),
	}
}

// FuelEfficiency returns km per liter. The second result is false when either
// reading is missing or no fuel was recorded.
func FuelEfficiency(startOdometer, endOdometer *float64, fueledLiters float64) (float64, bool) {
	if startOdometer == nil || endOdometer == nil || fueledLiters <= 0 {
		return 0, false
	}
	return (*endOdometer - *startOdometer) / fueledLiters, true
}
