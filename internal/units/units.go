// Package units provides shared constants, validation and conversion for the
// speed and depth units used when reporting fgmax results. Results files
// always hold SI values.
package units

import "strings"

// Speed unit constants
const (
	MPS   = "mps"
	MPH   = "mph"
	KMPH  = "kmph"
	KPH   = "kph"
	Knots = "knots"
)

// Depth unit constants
const (
	Meters = "m"
	Feet   = "ft"
)

// ValidUnits contains all valid speed unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH, Knots}

// ValidDepthUnits contains all valid depth unit values
var ValidDepthUnits = []string{Meters, Feet}

// IsValid checks if the given speed unit is in the list of valid units
func IsValid(unit string) bool {
	return contains(ValidUnits, unit)
}

// IsValidDepth checks if the given depth unit is in the list of valid units
func IsValidDepth(unit string) bool {
	return contains(ValidDepthUnits, unit)
}

func contains(list []string, unit string) bool {
	for _, validUnit := range list {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid speed units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// GetValidDepthUnitsString returns a comma-separated string of valid depth units
func GetValidDepthUnitsString() string {
	return strings.Join(ValidDepthUnits, ", ")
}

// ConvertSpeed converts a speed from meters per second to the target units
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.2369362920544 // m/s to mph
	case KMPH, KPH:
		return speedMPS * 3.6 // m/s to km/h
	case Knots:
		return speedMPS * 1.9438444924406 // m/s to kn
	case MPS:
		return speedMPS
	default:
		return speedMPS // default to m/s if unknown unit
	}
}

// ConvertDepth converts a depth or elevation from meters to the target units
func ConvertDepth(depthM float64, targetUnits string) float64 {
	switch targetUnits {
	case Feet:
		return depthM / 0.3048
	default:
		return depthM
	}
}

// SpeedLabel is the short label printed after a converted speed.
func SpeedLabel(unit string) string {
	switch unit {
	case MPH:
		return "mph"
	case KMPH, KPH:
		return "km/h"
	case Knots:
		return "kn"
	default:
		return "m/s"
	}
}
