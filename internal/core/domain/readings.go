package domain

import (
	"fmt"
	"strings"
	"time"
)

// MeterType identifies one of the utility meters a household reports on.
type MeterType string

const (
	MeterHeating   MeterType = "HEATING"
	MeterHotWater  MeterType = "HOT_WATER"
	MeterColdWater MeterType = "COLD_WATER"
)

// AllMeterTypes returns the closed set of supported meter types. Validation
// is derived from this slice, so extending it tightens submission checks
// everywhere at once.
func AllMeterTypes() []MeterType {
	return []MeterType{MeterHeating, MeterHotWater, MeterColdWater}
}

// ReadingSet is the complete set of meter values one user submits for one
// billing period. Periods are calendar months without a year component.
type ReadingSet struct {
	UserID int64
	Period time.Month
	Values map[MeterType]int64
}

// ParseMonth resolves a case-insensitive English month name ("january") into
// its billing period.
func ParseMonth(name string) (time.Month, error) {
	trimmed := strings.TrimSpace(name)
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), trimmed) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", name)
}
