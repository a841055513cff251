package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Band is an observing wavelength channel in microns
type Band int

const (
	Band450 Band = 450
	Band850 Band = 850
)

// Bands lists the supported bands in the order charts are produced
var Bands = []Band{Band450, Band850}

// ParseBand converts a wavelength column value such as "450" or "850.0" into a Band
func ParseBand(s string) (Band, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid band %q: %w", s, err)
	}
	for _, b := range Bands {
		if v == float64(b) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unsupported band %q: expected one of %v", s, Bands)
}

func (b Band) String() string {
	return strconv.Itoa(int(b))
}

// Observation is one calibration measurement from the catalog export.
// The fields below the blank line are filled in once by the derived-field
// builder and are never modified afterwards.
type Observation struct {
	Line         int // source line number, for error reporting
	Time         time.Time
	Target       string
	Band         Band
	FCFArcsec    float64 // Jy/pW/arcsec²
	FCFPeak      float64 // Jy/pW/beam
	FCFMatch     float64 // matched-filter FCF, Jy/pW/beam
	Transmission float64
	FWHMMain     float64 // arcsec

	Epoch             string
	DetailedEpoch     string
	Date              time.Time // UTC midnight of the observing day
	MJD               float64
	HoursFromMidnight float64 // local hours in [-12, 12)
}

// DateString is the calendar date used for axis labels
func (o Observation) DateString() string {
	return o.Date.Format("2006-01-02")
}

// Has reports whether a numeric measurement parsed cleanly. Fields that
// failed to parse are stored as NaN.
func Has(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FilterBand returns the observations taken in band b, preserving order
func FilterBand(obs []Observation, b Band) []Observation {
	var out []Observation
	for _, o := range obs {
		if o.Band == b {
			out = append(out, o)
		}
	}
	return out
}

// Targets returns the distinct target names in first-seen order
func Targets(obs []Observation) []string {
	seen := make(map[string]bool)
	var names []string
	for _, o := range obs {
		if !seen[o.Target] {
			seen[o.Target] = true
			names = append(names, o.Target)
		}
	}
	return names
}
