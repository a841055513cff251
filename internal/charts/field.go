package charts

import (
	"github.com/chrissnell/fcfreview/internal/types"
	"github.com/wcharczuk/go-chart/v2"
)

// Field selects one plotted quantity of an observation
type Field int

const (
	FieldDate Field = iota
	FieldHoursFromMidnight
	FieldFCFArcsec
	FieldFCFPeak
	FieldFCFMatch
	FieldTransmission
	FieldFWHMMain
)

var fieldLabels = map[Field]string{
	FieldDate:              "Date",
	FieldHoursFromMidnight: "Hours From Midnight",
	FieldFCFArcsec:         "FCF Arcsec",
	FieldFCFPeak:           "FCF Peak",
	FieldFCFMatch:          "FCF Match",
	FieldTransmission:      "Transmission",
	FieldFWHMMain:          "FWHM Main",
}

// Label is the default axis title
func (f Field) Label() string {
	return fieldLabels[f]
}

// IsDate reports whether values are chart.TimeToFloat64 instants
func (f Field) IsDate() bool {
	return f == FieldDate
}

// Value returns the field of o and whether it is usable. Measurements that
// failed to parse are not.
func (f Field) Value(o types.Observation) (float64, bool) {
	var v float64
	switch f {
	case FieldDate:
		if o.Date.IsZero() {
			return 0, false
		}
		return chart.TimeToFloat64(o.Date), true
	case FieldHoursFromMidnight:
		v = o.HoursFromMidnight
	case FieldFCFArcsec:
		v = o.FCFArcsec
	case FieldFCFPeak:
		v = o.FCFPeak
	case FieldFCFMatch:
		v = o.FCFMatch
	case FieldTransmission:
		v = o.Transmission
	case FieldFWHMMain:
		v = o.FWHMMain
	default:
		return 0, false
	}
	return v, types.Has(v)
}
