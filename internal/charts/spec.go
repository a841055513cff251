package charts

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/chrissnell/fcfreview/internal/beamfit"
	"github.com/chrissnell/fcfreview/internal/types"
)

// Kind is the chart type of a Spec
type Kind int

const (
	KindScatter Kind = iota
	KindHistogram
	KindBeamFit
)

func (k Kind) String() string {
	switch k {
	case KindScatter:
		return "scatter"
	case KindHistogram:
		return "histogram"
	case KindBeamFit:
		return "beam-fit"
	}
	return "unknown"
}

// RefLine selects which nominal value, if any, is drawn as a reference
type RefLine int

const (
	RefNone RefLine = iota
	RefArcsec
	RefPeak
)

// Bound is an optional [Min, Max] axis limit. An end that is not set is
// taken from the data.
type Bound struct {
	Min, Max       float64
	HasMin, HasMax bool
}

func Between(min, max float64) Bound {
	return Bound{Min: min, Max: max, HasMin: true, HasMax: true}
}

func Below(max float64) Bound {
	return Bound{Max: max, HasMax: true}
}

// Limits are the axis bounds for one band
type Limits struct {
	X Bound
	Y Bound
}

// Note is boxed text at data coordinates
type Note struct {
	Text string
	X, Y float64
}

// Spec describes one chart. Every field that differs between bands is
// keyed by band; a missing key means no limit or no annotation.
type Spec struct {
	// Name is the file name prefix; the band and .png are appended
	Name string
	Kind Kind

	// X is the histogram variable for KindHistogram
	X Field
	Y Field

	// Title is a format string taking the band wavelength
	Title  string
	XLabel string
	YLabel string

	Limits map[types.Band]Limits
	// Ref is a horizontal line on scatters and a vertical one on histograms
	Ref      RefLine
	RefLabel string
	VLines   []float64
	Identity bool
	Notes    map[types.Band]Note

	// MonthTickDivisor spaces date ticks every round(months/divisor) months
	MonthTickDivisor float64
	Events           bool
}

// FileName is the PNG written for band b
func (s Spec) FileName(b types.Band) string {
	return fmt.Sprintf("%s_%d.png", s.Name, b)
}

// TitleFor renders the title for band b
func (s Spec) TitleFor(b types.Band) string {
	return fmt.Sprintf(s.Title, int(b))
}

func (s Spec) limits(b types.Band) Limits {
	return s.Limits[b]
}

func (s Spec) xLabel() string {
	if s.XLabel != "" {
		return s.XLabel
	}
	return s.X.Label()
}

func (s Spec) yLabel() string {
	if s.YLabel != "" {
		return s.YLabel
	}
	if s.Kind == KindHistogram {
		return "Normalised Density"
	}
	return s.Y.Label()
}

// RecommendedLabel marks the nominal value on histograms
const RecommendedLabel = "Post 2018-06 Recommended Value"

const stableNote = "Stable: 21:00--07:00 HST"

// DefaultSpecs is the chart set produced for every band when the beam
// reference is the default planet
func DefaultSpecs() []Spec {
	return SpecsFor(beamfit.DefaultTarget)
}

// TargetName turns a catalog target such as URANUS into Uranus. Names with
// digits or punctuation, such as CRL2688, are kept as written.
func TargetName(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		target = beamfit.DefaultTarget
	}
	for _, r := range target {
		if !unicode.IsLetter(r) {
			return target
		}
	}
	r := []rune(strings.ToLower(target))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// SpecsFor is the chart set produced for every band, with the beam chart
// named after the reference target
func SpecsFor(target string) []Spec {
	name := TargetName(target)
	return []Spec{
		{
			Name: "FCFasec_vs_date", Kind: KindScatter, X: FieldDate, Y: FieldFCFArcsec,
			Title: "%d Microns, FCF Arcsec",
			Limits: map[types.Band]Limits{
				types.Band450: {Y: Below(12)},
				types.Band850: {Y: Below(4)},
			},
			Ref: RefArcsec, MonthTickDivisor: 5, Events: true,
		},
		{
			Name: "FCFpeak_vs_date", Kind: KindScatter, X: FieldDate, Y: FieldFCFPeak,
			Title: "%d Microns, FCF Peak",
			Limits: map[types.Band]Limits{
				types.Band450: {Y: Below(1400)},
			},
			Ref: RefPeak, MonthTickDivisor: 5, Events: true,
		},
		{
			Name: "FCFasec_vs_time", Kind: KindScatter, X: FieldHoursFromMidnight, Y: FieldFCFArcsec,
			Title: "%d Microns, FCF Arcsec, 0.0 = Midnight HST",
			Limits: map[types.Band]Limits{
				types.Band450: {X: Between(-7, 11), Y: Between(0, 8)},
				types.Band850: {X: Between(-7, 11), Y: Between(1.5, 3)},
			},
			Ref: RefArcsec, VLines: []float64{-3, 7},
			Notes: map[types.Band]Note{
				types.Band450: {Text: stableNote, X: 2.2, Y: 0.5},
				types.Band850: {Text: stableNote, X: 2.2, Y: 1.7},
			},
		},
		{
			Name: "FCFpeak_vs_time", Kind: KindScatter, X: FieldHoursFromMidnight, Y: FieldFCFPeak,
			Title: "%d Microns, FCF Peak, 0.0 = Midnight HST",
			Limits: map[types.Band]Limits{
				types.Band450: {X: Between(-7, 11), Y: Between(0, 1400)},
				types.Band850: {X: Between(-7, 11), Y: Between(400, 800)},
			},
			Ref: RefPeak, VLines: []float64{-3, 7},
			Notes: map[types.Band]Note{
				types.Band450: {Text: stableNote, X: 2.2, Y: 100},
				types.Band850: {Text: stableNote, X: 2.2, Y: 425},
			},
		},
		{
			Name: "FCFasec_hist", Kind: KindHistogram, X: FieldFCFArcsec,
			Title: "%d Microns, FCF Arcsec",
			Limits: map[types.Band]Limits{
				types.Band450: {X: Below(10)},
				types.Band850: {X: Below(4)},
			},
			Ref: RefArcsec, RefLabel: RecommendedLabel,
		},
		{
			Name: "FCFpeak_hist", Kind: KindHistogram, X: FieldFCFPeak,
			Title: "%d Microns, FCF Peak",
			Limits: map[types.Band]Limits{
				types.Band450: {X: Below(1400)},
			},
			Ref: RefPeak, RefLabel: RecommendedLabel,
		},
		{
			Name: "FCFasec_vs_trans", Kind: KindScatter, X: FieldTransmission, Y: FieldFCFArcsec,
			Title: "%d Microns, FCF Arcsec versus Transmission",
			Limits: map[types.Band]Limits{
				types.Band450: {Y: Below(11)},
				types.Band850: {Y: Below(4)},
			},
			Ref: RefArcsec,
		},
		{
			Name: "FCFpeak_vs_trans", Kind: KindScatter, X: FieldTransmission, Y: FieldFCFPeak,
			Title: "%d Microns, FCF Peak versus Transmission",
			Limits: map[types.Band]Limits{
				types.Band450: {Y: Below(1400)},
			},
			Ref: RefPeak,
		},
		{
			Name: "Empirical_Beam_" + name, Kind: KindBeamFit, X: FieldFCFArcsec, Y: FieldFCFPeak,
			Title: "%d microns " + name + " Empirical Beamwidth",
		},
		{
			Name: "FWHMMAIN_vs_date", Kind: KindScatter, X: FieldDate, Y: FieldFWHMMain,
			Title: "%d µm - Beam Issues (Aspect Ratio Proxy)",
			Limits: map[types.Band]Limits{
				types.Band450: {Y: Below(12)},
			},
			MonthTickDivisor: 10, Events: true,
		},
		{
			Name: "FCFmatch_vs_FCFPeak", Kind: KindScatter, X: FieldFCFPeak, Y: FieldFCFMatch,
			Title: "%d µm - Matched Filter Versus Peak FCF",
			Limits: map[types.Band]Limits{
				types.Band450: {X: Between(0, 1500), Y: Between(0, 1500)},
				types.Band850: {X: Between(300, 900), Y: Between(300, 900)},
			},
			Identity: true,
		},
	}
}
