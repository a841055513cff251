// Package beamfit derives an empirical beam size from calibrator
// observations. For a Gaussian beam the ratio of the peak FCF to the
// per-arcsec² FCF is the beam area, π·FWHM²/(4 ln 2), so a straight-line fit
// of FCFPeak against FCFArcsec gives the FWHM from its slope.
package beamfit

import (
	"fmt"
	"math"
	"strings"

	"github.com/chrissnell/fcfreview/internal/types"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultTarget is the planet used as the beam reference
const DefaultTarget = "URANUS"

// DefaultMinPoints is the fewest observations a fit is attempted with
const DefaultMinPoints = 3

// gaussianArea converts FWHM² to beam area
var gaussianArea = math.Pi / (4 * math.Ln2)

// Reason explains why no beam was derived
type Reason string

const (
	ReasonTargetAbsent     Reason = "reference target not observed"
	ReasonTooFewPoints     Reason = "too few points in stability window"
	ReasonNonPositiveSlope Reason = "fitted slope is not positive"
	ReasonDegenerate       Reason = "all points share one FCF arcsec value"
)

// SkipError is returned when the fit is not attempted or gives no beam
type SkipError struct {
	Band   types.Band
	Target string
	Reason Reason
	Points int
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("band %s: %s beam fit skipped: %s (%d points)", e.Band, e.Target, e.Reason, e.Points)
}

// Window is a [Start, End) range of local hours from midnight
type Window struct {
	Start float64
	End   float64
}

// DefaultWindow is 21:00 to 07:00 local time
var DefaultWindow = Window{Start: -3, End: 7}

func (w Window) Contains(hours float64) bool {
	return hours >= w.Start && hours < w.End
}

// Point is one (FCFArcsec, FCFPeak) pair used in the fit
type Point struct {
	X      float64
	Y      float64
	Target string
	Epoch  string
}

// Result of a successful fit: FCFPeak = Slope·FCFArcsec + Intercept
type Result struct {
	Band      types.Band
	Target    string
	Slope     float64
	Intercept float64
	RSquared  float64
	N         int
	BeamFWHM  float64 // arcsec
	Points    []Point
}

// Predict evaluates the fitted line
func (r *Result) Predict(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// Estimator selects calibrator observations and fits them
type Estimator struct {
	Target    string
	Window    Window
	MinPoints int
}

// NewEstimator returns an Estimator with the standard settings
func NewEstimator() *Estimator {
	return &Estimator{Target: DefaultTarget, Window: DefaultWindow, MinPoints: DefaultMinPoints}
}

// Select returns the fit inputs: rows of the reference target inside the
// window with both FCF values present.
func (e *Estimator) Select(rows []types.Observation) (points []Point, targetSeen bool) {
	for _, o := range rows {
		if !MatchTarget(o.Target, e.Target) {
			continue
		}
		targetSeen = true
		if !e.Window.Contains(o.HoursFromMidnight) || !types.Has(o.FCFArcsec) || !types.Has(o.FCFPeak) {
			continue
		}
		points = append(points, Point{X: o.FCFArcsec, Y: o.FCFPeak, Target: o.Target, Epoch: o.Epoch})
	}
	return points, targetSeen
}

// Estimate fits the band's reference-target observations
func (e *Estimator) Estimate(band types.Band, rows []types.Observation) (*Result, error) {
	minPoints := e.MinPoints
	if minPoints < 2 {
		minPoints = 2
	}

	points, seen := e.Select(rows)
	skip := func(r Reason) error {
		return &SkipError{Band: band, Target: e.Target, Reason: r, Points: len(points)}
	}
	if !seen {
		return nil, skip(ReasonTargetAbsent)
	}
	if len(points) < minPoints {
		return nil, skip(ReasonTooFewPoints)
	}

	x := make([]float64, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i], y[i] = p.X, p.Y
	}
	if stat.Variance(x, nil) == 0 {
		return nil, skip(ReasonDegenerate)
	}

	slope, intercept, err := fitLine(x, y)
	if err != nil {
		return nil, skip(ReasonDegenerate)
	}
	if slope <= 0 {
		return nil, skip(ReasonNonPositiveSlope)
	}

	return &Result{
		Band:      band,
		Target:    e.Target,
		Slope:     slope,
		Intercept: intercept,
		RSquared:  stat.RSquared(x, y, nil, intercept, slope),
		N:         len(points),
		BeamFWHM:  BeamFWHM(slope),
		Points:    points,
	}, nil
}

// fitLine solves the least-squares problem [x 1]·[m c]ᵀ = y by QR
func fitLine(x, y []float64) (slope, intercept float64, err error) {
	n := len(x)
	a := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		a.Set(i, 0, x[i])
		a.Set(i, 1, 1)
	}

	var qr mat.QR
	qr.Factorize(a)

	var coeffs mat.VecDense
	if err := qr.SolveVecTo(&coeffs, false, mat.NewVecDense(n, y)); err != nil {
		return 0, 0, err
	}
	return coeffs.AtVec(0), coeffs.AtVec(1), nil
}

// BeamFWHM converts a fitted slope (beam area in arcsec²) to FWHM in arcsec
func BeamFWHM(slope float64) float64 {
	return math.Sqrt(slope / gaussianArea)
}

// SlopeForBeam is the inverse of BeamFWHM
func SlopeForBeam(fwhm float64) float64 {
	return fwhm * fwhm * gaussianArea
}

// MatchTarget compares target names the way the archive writes them
func MatchTarget(name, target string) bool {
	return strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(target))
}
