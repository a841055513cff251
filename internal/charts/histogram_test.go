package charts

import (
	"math"
	"sort"
	"testing"

	"github.com/chrissnell/fcfreview/internal/types"
	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/stat"
)

func TestBinDividers(t *testing.T) {
	values := []float64{1, 2, 2, 3, 3, 3, 4, 4, 5, 9}
	dividers := binDividers(values)
	if len(dividers) < 2 || len(dividers) > maxBins+1 {
		t.Fatalf("got %d dividers", len(dividers))
	}
	if dividers[0] != 1 || dividers[len(dividers)-1] <= 9 {
		t.Errorf("dividers %v do not cover [1, 9]", dividers)
	}

	counts := stat.Histogram(nil, dividers, values, nil)
	var total float64
	for _, c := range counts {
		total += c
	}
	if total != float64(len(values)) {
		t.Errorf("histogram holds %v values, expected %d", total, len(values))
	}

	var area float64
	for i, d := range densities(counts, dividers, len(values)) {
		area += d * (dividers[i+1] - dividers[i])
	}
	if math.Abs(area-1) > 1e-9 {
		t.Errorf("density integrates to %v, expected 1", area)
	}
}

func TestBinDividersSingleValue(t *testing.T) {
	dividers := binDividers([]float64{2.07, 2.07, 2.07})
	if len(dividers) != 2 || dividers[0] >= 2.07 || dividers[1] <= 2.07 {
		t.Errorf("dividers = %v", dividers)
	}
}

func TestBinDividersCapped(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i)
	}
	values[len(values)-1] = 1e6
	if n := len(binDividers(values)) - 1; n != maxBins {
		t.Errorf("got %d bins, expected the cap of %d", n, maxBins)
	}
}

func TestKDE(t *testing.T) {
	values := []float64{470, 480, 490, 495, 500, 510, 520}
	bw := scottBandwidth(values)
	if bw <= 0 {
		t.Fatalf("bandwidth = %v", bw)
	}

	// trapezoid integral over a wide range should be close to 1
	const n = 2000
	lo, hi := 300.0, 700.0
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	ys := kde(values, bw, xs)
	var area float64
	for i := 1; i < n; i++ {
		area += (ys[i] + ys[i-1]) / 2 * (xs[i] - xs[i-1])
	}
	if math.Abs(area-1) > 1e-3 {
		t.Errorf("KDE integrates to %v", area)
	}

	if scottBandwidth([]float64{1}) != 0 {
		t.Error("a single value should have no bandwidth")
	}
}

func TestStepOutlineCropsToArea(t *testing.T) {
	dividers := []float64{0, 1, 2, 3, 4}
	heights := []float64{0.1, 0.2, 0.3, 0.4}

	tests := []struct {
		name   string
		area   plotArea
		wantXs []float64
		wantYs []float64
	}{
		{
			name:   "whole",
			area:   plotArea{xMin: 0, xMax: 4},
			wantXs: []float64{0, 0, 1, 1, 2, 2, 3, 3, 4, 4},
			wantYs: []float64{0, 0.1, 0.1, 0.2, 0.2, 0.3, 0.3, 0.4, 0.4, 0},
		},
		{
			name:   "cut inside a bar",
			area:   plotArea{xMin: 0.5, xMax: 2.5},
			wantXs: []float64{0.5, 0.5, 1, 1, 2, 2, 2.5, 2.5},
			wantYs: []float64{0, 0.1, 0.1, 0.2, 0.2, 0.3, 0.3, 0},
		},
		{
			name: "nothing visible",
			area: plotArea{xMin: 5, xMax: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xs, ys := stepOutline(dividers, heights, tt.area)
			if len(xs) != len(tt.wantXs) || len(ys) != len(tt.wantYs) {
				t.Fatalf("outline = %v / %v, expected %v / %v", xs, ys, tt.wantXs, tt.wantYs)
			}
			for i := range xs {
				if math.Abs(xs[i]-tt.wantXs[i]) > 1e-12 || math.Abs(ys[i]-tt.wantYs[i]) > 1e-12 {
					t.Errorf("point %d = (%v, %v), expected (%v, %v)", i, xs[i], ys[i], tt.wantXs[i], tt.wantYs[i])
				}
			}
		})
	}
}

func TestHistogramBinsValuesBeyondLimit(t *testing.T) {
	rows := sampleRows(t)
	outlier := rows[0]
	outlier.FCFArcsec = 40
	rows = append(rows, outlier)

	spec := Spec{
		Name: "FCFasec_hist", Kind: KindHistogram, X: FieldFCFArcsec, Title: "%d",
		Limits: map[types.Band]Limits{types.Band850: {X: Below(4)}},
	}
	ch, n, err := histogramChart(Job{Spec: spec, Band: types.Band850, Rows: rows}, DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	if ch == nil {
		t.Fatal("expected a chart")
	}
	if n != len(rows) {
		t.Errorf("histogram counted %d values, expected all %d", n, len(rows))
	}

	_, xMax := tickBounds(ch.XAxis.Ticks)
	if xMax > 4 {
		t.Errorf("x axis ends at %v, expected the limit of 4", xMax)
	}
	for _, s := range ch.Series {
		cs, ok := s.(chart.ContinuousSeries)
		if !ok || cs.Name != "histogram" {
			continue
		}
		for _, x := range cs.XValues {
			if x > xMax {
				t.Errorf("outline reaches %v beyond the axis limit", x)
			}
		}
	}

	// the outlier widens the bins, so the visible bars carry less than
	// the whole density
	values := make([]float64, 0, len(rows))
	for _, o := range rows {
		values = append(values, o.FCFArcsec)
	}
	sort.Float64s(values)
	dividers := binDividers(values)
	heights := densities(stat.Histogram(nil, dividers, values, nil), dividers, len(values))
	var visible float64
	for i, h := range heights {
		if dividers[i] < 4 {
			visible += h * (math.Min(dividers[i+1], 4) - dividers[i])
		}
	}
	if visible >= 1 || visible < 0.9 {
		t.Errorf("visible density = %v, expected just under 1", visible)
	}
}
