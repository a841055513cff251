package charts

import (
	"math"
	"testing"
	"time"

	"github.com/wcharczuk/go-chart/v2"
)

func TestNiceStep(t *testing.T) {
	tests := []struct {
		raw      float64
		expected float64
	}{
		{0.07, 0.1},
		{0.12, 0.2},
		{0.22, 0.25},
		{3, 5},
		{7, 10},
		{100, 100},
		{0, 1},
	}
	for _, tt := range tests {
		if got := niceStep(tt.raw); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("niceStep(%v) = %v, expected %v", tt.raw, got, tt.expected)
		}
	}
}

func TestResolveRange(t *testing.T) {
	tests := []struct {
		name   string
		bound  Bound
		values []float64
		extras []float64
		lo, hi float64
	}{
		{"fixed", Between(0, 8), []float64{1, 20}, nil, 0, 8},
		{"data driven", Bound{}, []float64{0, 10}, nil, -0.5, 10.5},
		{"upper bound only", Below(4), []float64{2, 3}, nil, 1.95, 4},
		{"extras widen", Bound{}, []float64{2, 3}, []float64{4}, 1.9, 4.1},
		{"all data above bound", Below(4), []float64{5, 6}, nil, 3, 4},
		{"no data", Bound{}, nil, nil, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := resolveRange(tt.bound, tt.values, tt.extras...)
			if math.Abs(lo-tt.lo) > 1e-9 || math.Abs(hi-tt.hi) > 1e-9 {
				t.Errorf("resolveRange = [%v, %v], expected [%v, %v]", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestNumericTicks(t *testing.T) {
	ticks := numericTicks(-7, 11)
	lo, hi := tickBounds(ticks)
	if lo != -7 || hi != 11 {
		t.Fatalf("tick bounds = [%v, %v], expected [-7, 11]", lo, hi)
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i].Value <= ticks[i-1].Value {
			t.Fatalf("ticks not increasing: %v", ticks)
		}
	}

	ticks = numericTicks(0, 10)
	if ticks[0].Label != "0" || ticks[len(ticks)-1].Label != "10" {
		t.Errorf("end ticks on the grid should be labelled, got %+v", ticks)
	}

	ticks = numericTicks(0, 1.37)
	if last := ticks[len(ticks)-1]; last.Value != 1.37 || last.Label != "" {
		t.Errorf("off-grid end tick = %+v, expected unlabelled 1.37", last)
	}
}

func TestMonthTicks(t *testing.T) {
	first := time.Date(2017, 3, 14, 0, 0, 0, 0, time.UTC)
	last := time.Date(2019, 8, 2, 0, 0, 0, 0, time.UTC)

	ticks := monthTicks(first, last, 6)
	if ticks[0].Label != "2017-03" {
		t.Errorf("first tick = %s, expected 2017-03", ticks[0].Label)
	}
	end := ticks[len(ticks)-1]
	if end.Value < chart.TimeToFloat64(last) {
		t.Errorf("last tick %s does not cover %s", end.Label, last)
	}
	if end.Label != "2019-09" {
		t.Errorf("last tick = %s, expected 2019-09", end.Label)
	}

	single := monthTicks(first, first, 1)
	if len(single) != 2 {
		t.Errorf("a one-day span gave %d ticks, expected 2", len(single))
	}
}

func TestMonthInterval(t *testing.T) {
	if got := monthInterval(100, 5); got != 20 {
		t.Errorf("monthInterval(100, 5) = %d", got)
	}
	if got := monthInterval(1, 10); got != 1 {
		t.Errorf("monthInterval(1, 10) = %d", got)
	}
}

func TestPlotAreaMapping(t *testing.T) {
	a := plotArea{xMin: 0, xMax: 10, yMin: 0, yMax: 100}
	cb := chart.Box{Left: 50, Right: 150, Top: 20, Bottom: 220}
	if got := a.px(cb, 5); got != 100 {
		t.Errorf("px(5) = %d, expected 100", got)
	}
	if got := a.py(cb, 100); got != 20 {
		t.Errorf("py(100) = %d, expected 20", got)
	}
	if !a.contains(10, 0) || a.contains(10.1, 50) {
		t.Error("contains is not inclusive of the limits only")
	}
}
