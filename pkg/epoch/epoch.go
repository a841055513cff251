// Package epoch classifies observation times into the instrument's
// historical hardware epochs. A Timeline is an ordered list of half-open
// [Start, End) intervals that must be contiguous; instants before the first
// interval get a dedicated leading label and anything past the final
// interval is reported as a GapError.
package epoch

import (
	"fmt"
	"sort"
	"time"
)

// Coarse epoch labels. These mark the two step changes in the FCFs.
const (
	PreFilterChange  = "Pre-Filter Change"
	PostFilterChange = "Post-Filter Change"
	PostSMUFix       = "Post-SMU Fix"
)

// Label is the (coarse, detailed) pair attached to an observation
type Label struct {
	Epoch    string `json:"epoch"`
	Detailed string `json:"detailed"`
}

func (l Label) String() string {
	return fmt.Sprintf("%s / %s", l.Epoch, l.Detailed)
}

// Interval is a single [Start, End) hardware epoch
type Interval struct {
	Start time.Time
	End   time.Time
	Label Label
}

// Contains reports whether t falls in [Start, End)
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Timeline is a validated, ordered set of intervals. Build one with NewTimeline.
type Timeline struct {
	leading   Label
	intervals []Interval
}

// GapError is returned when an instant is not covered by any interval.
// With a validated timeline this only happens at or after the sentinel end.
type GapError struct {
	Time time.Time
}

func (e *GapError) Error() string {
	return fmt.Sprintf("time %s is not covered by any epoch interval", e.Time.UTC().Format(time.RFC3339))
}

// ValidationError describes why a set of intervals cannot form a timeline
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid epoch interval %d: %s", e.Index, e.Reason)
}

// NewTimeline checks that intervals are non-empty, ordered, non-overlapping
// and gap-free, and returns a Timeline that classifies against them.
func NewTimeline(leading Label, intervals []Interval) (*Timeline, error) {
	if len(intervals) == 0 {
		return nil, &ValidationError{Index: 0, Reason: "timeline has no intervals"}
	}
	if leading.Epoch == "" || leading.Detailed == "" {
		return nil, &ValidationError{Index: -1, Reason: "leading label must have both epoch and detailed names"}
	}

	ivs := make([]Interval, len(intervals))
	for i, iv := range intervals {
		iv.Start = iv.Start.UTC()
		iv.End = iv.End.UTC()

		if iv.Label.Epoch == "" || iv.Label.Detailed == "" {
			return nil, &ValidationError{Index: i, Reason: "missing epoch or detailed label"}
		}
		if !iv.Start.Before(iv.End) {
			return nil, &ValidationError{Index: i, Reason: fmt.Sprintf("start %s is not before end %s",
				iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))}
		}
		if i > 0 {
			prev := ivs[i-1]
			switch {
			case iv.Start.Before(prev.End):
				return nil, &ValidationError{Index: i, Reason: fmt.Sprintf("overlaps %q (starts %s, previous ends %s)",
					prev.Label.Detailed, iv.Start.Format(time.RFC3339), prev.End.Format(time.RFC3339))}
			case iv.Start.After(prev.End):
				return nil, &ValidationError{Index: i, Reason: fmt.Sprintf("gap after %q (previous ends %s, next starts %s)",
					prev.Label.Detailed, prev.End.Format(time.RFC3339), iv.Start.Format(time.RFC3339))}
			}
		}
		ivs[i] = iv
	}

	return &Timeline{leading: leading, intervals: ivs}, nil
}

// Classify returns the label for t. Boundaries belong to the interval that
// starts there.
func (tl *Timeline) Classify(t time.Time) (Label, error) {
	if len(tl.intervals) == 0 {
		return Label{}, &GapError{Time: t}
	}
	if t.Before(tl.intervals[0].Start) {
		return tl.leading, nil
	}

	// First interval starting strictly after t, minus one, is the candidate
	i := sort.Search(len(tl.intervals), func(i int) bool {
		return tl.intervals[i].Start.After(t)
	}) - 1

	if iv := tl.intervals[i]; iv.Contains(t) {
		return iv.Label, nil
	}
	return Label{}, &GapError{Time: t}
}

// Leading is the label used for instants before the first interval
func (tl *Timeline) Leading() Label {
	return tl.leading
}

// Intervals returns a copy of the timeline's intervals
func (tl *Timeline) Intervals() []Interval {
	out := make([]Interval, len(tl.intervals))
	copy(out, tl.intervals)
	return out
}

// Start is the beginning of historical tracking
func (tl *Timeline) Start() time.Time {
	return tl.intervals[0].Start
}

// Sentinel is the end of the final interval
func (tl *Timeline) Sentinel() time.Time {
	return tl.intervals[len(tl.intervals)-1].End
}

// DetailedLabels lists the distinct detailed labels, leading label first
func (tl *Timeline) DetailedLabels() []string {
	seen := map[string]bool{tl.leading.Detailed: true}
	labels := []string{tl.leading.Detailed}
	for _, iv := range tl.intervals {
		if !seen[iv.Label.Detailed] {
			seen[iv.Label.Detailed] = true
			labels = append(labels, iv.Label.Detailed)
		}
	}
	return labels
}
