// Package derive attaches epoch labels and the time-derived fields
// (calendar date, MJD, hours from local midnight) to observations.
package derive

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/chrissnell/fcfreview/internal/types"
	"github.com/chrissnell/fcfreview/pkg/epoch"
	"github.com/soniakeys/meeus/v3/julian"
)

// DefaultZone is the JCMT site zone. Hawaii has not observed daylight
// saving time since 1947, so the offset is a fixed UTC-10.
const DefaultZone = "Pacific/Honolulu"

// mjdOffset converts a Julian day to a modified Julian day
const mjdOffset = 2400000.5

// Builder computes derived fields in the site's local zone
type Builder struct {
	Location *time.Location
}

// NewBuilder loads the IANA zone used for time-of-night values
func NewBuilder(zone string) (*Builder, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load site timezone %q: %w", zone, err)
	}
	return &Builder{Location: loc}, nil
}

// CalendarDate truncates t to midnight UTC of the same day
func CalendarDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MJD returns the modified Julian day of t
func MJD(t time.Time) float64 {
	return julian.TimeToJD(t.UTC()) - mjdOffset
}

// HoursFromMidnight returns the local time of night in hours, folded into
// [-12, 12) so that local midnight is 0 and 23:00 is -1.
func (b *Builder) HoursFromMidnight(t time.Time) float64 {
	local := t.In(b.Location)
	secs := local.Hour()*3600 + local.Minute()*60 + local.Second()
	hours := float64(secs)/3600 + float64(local.Nanosecond())/3.6e12
	if hours >= 12 {
		hours -= 24
	}
	return hours
}

// Decorate returns copies of obs with epoch labels and derived fields set.
// Observations that the timeline cannot classify are left out and their
// errors returned; the input slice is not modified.
func (b *Builder) Decorate(obs []types.Observation, tl *epoch.Timeline) ([]types.Observation, []error) {
	out := make([]types.Observation, 0, len(obs))
	var errs []error

	for _, o := range obs {
		label, err := tl.Classify(o.Time)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", o.Line, err))
			continue
		}

		o.Epoch = label.Epoch
		o.DetailedEpoch = label.Detailed
		o.Date = CalendarDate(o.Time)
		o.MJD = MJD(o.Time)
		o.HoursFromMidnight = b.HoursFromMidnight(o.Time)
		out = append(out, o)
	}

	return out, errs
}

// DateSpan returns the earliest and latest calendar dates and the span in
// months, measured the way the review plots have always measured it
// (MJD range over 365.35 days per year).
func DateSpan(obs []types.Observation) (first, last time.Time, months float64) {
	if len(obs) == 0 {
		return time.Time{}, time.Time{}, 0
	}

	minMJD, maxMJD := obs[0].MJD, obs[0].MJD
	first, last = obs[0].Date, obs[0].Date
	for _, o := range obs[1:] {
		if o.MJD < minMJD {
			minMJD = o.MJD
		}
		if o.MJD > maxMJD {
			maxMJD = o.MJD
		}
		if o.Date.Before(first) {
			first = o.Date
		}
		if o.Date.After(last) {
			last = o.Date
		}
	}
	return first, last, (maxMJD - minMJD) / 365.35 * 12
}
