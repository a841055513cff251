package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/chrissnell/fcfreview/pkg/epoch"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData is the site, band and timeline configuration for a review run
type ConfigData struct {
	Site     SiteData
	Bands    []BandData
	Timeline TimelineData
	Events   []EventData
}

// SiteData holds the observatory settings used for time-of-night values
// and the empirical beam fit
type SiteData struct {
	Name            string
	Timezone        string
	ReferenceTarget string
	// Stability window in local hours from midnight, [StableStart, StableEnd)
	StableStart float64
	StableEnd   float64
}

// BandData holds the nominal calibration values for one band
type BandData struct {
	Wavelength    int
	FCFArcsec     float64
	FCFPeak       float64
	BeamFWHM      float64
	BeamFWHMError float64
}

// TimelineData is the epoch history in configuration form
type TimelineData struct {
	Leading   epoch.Label
	Intervals []IntervalData
}

type IntervalData struct {
	Start    time.Time
	End      time.Time
	Epoch    string
	Detailed string
}

type EventData struct {
	Name string
	Kind string
	Time time.Time
}

// Default returns the built-in SCUBA-2 configuration
func Default() *ConfigData {
	cfg := &ConfigData{
		Site: SiteData{
			Name:            "JCMT",
			Timezone:        "Pacific/Honolulu",
			ReferenceTarget: "URANUS",
			StableStart:     -3,
			StableEnd:       7,
		},
		Bands: []BandData{
			{Wavelength: 450, FCFArcsec: 3.87, FCFPeak: 472, BeamFWHM: 10.0, BeamFWHMError: 0.6},
			{Wavelength: 850, FCFArcsec: 2.07, FCFPeak: 495, BeamFWHM: 14.4, BeamFWHMError: 0.3},
		},
		Timeline: TimelineData{Leading: epoch.ReferenceLeading},
	}

	for _, iv := range epoch.ReferenceIntervals() {
		cfg.Timeline.Intervals = append(cfg.Timeline.Intervals, IntervalData{
			Start:    iv.Start,
			End:      iv.End,
			Epoch:    iv.Label.Epoch,
			Detailed: iv.Label.Detailed,
		})
	}
	for _, ev := range epoch.ReferenceEvents() {
		cfg.Events = append(cfg.Events, EventData{Name: ev.Name, Kind: ev.Kind, Time: ev.Time})
	}

	return cfg
}

// Band returns the settings for the given wavelength
func (c *ConfigData) Band(wavelength int) (BandData, bool) {
	for _, b := range c.Bands {
		if b.Wavelength == wavelength {
			return b, true
		}
	}
	return BandData{}, false
}

// SetBand replaces or adds the settings for b.Wavelength
func (c *ConfigData) SetBand(b BandData) {
	for i := range c.Bands {
		if c.Bands[i].Wavelength == b.Wavelength {
			c.Bands[i] = b
			return
		}
	}
	c.Bands = append(c.Bands, b)
}

// EpochTimeline builds and validates the epoch timeline
func (c *ConfigData) EpochTimeline() (*epoch.Timeline, error) {
	intervals := make([]epoch.Interval, len(c.Timeline.Intervals))
	for i, iv := range c.Timeline.Intervals {
		intervals[i] = epoch.Interval{
			Start: iv.Start.UTC(),
			End:   iv.End.UTC(),
			Label: epoch.Label{Epoch: iv.Epoch, Detailed: iv.Detailed},
		}
	}
	return epoch.NewTimeline(c.Timeline.Leading, intervals)
}

// EpochEvents converts the configured events for chart annotation
func (c *ConfigData) EpochEvents() []epoch.Event {
	events := make([]epoch.Event, len(c.Events))
	for i, ev := range c.Events {
		events[i] = epoch.Event{Name: ev.Name, Kind: ev.Kind, Time: ev.Time.UTC()}
	}
	return events
}

// Validate checks everything a run depends on
func (c *ConfigData) Validate() error {
	if strings.TrimSpace(c.Site.ReferenceTarget) == "" {
		return fmt.Errorf("site reference target is empty")
	}
	if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
		return fmt.Errorf("invalid site timezone %q: %w", c.Site.Timezone, err)
	}
	if c.Site.StableStart >= c.Site.StableEnd {
		return fmt.Errorf("stability window start %.2f is not before end %.2f", c.Site.StableStart, c.Site.StableEnd)
	}
	if c.Site.StableStart < -12 || c.Site.StableEnd > 12 {
		return fmt.Errorf("stability window must lie within [-12, 12] hours of midnight")
	}

	seen := make(map[int]bool)
	for _, b := range c.Bands {
		if seen[b.Wavelength] {
			return fmt.Errorf("band %d configured twice", b.Wavelength)
		}
		seen[b.Wavelength] = true
		if b.FCFArcsec <= 0 || b.FCFPeak <= 0 {
			return fmt.Errorf("band %d: nominal FCF values must be positive", b.Wavelength)
		}
	}

	for i, ev := range c.Events {
		switch ev.Kind {
		case epoch.KindMilestone, epoch.KindRxAWarmup, epoch.KindRxACooldown:
		default:
			return fmt.Errorf("event %d (%s): unknown kind %q", i, ev.Name, ev.Kind)
		}
	}

	if _, err := c.EpochTimeline(); err != nil {
		return fmt.Errorf("invalid timeline: %w", err)
	}
	return nil
}

var configTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime reads a configuration timestamp. Values without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range configTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: expected YYYY-MM-DD[ HH:MM[:SS]] or RFC 3339", s)
}

// FormatTime is the inverse of ParseTime used when writing configuration
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
