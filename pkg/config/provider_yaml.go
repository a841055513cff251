package config

import (
	"fmt"
	"os"

	"github.com/chrissnell/fcfreview/pkg/epoch"
	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// Sections left out of the file keep their built-in values, so a file
// holding only `bands:` overrides nominal FCFs and nothing else.
type configYAML struct {
	Site     *SiteYAML     `yaml:"site,omitempty"`
	Bands    []BandYAML    `yaml:"bands,omitempty"`
	Timeline *TimelineYAML `yaml:"timeline,omitempty"`
	Events   []EventYAML   `yaml:"events,omitempty"`
}

type SiteYAML struct {
	Name            string   `yaml:"name,omitempty"`
	Timezone        string   `yaml:"timezone,omitempty"`
	ReferenceTarget string   `yaml:"reference-target,omitempty"`
	StableStart     *float64 `yaml:"stable-start-hour,omitempty"`
	StableEnd       *float64 `yaml:"stable-end-hour,omitempty"`
}

type BandYAML struct {
	Wavelength    int     `yaml:"wavelength"`
	FCFArcsec     float64 `yaml:"fcf-arcsec"`
	FCFPeak       float64 `yaml:"fcf-peak"`
	BeamFWHM      float64 `yaml:"beam-fwhm"`
	BeamFWHMError float64 `yaml:"beam-fwhm-error"`
}

type TimelineYAML struct {
	LeadingEpoch    string         `yaml:"leading-epoch"`
	LeadingDetailed string         `yaml:"leading-detailed"`
	Intervals       []IntervalYAML `yaml:"intervals"`
}

type IntervalYAML struct {
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Epoch    string `yaml:"epoch"`
	Detailed string `yaml:"detailed"`
}

type EventYAML struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	Time string `yaml:"time"`
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

// ParseYAML decodes a YAML document over the built-in defaults
func ParseYAML(data []byte) (*ConfigData, error) {
	var yamlConfig configYAML
	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, err
	}

	config := Default()

	if s := yamlConfig.Site; s != nil {
		if s.Name != "" {
			config.Site.Name = s.Name
		}
		if s.Timezone != "" {
			config.Site.Timezone = s.Timezone
		}
		if s.ReferenceTarget != "" {
			config.Site.ReferenceTarget = s.ReferenceTarget
		}
		if s.StableStart != nil {
			config.Site.StableStart = *s.StableStart
		}
		if s.StableEnd != nil {
			config.Site.StableEnd = *s.StableEnd
		}
	}

	for _, b := range yamlConfig.Bands {
		config.SetBand(BandData{
			Wavelength:    b.Wavelength,
			FCFArcsec:     b.FCFArcsec,
			FCFPeak:       b.FCFPeak,
			BeamFWHM:      b.BeamFWHM,
			BeamFWHMError: b.BeamFWHMError,
		})
	}

	if tl := yamlConfig.Timeline; tl != nil {
		config.Timeline = TimelineData{
			Leading: epoch.Label{Epoch: tl.LeadingEpoch, Detailed: tl.LeadingDetailed},
		}
		for i, iv := range tl.Intervals {
			start, err := ParseTime(iv.Start)
			if err != nil {
				return nil, fmt.Errorf("timeline interval %d start: %w", i, err)
			}
			end, err := ParseTime(iv.End)
			if err != nil {
				return nil, fmt.Errorf("timeline interval %d end: %w", i, err)
			}
			config.Timeline.Intervals = append(config.Timeline.Intervals, IntervalData{
				Start:    start,
				End:      end,
				Epoch:    iv.Epoch,
				Detailed: iv.Detailed,
			})
		}
	}

	if yamlConfig.Events != nil {
		config.Events = nil
		for i, ev := range yamlConfig.Events {
			t, err := ParseTime(ev.Time)
			if err != nil {
				return nil, fmt.Errorf("event %d (%s): %w", i, ev.Name, err)
			}
			config.Events = append(config.Events, EventData{Name: ev.Name, Kind: ev.Kind, Time: t})
		}
	}

	return config, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
