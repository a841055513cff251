package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Summary is written to summary.yaml at the end of every run
type Summary struct {
	RunID        string        `yaml:"run_id"`
	Input        string        `yaml:"input"`
	Directory    string        `yaml:"directory"`
	Started      string        `yaml:"started"`
	Duration     string        `yaml:"duration"`
	Rows         int           `yaml:"rows"`
	Dropped      int           `yaml:"dropped"`
	Observations int           `yaml:"observations"`
	ParseErrors  []string      `yaml:"parse_errors,omitempty"`
	GapErrors    []string      `yaml:"gap_errors,omitempty"`
	Bands        []BandSummary `yaml:"bands"`
}

// BandSummary covers the charts and beam fit of one band
type BandSummary struct {
	Band         int            `yaml:"band"`
	Observations int            `yaml:"observations"`
	Epochs       map[string]int `yaml:"epochs,omitempty"`
	Detailed     map[string]int `yaml:"detailed_epochs,omitempty"`
	Beam         *BeamSummary   `yaml:"beam_fit,omitempty"`
	BeamSkipped  string         `yaml:"beam_fit_skipped,omitempty"`
	Written      []string       `yaml:"written,omitempty"`
	Skipped      []string       `yaml:"skipped,omitempty"`
	Failed       []ChartFailure `yaml:"failed,omitempty"`
}

type BeamSummary struct {
	Target        string  `yaml:"target"`
	Points        int     `yaml:"points"`
	Slope         float64 `yaml:"slope"`
	Intercept     float64 `yaml:"intercept"`
	RSquared      float64 `yaml:"r_squared"`
	FWHM          float64 `yaml:"fwhm_arcsec"`
	Expected      float64 `yaml:"expected_fwhm_arcsec"`
	ExpectedError float64 `yaml:"expected_fwhm_error_arcsec"`
}

type ChartFailure struct {
	Chart string `yaml:"chart"`
	Error string `yaml:"error"`
}

func (s *Summary) band(b int) *BandSummary {
	for i := range s.Bands {
		if s.Bands[i].Band == b {
			return &s.Bands[i]
		}
	}
	s.Bands = append(s.Bands, BandSummary{Band: b})
	return &s.Bands[len(s.Bands)-1]
}

func (s *Summary) Written() int {
	n := 0
	for _, b := range s.Bands {
		n += len(b.Written)
	}
	return n
}

func (s *Summary) Skipped() int {
	n := 0
	for _, b := range s.Bands {
		n += len(b.Skipped)
	}
	return n
}

func (s *Summary) Failed() int {
	n := 0
	for _, b := range s.Bands {
		n += len(b.Failed)
	}
	return n
}

// WriteFile saves the summary as YAML
func (s *Summary) WriteFile(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// ReadSummary loads a summary written by a previous run
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse summary %s: %w", path, err)
	}
	return &s, nil
}
