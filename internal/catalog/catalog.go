// Package catalog reads calibration-result exports into observations.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/fcfreview/internal/types"
)

// Column names in the calibration archive export
const (
	ColTime         = "ut"
	ColTarget       = "targetname"
	ColBand         = "filter"
	ColFCFArcsec    = "fcfasec"
	ColFCFPeak      = "fcfbeam"
	ColFCFMatch     = "fcfmatch"
	ColTransmission = "trans"
	ColFWHMMain     = "fwhmmain"
)

// RequiredColumns must all appear in the header row
var RequiredColumns = []string{
	ColTime, ColTarget, ColBand, ColFCFArcsec, ColFCFPeak, ColFCFMatch, ColTransmission, ColFWHMMain,
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// ErrEmptyValue marks a required cell that was blank
var ErrEmptyValue = errors.New("empty value")

// ParseError describes a single cell that could not be interpreted
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: column %s: cannot parse %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is the outcome of reading one export
type Result struct {
	Observations []types.Observation
	// Rows counts data rows read, including dropped ones
	Rows int
	// Dropped counts rows excluded entirely (bad timestamp, band or target)
	Dropped int
	// Errors holds every cell-level failure. Rows with only bad measurement
	// cells are kept with NaN in those fields.
	Errors []*ParseError
}

// Source produces observations for a run
type Source interface {
	Load() (*Result, error)
	Name() string
}

// CSVSource reads an export from a file on disk
type CSVSource struct {
	Path string
}

// NewCSVSource creates a source for the CSV export at path
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

// Name returns the source path
func (s *CSVSource) Name() string {
	return s.Path
}

// Load opens and parses the export
func (s *CSVSource) Load() (*Result, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses CSV text with a header row. A missing required column is a
// fatal error; bad cells are collected in Result.Errors.
func Read(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("catalog is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("catalog is missing required columns: %s", strings.Join(missing, ", "))
	}

	result := &Result{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)

		result.Rows++
		obs, errs, keep := parseRecord(line, record, cols)
		result.Errors = append(result.Errors, errs...)
		if !keep {
			result.Dropped++
			continue
		}
		result.Observations = append(result.Observations, obs)
	}

	return result, nil
}

func parseRecord(line int, record []string, cols map[string]int) (types.Observation, []*ParseError, bool) {
	var errs []*ParseError
	cell := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	fail := func(name string, err error) {
		errs = append(errs, &ParseError{Line: line, Column: name, Value: cell(name), Err: err})
	}

	obs := types.Observation{Line: line}
	keep := true

	t, err := ParseTime(cell(ColTime))
	if err != nil {
		fail(ColTime, err)
		keep = false
	}
	obs.Time = t

	b, err := types.ParseBand(cell(ColBand))
	if err != nil {
		fail(ColBand, err)
		keep = false
	}
	obs.Band = b

	obs.Target = cell(ColTarget)
	if obs.Target == "" {
		fail(ColTarget, ErrEmptyValue)
		keep = false
	}

	measure := func(name string, dst *float64) {
		v, err := parseFloat(cell(name))
		if err != nil {
			fail(name, err)
			v = math.NaN()
		}
		*dst = v
	}
	measure(ColFCFArcsec, &obs.FCFArcsec)
	measure(ColFCFPeak, &obs.FCFPeak)
	measure(ColFCFMatch, &obs.FCFMatch)
	measure(ColTransmission, &obs.Transmission)
	measure(ColFWHMMain, &obs.FWHMMain)

	return obs, errs, keep
}

// ParseTime reads an archive timestamp as UTC
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrEmptyValue
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp format")
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, ErrEmptyValue
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return v, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
