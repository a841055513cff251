package app

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/fcfreview/internal/beamfit"
	"github.com/chrissnell/fcfreview/internal/catalog"
	"github.com/chrissnell/fcfreview/internal/charts"
	"github.com/chrissnell/fcfreview/pkg/config"
	"github.com/chrissnell/fcfreview/pkg/epoch"
)

const csvHeader = "ut,targetname,filter,fcfasec,fcfbeam,fcfmatch,trans,fwhmmain\n"

var runStart = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

type row struct {
	ut     string
	target string
	band   int
	arcsec float64
	peak   float64
}

func (r row) csv() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return fmt.Sprintf("%s,%s,%d,%s,%s,%s,0.3,%s\n", r.ut, r.target, r.band, f(r.arcsec), f(r.peak), f(r.peak+5), f(14.1))
}

func writeCatalog(t *testing.T, rows []row) catalog.Source {
	t.Helper()
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(r.csv())
	}
	return writeCatalogText(t, b.String())
}

// writeCatalogText writes body under the standard header
func writeCatalogText(t *testing.T, body string) catalog.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fcf_export.csv")
	if err := os.WriteFile(path, []byte(csvHeader+body), 0644); err != nil {
		t.Fatal(err)
	}
	return catalog.NewCSVSource(path)
}

func runApp(t *testing.T, rows []row) (*Summary, string) {
	t.Helper()
	root := t.TempDir()
	summary := runIn(t, root, config.Default(), writeCatalog(t, rows))
	return summary, filepath.Join(root, "ops_meeting_plots_2024-05-06_07:08:09")
}

// runIn runs one review into root with the start time fixed to runStart
func runIn(t *testing.T, root string, cfg *config.ConfigData, source catalog.Source) *Summary {
	t.Helper()
	a := New(cfg, Options{
		OutputRoot: root,
		Workers:    2,
		Now:        func() time.Time { return runStart },
	}, nil)

	summary, err := a.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return summary
}

func pngFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".png") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func (s *Summary) bandByWavelength(t *testing.T, b int) BandSummary {
	t.Helper()
	for _, bs := range s.Bands {
		if bs.Band == b {
			return bs
		}
	}
	t.Fatalf("no summary for band %d", b)
	return BandSummary{}
}

func TestRunFiveRows(t *testing.T) {
	rows := []row{
		{"2017-02-01 10:00:00", "CRL2688", 450, 3.9, 480},
		{"2017-03-15 12:30:00", "CRL618", 450, 4.1, 470},
		{"2018-03-01 11:00:00", "CRL2688", 850, 2.1, 500},
		{"2018-09-01 11:00:00", "CRL618", 850, 2.0, 490},
		{"2019-01-10 13:00:00", "CRL2688", 850, 2.05, 495},
	}
	summary, dir := runApp(t, rows)

	if summary.Directory != dir {
		t.Errorf("Directory = %s, expected %s", summary.Directory, dir)
	}
	if summary.Rows != 5 || summary.Observations != 5 {
		t.Errorf("rows = %d, observations = %d", summary.Rows, summary.Observations)
	}

	var expected []string
	for _, spec := range charts.DefaultSpecs() {
		if spec.Kind == charts.KindBeamFit {
			continue
		}
		expected = append(expected, spec.FileName(450), spec.FileName(850))
	}
	sort.Strings(expected)
	got := pngFiles(t, dir)
	if strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("charts written:\n%v\nexpected:\n%v", got, expected)
	}
	if summary.Written() != len(expected) || summary.Failed() != 0 || summary.Skipped() != 2 {
		t.Errorf("written/skipped/failed = %d/%d/%d", summary.Written(), summary.Skipped(), summary.Failed())
	}

	a := summary.bandByWavelength(t, 450)
	if a.Observations != 2 {
		t.Errorf("450 observations = %d", a.Observations)
	}
	if a.Detailed["New Filters"] != 2 || a.Epochs[epoch.PostFilterChange] != 2 {
		t.Errorf("450 labels = %v / %v, expected all New Filters / Post-Filter Change", a.Detailed, a.Epochs)
	}
	if a.BeamSkipped != string(beamfit.ReasonTargetAbsent) {
		t.Errorf("450 beam skip = %q", a.BeamSkipped)
	}

	b := summary.bandByWavelength(t, 850)
	if b.Detailed["Membrane Back On"] != 1 || b.Detailed["SMU HW Fix"] != 2 {
		t.Errorf("850 detailed labels = %v", b.Detailed)
	}

	for _, name := range []string{SummaryFile, MetricsFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	saved, err := ReadSummary(filepath.Join(dir, SummaryFile))
	if err != nil {
		t.Fatal(err)
	}
	if saved.RunID != summary.RunID || saved.Written() != summary.Written() {
		t.Errorf("saved summary differs: %+v", saved)
	}

	prom, err := os.ReadFile(filepath.Join(dir, MetricsFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(prom), `fcfreview_charts_total{band="850",outcome="written"} 10`) {
		t.Errorf("metrics textfile:\n%s", prom)
	}
}

func TestRunBoundaryRows(t *testing.T) {
	rows := []row{
		{"2016-10-06 00:00:00", "CRL2688", 850, 2.1, 500},
		{"2018-06-30 08:11:00", "CRL2688", 850, 2.0, 490},
		{"2018-06-30 08:10:59", "CRL2688", 850, 2.0, 490},
	}
	summary, _ := runApp(t, rows)

	b := summary.bandByWavelength(t, 850)
	if b.Detailed["New Filters"] != 1 || b.Detailed["SMU Gain Fix"] != 1 || b.Detailed["SMU Malfunction"] != 1 {
		t.Errorf("boundary labels = %v", b.Detailed)
	}
	if b.Epochs[epoch.PostFilterChange] != 2 || b.Epochs[epoch.PostSMUFix] != 1 {
		t.Errorf("boundary coarse labels = %v", b.Epochs)
	}
}

func TestRunBeamFit(t *testing.T) {
	slope := beamfit.SlopeForBeam(14.4)
	uranus := func(day int, arcsec float64) row {
		// 12:00 UTC is 02:00 HST, inside the stability window
		return row{fmt.Sprintf("2019-02-%02d 12:00:00", day), "URANUS", 850, arcsec, slope * arcsec}
	}

	t.Run("two points", func(t *testing.T) {
		summary, dir := runApp(t, []row{uranus(1, 2.0), uranus(2, 2.1)})
		b := summary.bandByWavelength(t, 850)
		if b.Beam != nil || b.BeamSkipped != string(beamfit.ReasonTooFewPoints) {
			t.Errorf("beam = %+v, skipped = %q", b.Beam, b.BeamSkipped)
		}
		if _, err := os.Stat(filepath.Join(dir, "Empirical_Beam_Uranus_850.png")); !os.IsNotExist(err) {
			t.Errorf("beam chart should not exist, stat err = %v", err)
		}
	})

	t.Run("five points", func(t *testing.T) {
		rows := []row{uranus(1, 1.9), uranus(2, 2.0), uranus(3, 2.05), uranus(4, 2.1), uranus(5, 2.2)}
		// outside the stability window: 23:00 UTC is 13:00 HST
		rows = append(rows, row{"2019-02-06 23:00:00", "URANUS", 850, 2.0, 100})

		summary, dir := runApp(t, rows)
		b := summary.bandByWavelength(t, 850)
		if b.Beam == nil {
			t.Fatalf("beam fit skipped: %s", b.BeamSkipped)
		}
		if b.Beam.Points != 5 {
			t.Errorf("fit used %d points, expected 5", b.Beam.Points)
		}
		if math.Abs(b.Beam.FWHM-14.4) > 1e-6 {
			t.Errorf("FWHM = %f, expected 14.4", b.Beam.FWHM)
		}
		if b.Beam.Expected != 14.4 || b.Beam.ExpectedError != 0.3 {
			t.Errorf("expected beam = %f ± %f", b.Beam.Expected, b.Beam.ExpectedError)
		}
		if _, err := os.Stat(filepath.Join(dir, "Empirical_Beam_Uranus_850.png")); err != nil {
			t.Errorf("beam chart not written: %v", err)
		}
	})
}

func TestRunGapIsReported(t *testing.T) {
	summary, _ := runApp(t, []row{
		{"2019-01-10 13:00:00", "CRL2688", 850, 2.05, 495},
		{"2600-01-01 00:00:00", "CRL2688", 850, 2.05, 495},
	})
	if len(summary.GapErrors) != 1 || summary.Observations != 1 {
		t.Errorf("gap errors = %v, observations = %d", summary.GapErrors, summary.Observations)
	}
}

func TestRunFatalErrors(t *testing.T) {
	t.Run("output root is a file", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "not-a-dir")
		if err := os.WriteFile(root, nil, 0644); err != nil {
			t.Fatal(err)
		}
		a := New(config.Default(), Options{OutputRoot: root, Now: func() time.Time { return runStart }}, nil)
		if _, err := a.Run(context.Background(), writeCatalog(t, nil)); err == nil {
			t.Error("expected an error creating the output directory")
		}
	})

	t.Run("missing columns", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.csv")
		if err := os.WriteFile(path, []byte("ut,targetname\n2019-01-01 00:00:00,URANUS\n"), 0644); err != nil {
			t.Fatal(err)
		}
		root := t.TempDir()
		a := New(config.Default(), Options{OutputRoot: root}, nil)
		if _, err := a.Run(context.Background(), catalog.NewCSVSource(path)); err == nil {
			t.Error("expected a load error")
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("a failed load left %d entries in the output root", len(entries))
		}
	})

	t.Run("missing input", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "out")
		a := New(config.Default(), Options{OutputRoot: root}, nil)
		if _, err := a.Run(context.Background(), catalog.NewCSVSource(filepath.Join(root, "absent.csv"))); err == nil {
			t.Error("expected a load error")
		}
		if _, err := os.Stat(root); !os.IsNotExist(err) {
			t.Errorf("output root created before the catalog loaded, stat err = %v", err)
		}
	})

	t.Run("invalid timeline", func(t *testing.T) {
		cfg := config.Default()
		cfg.Timeline.Intervals[3].Start = cfg.Timeline.Intervals[3].Start.Add(time.Hour)
		a := New(cfg, Options{OutputRoot: t.TempDir()}, nil)
		if _, err := a.Run(context.Background(), writeCatalog(t, nil)); err == nil {
			t.Error("expected a timeline validation error")
		}
	})
}

func TestRunNeverReusesDirectory(t *testing.T) {
	root := t.TempDir()
	first := runIn(t, root, config.Default(), writeCatalog(t, []row{
		{"2017-02-01 10:00:00", "CRL2688", 450, 3.9, 480},
		{"2017-03-15 12:30:00", "CRL618", 450, 4.1, 470},
	}))
	second := runIn(t, root, config.Default(), writeCatalog(t, []row{
		{"2018-09-01 11:00:00", "CRL618", 850, 2.0, 490},
		{"2019-01-10 13:00:00", "CRL2688", 850, 2.05, 495},
	}))

	base := filepath.Join(root, "ops_meeting_plots_2024-05-06_07:08:09")
	if first.Directory != base {
		t.Errorf("first directory = %s, expected %s", first.Directory, base)
	}
	if second.Directory != base+"_2" {
		t.Errorf("second directory = %s, expected %s_2", second.Directory, base)
	}

	tests := []struct {
		dir  string
		want string
		none string
	}{
		{first.Directory, "_450.png", "_850.png"},
		{second.Directory, "_850.png", "_450.png"},
	}
	for _, tt := range tests {
		files := pngFiles(t, tt.dir)
		if len(files) != 10 {
			t.Errorf("%s holds %d charts, expected 10: %v", tt.dir, len(files), files)
		}
		for _, f := range files {
			if strings.HasSuffix(f, tt.none) {
				t.Errorf("%s holds %s from the other run", tt.dir, f)
			}
		}
	}

	saved, err := ReadSummary(filepath.Join(first.Directory, SummaryFile))
	if err != nil {
		t.Fatal(err)
	}
	if saved.RunID != first.RunID {
		t.Errorf("first summary overwritten by run %s", saved.RunID)
	}
}

func TestRunNamesBeamChartAfterTarget(t *testing.T) {
	cfg := config.Default()
	cfg.Site.ReferenceTarget = "MARS"

	slope := beamfit.SlopeForBeam(14.4)
	var rows []row
	for day, arcsec := range []float64{1.9, 2.0, 2.05, 2.1, 2.2} {
		rows = append(rows, row{fmt.Sprintf("2019-02-%02d 12:00:00", day+1), "MARS", 850, arcsec, slope * arcsec})
	}
	root := t.TempDir()
	summary := runIn(t, root, cfg, writeCatalog(t, rows))

	b := summary.bandByWavelength(t, 850)
	if b.Beam == nil {
		t.Fatalf("beam fit skipped: %s", b.BeamSkipped)
	}
	if _, err := os.Stat(filepath.Join(summary.Directory, "Empirical_Beam_Mars_850.png")); err != nil {
		t.Errorf("beam chart not written under the target name: %v", err)
	}
	for _, f := range pngFiles(t, summary.Directory) {
		if strings.Contains(f, "Uranus") {
			t.Errorf("unexpected %s for a Mars reference", f)
		}
	}
}

func TestRunReportsParseErrors(t *testing.T) {
	body := strings.Join([]string{
		"2019-01-10 13:00:00,CRL2688,850,2.05,495,500,0.3,14.1",
		"not-a-time,CRL2688,850,2.05,495,500,0.3,14.1",
		"2019-01-11 13:00:00,CRL2688,850,2.05,495,500,cloudy,14.1",
	}, "\n") + "\n"
	root := t.TempDir()
	summary := runIn(t, root, config.Default(), writeCatalogText(t, body))

	if summary.Rows != 3 || summary.Dropped != 1 || summary.Observations != 2 {
		t.Errorf("rows/dropped/observations = %d/%d/%d, expected 3/1/2", summary.Rows, summary.Dropped, summary.Observations)
	}
	if len(summary.ParseErrors) != 2 {
		t.Fatalf("parse errors = %v, expected 2", summary.ParseErrors)
	}
	for i, col := range []string{"column ut", "column trans"} {
		if !strings.Contains(summary.ParseErrors[i], col) {
			t.Errorf("parse error %d = %q, expected it to name %s", i, summary.ParseErrors[i], col)
		}
	}

	prom, err := os.ReadFile(filepath.Join(summary.Directory, MetricsFile))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`fcfreview_parse_errors_total{column="ut"} 1`,
		`fcfreview_parse_errors_total{column="trans"} 1`,
		`fcfreview_rows_dropped_total 1`,
	} {
		if !strings.Contains(string(prom), want) {
			t.Errorf("metrics textfile lacks %s:\n%s", want, prom)
		}
	}
}
