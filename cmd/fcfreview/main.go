package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/chrissnell/fcfreview/internal/app"
	"github.com/chrissnell/fcfreview/internal/catalog"
	"github.com/chrissnell/fcfreview/internal/log"
	"github.com/chrissnell/fcfreview/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

// nominal overrides, applied only when the flag was given
type bandFlags struct {
	arcsec *float64
	peak   *float64
}

func main() {
	input := flag.String("input", "", "Path to the calibration results CSV export (or pass it as the only argument)")
	cfgFile := flag.String("config", "", "Path to site/timeline configuration:\n\t\t\t  YAML: fcfreview.yaml\n\t\t\t  SQLite: fcfreview.db\n\t\t\t  Built-in SCUBA-2 configuration when empty")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	outputRoot := flag.String("output-root", ".", "Directory in which the timestamped plot directory is created")
	workers := flag.Int("workers", runtime.NumCPU(), "Charts rendered in parallel; 1 renders them one at a time")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")

	defaults := config.Default()
	bands := map[int]bandFlags{}
	for _, b := range defaults.Bands {
		bands[b.Wavelength] = bandFlags{
			arcsec: flag.Float64(fmt.Sprintf("%d-fcf-arcsec", b.Wavelength), b.FCFArcsec, fmt.Sprintf("Nominal %d µm FCF arcsec", b.Wavelength)),
			peak:   flag.Float64(fmt.Sprintf("%d-fcf-peak", b.Wavelength), b.FCFPeak, fmt.Sprintf("Nominal %d µm FCF peak", b.Wavelength)),
		}
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("fcfreview %s\n", version)
		os.Exit(0)
	}

	if *input == "" && flag.NArg() == 1 {
		*input = flag.Arg(0)
	}
	if *input == "" || flag.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] -input <export.csv>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	applyOverrides(cfgData, bands)
	if err := cfgData.Validate(); err != nil {
		log.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfgData, app.Options{
		OutputRoot: *outputRoot,
		Workers:    *workers,
	}, log.GetSugaredLogger())

	summary, err := application.Run(ctx, catalog.NewCSVSource(*input))
	if err != nil {
		log.Errorf("Review failed: %v", err)
		os.Exit(1)
	}
	if summary.Failed() > 0 {
		log.Warnf("%d charts failed, see %s", summary.Failed(), filepath.Join(summary.Directory, app.SummaryFile))
	}
}

// applyOverrides copies explicitly set nominal flags into the configuration
func applyOverrides(cfg *config.ConfigData, bands map[int]bandFlags) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	for wavelength, bf := range bands {
		b, ok := cfg.Band(wavelength)
		if !ok {
			b = config.BandData{Wavelength: wavelength}
		}
		changed := false
		if set[fmt.Sprintf("%d-fcf-arcsec", wavelength)] {
			b.FCFArcsec = *bf.arcsec
			changed = true
		}
		if set[fmt.Sprintf("%d-fcf-peak", wavelength)] {
			b.FCFPeak = *bf.peak
			changed = true
		}
		if changed {
			cfg.SetBand(b)
		}
	}
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}
