package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chrissnell/fcfreview/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required unless -builtin)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		builtin    = flag.Bool("builtin", false, "Write the built-in SCUBA-2 configuration instead of a YAML file")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if (*yamlFile == "" && !*builtin) || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <fcfreview.yaml> -sqlite <fcfreview.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := convert(os.Stdout, *yamlFile, *sqliteFile, *force, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// convert loads a YAML configuration (or the built-in one when yamlFile is
// empty) and stores it in a new SQLite database.
func convert(w io.Writer, yamlFile, sqliteFile string, force, dryRun bool) error {
	source := yamlFile
	if source == "" {
		source = "built-in configuration"
	} else if _, err := os.Stat(yamlFile); os.IsNotExist(err) {
		return fmt.Errorf("YAML file does not exist: %s", yamlFile)
	}

	// Check if SQLite file already exists
	if _, err := os.Stat(sqliteFile); err == nil && !force {
		return fmt.Errorf("SQLite file already exists: %s (use -force to overwrite)", sqliteFile)
	}

	fmt.Fprintf(w, "Converting configuration to SQLite...\n")
	fmt.Fprintf(w, "  Source: %s\n", source)
	fmt.Fprintf(w, "  Target: %s\n", sqliteFile)

	if dryRun {
		fmt.Fprintln(w, "DRY RUN - No changes will be made")
	}

	configData := config.Default()
	if yamlFile != "" {
		var err error
		configData, err = config.NewYAMLProvider(yamlFile).LoadConfig()
		if err != nil {
			return fmt.Errorf("loading YAML configuration: %w", err)
		}
	}
	if err := configData.Validate(); err != nil {
		return err
	}

	if dryRun {
		printConfigSummary(w, configData)
		fmt.Fprintln(w, "DRY RUN complete - no database created")
		return nil
	}

	// Remove existing SQLite file if force is specified
	if force {
		if err := os.Remove(sqliteFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing existing SQLite file: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(sqliteFile), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Opening the provider creates the schema
	fmt.Fprintf(w, "Creating SQLite database...\n")
	provider, err := config.NewSQLiteProvider(sqliteFile)
	if err != nil {
		return fmt.Errorf("creating SQLite database: %w", err)
	}
	defer provider.Close()

	fmt.Fprintf(w, "  Inserting %d bands, %d epochs, %d events...\n",
		len(configData.Bands), len(configData.Timeline.Intervals), len(configData.Events))
	if err := provider.SaveConfig(configData); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintf(w, "Conversion completed successfully!\n")
	fmt.Fprintf(w, "You can now use the SQLite backend with: -config-backend sqlite -config %s\n", sqliteFile)
	return nil
}

func printConfigSummary(w io.Writer, configData *config.ConfigData) {
	fmt.Fprintln(w, "\nConfiguration Summary:")
	site := configData.Site
	fmt.Fprintf(w, "Site: %s (%s), reference target %s, stable %g..%g h\n",
		site.Name, site.Timezone, site.ReferenceTarget, site.StableStart, site.StableEnd)

	fmt.Fprintf(w, "\nBands (%d):\n", len(configData.Bands))
	for _, b := range configData.Bands {
		fmt.Fprintf(w, "  - %d µm: FCF arcsec %g, FCF peak %g, beam %g ± %g\"\n",
			b.Wavelength, b.FCFArcsec, b.FCFPeak, b.BeamFWHM, b.BeamFWHMError)
	}

	fmt.Fprintf(w, "\nEpochs (%d, before first: %s):\n", len(configData.Timeline.Intervals), configData.Timeline.Leading)
	for _, iv := range configData.Timeline.Intervals {
		fmt.Fprintf(w, "  - %s .. %s  %s / %s\n", config.FormatTime(iv.Start), config.FormatTime(iv.End), iv.Epoch, iv.Detailed)
	}

	fmt.Fprintf(w, "\nEvents (%d)\n", len(configData.Events))
}
