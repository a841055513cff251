package config

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/chrissnell/fcfreview/pkg/epoch"
	"github.com/chrissnell/fcfreview/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens the database at dbPath and brings its schema up
// to date
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	s := &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}
	if _, err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies pending schema migrations and returns how many ran
func (s *SQLiteProvider) Migrate() (int, error) {
	n, err := migrate.NewMigrator(s.db, migrationFiles, "migrations", "schema_migrations").MigrateUp()
	if err != nil {
		return n, fmt.Errorf("failed to migrate config database: %w", err)
	}
	return n, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	if err := s.loadSite(config); err != nil {
		return nil, fmt.Errorf("failed to load site: %w", err)
	}

	bands, err := s.loadBands()
	if err != nil {
		return nil, fmt.Errorf("failed to load bands: %w", err)
	}
	config.Bands = bands

	intervals, err := s.loadIntervals()
	if err != nil {
		return nil, fmt.Errorf("failed to load epochs: %w", err)
	}
	config.Timeline.Intervals = intervals

	events, err := s.loadEvents()
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	config.Events = events

	return config, nil
}

func (s *SQLiteProvider) loadSite(config *ConfigData) error {
	query := `
		SELECT name, timezone, reference_target, stable_start_hour, stable_end_hour,
		       leading_epoch, leading_detailed
		FROM site WHERE id = 1
	`
	err := s.db.QueryRow(query).Scan(
		&config.Site.Name, &config.Site.Timezone, &config.Site.ReferenceTarget,
		&config.Site.StableStart, &config.Site.StableEnd,
		&config.Timeline.Leading.Epoch, &config.Timeline.Leading.Detailed,
	)
	if err == sql.ErrNoRows {
		return fmt.Errorf("database %s holds no configuration; create it with timeline-convert", s.dbPath)
	}
	return err
}

func (s *SQLiteProvider) loadBands() ([]BandData, error) {
	rows, err := s.db.Query(`
		SELECT wavelength, fcf_arcsec, fcf_peak, beam_fwhm, beam_fwhm_error
		FROM bands ORDER BY wavelength
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bands []BandData
	for rows.Next() {
		var b BandData
		if err := rows.Scan(&b.Wavelength, &b.FCFArcsec, &b.FCFPeak, &b.BeamFWHM, &b.BeamFWHMError); err != nil {
			return nil, fmt.Errorf("failed to scan band row: %w", err)
		}
		bands = append(bands, b)
	}
	return bands, rows.Err()
}

func (s *SQLiteProvider) loadIntervals() ([]IntervalData, error) {
	rows, err := s.db.Query(`SELECT start_time, end_time, epoch, detailed FROM epochs ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intervals []IntervalData
	for rows.Next() {
		var iv IntervalData
		var start, end string
		if err := rows.Scan(&start, &end, &iv.Epoch, &iv.Detailed); err != nil {
			return nil, fmt.Errorf("failed to scan epoch row: %w", err)
		}
		if iv.Start, err = ParseTime(start); err != nil {
			return nil, err
		}
		if iv.End, err = ParseTime(end); err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}

func (s *SQLiteProvider) loadEvents() ([]EventData, error) {
	rows, err := s.db.Query(`SELECT name, kind, event_time FROM events ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventData
	for rows.Next() {
		var ev EventData
		var t string
		if err := rows.Scan(&ev.Name, &ev.Kind, &t); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		if ev.Time, err = ParseTime(t); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData in a single
// transaction. The configuration is validated first.
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	if err := configData.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"site", "bands", "epochs", "events"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertSite(tx, &configData.Site, configData.Timeline.Leading); err != nil {
		return fmt.Errorf("failed to insert site: %w", err)
	}

	for _, b := range configData.Bands {
		_, err := tx.Exec(`
			INSERT INTO bands (wavelength, fcf_arcsec, fcf_peak, beam_fwhm, beam_fwhm_error)
			VALUES (?, ?, ?, ?, ?)
		`, b.Wavelength, b.FCFArcsec, b.FCFPeak, b.BeamFWHM, b.BeamFWHMError)
		if err != nil {
			return fmt.Errorf("failed to insert band %d: %w", b.Wavelength, err)
		}
	}

	for _, iv := range configData.Timeline.Intervals {
		_, err := tx.Exec(`INSERT INTO epochs (start_time, end_time, epoch, detailed) VALUES (?, ?, ?, ?)`,
			FormatTime(iv.Start), FormatTime(iv.End), iv.Epoch, iv.Detailed)
		if err != nil {
			return fmt.Errorf("failed to insert epoch %s: %w", iv.Detailed, err)
		}
	}

	for _, ev := range configData.Events {
		_, err := tx.Exec(`INSERT INTO events (name, kind, event_time) VALUES (?, ?, ?)`,
			ev.Name, ev.Kind, FormatTime(ev.Time))
		if err != nil {
			return fmt.Errorf("failed to insert event %s: %w", ev.Name, err)
		}
	}

	return tx.Commit()
}

func insertSite(tx *sql.Tx, site *SiteData, leading epoch.Label) error {
	_, err := tx.Exec(`
		INSERT INTO site (
			id, name, timezone, reference_target, stable_start_hour, stable_end_hour,
			leading_epoch, leading_detailed
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?)
	`, site.Name, site.Timezone, site.ReferenceTarget, site.StableStart, site.StableEnd,
		leading.Epoch, leading.Detailed)
	return err
}
