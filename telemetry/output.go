package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/selkie/config"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir        string
	tracksFile *os.File
	dailyFile  *os.File
	eventsFile *os.File
	perfFile   *os.File

	// Track if headers have been written
	tracksHeaderWritten bool
	dailyHeaderWritten  bool
	eventsHeaderWritten bool
	perfHeaderWritten   bool
}

// NewOutputManager creates a new output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	open := func(name string) (*os.File, error) {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", name, err)
		}
		return f, nil
	}

	var err error
	if om.tracksFile, err = open("tracks.csv"); err != nil {
		return nil, err
	}
	if om.dailyFile, err = open("daily.csv"); err != nil {
		return nil, err
	}
	if om.eventsFile, err = open("events.csv"); err != nil {
		return nil, err
	}
	if om.perfFile, err = open("perf.csv"); err != nil {
		return nil, err
	}

	return om, nil
}

// WriteConfig saves the active configuration as YAML next to the CSVs.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTracks appends a batch of track records to tracks.csv.
func (om *OutputManager) WriteTracks(records []TrackRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}

	if !om.tracksHeaderWritten {
		if err := gocsv.Marshal(records, om.tracksFile); err != nil {
			return fmt.Errorf("writing tracks: %w", err)
		}
		om.tracksHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.tracksFile); err != nil {
		return fmt.Errorf("writing tracks: %w", err)
	}
	return nil
}

// WriteDaily writes a daily stats record to daily.csv.
func (om *OutputManager) WriteDaily(stats DailyStats) error {
	if om == nil {
		return nil
	}

	records := []DailyStats{stats}
	if !om.dailyHeaderWritten {
		if err := gocsv.Marshal(records, om.dailyFile); err != nil {
			return fmt.Errorf("writing daily stats: %w", err)
		}
		om.dailyHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.dailyFile); err != nil {
		return fmt.Errorf("writing daily stats: %w", err)
	}
	return nil
}

// WriteEvents appends events to events.csv.
func (om *OutputManager) WriteEvents(events []Event) error {
	if om == nil || len(events) == 0 {
		return nil
	}

	records := make([]EventCSV, len(events))
	for i, e := range events {
		records[i] = e.ToCSV()
	}

	if !om.eventsHeaderWritten {
		if err := gocsv.Marshal(records, om.eventsFile); err != nil {
			return fmt.Errorf("writing events: %w", err)
		}
		om.eventsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.eventsFile); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, tick int) error {
	if om == nil {
		return nil
	}

	records := []PerfStatsCSV{stats.ToCSV(tick)}
	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.tracksFile, om.dailyFile, om.eventsFile, om.perfFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
