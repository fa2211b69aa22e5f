package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// ConfigWriter is satisfied by the config type so the resolved configuration
// can be archived next to the run's CSV without importing the config package.
type ConfigWriter interface {
	WriteYAML(path string) error
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir         string
	historyFile *os.File

	// Track if the header has been written
	historyHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the run
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	historyPath := filepath.Join(dir, "history.csv")
	f, err := os.Create(historyPath)
	if err != nil {
		return nil, fmt.Errorf("creating history.csv: %w", err)
	}
	om.historyFile = f

	return om, nil
}

// WriteConfig saves the resolved run configuration as YAML.
func (om *OutputManager) WriteConfig(cfg ConfigWriter) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteSnapshots appends snapshot records to history.csv. The first write
// includes the header row; subsequent writes skip it.
func (om *OutputManager) WriteSnapshots(records []StepSnapshot) error {
	if om == nil || len(records) == 0 {
		return nil
	}

	if !om.historyHeaderWritten {
		if err := gocsv.Marshal(records, om.historyFile); err != nil {
			return fmt.Errorf("writing history: %w", err)
		}
		om.historyHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.historyFile); err != nil {
			return fmt.Errorf("writing history: %w", err)
		}
	}

	return nil
}

// HistoryPath returns the path of the run's CSV file.
func (om *OutputManager) HistoryPath() string {
	if om == nil {
		return ""
	}
	return filepath.Join(om.dir, "history.csv")
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes the output files. Closing twice is a no-op.
func (om *OutputManager) Close() error {
	if om == nil || om.historyFile == nil {
		return nil
	}
	err := om.historyFile.Close()
	om.historyFile = nil
	return err
}
