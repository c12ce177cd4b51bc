package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains the resolved application paths. Relative configured
// paths resolve against the working directory, since digests operate on
// whatever directory the operator copied the instrument files into.
type Paths struct {
	BaseDir    string
	DataDir    string
	OutputDir  string
	SchemasDir string
	LogsDir    string
}

// GetPaths resolves paths from a PathsConfig, filling in defaults.
func GetPaths(cfg PathsConfig) (*Paths, error) {
	base, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	resolve := func(configured, def string) string {
		if configured == "" {
			configured = def
		}
		if filepath.IsAbs(configured) {
			return configured
		}
		return filepath.Join(base, configured)
	}

	return &Paths{
		BaseDir:    base,
		DataDir:    resolve(cfg.DataDir, "."),
		OutputDir:  resolve(cfg.OutputDir, "."),
		SchemasDir: resolve(cfg.SchemasDir, "rigs"),
		LogsDir:    resolve(cfg.LogsDir, "logs"),
	}, nil
}

// EnsureDirectories creates the directories digests write into
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetDataPath returns the path of an input file
func (p *Paths) GetDataPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.DataDir, filename)
}

// GetOutputPath returns the path of an output file
func (p *Paths) GetOutputPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.OutputDir, filename)
}

// GetSchemaPath returns the path of a rig schema file
func (p *Paths) GetSchemaPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.SchemasDir, filename)
}

// GetLogPath returns the path of a log file
func (p *Paths) GetLogPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.LogsDir, filename)
}
