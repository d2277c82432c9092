package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the resolved absolute directory layout.
type Paths struct {
	BaseDir        string
	UnprocessedDir string
	ProcessedDir   string
	ErrorsDir      string
	OutputDir      string
	DatabasePath   string
	LogsDir        string
}

// ResolvePaths turns the configured directories into absolute paths.
// Relative entries are joined onto BaseDir, which defaults to the working directory.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %s: %w", cfg.BaseDir, err)
	}

	resolve := func(p, fallback string) string {
		if p == "" {
			p = fallback
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	paths := &Paths{
		BaseDir:        base,
		UnprocessedDir: resolve(cfg.UnprocessedDir, "unprocessed"),
		ProcessedDir:   resolve(cfg.ProcessedDir, "processed"),
		ErrorsDir:      resolve(cfg.ErrorsDir, "errors"),
		OutputDir:      resolve(cfg.OutputDir, "output"),
		LogsDir:        resolve(cfg.LogsDir, "logs"),
	}
	paths.DatabasePath = resolve(cfg.Database, filepath.Join(paths.OutputDir, "hot_parts.db"))

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.UnprocessedDir,
		p.ProcessedDir,
		p.ErrorsDir,
		p.OutputDir,
		p.LogsDir,
		filepath.Dir(p.DatabasePath),
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// ProcessedPath returns the destination of a successfully processed file
func (p *Paths) ProcessedPath(filename string) string {
	return filepath.Join(p.ProcessedDir, filepath.Base(filename))
}

// ErrorPath returns the destination of a failed file
func (p *Paths) ErrorPath(filename string) string {
	return filepath.Join(p.ErrorsDir, filepath.Base(filename))
}

// ErrorMarkerPath returns the .error marker written next to a failed file
func (p *Paths) ErrorMarkerPath(filename string) string {
	return p.ErrorPath(filename) + ".error"
}

// OutputPath returns a file inside the output directory
func (p *Paths) OutputPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// LogPathResolution logs the resolved layout
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("unprocessed", p.UnprocessedDir),
			slog.String("processed", p.ProcessedDir),
			slog.String("errors", p.ErrorsDir),
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		),
		slog.String("database", p.DatabasePath))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
