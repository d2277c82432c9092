package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hotparts/internal/config"
)

// ErrorMarkerSuffix is appended to a diverted file's name for its marker.
const ErrorMarkerSuffix = ".error"

// Manager routes workbooks between the unprocessed, processed and errors directories.
type Manager struct {
	paths  *config.Paths
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		paths:  paths,
		logger: logger.With(slog.String("component", "file_manager")),
		now:    time.Now,
	}
}

// Paths returns the directory layout the manager routes into.
func (m *Manager) Paths() *config.Paths {
	return m.paths
}

// CopyFile copies a file from source to destination
func (m *Manager) CopyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	return dstFile.Sync()
}

// MoveFile moves a file, falling back to copy and delete across filesystems.
func (m *Manager) MoveFile(src, dst string) error {
	m.logger.Debug("Moving file",
		slog.String("src", src),
		slog.String("dst", dst))

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := m.CopyFile(src, dst); err != nil {
		return err
	}

	return os.Remove(src)
}

// MarkProcessed moves a successfully processed file into the processed directory.
func (m *Manager) MarkProcessed(path string) (string, error) {
	dst := m.paths.ProcessedPath(path)
	if err := m.MoveFile(path, dst); err != nil {
		return "", fmt.Errorf("failed to move %s to processed: %w", filepath.Base(path), err)
	}

	m.logger.Info("File moved to processed",
		slog.String("file", filepath.Base(path)),
		slog.String("destination", dst))
	return dst, nil
}

// Divert moves a failed file into the errors directory and writes its marker.
// The marker is written even when the move fails so the reason is never lost.
func (m *Manager) Divert(path string, reason error) (string, error) {
	dst := m.paths.ErrorPath(path)
	moveErr := m.MoveFile(path, dst)
	if moveErr != nil {
		dst = path
	}

	markerErr := m.WriteErrorMarker(dst, reason)

	m.logger.Warn("File diverted to errors",
		slog.String("file", filepath.Base(path)),
		slog.String("destination", dst),
		slog.String("reason", errorText(reason)))

	if moveErr != nil {
		return dst, fmt.Errorf("failed to move %s to errors: %w", filepath.Base(path), moveErr)
	}
	return dst, markerErr
}

// WriteErrorMarker writes <path>.error describing why path failed.
func (m *Manager) WriteErrorMarker(path string, reason error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Processing failed for: %s\n", filepath.Base(path))
	fmt.Fprintf(&b, "Timestamp: %s\n", m.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Error: %s\n", errorText(reason))

	marker := path + ErrorMarkerSuffix
	if err := os.WriteFile(marker, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write error marker %s: %w", marker, err)
	}
	return nil
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
