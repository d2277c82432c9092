package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"hotparts/internal/config"
	"hotparts/pkg/contracts"
)

// QueueStats reports worker queue occupancy.
type QueueStats interface {
	Stats() map[string]interface{}
}

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	paths     *config.Paths
	log       LogReader
	queue     QueueStats
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthDeps are the optional collaborators inspected by readiness checks.
type HealthDeps struct {
	Paths *config.Paths
	Log   LogReader
	Queue QueueStats
	Hub   ClientCounter
}

// NewHealthService creates a health service. Nil dependencies are reported
// as ready with a note that they are not configured.
func NewHealthService(version, buildTime string, deps HealthDeps, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		paths:     deps.Paths,
		log:       deps.Log,
		queue:     deps.Queue,
		hub:       deps.Hub,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["directories"] = hs.checkDirectories()
	status.Services["store"] = hs.checkStore(ctx)
	status.Services["queue"] = hs.checkQueue()
	status.Services["websocket"] = hs.checkWebSocket()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	if status.Status != "ready" {
		hs.logger.WarnContext(ctx, "ReadinessCheck: not ready", slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// VersionInfo is the build description plus process uptime
type VersionInfo struct {
	contracts.VersionInfo
	Uptime    float64 `json:"uptime"`
	StartTime string  `json:"start_time"`
}

// Version returns version information
func (hs *HealthService) Version() VersionInfo {
	info := contracts.GetVersionInfo()
	info.Version = hs.version
	info.BuildTime = hs.buildTime
	return VersionInfo{
		VersionInfo: info,
		Uptime:      time.Since(hs.startTime).Seconds(),
		StartTime:   hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) checkDirectories() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{Status: "ready", Message: "paths not configured"}
	}

	for _, dir := range []string{hs.paths.UnprocessedDir, hs.paths.ProcessedDir, hs.paths.ErrorsDir, hs.paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return ServiceHealth{
				Status:  "not_ready",
				Message: fmt.Sprintf("directory not found: %s", dir),
			}
		}
	}
	return ServiceHealth{Status: "ready", Message: "directories are accessible"}
}

func (hs *HealthService) checkStore(ctx context.Context) ServiceHealth {
	if hs.log == nil {
		return ServiceHealth{Status: "ready", Message: "no store configured"}
	}
	if _, err := hs.log.CountLog(ctx); err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("store unavailable: %v", err)}
	}
	return ServiceHealth{Status: "ready", Message: "store is reachable"}
}

func (hs *HealthService) checkQueue() ServiceHealth {
	if hs.queue == nil {
		return ServiceHealth{Status: "ready", Message: "queue not running"}
	}
	stats := hs.queue.Stats()
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%v queued, %v in flight", stats["queue_size"], stats["in_flight"]),
	}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "ready", Message: "websocket hub not configured"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
	}
}
