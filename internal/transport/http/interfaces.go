package http

import (
	"context"

	"hotparts/internal/services"
	"hotparts/pkg/contracts/domain"
)

// HealthServiceInterface reports process health for the /api/health routes
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() services.VersionInfo
}

// QueryServiceInterface is the read side of the masters served by QueryHandler
type QueryServiceInterface interface {
	Stats(ctx context.Context) (domain.Stats, error)
	Masters(ctx context.Context, kind domain.Kind, mpn string) ([]domain.Record, error)
	Summary(ctx context.Context, kind domain.Kind) (any, error)
	RandomParts(ctx context.Context, q services.RandomPartsQuery) ([]domain.MatchRecord, error)
	ProcessingLog(ctx context.Context, limit int) ([]domain.ProcessingLog, error)
}

// Rescanner queues every file waiting in the unprocessed directory
type Rescanner interface {
	Rescan(ctx context.Context) (int, error)
}

// Exporter rewrites the master workbooks
type Exporter interface {
	ExportAll(ctx context.Context) ([]string, error)
}
