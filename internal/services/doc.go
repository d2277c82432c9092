// Package services implements the read-side business logic of the hot-parts
// service. It sits between the HTTP handlers and the master accumulator so
// that handlers and the query CLI share one implementation.
//
// # Available Services
//
//  - QueryService: stats, sorted masters, per-MPN summaries, random part
//    samples and the processing log
//  - HealthService: liveness, readiness and version information
//
// # Error Handling
//
// Services return *errors.AppError values (validation, not found, storage)
// which the HTTP error handler maps to problem details.
//
// # Testing
//
// Collaborators are small interfaces (Masters, LogReader, QueueStats,
// ClientCounter) so tests can use the memory store or testify mocks:
//
//	store := new(MockLogReader)
//	store.On("CountLog", mock.Anything).Return(3, nil)
//	svc := NewQueryService(acc, store, logger)
package services
