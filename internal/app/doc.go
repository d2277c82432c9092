// Package app wires the hot-parts ingestion service together.
//
// New loads configuration, opens the SQLite master store, loads the
// accumulator and builds the pipeline, file queue, exporter, websocket hub
// and HTTP router. Nothing runs until Start (service mode) or RunOnce
// (batch mode) is called.
//
// # Service mode
//
//  1. The websocket hub and the worker pool start.
//  2. The unprocessed directory is watched; stabilized files are queued.
//  3. With process_existing set, files already waiting are processed.
//  4. Every finished pass is broadcast to websocket clients and, when it
//     changed a master, the master workbooks are exported again.
//  5. The query API listens when server.enabled is set.
//
// Run blocks until SIGINT or SIGTERM and then calls Stop, which shuts the
// server down, waits for running passes and closes the store.
//
// # Batch mode
//
// RunOnce processes the backlog once, exports the masters and returns the
// per-file results.
package app
