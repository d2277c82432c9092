// Package config loads the processor configuration.
//
// # Configuration Sources
//
// Values are resolved in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Defaults from Default() (lowest priority)
//
// # Environment Variables
//
// All variables share the HOTPARTS prefix and mirror the struct nesting:
//
//	HOTPARTS_SERVER_PORT=8080
//	HOTPARTS_LOGGING_LEVEL=debug
//	HOTPARTS_PATHS_UNPROCESSED_DIR=unprocessed
//	HOTPARTS_PROCESSING_WORKERS=4
//	HOTPARTS_PROCESSING_STABILIZATION_DELAY=2s
//
// # Configuration File
//
// The file is looked up at HOTPARTS_CONFIG, then config.yaml, then
// configs/config.yaml. Only keys present in the file override defaults:
//
//	paths:
//	  unprocessed_dir: inbox
//	  output_dir: output
//	processing:
//	  workers: 2
//	  export_csv: true
//
// # Paths
//
// Relative directories resolve against BaseDir, or the working directory
// when BaseDir is empty. ResolvePaths returns the absolute layout used by
// the watcher, the pipeline and the exporter.
package config
