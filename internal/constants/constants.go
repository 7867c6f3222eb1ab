// Package constants provides centralized constant values used throughout TRANSMUTE.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// File names used by TRANSMUTE for state persistence.
const (
	// JobFileName is the name of the JSON file that stores a finalized job record.
	JobFileName = "job.json"

	// PlanFileName is the well-known file name the fetched transformation plan
	// is written to inside the job working directory.
	PlanFileName = "plan.md"

	// PayloadFileName is the name of the upload archive produced by the packager.
	PayloadFileName = "payload.zip"

	// DependencyPayloadFileName is the name of the dependency-only archive
	// uploaded during a human-in-the-loop cycle.
	DependencyPayloadFileName = "dependencies.zip"

	// ManifestFileName is the name of the manifest entry inside upload archives
	// and downloaded HIL artifacts.
	ManifestFileName = "manifest.json"
)

// Directory names and paths used by TRANSMUTE for organizing data.
const (
	// TransmuteHome is the hidden directory name where TRANSMUTE stores all its
	// data. This directory is created in the user's home directory.
	TransmuteHome = ".transmute"

	// JobsDir is the directory name where finalized job records are stored.
	JobsDir = "jobs"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// DependenciesDir is the directory name the local build populates with the
	// project's resolved dependencies before packaging.
	DependenciesDir = "dependencies"
)

// Timeout and interval configurations for various operations.
const (
	// DefaultPollInterval is the interval at which TRANSMUTE polls the
	// transformation service for job status.
	DefaultPollInterval = 5 * time.Second

	// DefaultProgressInterval is the interval at which the background progress
	// task asks the user surface to refresh plan progress.
	DefaultProgressInterval = 10 * time.Second

	// DefaultServiceTimeout is the default per-call timeout for transformation
	// service requests. Artifact uploads and downloads use their own, longer
	// timeout because payloads can be large.
	DefaultServiceTimeout = 30 * time.Second

	// DefaultTransferTimeout is the timeout for payload uploads and artifact
	// downloads.
	DefaultTransferTimeout = 10 * time.Minute

	// DefaultBuildTimeout is the maximum duration for local Maven invocations
	// (dependency preparation and the HIL version probe).
	DefaultBuildTimeout = 15 * time.Minute
)

// Log rotation settings for the global CLI log file.
const (
	// CLILogFileName is the name of the global CLI log file.
	CLILogFileName = "transmute.log"

	// LogMaxSizeMB is the maximum size in megabytes before log rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the maximum number of rotated log files to keep.
	LogMaxBackups = 5

	// LogMaxAgeDays is the maximum age in days to keep rotated log files.
	LogMaxAgeDays = 30

	// LogCompress controls whether rotated log files are gzip compressed.
	LogCompress = true
)

// Schema version constants for data migration support.
const (
	// JobSchemaVersion is the current version of the persisted Job schema.
	JobSchemaVersion = 1
)
