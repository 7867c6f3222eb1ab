// Package errors provides centralized error handling for TRANSMUTE.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrPackaging indicates the project could not be archived into an upload
	// payload.
	ErrPackaging = errors.New("packaging failed")

	// ErrBuild indicates a local Maven invocation failed. Errors wrapping this
	// sentinel carry captured build output so it can be surfaced to the user.
	ErrBuild = errors.New("local build failed")

	// ErrRemoteService indicates a call to the transformation service failed.
	ErrRemoteService = errors.New("transformation service request failed")

	// ErrTooManyActiveJobs indicates the transformation service rejected a job
	// start because the account already has too many active jobs. This maps to
	// a distinct user-facing message.
	ErrTooManyActiveJobs = errors.New("too many active transformation jobs")

	// ErrJobAlreadyRunning indicates start was invoked while a job was still
	// running. At most one job is active per orchestrator.
	ErrJobAlreadyRunning = errors.New("a transformation job is already running")

	// ErrJobCancelled indicates the user cancelled the running job. Components
	// performing blocking polls return this to distinguish cancellation from
	// an error outcome.
	ErrJobCancelled = errors.New("transformation job cancelled")

	// ErrJobNotRunning indicates cancel was invoked with no running job.
	ErrJobNotRunning = errors.New("no transformation job is running")

	// ErrUnexpectedTerminalStatus indicates the remote job ended in a terminal
	// status that is neither COMPLETED nor PARTIALLY_COMPLETED.
	ErrUnexpectedTerminalStatus = errors.New("job ended in unexpected terminal status")

	// ErrNoHILArtifact indicates no step in the remote plan carries the
	// human-in-the-loop artifact reference.
	ErrNoHILArtifact = errors.New("no human-in-the-loop artifact found")

	// ErrMissingHILFields indicates the HIL step is missing its artifact id or
	// artifact type.
	ErrMissingHILFields = errors.New("human-in-the-loop artifact fields missing")

	// ErrNoCandidateVersions indicates the dependency probe found no candidate
	// replacement versions to offer the user.
	ErrNoCandidateVersions = errors.New("no candidate dependency versions available")

	// ErrNoPendingChoice indicates a version choice was submitted while no
	// human-in-the-loop session was waiting for one.
	ErrNoPendingChoice = errors.New("no pending version choice")

	// ErrChoiceRejected indicates the user declined to pick a replacement
	// version during a human-in-the-loop session.
	ErrChoiceRejected = errors.New("version choice rejected by user")

	// ErrInvalidTransition indicates an attempt to make an invalid job state
	// transition.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrManifestInvalid indicates a downloaded HIL artifact manifest is
	// missing required fields.
	ErrManifestInvalid = errors.New("artifact manifest invalid")

	// ErrDependencyNotFound indicates the descriptor rewrite could not locate
	// the target dependency in pom.xml.
	ErrDependencyNotFound = errors.New("dependency not found in descriptor")

	// ErrJobNotFound indicates a persisted job record does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrConfigNil indicates a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidService indicates an invalid service configuration value.
	ErrConfigInvalidService = errors.New("invalid service configuration")

	// ErrConfigInvalidJob indicates an invalid job configuration value.
	ErrConfigInvalidJob = errors.New("invalid job configuration")

	// ErrConfigInvalidMaven indicates an invalid Maven configuration value.
	ErrConfigInvalidMaven = errors.New("invalid Maven configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrMenuCanceled indicates the user canceled an interactive prompt.
	ErrMenuCanceled = errors.New("menu canceled by user")

	// ErrNoMenuOptions indicates an interactive menu was invoked with no
	// options to display.
	ErrNoMenuOptions = errors.New("no menu options provided")

	// ErrNotInProjectDir indicates the given path does not contain a Maven
	// project descriptor.
	ErrNotInProjectDir = errors.New("not a Maven project directory")
)
