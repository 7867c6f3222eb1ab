// Package testutil provides testing utilities for TRANSMUTE.
//
// This package contains mock errors and test helpers used across test files.
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors for testing purposes.
// These errors are used to simulate various failure scenarios in tests.
var (
	// ErrMockNetwork indicates a mock network error occurred (used in tests).
	ErrMockNetwork = errors.New("network error")

	// ErrMockService indicates a mock transformation service error (used in tests).
	ErrMockService = errors.New("service error")

	// ErrMockDiskFull indicates a mock disk-full condition (used in tests).
	ErrMockDiskFull = errors.New("disk full")

	// ErrMockBuild indicates a mock Maven build failure (used in tests).
	ErrMockBuild = errors.New("maven build error")
)
