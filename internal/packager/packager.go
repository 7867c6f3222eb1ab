package packager

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mrz1836/transmute/internal/constants"
	"github.com/mrz1836/transmute/internal/ctxutil"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
	"github.com/mrz1836/transmute/internal/maven"
)

// Packager is the upload-payload contract the orchestrator consumes.
type Packager interface {
	// Package archives the project and its dependency folder into an upload
	// payload and returns its path. Fails with an error wrapping ErrPackaging.
	Package(ctx context.Context, projectPath, dependencyFolder, destDir string) (string, error)

	// PackageDependencies archives only the dependency folder, for the
	// dependency-only upload during a human-in-the-loop cycle.
	PackageDependencies(ctx context.Context, dependencyFolder, destDir string) (string, error)

	// PrepareDependencies runs the local build that populates the dependency
	// folder from the project. Fails with an error wrapping ErrBuild; the
	// error message carries captured build output.
	PrepareDependencies(ctx context.Context, projectPath, dependencyFolder string) error
}

// payloadManifest is the manifest.json written at the root of every upload
// archive. The service uses it to locate sources and dependencies.
type payloadManifest struct {
	Version          string `json:"version"`
	SourcesRoot      string `json:"sources_root,omitempty"`
	DependenciesRoot string `json:"dependencies_root"`
	DependenciesOnly bool   `json:"dependencies_only,omitempty"`
}

// manifestVersion is the payload manifest schema version.
const manifestVersion = "1.0"

// Archive entry prefixes inside upload payloads.
const (
	sourcesPrefix      = "sources"
	dependenciesPrefix = "dependencies"
)

// ZipPackager implements Packager with zip archives and a Maven runner.
type ZipPackager struct {
	maven  *maven.Runner
	logger zerolog.Logger
}

// NewZipPackager creates a ZipPackager using the given Maven runner.
func NewZipPackager(runner *maven.Runner, logger zerolog.Logger) *ZipPackager {
	return &ZipPackager{maven: runner, logger: logger}
}

// Ensure ZipPackager implements Packager.
var _ Packager = (*ZipPackager)(nil)

// Package archives projectPath and dependencyFolder into destDir/payload.zip.
func (p *ZipPackager) Package(ctx context.Context, projectPath, dependencyFolder, destDir string) (string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}

	if _, err := os.Stat(filepath.Join(projectPath, "pom.xml")); err != nil {
		return "", fmt.Errorf("%s: %w", projectPath, transmuteerrors.ErrNotInProjectDir)
	}

	manifest, err := marshalManifest(payloadManifest{
		Version:          manifestVersion,
		SourcesRoot:      sourcesPrefix,
		DependenciesRoot: dependenciesPrefix,
	})
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(destDir, constants.PayloadFileName)
	entries := []zipEntry{
		{srcDir: projectPath, prefix: sourcesPrefix},
	}
	if dirExists(dependencyFolder) {
		entries = append(entries, zipEntry{srcDir: dependencyFolder, prefix: dependenciesPrefix})
	}

	if err := writeZip(destPath, map[string][]byte{constants.ManifestFileName: manifest}, entries); err != nil {
		return "", err
	}

	p.logger.Debug().
		Str("payload_path", destPath).
		Str("project_path", projectPath).
		Msg("project payload packaged")

	return destPath, nil
}

// PackageDependencies archives dependencyFolder into destDir/dependencies.zip
// with a dependencies-only manifest.
func (p *ZipPackager) PackageDependencies(ctx context.Context, dependencyFolder, destDir string) (string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}

	if !dirExists(dependencyFolder) {
		return "", fmt.Errorf("dependency folder %s missing: %w", dependencyFolder, transmuteerrors.ErrPackaging)
	}

	manifest, err := marshalManifest(payloadManifest{
		Version:          manifestVersion,
		DependenciesRoot: dependenciesPrefix,
		DependenciesOnly: true,
	})
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(destDir, constants.DependencyPayloadFileName)
	entries := []zipEntry{{srcDir: dependencyFolder, prefix: dependenciesPrefix}}
	if err := writeZip(destPath, map[string][]byte{constants.ManifestFileName: manifest}, entries); err != nil {
		return "", err
	}

	p.logger.Debug().
		Str("payload_path", destPath).
		Msg("dependency payload packaged")

	return destPath, nil
}

// PrepareDependencies delegates to the Maven runner.
func (p *ZipPackager) PrepareDependencies(ctx context.Context, projectPath, dependencyFolder string) error {
	return p.maven.CopyDependencies(ctx, projectPath, dependencyFolder)
}

func marshalManifest(m payloadManifest) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload manifest: %w", transmuteerrors.ErrPackaging)
	}
	return data, nil
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
