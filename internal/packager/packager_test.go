package packager

import (
	"archive/zip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/transmute/internal/constants"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
	"github.com/mrz1836/transmute/internal/maven"
)

// newTestPackager returns a packager whose Maven runner is never invoked by
// the archive operations under test.
func newTestPackager() *ZipPackager {
	return NewZipPackager(maven.NewRunner("mvn", 0, zerolog.Nop()), zerolog.Nop())
}

// writeProject creates a minimal Maven project directory.
func writeProject(t *testing.T) string {
	t.Helper()

	projectPath := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectPath, "pom.xml"), []byte("<project/>"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(projectPath, "src", "main", "java"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(projectPath, "src", "main", "java", "App.java"), []byte("class App {}"), 0o600))
	return projectPath
}

// writeDependencyFolder creates a populated dependency folder.
func writeDependencyFolder(t *testing.T) string {
	t.Helper()

	depDir := t.TempDir()
	jarDir := filepath.Join(depDir, "org", "example", "widget", "1.0.0")
	require.NoError(t, os.MkdirAll(jarDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(jarDir, "widget-1.0.0.jar"), []byte("jar-bytes"), 0o600))
	return depDir
}

// archiveEntries returns the entry names of a zip archive.
func archiveEntries(t *testing.T, archivePath string) map[string]bool {
	t.Helper()

	zr, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}
	return names
}

// readManifest unpacks the archive and decodes its root manifest.
func readManifest(t *testing.T, archivePath string) payloadManifest {
	t.Helper()

	destDir := t.TempDir()
	_, err := Unpack(archivePath, destDir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(destDir, constants.ManifestFileName))
	require.NoError(t, err)

	var manifest payloadManifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	return manifest
}

func TestPackage(t *testing.T) {
	t.Run("archives sources and dependencies with a manifest", func(t *testing.T) {
		projectPath := writeProject(t)
		depDir := writeDependencyFolder(t)
		destDir := t.TempDir()

		payloadPath, err := newTestPackager().Package(context.Background(), projectPath, depDir, destDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(destDir, constants.PayloadFileName), payloadPath)

		entries := archiveEntries(t, payloadPath)
		assert.True(t, entries[constants.ManifestFileName])
		assert.True(t, entries["sources/pom.xml"])
		assert.True(t, entries["sources/src/main/java/App.java"])
		assert.True(t, entries["dependencies/org/example/widget/1.0.0/widget-1.0.0.jar"])

		manifest := readManifest(t, payloadPath)
		assert.Equal(t, manifestVersion, manifest.Version)
		assert.Equal(t, sourcesPrefix, manifest.SourcesRoot)
		assert.Equal(t, dependenciesPrefix, manifest.DependenciesRoot)
		assert.False(t, manifest.DependenciesOnly)
	})

	t.Run("missing dependency folder still packages sources", func(t *testing.T) {
		projectPath := writeProject(t)
		destDir := t.TempDir()

		payloadPath, err := newTestPackager().Package(context.Background(), projectPath, filepath.Join(destDir, "absent"), destDir)
		require.NoError(t, err)

		entries := archiveEntries(t, payloadPath)
		assert.True(t, entries["sources/pom.xml"])
		for name := range entries {
			assert.NotContains(t, name, dependenciesPrefix+"/")
		}
	})

	t.Run("directory without pom.xml returns ErrNotInProjectDir", func(t *testing.T) {
		dir := t.TempDir()

		_, err := newTestPackager().Package(context.Background(), dir, "", dir)
		require.ErrorIs(t, err, transmuteerrors.ErrNotInProjectDir)
		assert.Contains(t, err.Error(), dir)
	})

	t.Run("cancelled context is honored before any work", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestPackager().Package(ctx, writeProject(t), "", t.TempDir())
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestPackageDependencies(t *testing.T) {
	t.Run("archives only the dependency folder", func(t *testing.T) {
		depDir := writeDependencyFolder(t)
		destDir := t.TempDir()

		payloadPath, err := newTestPackager().PackageDependencies(context.Background(), depDir, destDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(destDir, constants.DependencyPayloadFileName), payloadPath)

		entries := archiveEntries(t, payloadPath)
		assert.True(t, entries["dependencies/org/example/widget/1.0.0/widget-1.0.0.jar"])
		for name := range entries {
			assert.NotContains(t, name, sourcesPrefix+"/")
		}

		manifest := readManifest(t, payloadPath)
		assert.True(t, manifest.DependenciesOnly)
		assert.Empty(t, manifest.SourcesRoot)
	})

	t.Run("missing folder returns ErrPackaging", func(t *testing.T) {
		destDir := t.TempDir()

		_, err := newTestPackager().PackageDependencies(context.Background(), filepath.Join(destDir, "absent"), destDir)
		require.ErrorIs(t, err, transmuteerrors.ErrPackaging)
	})
}

func TestUnpack(t *testing.T) {
	t.Run("round trips archived content", func(t *testing.T) {
		projectPath := writeProject(t)
		destDir := t.TempDir()

		payloadPath, err := newTestPackager().Package(context.Background(), projectPath, "", destDir)
		require.NoError(t, err)

		extractDir := t.TempDir()
		extracted, err := Unpack(payloadPath, extractDir)
		require.NoError(t, err)
		assert.Contains(t, extracted, filepath.FromSlash("sources/pom.xml"))

		data, err := os.ReadFile(filepath.Join(extractDir, "sources", "pom.xml"))
		require.NoError(t, err)
		assert.Equal(t, "<project/>", string(data))
	})

	t.Run("rejects entries escaping the destination", func(t *testing.T) {
		archivePath := filepath.Join(t.TempDir(), "evil.zip")
		out, err := os.Create(archivePath)
		require.NoError(t, err)
		zw := zip.NewWriter(out)
		w, err := zw.Create("../escape.txt")
		require.NoError(t, err)
		_, err = w.Write([]byte("nope"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, out.Close())

		_, err = Unpack(archivePath, t.TempDir())
		require.ErrorIs(t, err, transmuteerrors.ErrPackaging)
		assert.Contains(t, err.Error(), "escapes destination")
	})

	t.Run("missing archive returns ErrPackaging", func(t *testing.T) {
		_, err := Unpack(filepath.Join(t.TempDir(), "missing.zip"), t.TempDir())
		require.ErrorIs(t, err, transmuteerrors.ErrPackaging)
	})
}
