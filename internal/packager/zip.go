// Package packager produces and unpacks the archives exchanged with the
// transformation service, and runs the local Maven build that populates the
// dependency folder before packaging.
package packager

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
)

// File and directory permissions for extracted content.
const (
	extractDirPerm  = 0o750
	extractFilePerm = 0o600
)

// zipEntry describes one directory to add to an archive under a prefix.
type zipEntry struct {
	// srcDir is the directory whose contents are archived.
	srcDir string

	// prefix is the path prefix entries get inside the archive (e.g.,
	// "sources", "dependencies").
	prefix string
}

// writeZip creates a zip archive at destPath containing rawFiles (written at
// the archive root) and the contents of each entry's directory under its
// prefix. Errors wrap ErrPackaging.
func writeZip(destPath string, rawFiles map[string][]byte, entries []zipEntry) (err error) {
	out, err := os.Create(destPath) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", destPath, transmuteerrors.ErrPackaging)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close archive: %w", transmuteerrors.ErrPackaging)
		}
	}()

	zw := zip.NewWriter(out)

	for name, data := range rawFiles {
		w, werr := zw.Create(name)
		if werr != nil {
			return fmt.Errorf("failed to add %s: %w", name, transmuteerrors.ErrPackaging)
		}
		if _, werr = w.Write(data); werr != nil {
			return fmt.Errorf("failed to write %s: %w", name, transmuteerrors.ErrPackaging)
		}
	}

	for _, entry := range entries {
		if aerr := addDir(zw, entry.srcDir, entry.prefix); aerr != nil {
			return aerr
		}
	}

	if cerr := zw.Close(); cerr != nil {
		return fmt.Errorf("failed to finalize archive: %w", transmuteerrors.ErrPackaging)
	}
	return nil
}

// addDir walks srcDir and writes every regular file into the archive under
// prefix, preserving relative paths with forward slashes.
func addDir(zw *zip.Writer, srcDir, prefix string) error {
	return filepath.Walk(srcDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("failed to walk %s: %w", srcDir, transmuteerrors.ErrPackaging)
		}
		if info.IsDir() {
			return nil
		}
		// Symlinks and other irregular files are skipped; the service only
		// consumes regular files.
		if !info.Mode().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, transmuteerrors.ErrPackaging)
		}
		name := prefix + "/" + filepath.ToSlash(relPath)

		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", name, transmuteerrors.ErrPackaging)
		}

		f, err := os.Open(path) //#nosec G304 -- path comes from the walk of a caller-owned directory
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, transmuteerrors.ErrPackaging)
		}
		_, err = io.Copy(w, f)
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to copy %s: %w", path, transmuteerrors.ErrPackaging)
		}
		return nil
	})
}

// Unpack extracts a zip archive into destDir. Entries escaping destDir are
// rejected. Returns the list of extracted paths relative to destDir.
func Unpack(archivePath, destDir string) ([]string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", archivePath, transmuteerrors.ErrPackaging)
	}
	defer func() { _ = zr.Close() }()

	var extracted []string
	for _, entry := range zr.File {
		name := filepath.FromSlash(entry.Name)
		if strings.Contains(name, "..") {
			return nil, fmt.Errorf("archive entry %q escapes destination: %w", entry.Name, transmuteerrors.ErrPackaging)
		}
		target := filepath.Join(destDir, name)

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, extractDirPerm); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", target, transmuteerrors.ErrPackaging)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), extractDirPerm); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(target), transmuteerrors.ErrPackaging)
		}
		if err := extractFile(entry, target); err != nil {
			return nil, err
		}
		extracted = append(extracted, name)
	}
	return extracted, nil
}

// extractFile writes one archive entry to target.
func extractFile(entry *zip.File, target string) (err error) {
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", entry.Name, transmuteerrors.ErrPackaging)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, extractFilePerm) //#nosec G304 -- target validated against traversal above
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, transmuteerrors.ErrPackaging)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", target, transmuteerrors.ErrPackaging)
		}
	}()

	//#nosec G110 -- archives come from the trusted transformation service
	if _, err = io.Copy(out, rc); err != nil {
		return fmt.Errorf("failed to extract %s: %w", entry.Name, transmuteerrors.ErrPackaging)
	}
	return nil
}
