package maven

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/transmute/internal/domain"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
)

// Probe discovers candidate replacement versions for a dependency by
// resolving it against an open version range into a throwaway local
// repository and reading back which versions the remote repositories offered.
type Probe struct {
	runner *Runner
	logger zerolog.Logger
}

// NewProbe creates a Probe using the given runner.
func NewProbe(runner *Runner, logger zerolog.Logger) *Probe {
	return &Probe{runner: runner, logger: logger}
}

// CandidateVersions rewrites the descriptor copy in probeDir with the version
// range [source,), resolves it, and returns all versions newer than the
// source that Maven fetched metadata for, in ascending order. Returns
// ErrNoCandidateVersions when the probe yields nothing.
//
// The descriptor at descriptorPath is copied into probeDir first; the
// original copy is left untouched for the later user-choice rewrite.
func (p *Probe) CandidateVersions(ctx context.Context, descriptorPath, probeDir string, dep domain.Dependency) ([]string, error) {
	probePom := filepath.Join(probeDir, "pom.xml")
	if err := copyFile(descriptorPath, probePom); err != nil {
		return nil, err
	}

	versionRange := fmt.Sprintf("[%s,)", dep.Version)
	if err := SetDependencyVersion(probePom, dep, versionRange); err != nil {
		return nil, err
	}

	repoDir := filepath.Join(probeDir, "repository")
	if _, err := p.runner.Run(ctx, probeDir,
		"-B", "-q",
		"dependency:resolve",
		"-DtransitiveDependencies=false",
		"-Dmaven.repo.local="+repoDir,
	); err != nil {
		return nil, err
	}

	candidates, err := collectVersions(repoDir, dep)
	if err != nil {
		return nil, err
	}

	p.logger.Debug().
		Str("dependency", dep.Coordinates()).
		Int("candidate_count", len(candidates)).
		Msg("dependency probe finished")

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%s: %w", dep.Coordinates(), transmuteerrors.ErrNoCandidateVersions)
	}
	return candidates, nil
}

// collectVersions lists the version directories Maven created for the
// dependency under the probe repository, excluding the source version.
func collectVersions(repoDir string, dep domain.Dependency) ([]string, error) {
	artifactDir := filepath.Join(repoDir, filepath.FromSlash(strings.ReplaceAll(dep.GroupID, ".", "/")), dep.ArtifactID)
	entries, err := os.ReadDir(artifactDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read probe repository: %w", err)
	}

	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if entry.Name() == dep.Version {
			continue
		}
		versions = append(versions, entry.Name())
	}
	sort.Slice(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) < 0
	})
	return versions, nil
}

// compareVersions orders dotted numeric versions numerically, falling back to
// lexicographic comparison for non-numeric segments.
func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aok := atoi(as[i])
		bn, bok := atoi(bs[i])
		switch {
		case aok && bok && an != bn:
			if an < bn {
				return -1
			}
			return 1
		case (!aok || !bok) && as[i] != bs[i]:
			return strings.Compare(as[i], bs[i])
		}
	}
	return len(as) - len(bs)
}

func atoi(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// copyFile copies src to dst with descriptor permissions.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src) //#nosec G304 -- session-owned paths
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, transmuteerrors.ErrPackaging)
	}
	if err := os.WriteFile(dst, data, descriptorPerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, transmuteerrors.ErrPackaging)
	}
	return nil
}
