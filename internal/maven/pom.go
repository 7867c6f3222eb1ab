package maven

import (
	"fmt"
	"os"
	"regexp"

	"github.com/vifraa/gopom"

	"github.com/mrz1836/transmute/internal/domain"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
)

// descriptorPerm is the permission used when rewriting a descriptor copy.
const descriptorPerm = 0o600

// ReadDependency parses the descriptor at pomPath and returns the dependency
// matching the given coordinates, including its declared version.
func ReadDependency(pomPath, groupID, artifactID string) (domain.Dependency, error) {
	project, err := gopom.Parse(pomPath)
	if err != nil {
		return domain.Dependency{}, fmt.Errorf("failed to parse %s: %w", pomPath, transmuteerrors.ErrManifestInvalid)
	}
	if project.Dependencies == nil {
		return domain.Dependency{}, fmt.Errorf("%s:%s: %w", groupID, artifactID, transmuteerrors.ErrDependencyNotFound)
	}

	for _, dep := range *project.Dependencies {
		if deref(dep.GroupID) == groupID && deref(dep.ArtifactID) == artifactID {
			return domain.Dependency{
				GroupID:    groupID,
				ArtifactID: artifactID,
				Version:    deref(dep.Version),
			}, nil
		}
	}
	return domain.Dependency{}, fmt.Errorf("%s:%s: %w", groupID, artifactID, transmuteerrors.ErrDependencyNotFound)
}

// SetDependencyVersion rewrites the descriptor at pomPath so the dependency's
// version element carries newVersion. The rewrite is textual and scoped to
// the matching <dependency> block, preserving the rest of the file byte for
// byte. newVersion may also be a Maven version range (used by the probe).
func SetDependencyVersion(pomPath string, dep domain.Dependency, newVersion string) error {
	data, err := os.ReadFile(pomPath) //#nosec G304 -- path is a session-owned descriptor copy
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", pomPath, transmuteerrors.ErrDependencyNotFound)
	}

	// RE2 has no lookahead, so match every <dependency> block non-greedily
	// and check coordinates per block instead of encoding them in the pattern.
	groupRe := elementPattern("groupId", dep.GroupID)
	artifactRe := elementPattern("artifactId", dep.ArtifactID)

	replaced := false
	out := dependencyBlockRe.ReplaceAllFunc(data, func(block []byte) []byte {
		if replaced || !groupRe.Match(block) || !artifactRe.Match(block) {
			return block
		}
		replaced = true
		return versionRe.ReplaceAll(block, []byte("<version>"+newVersion+"</version>"))
	})
	if !replaced {
		return fmt.Errorf("%s: %w", dep.Coordinates(), transmuteerrors.ErrDependencyNotFound)
	}

	if err := os.WriteFile(pomPath, out, descriptorPerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", pomPath, transmuteerrors.ErrPackaging)
	}
	return nil
}

// Patterns for the textual descriptor rewrite.
var (
	dependencyBlockRe = regexp.MustCompile(`(?s)<dependency>.*?</dependency>`)
	versionRe         = regexp.MustCompile(`<version>\s*[^<]*\s*</version>`)
)

// elementPattern matches a single pom element with the exact given value.
func elementPattern(element, value string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`<%s>\s*%s\s*</%s>`, element, regexp.QuoteMeta(value), element))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
