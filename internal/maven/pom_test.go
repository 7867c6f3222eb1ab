package maven

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/transmute/internal/domain"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
)

const testPomXML = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
	<modelVersion>4.0.0</modelVersion>
	<groupId>com.example</groupId>
	<artifactId>payments-service</artifactId>
	<version>0.3.0</version>
	<dependencies>
		<dependency>
			<groupId>org.example</groupId>
			<artifactId>widget</artifactId>
			<version>1.0.0</version>
		</dependency>
		<dependency>
			<groupId>org.example</groupId>
			<artifactId>gadget</artifactId>
			<version>1.0.0</version>
		</dependency>
	</dependencies>
</project>
`

// writeTestPom writes the fixture descriptor into a temp dir and returns its path.
func writeTestPom(t *testing.T) string {
	t.Helper()

	pomPath := filepath.Join(t.TempDir(), "pom.xml")
	require.NoError(t, os.WriteFile(pomPath, []byte(testPomXML), 0o600))
	return pomPath
}

func TestReadDependency(t *testing.T) {
	t.Run("returns the matching dependency with its version", func(t *testing.T) {
		pomPath := writeTestPom(t)

		dep, err := ReadDependency(pomPath, "org.example", "widget")
		require.NoError(t, err)
		assert.Equal(t, domain.Dependency{
			GroupID:    "org.example",
			ArtifactID: "widget",
			Version:    "1.0.0",
		}, dep)
	})

	t.Run("unknown coordinates return ErrDependencyNotFound", func(t *testing.T) {
		pomPath := writeTestPom(t)

		_, err := ReadDependency(pomPath, "org.example", "missing")
		require.ErrorIs(t, err, transmuteerrors.ErrDependencyNotFound)
		assert.Contains(t, err.Error(), "org.example:missing")
	})

	t.Run("unparseable descriptor returns ErrManifestInvalid", func(t *testing.T) {
		pomPath := filepath.Join(t.TempDir(), "pom.xml")
		require.NoError(t, os.WriteFile(pomPath, []byte("<project><dependencies>"), 0o600))

		_, err := ReadDependency(pomPath, "org.example", "widget")
		require.ErrorIs(t, err, transmuteerrors.ErrManifestInvalid)
	})

	t.Run("descriptor without dependencies returns ErrDependencyNotFound", func(t *testing.T) {
		pomPath := filepath.Join(t.TempDir(), "pom.xml")
		noDeps := `<?xml version="1.0"?><project><modelVersion>4.0.0</modelVersion></project>`
		require.NoError(t, os.WriteFile(pomPath, []byte(noDeps), 0o600))

		_, err := ReadDependency(pomPath, "org.example", "widget")
		require.ErrorIs(t, err, transmuteerrors.ErrDependencyNotFound)
	})
}

func TestSetDependencyVersion(t *testing.T) {
	widget := domain.Dependency{GroupID: "org.example", ArtifactID: "widget", Version: "1.0.0"}

	t.Run("rewrites only the matching dependency block", func(t *testing.T) {
		pomPath := writeTestPom(t)

		require.NoError(t, SetDependencyVersion(pomPath, widget, "2.0.0"))

		rewritten, err := ReadDependency(pomPath, "org.example", "widget")
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", rewritten.Version)

		// The sibling dependency keeps its original version.
		untouched, err := ReadDependency(pomPath, "org.example", "gadget")
		require.NoError(t, err)
		assert.Equal(t, "1.0.0", untouched.Version)
	})

	t.Run("preserves the rest of the file", func(t *testing.T) {
		pomPath := writeTestPom(t)

		require.NoError(t, SetDependencyVersion(pomPath, widget, "2.0.0"))

		data, err := os.ReadFile(pomPath)
		require.NoError(t, err)
		expected := strings.Replace(testPomXML, "<version>1.0.0</version>", "<version>2.0.0</version>", 1)
		assert.Equal(t, expected, string(data))
	})

	t.Run("accepts a version range", func(t *testing.T) {
		pomPath := writeTestPom(t)

		require.NoError(t, SetDependencyVersion(pomPath, widget, "[1.0.0,)"))

		data, err := os.ReadFile(pomPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<version>[1.0.0,)</version>")
	})

	t.Run("unknown coordinates return ErrDependencyNotFound", func(t *testing.T) {
		pomPath := writeTestPom(t)

		err := SetDependencyVersion(pomPath, domain.Dependency{
			GroupID:    "org.example",
			ArtifactID: "missing",
			Version:    "1.0.0",
		}, "2.0.0")
		require.ErrorIs(t, err, transmuteerrors.ErrDependencyNotFound)

		// The descriptor is left untouched.
		data, readErr := os.ReadFile(pomPath)
		require.NoError(t, readErr)
		assert.Equal(t, testPomXML, string(data))
	})

	t.Run("missing file returns ErrDependencyNotFound", func(t *testing.T) {
		err := SetDependencyVersion(filepath.Join(t.TempDir(), "pom.xml"), widget, "2.0.0")
		require.ErrorIs(t, err, transmuteerrors.ErrDependencyNotFound)
	})
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "numeric ascending", a: "1.2.0", b: "1.10.0", want: -1},
		{name: "equal", a: "2.0.0", b: "2.0.0", want: 0},
		{name: "longer wins on shared prefix", a: "1.2", b: "1.2.1", want: -1},
		{name: "non-numeric falls back to lexicographic", a: "1.0.0-alpha", b: "1.0.0-beta", want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareVersions(tt.a, tt.b)
			switch {
			case tt.want < 0:
				assert.Negative(t, got)
			case tt.want > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}
