package domain

// Dependency identifies a Maven dependency by its coordinates.
type Dependency struct {
	// GroupID is the Maven group id (e.g., "org.projectlombok").
	GroupID string `json:"group_id"`

	// ArtifactID is the Maven artifact id (e.g., "lombok").
	ArtifactID string `json:"artifact_id"`

	// Version is the dependency version currently in the project descriptor.
	Version string `json:"version"`
}

// Coordinates returns the canonical groupId:artifactId form.
func (d Dependency) Coordinates() string {
	return d.GroupID + ":" + d.ArtifactID
}

// HILSession holds the ephemeral state of one human-in-the-loop cycle: the
// manifest values extracted from the downloaded artifact, the locally
// writable copy of the project's dependency descriptor, and the candidate
// replacement versions offered to the user.
//
// A session is created when the remote job reports paused and is discarded
// when the cycle resolves, short-circuits, or the containing job terminates.
// It never outlives one controller invocation, and its temp directories are
// fully re-created for each cycle.
type HILSession struct {
	// JobID is the remote job this session belongs to.
	JobID string

	// ArtifactID references the remote artifact the session was built from.
	ArtifactID string

	// Dependency is the dependency the user is being asked to pick a
	// replacement version for, with its source version from the manifest.
	Dependency Dependency

	// DescriptorPath is the locally-modified copy of the project's pom.xml.
	DescriptorPath string

	// Candidates are the replacement versions offered to the user.
	Candidates []string

	// DownloadDir, ProbeDir and ChoiceDir are the session's temp directories.
	// All three are removed unconditionally when the session ends.
	DownloadDir string
	ProbeDir    string
	ChoiceDir   string
}
