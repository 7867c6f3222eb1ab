package transform

import "context"

// Resume outcome values accepted by ResumeJob. The remote job continues its
// normal flow either way; REJECTED tells it to proceed without the
// user-supplied dependency choice.
const (
	// ResumeCompleted signals the human-in-the-loop input was provided.
	ResumeCompleted = "COMPLETED"

	// ResumeRejected signals the human-in-the-loop input was declined or
	// could not be collected.
	ResumeRejected = "REJECTED"
)

// UploadContextDependencies tags a payload upload as a dependency-only
// artifact produced during a human-in-the-loop cycle.
const UploadContextDependencies = "hil_dependencies"

// ArtifactTypeHILDependency is the artifact type carried by the plan step
// that holds the human-in-the-loop manifest and descriptor copy.
const ArtifactTypeHILDependency = "hil_dependency_versions"

// UploadTarget is an issued upload destination.
type UploadTarget struct {
	// UploadID identifies the upload when starting a job.
	UploadID string `json:"upload_id"`

	// URL is the pre-signed destination the payload is PUT to.
	URL string `json:"url"`
}

// Step is one step of the remote transformation plan, as reported by
// GetSteps. The orchestrator uses the step list to locate the
// human-in-the-loop artifact.
type Step struct {
	// ID identifies the step.
	ID string `json:"id"`

	// Name is the human-readable step name.
	Name string `json:"name"`

	// Status is the remote step status string (informational only).
	Status string `json:"status"`

	// Artifact references the step's downloadable artifact, if any.
	Artifact *StepArtifact `json:"artifact,omitempty"`
}

// StepArtifact references a downloadable artifact attached to a plan step.
type StepArtifact struct {
	// ArtifactID identifies the artifact for download.
	ArtifactID string `json:"artifact_id"`

	// ArtifactType classifies the artifact (e.g., hil_dependency_versions).
	ArtifactType string `json:"artifact_type"`
}

// HILArtifact is the unpacked content of a downloaded human-in-the-loop
// artifact: the manifest values plus a local writable copy of the project's
// dependency descriptor.
type HILArtifact struct {
	// Manifest holds the values from the artifact's manifest.json.
	Manifest HILManifest

	// DescriptorPath is the extracted pom.xml copy, writable by the caller.
	DescriptorPath string
}

// HILManifest mirrors the manifest.json inside a HIL artifact.
type HILManifest struct {
	// Capability declares what the artifact is for; always the HIL
	// dependency-version capability in practice.
	Capability string `json:"capability"`

	// PomGroupID and PomArtifactID identify the dependency in question.
	PomGroupID    string `json:"pom_group_id"`
	PomArtifactID string `json:"pom_artifact_id"`

	// SourcePomVersion is the version currently in the project.
	SourcePomVersion string `json:"source_pom_version"`
}

// Service is the contract TRANSMUTE requires from the remote transformation
// service. All operations are fallible with an error wrapping ErrRemoteService;
// StartJob additionally maps the service's "too many active jobs" rejection to
// ErrTooManyActiveJobs. Implementations must honor context cancellation on
// every call.
type Service interface {
	// CreateUploadURL requests a new upload destination.
	CreateUploadURL(ctx context.Context) (*UploadTarget, error)

	// UploadPayload uploads the archive at path to the target. uploadContext
	// is empty for the initial project payload, or UploadContextDependencies
	// for a HIL dependency-only payload.
	UploadPayload(ctx context.Context, path string, target *UploadTarget, uploadContext string) error

	// StartJob starts a transformation job against a completed upload and
	// returns the assigned job id.
	StartJob(ctx context.Context, uploadID string) (string, error)

	// GetStatus returns the job's current remote status.
	GetStatus(ctx context.Context, jobID string) (JobStatus, error)

	// GetPlan fetches the generated plan text for display.
	GetPlan(ctx context.Context, jobID string) (string, error)

	// GetSteps returns the job's plan steps, used to locate the HIL artifact.
	GetSteps(ctx context.Context, jobID string) ([]Step, error)

	// DownloadArtifact downloads and unpacks the artifact into destDir,
	// returning the manifest values and descriptor copy.
	DownloadArtifact(ctx context.Context, jobID, artifactID, destDir string) (*HILArtifact, error)

	// ResumeJob resumes a paused job with ResumeCompleted or ResumeRejected.
	ResumeJob(ctx context.Context, jobID, outcome string) error

	// StopJob asks the service to stop a running job. Best-effort from the
	// caller's perspective: a stop failure is reported but does not change
	// the local job status.
	StopJob(ctx context.Context, jobID string) error
}
