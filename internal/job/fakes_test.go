package job

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/mrz1836/transmute/internal/constants"
	"github.com/mrz1836/transmute/internal/domain"
	"github.com/mrz1836/transmute/internal/transform"
)

// fakePomXML is the descriptor the fake service delivers in HIL artifacts.
const fakePomXML = `<?xml version="1.0" encoding="UTF-8"?>
<project>
  <modelVersion>4.0.0</modelVersion>
  <groupId>com.example</groupId>
  <artifactId>payments-service</artifactId>
  <version>1.0.0</version>
  <dependencies>
    <dependency>
      <groupId>org.example</groupId>
      <artifactId>widget</artifactId>
      <version>1.0.0</version>
    </dependency>
  </dependencies>
</project>
`

// uploadCall records one UploadPayload invocation.
type uploadCall struct {
	path          string
	uploadContext string
}

// fakeService is a scripted transform.Service. GetStatus consumes the
// statuses slice one element per call and repeats the last entry once the
// script is exhausted.
type fakeService struct {
	mu sync.Mutex

	statuses    []transform.JobStatus
	statusCalls int
	statusErrs  []error // consumed before statuses; nil entries skipped

	jobID string
	plan  string
	steps []transform.Step

	createUploadErr error
	uploadErr       error
	startErr        error
	planErr         error
	stepsErr        error
	downloadErr     error
	resumeErr       error
	stopErr         error

	uploads    []uploadCall
	resumes    []string
	stopCalls  int
	startCalls int

	// firstPoll closes after the first GetStatus call, for races with Cancel.
	firstPoll     chan struct{}
	firstPollOnce sync.Once
}

func newFakeService(statuses ...transform.JobStatus) *fakeService {
	return &fakeService{
		statuses:  statuses,
		jobID:     "job-123",
		plan:      "# Plan\n\n1. Update widget",
		firstPoll: make(chan struct{}),
		steps: []transform.Step{
			{
				ID:   "step-1",
				Name: "dependency versions",
				Artifact: &transform.StepArtifact{
					ArtifactID:   "artifact-1",
					ArtifactType: transform.ArtifactTypeHILDependency,
				},
			},
		},
	}
}

var _ transform.Service = (*fakeService)(nil)

func (f *fakeService) CreateUploadURL(_ context.Context) (*transform.UploadTarget, error) {
	if f.createUploadErr != nil {
		return nil, f.createUploadErr
	}
	return &transform.UploadTarget{UploadID: "upload-1", URL: "https://uploads.example.com/upload-1"}, nil
}

func (f *fakeService) UploadPayload(_ context.Context, path string, _ *transform.UploadTarget, uploadContext string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, uploadCall{path: path, uploadContext: uploadContext})
	return nil
}

func (f *fakeService) StartJob(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.jobID, nil
}

func (f *fakeService) GetStatus(_ context.Context, _ string) (transform.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer f.firstPollOnce.Do(func() { close(f.firstPoll) })

	if len(f.statusErrs) > 0 {
		err := f.statusErrs[0]
		f.statusErrs = f.statusErrs[1:]
		if err != nil {
			return "", err
		}
	}

	f.statusCalls++
	if len(f.statuses) == 0 {
		return transform.StatusTransforming, nil
	}
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return status, nil
}

func (f *fakeService) GetPlan(_ context.Context, _ string) (string, error) {
	if f.planErr != nil {
		return "", f.planErr
	}
	return f.plan, nil
}

func (f *fakeService) GetSteps(_ context.Context, _ string) ([]transform.Step, error) {
	if f.stepsErr != nil {
		return nil, f.stepsErr
	}
	return f.steps, nil
}

func (f *fakeService) DownloadArtifact(_ context.Context, _, _, destDir string) (*transform.HILArtifact, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	descriptorPath := filepath.Join(destDir, "pom.xml")
	if err := os.WriteFile(descriptorPath, []byte(fakePomXML), 0o600); err != nil {
		return nil, err
	}
	return &transform.HILArtifact{
		Manifest: transform.HILManifest{
			Capability:       transform.ArtifactTypeHILDependency,
			PomGroupID:       "org.example",
			PomArtifactID:    "widget",
			SourcePomVersion: "1.0.0",
		},
		DescriptorPath: descriptorPath,
	}, nil
}

func (f *fakeService) ResumeJob(_ context.Context, _, outcome string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resumeErr != nil {
		return f.resumeErr
	}
	f.resumes = append(f.resumes, outcome)
	return nil
}

func (f *fakeService) StopJob(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	return f.stopErr
}

func (f *fakeService) recordedResumes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resumes...)
}

func (f *fakeService) recordedUploads() []uploadCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uploadCall(nil), f.uploads...)
}

func (f *fakeService) recordedStartCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls
}

func (f *fakeService) recordedStopCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

// fakePackager is a scripted packager.Packager that produces real files so
// payload cleanup can be asserted.
type fakePackager struct {
	mu           sync.Mutex
	prepareErr   error
	packageErr   error
	prepareCalls int
	packageCalls int
	depCalls     int
}

func (f *fakePackager) Package(_ context.Context, _, _, destDir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packageCalls++
	if f.packageErr != nil {
		return "", f.packageErr
	}
	path := filepath.Join(destDir, constants.PayloadFileName)
	if err := os.WriteFile(path, []byte("payload"), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakePackager) PackageDependencies(_ context.Context, _, destDir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.depCalls++
	path := filepath.Join(destDir, constants.DependencyPayloadFileName)
	if err := os.WriteFile(path, []byte("dependencies"), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakePackager) PrepareDependencies(_ context.Context, _, dependencyFolder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepareCalls++
	if f.prepareErr != nil {
		return f.prepareErr
	}
	return os.MkdirAll(dependencyFolder, 0o750)
}

// fakeProbe is a scripted VersionProber.
type fakeProbe struct {
	candidates []string
	err        error
}

func (f *fakeProbe) CandidateVersions(_ context.Context, _, _ string, _ domain.Dependency) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}
