package surface

import (
	"sync"

	"github.com/mrz1836/transmute/internal/domain"
	"github.com/mrz1836/transmute/internal/errors"
)

// Recorder is a Surface implementation for tests. It records every call and
// answers PromptVersionChoice from a scripted response.
type Recorder struct {
	mu sync.Mutex

	// Started collects JobStarted project paths.
	Started []string

	// Notices collects outcome notices in order.
	Notices []Notice

	// ChatMessages collects chat messages in order.
	ChatMessages []string

	// PlanPaths collects ShowPlan paths.
	PlanPaths []string

	// BuildOutputs collects ShowBuildOutput payloads.
	BuildOutputs []string

	// Reviews collects RevealReview project paths.
	Reviews []string

	// ProgressSnapshots collects RefreshPlanProgress snapshots.
	ProgressSnapshots []domain.Job

	// PromptedDeps collects the dependencies offered for a version choice.
	PromptedDeps []domain.Dependency

	// PromptedCandidates collects the candidate lists offered.
	PromptedCandidates [][]string

	// ChoiceResponse is returned by PromptVersionChoice when ChoiceErr is nil.
	ChoiceResponse string

	// ChoiceErr, when set, is returned by PromptVersionChoice.
	ChoiceErr error
}

// NewRecorder creates a Recorder whose PromptVersionChoice declines by default.
func NewRecorder() *Recorder {
	return &Recorder{ChoiceErr: errors.ErrMenuCanceled}
}

// Ensure Recorder implements Surface.
var _ Surface = (*Recorder)(nil)

// JobStarted implements Surface.
func (r *Recorder) JobStarted(projectPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Started = append(r.Started, projectPath)
}

// Notice implements Surface.
func (r *Recorder) Notice(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notices = append(r.Notices, n)
}

// ChatMessage implements Surface.
func (r *Recorder) ChatMessage(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ChatMessages = append(r.ChatMessages, message)
}

// ShowPlan implements Surface.
func (r *Recorder) ShowPlan(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PlanPaths = append(r.PlanPaths, path)
}

// ShowBuildOutput implements Surface.
func (r *Recorder) ShowBuildOutput(output string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BuildOutputs = append(r.BuildOutputs, output)
}

// RevealReview implements Surface.
func (r *Recorder) RevealReview(projectPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reviews = append(r.Reviews, projectPath)
}

// RefreshPlanProgress implements Surface.
func (r *Recorder) RefreshPlanProgress(snapshot domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ProgressSnapshots = append(r.ProgressSnapshots, snapshot)
}

// PromptVersionChoice implements Surface.
func (r *Recorder) PromptVersionChoice(dep domain.Dependency, candidates []string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PromptedDeps = append(r.PromptedDeps, dep)
	r.PromptedCandidates = append(r.PromptedCandidates, candidates)
	if r.ChoiceErr != nil {
		return "", r.ChoiceErr
	}
	return r.ChoiceResponse, nil
}
