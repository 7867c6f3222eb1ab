// Package surface defines how TRANSMUTE talks to the user.
//
// A Surface receives job lifecycle notices, plan and progress displays, and
// the interactive human-in-the-loop version prompt. All display methods are
// fire-and-forget: they never return errors and must never block job
// execution. PromptVersionChoice is the one blocking call, and only for
// interactive runs.
package surface

import (
	"github.com/mrz1836/transmute/internal/domain"
)

// Feedback actions attached to an outcome notice. The surface decides how to
// present them; non-interactive surfaces may ignore them.
const (
	// FeedbackNone attaches no action to the notice.
	FeedbackNone = ""

	// FeedbackReportIssue offers the user a way to report the failure.
	// Attached to failed and service-cancelled outcomes only.
	FeedbackReportIssue = "report_issue"
)

// Notice is a terminal-outcome notification shown exactly once per job.
type Notice struct {
	// Title is the short headline, e.g. "Transformation complete".
	Title string

	// Message is the longer outcome description.
	Message string

	// FeedbackAction is one of the Feedback constants.
	FeedbackAction string
}

// Surface is the user-facing output contract.
type Surface interface {
	// JobStarted announces a new job for projectPath.
	JobStarted(projectPath string)

	// Notice shows the terminal-outcome notification. Called exactly once
	// per finished job.
	Notice(n Notice)

	// ChatMessage shows a conversational outcome message.
	ChatMessage(message string)

	// ShowPlan displays the transformation plan stored at path.
	ShowPlan(path string)

	// ShowBuildOutput displays captured local build output after a build
	// failure.
	ShowBuildOutput(output string)

	// RevealReview points the user at the transformed sources for review.
	RevealReview(projectPath string)

	// RefreshPlanProgress redraws plan phase progress from a register
	// snapshot.
	RefreshPlanProgress(snapshot domain.Job)

	// PromptVersionChoice asks the user to pick a replacement version for
	// dep from candidates. Returns the chosen version, ErrChoiceRejected if
	// the user declines, or ErrMenuCanceled for non-interactive runs.
	PromptVersionChoice(dep domain.Dependency, candidates []string) (string, error)
}
