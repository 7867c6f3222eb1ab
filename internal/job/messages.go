package job

import (
	"fmt"
	"strings"

	"github.com/mrz1836/transmute/internal/constants"
	"github.com/mrz1836/transmute/internal/domain"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
	"github.com/mrz1836/transmute/internal/surface"
	"github.com/mrz1836/transmute/internal/transform"
)

// failureContext is the user-facing text pair recorded for one failure: the
// notification headline and the chat-style explanation.
type failureContext struct {
	notification string
	chatMessage  string
}

// packagingFailure covers local dependency preparation and archiving.
func packagingFailure(err error) failureContext {
	if transmuteerrors.Is(err, transmuteerrors.ErrBuild) {
		return failureContext{
			notification: "Transformation failed: the local build could not resolve your project's dependencies.",
			chatMessage:  "I couldn't build your project locally, so nothing was uploaded. The build output above should point at the problem.",
		}
	}
	return failureContext{
		notification: "Transformation failed: your project could not be packaged for upload.",
		chatMessage:  "I couldn't package your project into an upload payload, so the transformation was never started.",
	}
}

// uploadFailure covers upload URL creation and the payload transfer.
func uploadFailure() failureContext {
	return failureContext{
		notification: "Transformation failed: the project payload could not be uploaded.",
		chatMessage:  "Uploading your project to the transformation service failed, so the job was never started.",
	}
}

// startFailure covers StartJob, with a distinct message for the service's
// too-many-active-jobs rejection.
func startFailure(err error) failureContext {
	if transmuteerrors.Is(err, transmuteerrors.ErrTooManyActiveJobs) {
		return failureContext{
			notification: "Transformation not started: too many active jobs.",
			chatMessage:  "The transformation service reports too many active jobs for your account. Wait for one to finish, or cancel it, then try again.",
		}
	}
	return failureContext{
		notification: "Transformation failed: the job could not be started.",
		chatMessage:  "The transformation service rejected the job start request.",
	}
}

// planFailure covers the plan wait and plan fetch.
func planFailure() failureContext {
	return failureContext{
		notification: "Transformation failed while generating the plan.",
		chatMessage:  "The transformation service could not produce a plan for your project.",
	}
}

// completionFailure covers the completion wait, including failed
// human-in-the-loop cycles.
func completionFailure(err error) failureContext {
	switch {
	case transmuteerrors.Is(err, transmuteerrors.ErrNoCandidateVersions):
		return failureContext{
			notification: "Transformation failed: no replacement dependency versions were available.",
			chatMessage:  "The job asked for a dependency version decision, but no candidate replacement versions could be found, so it was resumed without one.",
		}
	case transmuteerrors.Is(err, transmuteerrors.ErrChoiceRejected):
		return failureContext{
			notification: "Transformation continued without a dependency choice.",
			chatMessage:  "You declined to pick a replacement version, so the job was resumed without one.",
		}
	default:
		return failureContext{
			notification: "Transformation failed while applying the plan.",
			chatMessage:  "The transformation service could not complete the job.",
		}
	}
}

// unexpectedTerminalFailure covers remote terminal statuses that are neither
// COMPLETED nor PARTIALLY_COMPLETED.
func unexpectedTerminalFailure(status transform.JobStatus) failureContext {
	if status == transform.StatusStopped || status == transform.StatusStopping {
		return failureContext{
			notification: "Transformation stopped by the service.",
			chatMessage:  "The transformation service stopped the job before it completed.",
		}
	}
	return failureContext{
		notification: fmt.Sprintf("Transformation ended unexpectedly (%s).", status),
		chatMessage:  fmt.Sprintf("The job ended in the unexpected state %s. The project was not transformed.", status),
	}
}

// outcomeNotice builds the single terminal-outcome notice and chat message
// for a finalized job. Feedback is offered on failure and service-initiated
// stops only, never on success or user cancellation.
func outcomeNotice(snapshot domain.Job) (surface.Notice, string) {
	switch snapshot.Status {
	case constants.JobStatusSucceeded:
		return surface.Notice{
			Title:   "Transformation complete",
			Message: fmt.Sprintf("Your project %s was transformed successfully.", snapshot.ProjectPath),
		}, "The transformation finished successfully. Review the changes before committing them."

	case constants.JobStatusPartiallySucceeded:
		return surface.Notice{
			Title:   "Transformation partially complete",
			Message: fmt.Sprintf("Your project %s was partially transformed. Some plan steps did not apply.", snapshot.ProjectPath),
		}, "The transformation finished, but some plan steps could not be applied. Review the changes carefully."

	case constants.JobStatusCancelled:
		return surface.Notice{
			Title:   "Transformation cancelled",
			Message: "The transformation job was cancelled.",
		}, "The transformation was cancelled. Your project was left untouched locally."

	case constants.JobStatusFailed:
		message := snapshot.FailureNotification
		if message == "" {
			message = "The transformation job failed."
		}
		if len(snapshot.FailureMetadata) > 0 {
			message += "\n" + strings.Join(snapshot.FailureMetadata, "\n")
		}
		chat := snapshot.FailureChatMessage
		if chat == "" {
			chat = "The transformation failed before it could finish."
		}
		return surface.Notice{
			Title:          "Transformation failed",
			Message:        message,
			FeedbackAction: surface.FeedbackReportIssue,
		}, chat

	case constants.JobStatusNotStarted, constants.JobStatusRunning:
		// Finalize never runs in these states; covered for exhaustiveness.
		return surface.Notice{Title: "Transformation", Message: string(snapshot.Status)}, ""

	default:
		return surface.Notice{Title: "Transformation", Message: string(snapshot.Status)}, ""
	}
}
