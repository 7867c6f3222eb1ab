// Package maven runs local Maven invocations and performs the pom.xml work
// the human-in-the-loop flow needs: reading dependency coordinates, probing
// for available replacement versions, and rewriting the descriptor with a
// chosen version.
package maven

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
)

// outputTailLimit caps how much captured Maven output is carried on a build
// error. Full logs go to the logger; the error only needs enough for the
// user-facing notification.
const outputTailLimit = 2000

// Runner executes the Maven binary.
type Runner struct {
	command string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRunner creates a Runner invoking the given command (usually "mvn") with
// a per-invocation timeout.
func NewRunner(command string, timeout time.Duration, logger zerolog.Logger) *Runner {
	if command == "" {
		command = "mvn"
	}
	return &Runner{command: command, timeout: timeout, logger: logger}
}

// Run executes a Maven goal in workDir and returns combined output.
// All errors wrap ErrBuild and include an output tail for user surfacing.
func (r *Runner) Run(ctx context.Context, workDir string, args ...string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.command, args...) //#nosec G204 -- args are constructed internally, not user input
	cmd.Dir = workDir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	err := cmd.Run()
	r.logger.Debug().
		Str("goal", strings.Join(args, " ")).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Bool("success", err == nil).
		Msg("maven invocation finished")

	if err != nil {
		if ctx.Err() != nil {
			return output.String(), ctx.Err()
		}
		return output.String(), fmt.Errorf("mvn %s failed: %s: %w",
			firstArg(args), outputTail(output.String()), transmuteerrors.ErrBuild)
	}
	return output.String(), nil
}

// CopyDependencies populates dependencyFolder with the project's resolved
// dependencies. This is the local build the orchestrator runs before
// packaging; its failure surfaces build logs to the user.
func (r *Runner) CopyDependencies(ctx context.Context, projectPath, dependencyFolder string) error {
	_, err := r.Run(ctx, projectPath,
		"-B", "-q",
		"dependency:copy-dependencies",
		"-DoutputDirectory="+dependencyFolder,
		"-Dmdep.useRepositoryLayout=true",
		"-Dmdep.copyPom=true",
	)
	return err
}

func firstArg(args []string) string {
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return ""
}

// outputTail returns the last outputTailLimit bytes of s, trimmed.
func outputTail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > outputTailLimit {
		s = s[len(s)-outputTailLimit:]
	}
	return s
}
