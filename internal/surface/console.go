package surface

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/mrz1836/transmute/internal/constants"
	"github.com/mrz1836/transmute/internal/domain"
	"github.com/mrz1836/transmute/internal/errors"
	"github.com/mrz1836/transmute/internal/tui"
)

// phaseLabels maps tracked phases to the labels shown in progress output.
//
//nolint:gochecknoglobals // Read-only lookup table
var phaseLabels = map[constants.Phase]string{
	constants.PhaseStartJob:      "Start job",
	constants.PhaseBuildCode:     "Build code",
	constants.PhaseGeneratePlan:  "Generate plan",
	constants.PhaseTransformCode: "Transform code",
}

// declineChoiceValue marks the option that declines a version choice.
const declineChoiceValue = "__decline__"

// Console is the terminal Surface implementation. Display output goes to
// writer (stdout by default); interactive prompts require a TTY on stdin and
// degrade to ErrMenuCanceled without one.
type Console struct {
	writer io.Writer
	styles *tui.OutputStyles
	bell   bool
	logger zerolog.Logger
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithWriter overrides the output writer. Useful for testing.
func WithWriter(w io.Writer) ConsoleOption {
	return func(c *Console) { c.writer = w }
}

// WithBell enables the terminal bell on outcome notices.
func WithBell(enabled bool) ConsoleOption {
	return func(c *Console) { c.bell = enabled }
}

// NewConsole creates a Console surface writing to stdout.
func NewConsole(logger zerolog.Logger, opts ...ConsoleOption) *Console {
	c := &Console{
		writer: os.Stdout,
		styles: tui.NewOutputStyles(),
		logger: logger.With().Str("component", "console_surface").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ensure Console implements Surface.
var _ Surface = (*Console)(nil)

// JobStarted implements Surface.
func (c *Console) JobStarted(projectPath string) {
	c.printf("%s %s\n", c.styles.Info.Render("▶ Transformation started:"), projectPath)
}

// Notice implements Surface. Rings the bell (when enabled) so long-running
// jobs get the user's attention.
func (c *Console) Notice(n Notice) {
	if c.bell {
		c.printf("\a")
	}
	c.printf("\n%s\n%s\n", c.styles.Info.Render(n.Title), n.Message)
	if n.FeedbackAction == FeedbackReportIssue {
		c.printf("%s\n", c.styles.Dim.Render("Run 'transmute status' for details, or report this issue to your service administrator."))
	}
}

// ChatMessage implements Surface.
func (c *Console) ChatMessage(message string) {
	c.printf("%s\n", message)
}

// ShowPlan implements Surface. The plan markdown is rendered for the
// terminal; unreadable plan files are reported but never fail the job.
func (c *Console) ShowPlan(path string) {
	raw, err := os.ReadFile(path) //nolint:gosec // path is the orchestrator's own plan file
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("Failed to read plan file")
		c.printf("%s %s\n", c.styles.Warning.Render("Plan saved to:"), path)
		return
	}
	c.printf("\n%s\n", c.styles.Info.Render("── Transformation plan ──"))
	c.printf("%s\n", tui.RenderMarkdown(string(raw)))
	c.printf("%s %s\n", c.styles.Dim.Render("Plan saved to:"), path)
}

// ShowBuildOutput implements Surface.
func (c *Console) ShowBuildOutput(output string) {
	output = strings.TrimSpace(output)
	if output == "" {
		return
	}
	c.printf("\n%s\n%s\n", c.styles.Warning.Render("── Build output ──"), output)
}

// RevealReview implements Surface.
func (c *Console) RevealReview(projectPath string) {
	c.printf("%s %s\n", c.styles.Success.Render("Review the transformed sources in:"), projectPath)
}

// RefreshPlanProgress implements Surface. Renders one line per phase with
// icon + color + text.
func (c *Console) RefreshPlanProgress(snapshot domain.Job) {
	if len(snapshot.PlanStepProgress) == 0 {
		return
	}
	var b strings.Builder
	for _, phase := range constants.OrderedPhases {
		status, ok := snapshot.PlanStepProgress[phase]
		if !ok {
			status = constants.PhaseStatusPending
		}
		icon := tui.PhaseStatusIcon(status)
		label := phaseLabels[phase]
		b.WriteString(fmt.Sprintf("  %s %-16s %s\n", icon, label, c.styleFor(status).Render(status.String())))
	}
	c.printf("%s\n%s", c.styles.Dim.Render("Plan progress:"), b.String())
}

// PromptVersionChoice implements Surface. Interactive runs get a huh select
// listing the candidates newest-first plus a decline option; non-interactive
// runs return ErrMenuCanceled immediately.
func (c *Console) PromptVersionChoice(dep domain.Dependency, candidates []string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.ErrMenuCanceled
	}

	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Sort(sort.Reverse(sort.StringSlice(sorted)))

	options := make([]tui.Option, 0, len(sorted)+1)
	for _, v := range sorted {
		options = append(options, tui.Option{Label: v, Value: v})
	}
	options = append(options, tui.Option{
		Label:       "Keep current version",
		Description: fmt.Sprintf("continue without replacing %s", dep.Version),
		Value:       declineChoiceValue,
	})

	title := fmt.Sprintf("Select a replacement version for %s (currently %s)", dep.Coordinates(), dep.Version)
	selected, err := tui.Select(title, options)
	if err != nil {
		return "", err
	}
	if selected == declineChoiceValue {
		return "", errors.ErrChoiceRejected
	}
	return selected, nil
}

// styleFor returns the output style matching a phase status.
func (c *Console) styleFor(status constants.PhaseStatus) interface{ Render(...string) string } {
	switch status {
	case constants.PhaseStatusSucceeded:
		return c.styles.Success
	case constants.PhaseStatusFailed:
		return c.styles.Error
	case constants.PhaseStatusPending:
		return c.styles.Dim
	default:
		return c.styles.Dim
	}
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.writer, format, args...)
}
