// Package tui provides terminal user interface components for TRANSMUTE.
//
// This file provides the interactive menu system using Charm Huh for
// consistent interfaces at all user decision points. Menus support standard
// navigation: arrow keys, Enter to select, q/Esc to cancel. They adapt to the
// terminal width and respect NO_COLOR.
package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
)

// Terminal layout constants.
const (
	// TerminalEdgeMargin is the number of characters to leave between
	// menu content and the terminal edge for visual padding.
	TerminalEdgeMargin = 4

	// MinMenuWidth is the minimum usable width for menu content.
	// Menus narrower than this become difficult to read and use.
	MinMenuWidth = 40

	// DefaultMenuWidth is the menu width used when the terminal size is
	// unavailable.
	DefaultMenuWidth = 80
)

// ErrMenuCanceled is an alias for errors.ErrMenuCanceled for package-local use.
// Returned when the user cancels a menu operation by pressing q or Escape.
var ErrMenuCanceled = transmuteerrors.ErrMenuCanceled

// Option represents a selectable menu option.
type Option struct {
	// Label is the display text shown to the user.
	Label string
	// Description is optional help text shown below the label.
	Description string
	// Value is the value returned when this option is selected.
	Value string
}

// MenuConfig holds configuration for menu components.
type MenuConfig struct {
	// Width is the maximum width for the menu. If 0, adapts to terminal width.
	Width int
	// Accessible enables accessible mode for screen readers.
	Accessible bool
	// ShowKeyHints controls whether key hints are displayed.
	ShowKeyHints bool
}

// NewMenuConfig creates a MenuConfig with sensible defaults.
// It automatically detects accessible mode from the ACCESSIBLE environment variable.
func NewMenuConfig() *MenuConfig {
	_, accessible := os.LookupEnv("ACCESSIBLE")
	return &MenuConfig{
		Width:        DefaultMenuWidth,
		Accessible:   accessible,
		ShowKeyHints: true,
	}
}

// adaptWidth returns an appropriate menu width based on terminal size.
// It respects the maxWidth constraint while adapting to narrower terminals.
func adaptWidth(maxWidth int) int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		if maxWidth <= 0 {
			return DefaultMenuWidth
		}
		return maxWidth
	}

	availableWidth := width - TerminalEdgeMargin
	if maxWidth > 0 && maxWidth < availableWidth {
		return maxWidth
	}
	if availableWidth < MinMenuWidth {
		return MinMenuWidth
	}
	return availableWidth
}

// runFormWithConfig creates and runs a form with the given field and config.
// The errorContext parameter is used to wrap errors with descriptive context.
func runFormWithConfig(field huh.Field, cfg *MenuConfig, errorContext string) error {
	// Prevents tests from hanging when TUI code is called without a terminal
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ErrMenuCanceled
	}

	CheckNoColor()

	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(TransmuteTheme()).
		WithWidth(adaptWidth(cfg.Width)).
		WithAccessible(cfg.Accessible).
		WithShowHelp(cfg.ShowKeyHints)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrMenuCanceled
		}
		return fmt.Errorf("%s: %w", errorContext, err)
	}
	return nil
}

// TransmuteTheme returns a custom Huh theme using TRANSMUTE colors from styles.go.
// Uses AdaptiveColor for proper light/dark terminal support.
func TransmuteTheme() *huh.Theme {
	CheckNoColor()

	t := huh.ThemeBase()

	t.Focused.Base = t.Focused.Base.BorderForeground(ColorPrimary)
	t.Focused.Title = t.Focused.Title.Foreground(ColorPrimary)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorPrimary)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorPrimary)

	t.Focused.SelectedPrefix = t.Focused.SelectedPrefix.Foreground(ColorSuccess)

	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(ColorError)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(ColorError)

	t.Blurred.Base = t.Blurred.Base.BorderForeground(ColorMuted)
	t.Blurred.Title = t.Blurred.Title.Foreground(ColorMuted)
	t.Focused.Description = t.Focused.Description.Foreground(ColorMuted)
	t.Help.Ellipsis = t.Help.Ellipsis.Foreground(ColorMuted)

	return t
}

// Select presents a single-selection menu and returns the selected value.
// Returns ErrMenuCanceled if the user presses q or Esc.
func Select(title string, options []Option) (string, error) {
	return SelectWithConfig(title, options, NewMenuConfig())
}

// SelectWithConfig presents a single-selection menu with custom configuration.
func SelectWithConfig(title string, options []Option, cfg *MenuConfig) (string, error) {
	if len(options) == 0 {
		return "", transmuteerrors.ErrNoMenuOptions
	}

	// Huh doesn't support option-level descriptions natively, so the
	// description is folded into the label when present
	huhOptions := make([]huh.Option[string], len(options))
	for i, opt := range options {
		label := opt.Label
		if opt.Description != "" {
			label = fmt.Sprintf("%s - %s", opt.Label, opt.Description)
		}
		huhOptions[i] = huh.NewOption(label, opt.Value)
	}

	var selected string
	field := huh.NewSelect[string]().
		Title(title).
		Options(huhOptions...).
		Value(&selected)

	if err := runFormWithConfig(field, cfg, "selection menu failed"); err != nil {
		return "", err
	}
	return selected, nil
}

// Confirm presents a yes/no confirmation prompt.
// Returns ErrMenuCanceled if the user presses q or Esc.
func Confirm(title string) (bool, error) {
	return ConfirmWithConfig(title, NewMenuConfig())
}

// ConfirmWithConfig presents a yes/no confirmation prompt with custom configuration.
func ConfirmWithConfig(title string, cfg *MenuConfig) (bool, error) {
	var confirmed bool
	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)

	if err := runFormWithConfig(field, cfg, "confirmation prompt failed"); err != nil {
		return false, err
	}
	return confirmed, nil
}
