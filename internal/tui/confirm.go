// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("cancelled")

type (
	// ConfirmOptions configures the Confirm prompt.
	ConfirmOptions struct {
		// Title is the question/prompt to display.
		Title string
		// Description provides additional context below the title.
		Description string
		// Affirmative is the text for the affirmative option (default: "Yes").
		Affirmative string
		// Negative is the text for the negative option (default: "No").
		Negative string
		// Default is the answer preselected when the user just hits enter.
		Default bool
	}

	// confirmModel implements tea.Model for confirmation prompts.
	confirmModel struct {
		opts      ConfirmOptions
		selection bool
		done      bool
		cancelled bool
		width     int
	}
)

func newConfirmModel(opts ConfirmOptions) confirmModel {
	if opts.Affirmative == "" {
		opts.Affirmative = "Yes"
	}
	if opts.Negative == "" {
		opts.Negative = "No"
	}

	return confirmModel{
		opts:      opts,
		selection: opts.Default,
	}
}

// Init implements tea.Model.
func (m confirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.done = true
			m.cancelled = true
			return m, tea.Quit
		case "y":
			m.selection = true
			m.done = true
			return m, tea.Quit
		case "n":
			m.selection = false
			m.done = true
			return m, tea.Quit
		case "left", "h":
			m.selection = true
		case "right", "l":
			m.selection = false
		case "up", "down", "tab", "shift+tab":
			m.selection = !m.selection
		case "enter", " ":
			m.done = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}

	return m, nil
}

// View implements tea.Model.
func (m confirmModel) View() string {
	if m.done {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#7C3AED")).Bold(true).Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Padding(0, 1)
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	yesView := inactiveStyle.Render(m.opts.Affirmative)
	noView := inactiveStyle.Render(m.opts.Negative)
	if m.selection {
		yesView = activeStyle.Render(m.opts.Affirmative)
	} else {
		noView = activeStyle.Render(m.opts.Negative)
	}

	lines := make([]string, 0, 4)
	if m.opts.Title != "" {
		lines = append(lines, titleStyle.Render(m.opts.Title))
	}
	if m.opts.Description != "" {
		lines = append(lines, descStyle.Render(m.opts.Description))
	}
	lines = append(lines,
		yesView+"  "+noView,
		helpStyle.Render("enter submit • y yes • n no • esc cancel"),
	)

	view := strings.Join(lines, "\n")
	if m.width > 0 {
		view = lipgloss.NewStyle().MaxWidth(m.width).Render(view)
	}

	return view
}

// Confirm prompts the user to confirm an action (yes/no).
// When stdin is not a terminal it falls back to a plain line-based prompt so
// piped and scripted runs still get an answer. Returns ErrCancelled when the
// user aborts.
func Confirm(opts ConfirmOptions) (bool, error) {
	if !isInputTerminal() {
		return confirmPlain(opts, os.Stdin, os.Stderr)
	}

	final, err := tea.NewProgram(newConfirmModel(opts)).Run()
	if err != nil {
		return false, err
	}

	m, ok := final.(confirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected model type %T", final)
	}
	if m.cancelled {
		return false, ErrCancelled
	}
	return m.selection, nil
}

// confirmPlain writes the question to w and reads lines from r until it
// recognizes an answer. An empty line picks the default; EOF before an
// answer counts as a cancel.
func confirmPlain(opts ConfirmOptions, r io.Reader, w io.Writer) (bool, error) {
	hint := "y/N"
	if opts.Default {
		hint = "Y/n"
	}

	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprintf(w, "%s [%s]: ", opts.Title, hint)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return false, err
			}
			return false, ErrCancelled
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "":
			return opts.Default, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// isInputTerminal returns true if stdin is connected to a terminal.
// Returns false when running inside command substitution ($()) or pipes.
func isInputTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
