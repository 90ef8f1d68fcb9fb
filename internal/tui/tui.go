// Package tui shows a spinner while the discovery and oracle queries run.
// Interactive prompting happens outside bubbletea, after the program quits,
// so prompts never interleave with the spinner.
package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

type doneMsg struct{}

type model[T any] struct {
	spinner spinner.Model
	message string
	run     func() T
	result  T
	done    bool
}

func newModel[T any](message string, run func() T) *model[T] {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return &model[T]{spinner: s, message: message, run: run}
}

func (m *model[T]) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start)
}

func (m *model[T]) start() tea.Msg {
	m.result = m.run()
	return doneMsg{}
}

func (m *model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case doneMsg:
		m.done = true
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m *model[T]) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.message)
}

// Await runs fn behind a spinner when stderr is a terminal, and plainly
// otherwise (pipes, tests).
func Await[T any](message string, run func() T) (T, error) {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return run(), nil
	}

	m := newModel(message, run)
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	if _, err := p.Run(); err != nil {
		var zero T
		return zero, err
	}
	if !m.done {
		var zero T
		return zero, errors.New("interrupted")
	}
	return m.result, nil
}
