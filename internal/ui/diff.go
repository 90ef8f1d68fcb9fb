package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/flakeup-dev/flakeup/internal/model"
)

var (
	hunkHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	removedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	addedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	contextStyle    = lipgloss.NewStyle().Faint(true)
)

// RenderHunk formats one hunk against the buffer it will apply to, with n
// unchanged lines of context on both sides. h.Start must already be
// adjusted to the buffer (the engine tracks the offset of earlier applies).
func RenderHunk(buffer []string, h model.Hunk, context int) string {
	var b strings.Builder

	header := fmt.Sprintf("@@ %s, line %d (%d/%d) @@", h.Input, h.Start+1, h.Index, h.Total)
	b.WriteString(hunkHeaderStyle.Render(header))
	b.WriteByte('\n')

	start := h.Start - context
	if start < 0 {
		start = 0
	}
	for i := start; i < h.Start && i < len(buffer); i++ {
		b.WriteString(contextStyle.Render(" " + buffer[i]))
		b.WriteByte('\n')
	}
	for _, l := range h.Old {
		b.WriteString(removedStyle.Render("-" + l))
		b.WriteByte('\n')
	}
	for _, l := range h.New {
		b.WriteString(addedStyle.Render("+" + l))
		b.WriteByte('\n')
	}
	end := h.Start + len(h.Old) + context
	if end > len(buffer) {
		end = len(buffer)
	}
	for i := h.Start + len(h.Old); i < end; i++ {
		b.WriteString(contextStyle.Render(" " + buffer[i]))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
