package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/flakeup-dev/flakeup/internal/ui"
)

// StdinPrompter reads decision tokens from the terminal. It blocks without
// a timeout; the user's abort token or interrupt is the only cancellation.
type StdinPrompter struct {
	r *bufio.Reader
}

func NewStdinPrompter() *StdinPrompter {
	return &StdinPrompter{r: bufio.NewReader(os.Stdin)}
}

func (p *StdinPrompter) Line(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, ui.Prompt("%s", prompt))
	line, err := p.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// EditInEditor runs $EDITOR on a scratch file seeded with the text and
// returns the edited content. The target file itself is never opened, so
// this is safe in dry-run mode.
func EditInEditor(initial string) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return "", errors.New("EDITOR environment variable is not set")
	}

	f, err := os.CreateTemp("", "flakeup-edit-*.nix")
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(initial); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor exited: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
