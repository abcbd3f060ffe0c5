// Package launch runs the external viewer and editor collaborators.
package launch

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ViewerCommand builds the command for opening a document. An empty
// or "system" template uses the platform opener; otherwise template is
// split on whitespace and the path appended.
func ViewerCommand(template, path string) (*exec.Cmd, error) {
	if template == "" || template == "system" {
		switch runtime.GOOS {
		case "darwin":
			return exec.Command("open", path), nil
		case "linux":
			return exec.Command("xdg-open", path), nil
		default:
			return nil, fmt.Errorf("no system opener for platform: %s", runtime.GOOS)
		}
	}

	argv := append(strings.Fields(template), path)
	return exec.Command(argv[0], argv[1:]...), nil
}

// View opens a document in the configured viewer, detached: the
// viewer keeps running after carrel exits.
func View(template, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("document not found: %s", path)
	}
	cmd, err := ViewerCommand(template, path)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// EditorCommand builds the command for editing a file. An empty
// template falls back to $VISUAL, then $EDITOR, then vi.
func EditorCommand(template, path string) *exec.Cmd {
	if template == "" {
		template = os.Getenv("VISUAL")
	}
	if template == "" {
		template = os.Getenv("EDITOR")
	}
	if template == "" {
		template = "vi"
	}
	argv := append(strings.Fields(template), path)
	return exec.Command(argv[0], argv[1:]...)
}

// Edit runs the configured editor on a file, attached to the terminal,
// and waits for it to exit.
func Edit(template, path string) error {
	cmd := EditorCommand(template, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// EditText round-trips text through the editor via a temp .bib file
// and returns the edited content.
func EditText(template, text string) (string, error) {
	f, err := os.CreateTemp("", "carrel-*.bib")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	if err := Edit(template, tmpPath); err != nil {
		return "", fmt.Errorf("running editor: %w", err)
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("reading edited file: %w", err)
	}
	return string(edited), nil
}
