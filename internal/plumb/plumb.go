// Package plumb hands a selection to the plumber, or to an external
// command when one is configured.
package plumb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"9fans.net/go/plan9"
	"9fans.net/go/plumb"
)

// ErrNotRunning is returned when no plumb command is configured and the
// plumber's send port cannot be opened.
var ErrNotRunning = errors.New("plumber not running and no plumb command configured")

// Plumber sends a selection as a text message from "riotile" to the
// plumber's send port. When Command is set it is run through the shell
// instead, with the selection on stdin and the text and directory in
// PLUMB_TEXT and PLUMB_DIR.
type Plumber struct {
	Shell   string
	Command string
	Logger  *slog.Logger

	// Wait makes a command Plumb block until the command exits.
	Wait bool

	// OpenPort opens the send port. It defaults to the plumber's.
	OpenPort func() (io.Writer, error)

	mu   sync.Mutex
	port io.Writer
}

// New returns a plumber for command. An empty command sends to the
// plumber directly.
func New(command string, logger *slog.Logger) *Plumber {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Plumber{Shell: "/bin/sh", Command: command, Logger: logger}
}

func openSendPort() (io.Writer, error) {
	fid, err := plumb.Open("send", plan9.OWRITE)
	if err != nil {
		return nil, err
	}
	return fid, nil
}

// Plumb sends text, interpreted relative to dir.
func (p *Plumber) Plumb(text, dir string) error {
	if text == "" {
		return nil
	}
	if strings.TrimSpace(p.Command) != "" {
		return p.run(text, dir)
	}
	return p.send(text, dir)
}

func (p *Plumber) send(text, dir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		open := p.OpenPort
		if open == nil {
			open = openSendPort
		}
		port, err := open()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotRunning, err)
		}
		p.port = port
	}
	m := &plumb.Message{
		Src:  "riotile",
		Dir:  dir,
		Type: "text",
		Data: []byte(text),
	}
	if err := m.Send(p.port); err != nil {
		// Reopen on the next send; the plumber may have restarted.
		if c, ok := p.port.(io.Closer); ok {
			c.Close()
		}
		p.port = nil
		return fmt.Errorf("plumb: %w", err)
	}
	return nil
}

func (p *Plumber) run(text, dir string) error {
	shell := p.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.Command(shell, "-c", p.Command)
	cmd.Stdin = strings.NewReader(text)
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			cmd.Dir = dir
		}
	}
	cmd.Env = append(os.Environ(), "PLUMB_TEXT="+text, "PLUMB_DIR="+dir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if p.Wait {
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("plumb %q: %w: %s", p.Command, err, strings.TrimSpace(stderr.String()))
		}
		return nil
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("plumb %q: %w", p.Command, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			p.Logger.Warn("plumb command failed", "command", p.Command, "error", err, "stderr", strings.TrimSpace(stderr.String()))
		}
	}()
	return nil
}
