// Package logging routes the standard logger to the console and a daily log
// file. Messages keep the plain log.Printf style used across the codebase;
// "ERROR:", "WARNING:" and "DEBUG:" prefixes are coloured on a terminal.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var debug atomic.Bool

// Config controls where log output goes.
type Config struct {
	Dir     string // directory for daily log files; empty disables file output
	Dev     bool   // enables Debugf output
	Console io.Writer
	Now     func() time.Time
}

// Setup points the standard logger at the console (and a daily file when
// cfg.Dir is set). The returned closer releases the file.
func Setup(cfg Config) (io.Closer, error) {
	debug.Store(cfg.Dev)

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	var colored bool
	if f, ok := console.(*os.File); ok {
		colored = term.IsTerminal(int(f.Fd()))
	}
	out := io.Writer(&levelWriter{w: console, colored: colored})

	var closer io.Closer = nopCloser{}
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		name := filepath.Join(cfg.Dir, fmt.Sprintf("docgen_%s.log", now().Format("2006-01-02")))
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out = io.MultiWriter(out, f)
		closer = f
	}

	log.SetOutput(out)
	log.SetFlags(log.LstdFlags)
	return closer, nil
}

// Debugf logs only in dev mode.
func Debugf(format string, args ...any) {
	if !debug.Load() {
		return
	}
	log.Output(2, "DEBUG: "+fmt.Sprintf(format, args...))
}

// SetDebug toggles Debugf output.
func SetDebug(on bool) { debug.Store(on) }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

var levelStyles = []struct {
	prefix []byte
	style  lipgloss.Style
}{
	{[]byte("ERROR:"), lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)},
	{[]byte("WARNING:"), lipgloss.NewStyle().Foreground(lipgloss.Color("11"))},
	{[]byte("DEBUG:"), lipgloss.NewStyle().Foreground(lipgloss.Color("14"))},
}

// levelWriter colours the first level prefix of each log line. The standard
// logger issues exactly one Write per entry.
type levelWriter struct {
	w       io.Writer
	colored bool
}

func (lw *levelWriter) Write(p []byte) (int, error) {
	if !lw.colored {
		return lw.w.Write(p)
	}
	line := p
	for _, ls := range levelStyles {
		if i := bytes.Index(p, ls.prefix); i >= 0 {
			var buf bytes.Buffer
			buf.Write(p[:i])
			buf.WriteString(ls.style.Render(string(ls.prefix)))
			buf.Write(p[i+len(ls.prefix):])
			line = buf.Bytes()
			break
		}
	}
	if _, err := lw.w.Write(line); err != nil {
		return 0, err
	}
	return len(p), nil
}
