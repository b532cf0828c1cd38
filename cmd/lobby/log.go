package main

import (
	"os"
	"path/filepath"
	"sync"
)

// Logger tees everything written to it into log/latest.txt
// and the console. The previous run's file is kept as log/last.txt.
type Logger struct {
	mu    sync.Mutex
	file  *os.File
	lines []string
	echo  func(line string)
}

func newLogger(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, err
	}

	latest := filepath.Join(dir, "latest.txt")
	os.Rename(latest, filepath.Join(dir, "last.txt"))

	f, err := os.OpenFile(latest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	return &Logger{file: f, echo: func(line string) { os.Stdout.WriteString(line) }}, nil
}

func (l *Logger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := string(p)
	l.lines = append(l.lines, trimNewline(line))
	if len(l.lines) > maxScrollback {
		l.lines = l.lines[len(l.lines)-maxScrollback:]
	}

	if l.echo != nil {
		l.echo(line)
	}

	return l.file.Write(p)
}

// Sync is called by zap after every error-level entry
func (l *Logger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Sync()
}

// Lines returns the scrollback shown by the console
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.lines...)
}

// SetEcho replaces what is done with each line besides writing the file.
// The console uses it to stop raw writes to the terminal.
func (l *Logger) SetEcho(echo func(line string)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.echo = echo
}

func (l *Logger) Close() error {
	return l.file.Close()
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}

	return s
}
