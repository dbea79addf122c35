// Package logtail keeps the most recent log lines and persists them across
// restarts so the operator can fetch them with /logs.
package logtail

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultLines is the default number of retained lines.
const DefaultLines = 200

// Tail is an io.Writer that retains the last N complete lines.
type Tail struct {
	mu      sync.Mutex
	path    string
	ring    *ring
	partial []byte
}

// New returns an in-memory tail that is never persisted.
func New(lines int) *Tail {
	return &Tail{ring: newRing(lines)}
}

// Open returns a tail backed by path, preloaded with the file's last lines.
// A missing file is not an error.
func Open(path string, lines int) (*Tail, error) {
	t := &Tail{path: path, ring: newRing(lines)}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("open log tail: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), 64*1024)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			t.ring.push(line)
		}
	}
	if err := sc.Err(); err != nil {
		return t, fmt.Errorf("read log tail: %w", err)
	}
	return t, nil
}

// Write appends p; complete lines enter the ring.
func (t *Tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := append(t.partial, p...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		if line := strings.TrimRight(string(data[:i]), "\r"); line != "" {
			t.ring.push(line)
		}
		data = data[i+1:]
	}
	t.partial = append(t.partial[:0], data...)
	return len(p), nil
}

// Lines returns the retained lines, oldest first.
func (t *Tail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ring.lines()
}

// Len returns the number of retained lines.
func (t *Tail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ring.len()
}

// String joins the retained lines.
func (t *Tail) String() string {
	lines := t.Lines()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Flush rewrites the backing file with the retained lines (temp file + rename).
// It is a no-op for an in-memory tail.
func (t *Tail) Flush() error {
	if t.path == "" {
		return nil
	}
	content := t.String()

	tmp, err := os.CreateTemp(filepath.Dir(t.path), ".logs-*.tmp")
	if err != nil {
		return fmt.Errorf("flush log tail: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("flush log tail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush log tail: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return fmt.Errorf("flush log tail: %w", err)
	}
	return nil
}
