package archive

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONL appends events to a JSON lines file, one event per line.
type JSONL struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

// NewJSONL opens or creates the archive file at the specified path.
func NewJSONL(path string) (*JSONL, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open archive file: %w", err)
	}

	return &JSONL{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Write appends one event as a JSON line.
func (j *JSONL) Write(ctx context.Context, evt Event) error {
	line, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.writer.Write(line); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := j.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}

	return nil
}

// Close flushes buffered events and syncs the file.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("sync archive: %w", err)
	}

	return j.file.Close()
}
