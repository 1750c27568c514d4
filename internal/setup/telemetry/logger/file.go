// Package logger provides the size-bounded log file used by session loggers.
package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrFileClosed is returned when writing to a closed log file.
var ErrFileClosed = errors.New("log file is closed")

// File is a log file that keeps at most a fixed number of lines on disk.
// The file is trimmed back to its newest lines once twice that many
// lines have been written, so appends stay cheap between trims.
type File struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	buffer   *lineBuffer
	maxLines int
}

// OpenFile opens or creates the log file at path.
func OpenFile(path string, maxLines int) (*File, error) {
	if maxLines < 1 {
		return nil, fmt.Errorf("invalid line limit %d", maxLines)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	return &File{
		file:     file,
		path:     path,
		buffer:   newLineBuffer(maxLines),
		maxLines: maxLines,
	}, nil
}

// Write implements io.Writer.
func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return 0, ErrFileClosed
	}

	n, err := f.file.Write(p)
	if err != nil {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}

		f.buffer.add(line)
		if f.buffer.sinceCut >= f.maxLines*2 {
			if err := f.trim(); err != nil {
				return n, fmt.Errorf("failed to trim log file: %w", err)
			}
			f.buffer.sinceCut = f.buffer.size
		}
	}

	return n, nil
}

// Sync flushes the file to disk.
func (f *File) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}
	return f.file.Sync()
}

// Close closes the file. Further writes fail with ErrFileClosed.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	err := f.file.Close()
	f.file = nil
	return err
}

// trim replaces the file with the buffered lines.
func (f *File) trim() error {
	lines := f.buffer.snapshot()
	if len(lines) == 0 {
		return nil
	}

	temp, err := os.CreateTemp(filepath.Dir(f.path), "temp-log-")
	if err != nil {
		return err
	}
	tempPath := temp.Name()

	if _, err := temp.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return err
	}

	if err := temp.Sync(); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return err
	}
	temp.Close()

	f.file.Close()

	// Windows refuses to rename over an existing file
	os.Remove(f.path)

	if err := os.Rename(tempPath, f.path); err != nil {
		return err
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		f.file = nil
		return err
	}
	f.file = file

	return nil
}
