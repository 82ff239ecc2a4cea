package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"retirement_planner/internal/config"
)

// Rotator is an io.Writer that rolls the log file over once it would grow
// past MaxSize, keeping MaxBackups numbered copies (file.1 is the newest).
type Rotator struct {
	Filename   string
	MaxSize    int64 // Bytes
	MaxBackups int

	mu   sync.Mutex
	file *os.File
	size int64
}

// NewRotator opens (or creates) filename for appending.
func NewRotator(filename string, maxSizeMB int64, maxBackups int) (*Rotator, error) {
	r := &Rotator{
		Filename:   filename,
		MaxSize:    maxSizeMB * 1024 * 1024,
		MaxBackups: maxBackups,
	}
	if err := r.openExistingOrNew(); err != nil {
		return nil, err
	}
	return r, nil
}

// Setup points the standard logger at stdout and, when cfg.LogFile is set, a
// rotating file. The returned closer releases the file.
func Setup(cfg *config.Config) io.Closer {
	flags := log.LstdFlags
	if cfg.Debug() {
		flags |= log.Lshortfile
	}
	log.SetFlags(flags)

	if cfg.LogFile == "" {
		log.SetOutput(os.Stdout)
		return io.NopCloser(nil)
	}

	rotator, err := NewRotator(cfg.LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups)
	if err != nil {
		log.SetOutput(os.Stdout)
		log.Printf("Failed to open log file %s, using stdout only: %v", cfg.LogFile, err)
		return io.NopCloser(nil)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return rotator
}

func (r *Rotator) openExistingOrNew() error {
	info, err := os.Stat(r.Filename)
	if os.IsNotExist(err) {
		return r.openNew()
	}
	if err != nil {
		return err
	}

	f, err := os.OpenFile(r.Filename, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = info.Size()
	return nil
}

func (r *Rotator) openNew() error {
	f, err := os.OpenFile(r.Filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = 0
	return nil
}

// Write satisfies io.Writer, rotating first when p would overflow the file.
func (r *Rotator) Write(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err = r.openExistingOrNew(); err != nil {
			return 0, err
		}
	}

	if r.size > 0 && r.size+int64(len(p)) > r.MaxSize {
		if err := r.rotate(); err != nil {
			// Keep writing to whatever is open rather than dropping the line.
			fmt.Fprintf(os.Stderr, "Log rotation failed: %v\n", err)
		}
	}

	n, err = r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// Close closes the current file.
func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// rotate shifts file.N-1 -> file.N ... file -> file.1 and reopens file.
func (r *Rotator) rotate() error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}

	if r.MaxBackups <= 0 {
		return r.openNew()
	}

	for i := r.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", r.Filename, i)
		if _, err := os.Stat(oldPath); os.IsNotExist(err) {
			continue
		}
		os.Rename(oldPath, fmt.Sprintf("%s.%d", r.Filename, i+1))
	}

	if _, err := os.Stat(r.Filename); err == nil {
		if err := os.Rename(r.Filename, r.Filename+".1"); err != nil {
			return err
		}
	}

	return r.openNew()
}
