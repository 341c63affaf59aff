package slogutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// RotatingFile is an append-only log file that is shifted to numbered
// backups (run.log.1 is the newest) once a write would push it past maxSize.
type RotatingFile struct {
	mu         sync.Mutex
	path       string
	maxSize    int64
	maxBackups int
	f          *os.File
	written    int64
}

// OpenRotatingFile opens path for appending, creating parent directories.
// maxSize <= 0 disables rotation; maxBackups == 0 discards the full file
// instead of keeping it.
func OpenRotatingFile(path string, maxSize int64, maxBackups int) (*RotatingFile, error) {
	rf := &RotatingFile{path: path, maxSize: maxSize, maxBackups: maxBackups}
	if err := rf.reopen(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *RotatingFile) reopen() error {
	if err := os.MkdirAll(filepath.Dir(rf.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	rf.f, rf.written = f, st.Size()
	return nil
}

// Write appends p, rotating first when needed. A rotation failure is not
// reported; the record still lands in whatever file is open.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.maxSize > 0 && rf.written > 0 && rf.written+int64(len(p)) > rf.maxSize {
		_ = rf.shift()
	}
	if rf.f == nil {
		if err := rf.reopen(); err != nil {
			return 0, err
		}
	}
	n, err := rf.f.Write(p)
	rf.written += int64(n)
	return n, err
}

// Close closes the current file.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.f == nil {
		return nil
	}
	err := rf.f.Close()
	rf.f = nil
	return err
}

// shift moves path.N-1 to path.N down to path -> path.1 and reopens path.
func (rf *RotatingFile) shift() error {
	if err := rf.f.Close(); err != nil {
		return err
	}
	rf.f = nil

	if rf.maxBackups <= 0 {
		_ = os.Remove(rf.path)
		return rf.reopen()
	}

	_ = os.Remove(rf.backup(rf.maxBackups))
	for n := rf.maxBackups - 1; n >= 1; n-- {
		_ = os.Rename(rf.backup(n), rf.backup(n+1))
	}
	_ = os.Rename(rf.path, rf.backup(1))
	return rf.reopen()
}

func (rf *RotatingFile) backup(n int) string {
	return fmt.Sprintf("%s.%d", rf.path, n)
}

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([KMG]?)B?$`)

var sizeUnits = map[string]float64{
	"":  1,
	"K": 1 << 10,
	"M": 1 << 20,
	"G": 1 << 30,
}

// ParseSize reads sizes such as "10MB", "512k" or "1.5G" as bytes. Empty or
// malformed input yields 0, which disables rotation.
func ParseSize(s string) int64 {
	m := sizePattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return int64(v * sizeUnits[m[2]])
}
