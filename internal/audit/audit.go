// Package audit records gitu runs in a JSON-lines log.
//
// Each executed operation chain and each pre-commit guard evaluation appends
// one Entry. The active file is rotated into zstd-compressed archives once it
// grows past the configured size.
package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/dgerlanc/gitu/internal/constants"
	"github.com/dgerlanc/gitu/internal/logger"
)

// Entry kinds
const (
	KindChain = "chain"
	KindGuard = "guard"
)

// Version is the current entry format.
const Version = 1

// TimestampFormat is the format used for audit log timestamps.
const TimestampFormat = "2006-01-02T15:04:05.0Z07:00"

// lockTimeout bounds how long Log waits for another gitu process.
const lockTimeout = 5 * time.Second

// Entry represents a single audit log entry (v1 format).
type Entry struct {
	Version    int     `json:"version"`
	RunID      string  `json:"run_id"`
	Timestamp  string  `json:"timestamp"`
	DurationMs float64 `json:"duration_ms"`
	Kind       string  `json:"kind"`

	Operation     string   `json:"operation,omitempty"`
	Args          []string `json:"args,omitempty"`
	Mode          string   `json:"mode,omitempty"`
	Invocations   []string `json:"invocations,omitempty"`
	PassThrough   bool     `json:"pass_through,omitempty"`
	ExitCode      int      `json:"exit_code"`
	Succeeded     bool     `json:"succeeded"`
	ExecutedCount int      `json:"executed_count"`

	ScannedLines int         `json:"scanned_lines,omitempty"`
	Violations   []Violation `json:"violations,omitempty"`

	Cwd         string `json:"cwd"`
	ConfigPath  string `json:"config_path,omitempty"`
	ConfigError string `json:"config_error,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Violation is a guard match as recorded in the log. The matched text itself
// is never written.
type Violation struct {
	Pattern string `json:"pattern"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// Options configures Init.
type Options struct {
	// Path of the active log; empty means DefaultLogPath.
	Path    string
	Disable bool
	// MaxSize in bytes before rotation; zero disables rotation.
	MaxSize int64
	// MaxArchives is the number of compressed archives kept.
	MaxArchives int
}

var (
	mu          sync.Mutex
	enabled     bool
	logPath     string
	maxSize     int64
	maxArchives int
)

// DefaultLogPath returns the default audit log path (~/.local/share/gitu/audit.log)
func DefaultLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.XDGDataSubdir, constants.AppName, constants.AuditFileName), nil
}

// Init initializes the audit log.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if opts.Disable {
		enabled = false
		return nil
	}

	path := opts.Path
	if path == "" {
		var err error
		path, err = DefaultLogPath()
		if err != nil {
			logger.Debug("failed to get default audit log path", "error", err)
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirMode); err != nil {
		logger.Debug("failed to create audit log directory", "error", err)
		return err
	}

	// Fail early if the log cannot be written.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FileMode)
	if err != nil {
		logger.Debug("failed to open audit log file", "error", err)
		return err
	}
	f.Close()

	logPath = path
	maxSize = opts.MaxSize
	maxArchives = opts.MaxArchives
	enabled = true
	logger.Debug("audit logging initialized", "path", path)
	return nil
}

// Close stops audit logging.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	enabled = false
	return nil
}

// Log writes an entry to the audit log.
// If audit logging is not initialized or disabled, this is a no-op.
func Log(entry Entry) error {
	mu.Lock()
	defer mu.Unlock()

	if !enabled {
		return nil
	}

	entry.Version = Version
	if entry.RunID == "" {
		entry.RunID = uuid.NewString()
	}
	entry.Timestamp = time.Now().UTC().Format(TimestampFormat)

	data, err := json.Marshal(entry)
	if err != nil {
		logger.Debug("failed to marshal audit entry", "error", err)
		return err
	}

	lock, err := acquire(logPath)
	if err != nil {
		logger.Debug("failed to lock audit log", "error", err)
		return err
	}
	defer lock.Unlock()

	size, err := appendLine(logPath, data)
	if err != nil {
		logger.Debug("failed to write audit entry", "error", err)
		return err
	}

	if maxSize > 0 && size >= maxSize {
		if err := rotate(logPath, maxArchives); err != nil {
			logger.Debug("failed to rotate audit log", "error", err)
			return err
		}
		logger.Trace("audit log rotated", "path", logPath, "archives", maxArchives)
	}
	return nil
}

// IsEnabled returns whether audit logging is enabled.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Path returns the active log path, empty before a successful Init.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Reset resets the audit state. Used for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	enabled = false
	logPath = ""
	maxSize = 0
	maxArchives = 0
}

// ArchiveName returns the path of the n-th compressed archive of path.
func ArchiveName(path string, n int) string {
	return path + "." + strconv.Itoa(n) + ".zst"
}

// ReadEntries returns the entries in path and its archives, oldest first.
// When limit is positive only the newest limit entries are returned. Lines
// that do not decode are skipped.
func ReadEntries(path string, limit int) ([]Entry, error) {
	var entries []Entry

	archives, err := filepath.Glob(path + ".*.zst")
	if err != nil {
		return nil, err
	}
	for n := len(archives); n >= 1; n-- {
		data, err := decompressFile(ArchiveName(path, n))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ArchiveName(path, n), err)
		}
		entries = append(entries, decodeLines(data)...)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		entries = append(entries, decodeLines(data)...)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func decodeLines(data []byte) []Entry {
	var out []Entry
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			logger.Debug("skipping malformed audit line", "error", err)
			continue
		}
		out = append(out, e)
	}
	return out
}

// acquire takes the cross-process lock adjacent to path.
func acquire(path string) (*flock.Flock, error) {
	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return nil, errors.New("timeout waiting for audit log lock")
	}
	return lock, nil
}

// appendLine appends data and a newline to path and returns the new size.
func appendLine(path string, data []byte) (int64, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FileMode)
	if err != nil {
		return 0, err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return 0, err
	}
	return info.Size(), f.Close()
}

// rotate shifts the archives up by one, compresses the active log into
// archive 1 and truncates it. With keep <= 0 the active log is only truncated.
func rotate(path string, keep int) error {
	if keep > 0 {
		if err := os.Remove(ArchiveName(path, keep)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		for i := keep - 1; i >= 1; i-- {
			if err := os.Rename(ArchiveName(path, i), ArchiveName(path, i+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
		if err := compressFile(path, ArchiveName(path, 1)); err != nil {
			return err
		}
	}
	return os.Truncate(path, 0)
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FileMode)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(out)
	if err != nil {
		out.Close()
		return err
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		out.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func decompressFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
