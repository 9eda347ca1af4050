package csvexport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spachava753/smscview/sms"
)

const (
	// Header is the first line of every export.
	Header = "type,id,address,smsc,date,body"
	// DateLayout formats record timestamps.
	DateLayout = "2006-01-02 15:04:05"
	// DefaultFilename is offered when the caller has no name of its own.
	DefaultFilename = "sms_export.csv"

	recordType = "sms"
)

// ErrInvalidFilename is wrapped by results with StatusInvalidPath.
var ErrInvalidFilename = errors.New("csvexport: invalid filename")

// Status classifies the outcome of [Exporter.Export].
type Status string

const (
	// StatusOK indicates the whole file was written.
	StatusOK Status = "ok"
	// StatusInvalidPath indicates the filename was rejected.
	StatusInvalidPath Status = "invalid_path"
	// StatusIOError indicates creating or writing the file failed.
	StatusIOError Status = "io_error"
)

// Result reports one export attempt. Path is set whenever the filename was
// valid, so callers can name the location even on failure.
type Result struct {
	Status Status
	Path   string
	Err    error
}

// OK reports whether the export succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Exporter writes CSV files into Dir.
type Exporter struct {
	Dir string
	// Location formats dates; nil means time.Local.
	Location *time.Location
}

// DefaultDir returns $HOME/Downloads.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("csvexport: unable to resolve home directory: %w", err)
	}
	return filepath.Join(home, "Downloads"), nil
}

// Export writes records to Dir/filename.
func (e Exporter) Export(records []sms.Record, filename string) Result {
	if err := validateFilename(filename); err != nil {
		return Result{Status: StatusInvalidPath, Err: err}
	}

	path := filepath.Join(e.Dir, filename)
	if err := e.writeAtomic(path, records); err != nil {
		return Result{Status: StatusIOError, Path: path, Err: err}
	}
	return Result{Status: StatusOK, Path: path}
}

func (e Exporter) writeAtomic(path string, records []sms.Record) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("csvexport: creating %s failed: %w", dir, err)
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%s", filepath.Base(path), uuid.NewString()))
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("csvexport: creating temp file failed: %w", err)
	}
	defer func() {
		if file != nil {
			_ = file.Close()
		}
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	buffered := bufio.NewWriter(file)
	if err = Write(buffered, records, e.Location); err != nil {
		return err
	}
	if err = buffered.Flush(); err != nil {
		return fmt.Errorf("csvexport: flushing %s failed: %w", tmpPath, err)
	}
	if err = file.Sync(); err != nil {
		return fmt.Errorf("csvexport: syncing %s failed: %w", tmpPath, err)
	}
	closeErr := file.Close()
	file = nil
	if closeErr != nil {
		err = fmt.Errorf("csvexport: closing %s failed: %w", tmpPath, closeErr)
		return err
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("csvexport: renaming into %s failed: %w", path, err)
	}
	return nil
}

// Write serializes records as CSV to w. A nil loc means time.Local.
func Write(w io.Writer, records []sms.Record, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	if _, err := io.WriteString(w, Header+"\n"); err != nil {
		return fmt.Errorf("csvexport: writing header failed: %w", err)
	}
	for _, record := range records {
		if _, err := io.WriteString(w, formatRow(record, loc)); err != nil {
			return fmt.Errorf("csvexport: writing record %d failed: %w", record.ID, err)
		}
	}
	return nil
}

func formatRow(record sms.Record, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(recordType)
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(record.ID, 10))
	b.WriteByte(',')
	b.WriteString(quote(record.Address))
	b.WriteByte(',')
	b.WriteString(quote(record.ServiceCenter))
	b.WriteByte(',')
	b.WriteString(record.Time().In(loc).Format(DateLayout))
	b.WriteByte(',')
	b.WriteString(quote(record.Body))
	b.WriteByte('\n')
	return b.String()
}

func quote(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func validateFilename(filename string) error {
	switch {
	case strings.TrimSpace(filename) == "":
		return fmt.Errorf("%w: empty", ErrInvalidFilename)
	case filename == "." || filename == "..":
		return fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	case filepath.IsAbs(filename), strings.ContainsAny(filename, `/\`), strings.ContainsRune(filename, 0):
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidFilename, filename)
	}
	return nil
}
