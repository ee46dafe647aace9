package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogSink records a failure somewhere durable
type LogSink interface {
	Record(f Failure) error
}

// FileSink writes one text file per failure into a directory, named by the local time
// of the failure: 20060102150405.txt
type FileSink struct {
	dir string
	now func() time.Time
}

// NewFileSink creates a sink writing into dir, created on first use
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir, now: time.Now}
}

// Record writes the failure's title, message, elapsed seconds and location
func (s *FileSink) Record(f Failure) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", f.Title)
	fmt.Fprintf(&b, "Message: %s\n", f.Message())
	fmt.Fprintf(&b, "Elapsed: %d seconds\n", f.Seconds())
	fmt.Fprintf(&b, "Location: %s\n", f.Location)
	if f.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", f.RunID)
	}

	path := filepath.Join(s.dir, s.now().Format("20060102150405")+".txt")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing log file: %w", err)
	}
	return nil
}
