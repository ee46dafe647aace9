package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/catchlottery/internal/format"
	"github.com/pfrederiksen/catchlottery/internal/lottery"
)

// Store handles persistence of the draw results file
type Store struct {
	path      string
	formatter *format.Formatter
}

// New creates a new Store for the given output path
func New(path string, formatter *format.Formatter) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("output path is empty")
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	return &Store{
		path:      path,
		formatter: formatter,
	}, nil
}

// Path returns the output file path
func (s *Store) Path() string {
	return s.path
}

// Write replaces the output file with the given formatted records, in order
func (s *Store) Write(lines []string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := os.WriteFile(s.path, []byte(strings.Join(lines, "")), 0644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	return nil
}

// Load reads the saved records back
func (s *Store) Load() ([]lottery.DrawRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}

	records, err := s.formatter.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}
	return records, nil
}

// Guard decides whether the saved results are already current
type Guard struct {
	Store   *Store
	Enabled bool
}

// IsCurrent reports whether every dated line in the output file carries the draw date of
// the effective day. It is false when the check is disabled, when there is no file, and
// when the file has no dated lines at all.
func (g *Guard) IsCurrent(effective time.Time) (bool, error) {
	if !g.Enabled {
		return false, nil
	}

	data, err := os.ReadFile(g.Store.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading results: %w", err)
	}

	want := lottery.EraDate(effective)
	text := strings.TrimPrefix(string(data), "\ufeff")

	dated := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if !g.Store.formatter.IsInfoLine(line) {
			continue
		}

		fields := g.Store.formatter.InfoFields(line)
		if len(fields) < 2 || fields[1] != want {
			return false, nil
		}
		dated++
	}

	return dated > 0, nil
}
