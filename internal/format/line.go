package format

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pfrederiksen/catchlottery/internal/lottery"
)

// newlineMarker stands in for a line break while a record is being assembled
const newlineMarker = "##NEWLINE_MARKER##"

// Default delimiters
const (
	DefaultInfoDelimiter   = "|"
	DefaultNumberDelimiter = ","
)

// Formatter converts draw records to and from their text form
type Formatter struct {
	infoDelim   string
	numberDelim string
}

// New creates a Formatter. The delimiters must be non-empty, not contain one another and
// not contain line breaks, so that number lines never look like info lines.
func New(infoDelim, numberDelim string) (*Formatter, error) {
	if infoDelim == "" || numberDelim == "" {
		return nil, fmt.Errorf("delimiters must not be empty")
	}
	if infoDelim == numberDelim {
		return nil, fmt.Errorf("info and number delimiters must differ (both %q)", infoDelim)
	}
	if strings.Contains(numberDelim, infoDelim) || strings.Contains(infoDelim, numberDelim) {
		return nil, fmt.Errorf("info delimiter %q and number delimiter %q must not contain one another", infoDelim, numberDelim)
	}
	if strings.ContainsAny(infoDelim+numberDelim, "\r\n") {
		return nil, fmt.Errorf("delimiters must not contain line breaks")
	}
	return &Formatter{infoDelim: infoDelim, numberDelim: numberDelim}, nil
}

// Format renders a record: the info line followed by one line per number group, each
// line terminated by a line break.
func (f *Formatter) Format(rec *lottery.DrawRecord) (string, error) {
	if len(rec.NumberGroups) == 0 || len(rec.NumberGroups[0]) == 0 {
		return "", fmt.Errorf("lottery type %s has no winning numbers", rec.TypeCode)
	}

	var buf bytes.Buffer

	for _, v := range []string{rec.Name, rec.DrawDate, rec.PeriodID, strconv.Itoa(rec.SortRank)} {
		if err := checkField(v, f.infoDelim); err != nil {
			return "", fmt.Errorf("lottery type %s: %w", rec.TypeCode, err)
		}
		buf.WriteString(v)
		buf.WriteString(f.infoDelim)
	}
	breakLine(&buf, f.infoDelim)

	for _, group := range rec.NumberGroups {
		if len(group) == 0 {
			continue
		}
		for _, n := range group {
			// a number holding the info delimiter would read back as an info line
			if err := checkField(n, f.numberDelim, f.infoDelim); err != nil {
				return "", fmt.Errorf("lottery type %s: %w", rec.TypeCode, err)
			}
			buf.WriteString(n)
			buf.WriteString(f.numberDelim)
		}
		breakLine(&buf, f.numberDelim)
	}

	return strings.ReplaceAll(buf.String(), newlineMarker, "\n"), nil
}

// breakLine drops the delimiter left after the last value and ends the line
func breakLine(buf *bytes.Buffer, delim string) {
	if bytes.HasSuffix(buf.Bytes(), []byte(delim)) {
		buf.Truncate(buf.Len() - len(delim))
	}
	buf.WriteString(newlineMarker)
}

// checkField rejects values that would not read back unchanged: empty values, which
// splitting drops, and values holding one of delims or a line break
func checkField(v string, delims ...string) error {
	if v == "" {
		return fmt.Errorf("empty value")
	}
	for _, d := range delims {
		if strings.Contains(v, d) {
			return fmt.Errorf("value %q contains delimiter %q", v, d)
		}
	}
	if strings.ContainsAny(v, "\r\n") || strings.Contains(v, newlineMarker) {
		return fmt.Errorf("value %q contains a line break", v)
	}
	return nil
}

// IsInfoLine reports whether a line is the info line of a record
func (f *Formatter) IsInfoLine(line string) bool {
	return strings.Contains(line, f.infoDelim)
}

// InfoFields splits an info line on the info delimiter, dropping empty pieces
func (f *Formatter) InfoFields(line string) []string {
	return splitNonEmpty(line, f.infoDelim)
}

// Parse reads records back from formatted text. Blank lines are ignored.
func (f *Formatter) Parse(text string) ([]lottery.DrawRecord, error) {
	text = strings.TrimPrefix(text, "\ufeff")

	var records []lottery.DrawRecord
	var current *lottery.DrawRecord

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if f.IsInfoLine(line) {
			if current != nil {
				records = append(records, *current)
			}
			rec, err := f.parseInfo(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			current = rec
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("line %d: numbers before any info line", i+1)
		}
		current.NumberGroups = append(current.NumberGroups, splitNonEmpty(line, f.numberDelim))
	}

	if current != nil {
		records = append(records, *current)
	}

	for _, rec := range records {
		if len(rec.NumberGroups) == 0 {
			return nil, fmt.Errorf("record %q has no numbers", rec.Name)
		}
	}

	return records, nil
}

func (f *Formatter) parseInfo(line string) (*lottery.DrawRecord, error) {
	fields := f.InfoFields(line)
	if len(fields) != 4 {
		return nil, fmt.Errorf("info line has %d fields, want 4", len(fields))
	}
	rank, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("parsing sort rank %q: %w", fields[3], err)
	}
	return &lottery.DrawRecord{
		Name:     fields[0],
		DrawDate: fields[1],
		PeriodID: fields[2],
		SortRank: rank,
	}, nil
}

func splitNonEmpty(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
