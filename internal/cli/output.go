package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/catchlottery/internal/lottery"
	"github.com/pfrederiksen/catchlottery/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --format value
func ParseOutputFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if f != FormatText && f != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return f, nil
}

// RunOutput summarizes one pipeline run
type RunOutput struct {
	RunID          string               `json:"run_id"`
	State          string               `json:"state"`
	EffectiveDay   string               `json:"effective_day"`
	EffectiveDate  string               `json:"effective_date"`
	Output         string               `json:"output,omitempty"`
	SkipReason     string               `json:"skip_reason,omitempty"`
	Error          string               `json:"error,omitempty"`
	ElapsedSeconds float64              `json:"elapsed_seconds"`
	RecordCount    int                  `json:"record_count"`
	Records        []lottery.DrawRecord `json:"records,omitempty"`

	state pipeline.State
}

// newRunOutput converts a pipeline result
func newRunOutput(runID, output string, res *pipeline.Result) *RunOutput {
	out := &RunOutput{
		RunID:          runID,
		State:          res.State.String(),
		EffectiveDay:   res.Effective.Day.String(),
		EffectiveDate:  res.Effective.Date.Format("2006-01-02"),
		SkipReason:     res.SkipReason,
		ElapsedSeconds: res.Elapsed.Round(time.Millisecond).Seconds(),
		RecordCount:    len(res.Records),
		Records:        res.Records,
		state:          res.State,
	}
	if res.State == pipeline.StateDone {
		out.Output = output
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// WriteRunOutput writes a run summary in the specified format
func WriteRunOutput(w io.Writer, out *RunOutput, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, out)
	case FormatText:
		return writeRunText(w, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteRecords writes saved records in the specified format
func WriteRecords(w io.Writer, records []lottery.DrawRecord, format OutputFormat) error {
	switch format {
	case FormatJSON:
		if records == nil {
			records = []lottery.DrawRecord{}
		}
		return writeJSON(w, records)
	case FormatText:
		if len(records) == 0 {
			fmt.Fprintln(w, "No saved results.")
			return nil
		}
		for i := range records {
			writeRecord(w, &records[i])
		}
		fmt.Fprintf(w, "\nTotal: %d results\n", len(records))
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}

func writeRunText(w io.Writer, out *RunOutput) error {
	switch out.state {
	case pipeline.StateSkipped:
		fmt.Fprintf(w, "Skipped (%s, %s): %s\n", out.EffectiveDay, out.EffectiveDate, out.SkipReason)
		return nil
	case pipeline.StateFailed:
		fmt.Fprintf(w, "Failed after %.1fs: %s\n", out.ElapsedSeconds, out.Error)
		return nil
	case pipeline.StateExtracted:
		fmt.Fprintf(w, "Dry run: %d results extracted for %s, output not written\n", out.RecordCount, out.EffectiveDate)
	default:
		fmt.Fprintf(w, "Saved %d results for %s to %s in %.1fs\n", out.RecordCount, out.EffectiveDate, out.Output, out.ElapsedSeconds)
	}

	for i := range out.Records {
		writeRecord(w, &out.Records[i])
	}
	return nil
}

// writeRecord prints one record on a single line, number groups separated by a slash
func writeRecord(w io.Writer, rec *lottery.DrawRecord) {
	groups := make([]string, 0, len(rec.NumberGroups))
	for _, g := range rec.NumberGroups {
		if len(g) > 0 {
			groups = append(groups, strings.Join(g, " "))
		}
	}
	fmt.Fprintf(w, "  %s  %s  %s: %s\n", rec.Name, rec.PeriodID, rec.DrawDate, strings.Join(groups, " / "))
}
