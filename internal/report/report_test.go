package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/catchlottery/internal/notifier"
)

type fakeNotifier struct {
	msgs []notifier.Message
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, msg notifier.Message) error {
	f.msgs = append(f.msgs, msg)
	return f.err
}

type fakeSink struct {
	failures []Failure
	err      error
}

func (f *fakeSink) Record(fl Failure) error {
	f.failures = append(f.failures, fl)
	return f.err
}

func testFailure() Failure {
	return Failure{
		Title:    "Unable to fetch the latest lottery results (step.1)",
		Err:      errors.New("fetching page: connection refused"),
		Location: "pipeline.go:120",
		Start:    time.Date(2024, 5, 6, 23, 5, 9, 0, time.UTC),
		Elapsed:  2600 * time.Millisecond,
		RunID:    "run-1",
	}
}

func TestFailure_Seconds(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    int64
	}{
		{0, 0},
		{400 * time.Millisecond, 0},
		{500 * time.Millisecond, 1},
		{2600 * time.Millisecond, 3},
		{90 * time.Second, 90},
	}
	for _, tt := range tests {
		f := Failure{Elapsed: tt.elapsed}
		assert.Equal(t, tt.want, f.Seconds(), "elapsed %v", tt.elapsed)
	}
}

func TestReporter_Message(t *testing.T) {
	r := New(WithClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }))

	msg, err := r.Message(testFailure())
	require.NoError(t, err)

	assert.Equal(t, DefaultSubject, msg.Subject)
	assert.Contains(t, msg.HTML, "2024-05-06 23:05:09")
	assert.Contains(t, msg.HTML, "Unable to fetch the latest lottery results (step.1)")
	assert.Contains(t, msg.HTML, "3 seconds")
	assert.Contains(t, msg.HTML, "2025")

	assert.Contains(t, msg.Text, "Started: 2024-05-06 23:05:09")
	assert.Contains(t, msg.Text, "Error: fetching page: connection refused")
}

func TestReporter_MessageEscapesTitle(t *testing.T) {
	r := New()
	f := testFailure()
	f.Title = "<script>alert(1)</script>"

	msg, err := r.Message(f)
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}

func TestReporter_CustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mail.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>{{.Title}} at {{.StartTime}} took {{.Seconds}}s ({{.Year}})</p>"), 0644))

	tmpl, err := LoadTemplate(path)
	require.NoError(t, err)

	r := New(WithTemplate(tmpl), WithSubject("lottery alert"),
		WithClock(func() time.Time { return time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC) }))
	msg, err := r.Message(testFailure())
	require.NoError(t, err)

	assert.Equal(t, "lottery alert", msg.Subject)
	assert.Equal(t, "<p>Unable to fetch the latest lottery results (step.1) at 2024-05-06 23:05:09 took 3s (2024)</p>", msg.HTML)
}

func TestLoadTemplate_Errors(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.html")
	require.NoError(t, os.WriteFile(path, []byte("{{.Title"), 0644))
	_, err = LoadTemplate(path)
	assert.Error(t, err)
}

func TestReporter_Report(t *testing.T) {
	n := &fakeNotifier{}
	sink := &fakeSink{}
	var console bytes.Buffer

	r := New(WithNotifier(n), WithSink(sink), WithConsole(&console))
	require.NoError(t, r.Report(context.Background(), testFailure()))

	assert.Len(t, n.msgs, 1)
	assert.Len(t, sink.failures, 1)
	assert.Contains(t, console.String(), "Reason: Unable to fetch the latest lottery results (step.1)")
	assert.Contains(t, console.String(), "Message: fetching page: connection refused")
}

func TestReporter_ReportContinuesOnErrors(t *testing.T) {
	n := &fakeNotifier{err: errors.New("smtp down")}
	sink := &fakeSink{err: errors.New("disk full")}
	var console bytes.Buffer

	r := New(WithNotifier(n), WithSink(sink), WithConsole(&console))
	err := r.Report(context.Background(), testFailure())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, sink.failures, 1, "sink must run after a notifier failure")
	assert.NotEmpty(t, console.String(), "console must run after other failures")
}

func TestReporter_NoDestinations(t *testing.T) {
	r := New(WithConsole(nil))
	assert.NoError(t, r.Report(context.Background(), testFailure()))
}

func TestFileSink_Record(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	sink := NewFileSink(dir)
	sink.now = func() time.Time { return time.Date(2024, 5, 6, 23, 5, 11, 0, time.Local) }

	require.NoError(t, sink.Record(testFailure()))

	data, err := os.ReadFile(filepath.Join(dir, "20240506230511.txt"))
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "Title: Unable to fetch the latest lottery results (step.1)\n")
	assert.Contains(t, content, "Message: fetching page: connection refused\n")
	assert.Contains(t, content, "Elapsed: 3 seconds\n")
	assert.Contains(t, content, "Location: pipeline.go:120\n")
	assert.Contains(t, content, "Run: run-1\n")
}

func TestFileSink_RecordFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	sink := NewFileSink(filepath.Join(blocker, "log"))
	err := sink.Record(testFailure())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "log directory"))
}
