package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/catchlottery/internal/crypto"
	"github.com/pfrederiksen/catchlottery/internal/lottery"
)

var taipei = time.FixedZone("CST", 8*60*60)

// mondayNight falls inside the announcement window of a Monday draw
var mondayNight = time.Date(2024, 5, 6, 23, 0, 0, 0, taipei)

const fixtureResults = "威力彩|113年5月6日|113000036|1\n" +
	"33,05,17,26,02,11,02,05,11,17,26,33\n04\n" +
	"38樂合彩|113年5月6日|113000036|2\n" +
	"33,05,17,26,02,11,02,05,11,17,26,33\n" +
	"3星彩|113年5月6日|113000107|8\n" +
	"4,0,9\n"

type resultsServer struct {
	*httptest.Server
	hits atomic.Int32
}

// newResultsServer serves the scraper fixture, or status when it is not 200
func newResultsServer(t *testing.T, status int) *resultsServer {
	t.Helper()
	page, err := os.ReadFile(filepath.Join("..", "scraper", "testdata", "results.html"))
	require.NoError(t, err)

	s := &resultsServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}))
	t.Cleanup(s.Close)
	return s
}

// isolate runs the test in an empty working directory with a fixed clock
func isolate(t *testing.T, at time.Time) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	old := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = old })

	return dir
}

type execResult struct {
	code   int
	stdout string
	stderr string
}

func execute(args ...string) execResult {
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	code := ExecuteArgs(context.Background(), cmd, args)
	return execResult{code: code, stdout: out.String(), stderr: errOut.String()}
}

func logFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(dir, "App_Data", "Log"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_WritesResults(t *testing.T) {
	srv := newResultsServer(t, http.StatusOK)
	dir := isolate(t, mondayNight)

	res := execute("--source-url", srv.URL, "--output", "out/lottery.txt")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Saved 3 results for 2024-05-06")
	assert.Contains(t, res.stdout, "威力彩  113000036  113年5月6日: 33 05 17 26 02 11 02 05 11 17 26 33 / 04")
	assert.Contains(t, res.stderr, `"run_id"`)
	assert.Contains(t, res.stderr, "Run metrics")

	data, err := os.ReadFile(filepath.Join(dir, "out", "lottery.txt"))
	require.NoError(t, err)
	assert.Equal(t, fixtureResults, string(data))
	assert.Empty(t, logFiles(t, dir))
}

func TestRun_SkipsWhenCurrent(t *testing.T) {
	srv := newResultsServer(t, http.StatusOK)
	isolate(t, mondayNight)

	first := execute("--source-url", srv.URL)
	require.Equal(t, ExitSuccess, first.code, first.stderr)

	second := execute("--source-url", srv.URL)
	require.Equal(t, ExitSuccess, second.code, second.stderr)
	assert.Contains(t, second.stdout, "Skipped (Monday, 2024-05-06): output already current")
	assert.Equal(t, int32(1), srv.hits.Load())

	third := execute("--source-url", srv.URL, "--no-version-check")
	require.Equal(t, ExitSuccess, third.code, third.stderr)
	assert.Contains(t, third.stdout, "Saved 3 results")
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestRun_CheckDisabledByEnv(t *testing.T) {
	srv := newResultsServer(t, http.StatusOK)
	isolate(t, mondayNight)
	t.Setenv("CATCHLOTTERY_CHECK_LAST_VERSION", "false")

	for i := 0; i < 2; i++ {
		res := execute("--source-url", srv.URL)
		require.Equal(t, ExitSuccess, res.code, res.stderr)
	}
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestRun_NoDrawsScheduled(t *testing.T) {
	srv := newResultsServer(t, http.StatusOK)
	dir := isolate(t, time.Date(2024, 5, 12, 23, 0, 0, 0, taipei))

	res := execute("--source-url", srv.URL)

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Skipped (Sunday, 2024-05-12): no draws scheduled")
	assert.Zero(t, srv.hits.Load())
	assert.NoFileExists(t, filepath.Join(dir, "lottery.txt"))
}

func TestRun_DryRun(t *testing.T) {
	srv := newResultsServer(t, http.StatusOK)
	dir := isolate(t, mondayNight)

	res := execute("--source-url", srv.URL, "--dry-run")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Dry run: 3 results extracted for 2024-05-06, output not written")
	assert.NoFileExists(t, filepath.Join(dir, "lottery.txt"))
}

func TestRun_FetchFailure(t *testing.T) {
	srv := newResultsServer(t, http.StatusServiceUnavailable)
	dir := isolate(t, mondayNight)

	res := execute("--source-url", srv.URL)

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stdout, "Failed after")
	assert.Contains(t, res.stderr, "Reason: Unable to fetch the latest lottery results (step.1)")
	assert.NotContains(t, res.stderr, "Error: exit status")
	assert.Len(t, logFiles(t, dir), 1)
	assert.NoFileExists(t, filepath.Join(dir, "lottery.txt"))
}

func TestRun_FailureNotificationDryRun(t *testing.T) {
	srv := newResultsServer(t, http.StatusServiceUnavailable)
	isolate(t, mondayNight)
	t.Setenv("CATCHLOTTERY_LOG_ENABLED", "false")

	res := execute("--source-url", srv.URL, "--dry-run")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stdout, "--- Notification (dry run) ---")
	assert.Contains(t, res.stdout, "Subject: catchlottery run failed")
}

func TestRun_LogLevel(t *testing.T) {
	srv := newResultsServer(t, http.StatusOK)
	isolate(t, mondayNight)

	t.Setenv("CATCHLOTTERY_LOG_LEVEL", "warn")
	quiet := execute("--source-url", srv.URL, "--dry-run")
	require.Equal(t, ExitSuccess, quiet.code, quiet.stderr)
	assert.NotContains(t, quiet.stderr, "Run metrics")

	verbose := execute("--source-url", srv.URL, "--dry-run", "--verbose")
	require.Equal(t, ExitSuccess, verbose.code, verbose.stderr)
	assert.Contains(t, verbose.stderr, "Starting run")

	t.Setenv("CATCHLOTTERY_LOG_LEVEL", "chatty")
	bad := execute("--source-url", srv.URL)
	assert.Equal(t, ExitUsage, bad.code)
	assert.Contains(t, bad.stderr, "log.level")
}

func TestRun_JSONOutput(t *testing.T) {
	srv := newResultsServer(t, http.StatusOK)
	isolate(t, mondayNight)

	res := execute("--source-url", srv.URL, "--format", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	var out RunOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, "done", out.State)
	assert.Equal(t, "Monday", out.EffectiveDay)
	assert.Equal(t, "2024-05-06", out.EffectiveDate)
	assert.Equal(t, "lottery.txt", out.Output)
	assert.Equal(t, 3, out.RecordCount)
	require.Len(t, out.Records, 3)
	assert.Equal(t, "01", out.Records[0].TypeCode)
	assert.NotEmpty(t, out.RunID)
}

func TestRun_UsageErrors(t *testing.T) {
	isolate(t, mondayNight)

	tests := []struct {
		name string
		args []string
	}{
		{"missing config file", []string{"--config", "missing.yaml"}},
		{"unknown flag", []string{"--bogus"}},
		{"bad format", []string{"--format", "xml"}},
		{"bad tables file", []string{"--tables", "missing-tables.yaml"}},
		{"unexpected argument", []string{"extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(tt.args...)
			assert.Equal(t, ExitUsage, res.code)
			assert.Contains(t, res.stderr, "Error:")
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	dir := isolate(t, mondayNight)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catchlottery.yaml"), []byte("mail:\n  enabled: true\n"), 0644))

	res := execute()

	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, "mail.smtp_host is required")
}

func TestSchedule(t *testing.T) {
	tests := []struct {
		name string
		at   string
		want []string
	}{
		{
			name: "inside announcement window",
			at:   "2024-05-06T22:00:00+08:00",
			want: []string{
				"Effective day: Monday\n",
				"Draw date:     2024-05-06 (113年5月6日)\n",
				"Scheduled:     01, 07, 03, 09, 05, 06\n",
			},
		},
		{
			name: "before the window uses the previous day",
			at:   "2024-05-06T21:59:59+08:00",
			want: []string{
				"Effective day: Sunday\n",
				"Draw date:     2024-05-05 (113年5月5日)\n",
				"Scheduled:     none\n",
			},
		},
		{
			name: "evaluated in the configured time zone",
			at:   "2024-05-07T14:30:00Z",
			want: []string{
				"Effective day: Tuesday\n",
				"Scheduled:     02, 08, 03, 09, 05, 06\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t, mondayNight)
			res := execute("schedule", "--at", tt.at)
			require.Equal(t, ExitSuccess, res.code, res.stderr)
			for _, w := range tt.want {
				assert.Contains(t, res.stdout, w)
			}
		})
	}
}

func TestSchedule_DefaultsToNow(t *testing.T) {
	isolate(t, mondayNight)

	res := execute("schedule", "--format", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	var out ScheduleOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, "Monday", out.EffectiveDay)
	assert.Equal(t, "2024-05-06", out.EffectiveDate)
	assert.Equal(t, "113年5月6日", out.EraDate)
	assert.Equal(t, []string{"01", "07", "03", "09", "05", "06"}, out.Scheduled)
}

func TestSchedule_BadTime(t *testing.T) {
	isolate(t, mondayNight)
	res := execute("schedule", "--at", "yesterday")
	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, "invalid --at")
}

func TestShow(t *testing.T) {
	dir := isolate(t, mondayNight)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lottery.txt"), []byte(fixtureResults), 0644))

	res := execute("show")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "3星彩  113000107  113年5月6日: 4 0 9\n")
	assert.Contains(t, res.stdout, "Total: 3 results")

	res = execute("show", "--format", "json", "--sort", "period")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	var records []lottery.DrawRecord
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &records))
	require.Len(t, records, 3)
	assert.Equal(t, "05", records[0].TypeCode, "newest period first")
	assert.Equal(t, "01", records[1].TypeCode)
	assert.Equal(t, "07", records[2].TypeCode)
	assert.Equal(t, [][]string{{"33", "05", "17", "26", "02", "11", "02", "05", "11", "17", "26", "33"}, {"04"}}, records[1].NumberGroups)
}

func TestShow_Errors(t *testing.T) {
	isolate(t, mondayNight)

	res := execute("show", "--output", "missing.txt")
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "reading results")

	res = execute("show", "--sort", "size")
	assert.Equal(t, ExitUsage, res.code)
}

func TestEncryptSecret(t *testing.T) {
	isolate(t, mondayNight)
	t.Setenv("CATCHLOTTERY_SECRET_KEY", "passphrase")

	res := execute("encrypt-secret", "smtp-password")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	value := bytes.TrimSpace([]byte(res.stdout))
	assert.True(t, crypto.IsEncrypted(string(value)))

	plain, err := crypto.NewEncryptor("passphrase").Decrypt(string(value))
	require.NoError(t, err)
	assert.Equal(t, "smtp-password", plain)
}

func TestEncryptSecret_Errors(t *testing.T) {
	isolate(t, mondayNight)

	res := execute("encrypt-secret", "value")
	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, "secret_key is not configured")

	res = execute("encrypt-secret")
	assert.Equal(t, ExitUsage, res.code)
}

func TestDotEnv(t *testing.T) {
	dir := isolate(t, mondayNight)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CATCHLOTTERY_SECRET_KEY=from-dotenv\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv("CATCHLOTTERY_SECRET_KEY") })

	res := execute("encrypt-secret", "token")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	plain, err := crypto.NewEncryptor("from-dotenv").Decrypt(string(bytes.TrimSpace([]byte(res.stdout))))
	require.NoError(t, err)
	assert.Equal(t, "token", plain)
}
