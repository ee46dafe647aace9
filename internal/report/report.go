package report

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"math"
	"os"
	"time"

	"github.com/pfrederiksen/catchlottery/internal/notifier"
)

//go:embed templates/failure.html
var templateFS embed.FS

// DefaultSubject is the notification subject used when none is configured
const DefaultSubject = "catchlottery run failed"

// Failure describes one failed pipeline run
type Failure struct {
	Title    string
	Err      error
	Location string // file:line of the failing call
	Start    time.Time
	Elapsed  time.Duration
	RunID    string
}

// Seconds returns the elapsed time rounded to whole seconds
func (f Failure) Seconds() int64 {
	return int64(math.Round(f.Elapsed.Seconds()))
}

// Message returns the error text, or an empty string when there is no error
func (f Failure) Message() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// templateData is what the notification template renders
type templateData struct {
	StartTime string
	Title     string
	Seconds   int64
	Year      int
}

// DefaultTemplate returns the built-in notification template
func DefaultTemplate() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/failure.html"))
}

// LoadTemplate parses a notification template file. The template receives StartTime,
// Title, Seconds and Year.
func LoadTemplate(path string) (*template.Template, error) {
	t, err := template.ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("parsing notification template: %w", err)
	}
	return t, nil
}

// Reporter delivers failures to a notifier, a log sink and the console. Each destination
// is optional.
type Reporter struct {
	notifier notifier.Notifier
	sink     LogSink
	console  io.Writer
	tmpl     *template.Template
	subject  string
	now      func() time.Time
}

// Option configures a Reporter
type Option func(*Reporter)

// WithNotifier sets the notification channel
func WithNotifier(n notifier.Notifier) Option {
	return func(r *Reporter) { r.notifier = n }
}

// WithSink sets the log sink
func WithSink(s LogSink) Option {
	return func(r *Reporter) { r.sink = s }
}

// WithConsole sets where the console message goes (stderr by default, nil to disable)
func WithConsole(w io.Writer) Option {
	return func(r *Reporter) { r.console = w }
}

// WithTemplate replaces the notification template
func WithTemplate(t *template.Template) Option {
	return func(r *Reporter) {
		if t != nil {
			r.tmpl = t
		}
	}
}

// WithSubject sets the notification subject
func WithSubject(s string) Option {
	return func(r *Reporter) {
		if s != "" {
			r.subject = s
		}
	}
}

// WithClock replaces the clock used for the copyright year
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

// New creates a Reporter
func New(opts ...Option) *Reporter {
	r := &Reporter{
		console: os.Stderr,
		tmpl:    DefaultTemplate(),
		subject: DefaultSubject,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report delivers a failure to every configured destination. A destination that fails
// does not stop the others; their errors are joined in the result.
func (r *Reporter) Report(ctx context.Context, f Failure) error {
	var errs []error

	if r.notifier != nil {
		msg, err := r.Message(f)
		if err != nil {
			errs = append(errs, err)
		} else if err := r.notifier.Notify(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("sending notification: %w", err))
		}
	}

	if r.sink != nil {
		if err := r.sink.Record(f); err != nil {
			errs = append(errs, fmt.Errorf("writing log record: %w", err))
		}
	}

	if r.console != nil {
		fmt.Fprintf(r.console, "An error occurred while running catchlottery!\nReason: %s\nMessage: %s\n\n",
			f.Title, f.Message())
	}

	return errors.Join(errs...)
}

// Message renders the notification for a failure
func (r *Reporter) Message(f Failure) (notifier.Message, error) {
	data := templateData{
		StartTime: f.Start.Format("2006-01-02 15:04:05"),
		Title:     f.Title,
		Seconds:   f.Seconds(),
		Year:      r.now().Year(),
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return notifier.Message{}, fmt.Errorf("rendering notification: %w", err)
	}

	text := fmt.Sprintf("%s\nStarted: %s\nElapsed: %d seconds", f.Title, data.StartTime, data.Seconds)
	if msg := f.Message(); msg != "" {
		text += "\nError: " + msg
	}

	return notifier.Message{
		Subject: r.subject,
		Text:    text,
		HTML:    buf.String(),
	}, nil
}
