package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/catchlottery/internal/format"
	"github.com/pfrederiksen/catchlottery/internal/logger"
	"github.com/pfrederiksen/catchlottery/internal/lottery"
	"github.com/pfrederiksen/catchlottery/internal/report"
	"github.com/pfrederiksen/catchlottery/internal/scraper"
)

// Fetcher retrieves the results page
type Fetcher interface {
	Fetch(ctx context.Context) (scraper.Node, error)
}

// Guard decides whether the saved output already holds the effective day's results
type Guard interface {
	IsCurrent(effective time.Time) (bool, error)
}

// Writer persists the formatted records
type Writer interface {
	Write(lines []string) error
}

// Reporter receives stage failures
type Reporter interface {
	Report(ctx context.Context, f report.Failure) error
}

// Config wires the collaborators of a Runner. Tables, Fetcher, Formatter and Writer are
// required; everything else has a default.
type Config struct {
	Tables    *lottery.Tables
	Fetcher   Fetcher
	Formatter *format.Formatter
	Writer    Writer

	// Guard is consulted before fetching; nil always proceeds
	Guard Guard
	// Reporter receives failures; nil only logs them
	Reporter Reporter

	// ContentSelector restricts extraction to one region of the page
	ContentSelector string
	// Location is the time zone the schedule is evaluated in
	Location *time.Location
	Now      func() time.Time

	Logger  *logger.Logger
	Metrics *logger.Metrics
	RunID   string

	// DryRun stops after extraction without writing the output file
	DryRun bool
}

// Runner executes pipeline runs
type Runner struct {
	cfg Config
}

// Result is the outcome of one run
type Result struct {
	State      State
	Effective  lottery.Effective
	Records    []lottery.DrawRecord
	Lines      []string
	SkipReason string
	Err        *StageError
	Elapsed    time.Duration
}

// ExitCode maps the outcome to the process exit status
func (r *Result) ExitCode() int {
	if r.Err != nil {
		return r.Err.Kind.ExitCode()
	}
	return ExitSuccess
}

// New validates the configuration and creates a Runner
func New(cfg Config) (*Runner, error) {
	if cfg.Tables == nil {
		return nil, errors.New("lottery tables are required")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if cfg.Formatter == nil {
		return nil, errors.New("formatter is required")
	}
	if cfg.Writer == nil && !cfg.DryRun {
		return nil, errors.New("writer is required")
	}
	if cfg.ContentSelector == "" {
		cfg.ContentSelector = scraper.ContentSelector
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = logger.NewMetrics()
	}
	return &Runner{cfg: cfg}, nil
}

// Metrics returns the metrics the runner records into
func (r *Runner) Metrics() *logger.Metrics {
	return r.cfg.Metrics
}

// Run executes the pipeline once
func (r *Runner) Run(ctx context.Context) *Result {
	log := r.cfg.Logger
	start := r.cfg.Now()
	res := &Result{State: StateIdle}

	now := start
	if r.cfg.Location != nil {
		now = start.In(r.cfg.Location)
	}
	res.Effective = lottery.Resolve(now)
	res.State = StateScheduleChecked

	fields := logger.Fields{
		"effective_day":  res.Effective.Day.String(),
		"effective_date": res.Effective.Date.Format("2006-01-02"),
	}

	scheduled, ok := r.cfg.Tables.Scheduled(res.Effective.Day)
	if !ok || len(scheduled) == 0 {
		log.Info("No draws scheduled for the effective day", fields)
		return r.skip(res, start, "no draws scheduled")
	}
	fields["scheduled"] = scheduled
	r.cfg.Metrics.SetGauge("types.scheduled", float64(len(scheduled)))

	if r.cfg.Guard != nil {
		current, err := r.cfg.Guard.IsCurrent(res.Effective.Date)
		if err != nil {
			log.Error("Version check failed, fetching anyway", fields, err)
			r.cfg.Metrics.IncrCounter("guard.errors")
		} else if current {
			log.Info("Saved results are already current", fields)
			return r.skip(res, start, "output already current")
		}
	}

	// Fetch
	res.State = StateFetching
	log.Info("Fetching latest lottery results", fields)
	stageStart := r.cfg.Now()
	doc, err := r.cfg.Fetcher.Fetch(ctx)
	r.cfg.Metrics.RecordTiming("stage.fetch", r.cfg.Now().Sub(stageStart))
	if err != nil {
		return r.fail(ctx, res, start, newStageError(FetchFailure, err))
	}
	res.State = StateFetched

	// Extract
	res.State = StateExtracting
	stageStart = r.cfg.Now()

	region, err := scraper.Region(doc, r.cfg.ContentSelector)
	if err != nil {
		return r.fail(ctx, res, start, newStageError(ExtractFailure, err))
	}

	for _, lt := range scraper.LocateTypes(region, r.cfg.Tables) {
		if !r.cfg.Tables.IsScheduled(res.Effective.Day, lt.Code) {
			r.cfg.Metrics.IncrCounter("types.unscheduled")
			continue
		}

		rec, found, err := scraper.Extract(region, lt)
		if err != nil {
			return r.fail(ctx, res, start, newStageError(ExtractFailure, err))
		}
		if !found {
			log.Debug("No results table for lottery type, skipping", logger.Fields{"type": lt.Code})
			r.cfg.Metrics.IncrCounter("types.missing")
			continue
		}

		line, err := r.cfg.Formatter.Format(rec)
		if err != nil {
			return r.fail(ctx, res, start, newStageError(ExtractFailure, fmt.Errorf("formatting record: %w", err)))
		}

		res.Records = append(res.Records, *rec)
		res.Lines = append(res.Lines, line)
		r.cfg.Metrics.IncrCounter("records.extracted")
		r.cfg.Metrics.AddCounter("numbers.extracted", int64(len(rec.Numbers())))
	}

	r.cfg.Metrics.RecordTiming("stage.extract", r.cfg.Now().Sub(stageStart))
	res.State = StateExtracted

	if len(res.Records) == 0 {
		log.Warn("No lottery results found on the page", fields)
	}

	if r.cfg.DryRun {
		res.Elapsed = r.cfg.Now().Sub(start)
		log.Info("Dry run, output not written", logger.Fields{"records": len(res.Records)})
		return res
	}

	// Persist
	res.State = StatePersisting
	stageStart = r.cfg.Now()
	err = r.cfg.Writer.Write(res.Lines)
	r.cfg.Metrics.RecordTiming("stage.persist", r.cfg.Now().Sub(stageStart))
	if err != nil {
		return r.fail(ctx, res, start, newStageError(PersistFailure, err))
	}

	res.State = StateDone
	res.Elapsed = r.cfg.Now().Sub(start)
	r.cfg.Metrics.AddCounter("records.written", int64(len(res.Lines)))
	log.Info("Lottery results saved", logger.Fields{
		"records": len(res.Records),
		"elapsed": res.Elapsed.String(),
	})

	return res
}

func (r *Runner) skip(res *Result, start time.Time, reason string) *Result {
	res.State = StateSkipped
	res.SkipReason = reason
	res.Elapsed = r.cfg.Now().Sub(start)
	r.cfg.Metrics.IncrCounter("runs.skipped")
	return res
}

func (r *Runner) fail(ctx context.Context, res *Result, start time.Time, serr *StageError) *Result {
	res.State = StateFailed
	res.Err = serr
	res.Elapsed = r.cfg.Now().Sub(start)

	r.cfg.Metrics.IncrCounter("runs.failed." + serr.Kind.String())
	r.cfg.Logger.Error(serr.Title, logger.Fields{
		"stage":    serr.Kind.String(),
		"location": serr.Location,
		"elapsed":  res.Elapsed.String(),
	}, serr.Err)

	if r.cfg.Reporter != nil {
		err := r.cfg.Reporter.Report(ctx, report.Failure{
			Title:    serr.Title,
			Err:      serr.Err,
			Location: serr.Location,
			Start:    start,
			Elapsed:  res.Elapsed,
			RunID:    r.cfg.RunID,
		})
		if err != nil {
			r.cfg.Logger.Error("Failure report incomplete", logger.Fields{"stage": serr.Kind.String()}, err)
		}
	}

	return res
}
