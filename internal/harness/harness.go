package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/roach88/uismoke/internal/browser"
	"github.com/roach88/uismoke/internal/fixture"
	"github.com/roach88/uismoke/internal/report"
)

// Options configure one scenario run.
type Options struct {
	// Launcher starts the browser. The run owns the session it launches.
	Launcher browser.Launcher

	// BaseURL is prefixed to every scenario path ("http://localhost:3000").
	BaseURL string

	Credentials Credentials

	// Fixtures feed the create and accounts steps. Empty skips them.
	Fixtures []fixture.Record

	// ScreenshotDir receives one PNG per step under a directory named after
	// the scenario. Empty disables screenshots.
	ScreenshotDir string

	// Timeout bounds every wait. Zero uses browser.DefaultTimeout.
	Timeout time.Duration

	// Now stamps results. Nil uses time.Now.
	Now func() time.Time

	Logger *slog.Logger

	// Progress receives one line per result as it is recorded.
	Progress io.Writer

	// OnFinish runs once the session is released, on every path. It
	// typically writes the run report.
	OnFinish func(*Outcome) error
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = browser.DefaultTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Progress == nil {
		o.Progress = io.Discard
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	return o
}

// stepFunc performs one step. A non-nil error becomes the result message;
// its status defaults to Failed when the returned status is empty.
type stepFunc func(ctx context.Context) (report.Status, string, error)

type runner struct {
	sc      *Scenario
	opts    Options
	logger  *slog.Logger
	out     *Outcome
	session browser.Session
	shots   int
}

// Run executes a scenario against a live application.
//
// Steps run strictly in order in one browser session. A failing step is
// recorded and the next step runs; only a failed login stops the run. The
// session is closed and OnFinish called on every path. Run returns an error
// only for infrastructure faults (the browser could not be launched or a
// page could not be opened) and for an OnFinish failure; check failures are
// results, not errors.
func Run(ctx context.Context, sc *Scenario, opts Options) (out *Outcome, err error) {
	if sc == nil {
		return nil, errors.New("scenario is required")
	}
	if opts.Launcher == nil {
		return nil, errors.New("browser launcher is required")
	}
	opts = opts.withDefaults()

	feature := sc.Feature
	if feature == "" {
		feature = sc.Name
	}
	r := &runner{
		sc:     sc,
		opts:   opts,
		logger: opts.Logger.With("scenario", sc.Name),
		out: &Outcome{
			Scenario: sc.Name,
			Reporter: report.NewReporter(feature+" Test Results", opts.Now),
			States:   []State{NotStarted},
		},
	}
	out = r.out

	if opts.OnFinish != nil {
		defer func() {
			if ferr := opts.OnFinish(out); ferr != nil && err == nil {
				err = fmt.Errorf("finish scenario %s: %w", sc.Name, ferr)
			}
		}()
	}
	defer r.transition(Finished)

	r.transition(Authenticating)

	session, err := opts.Launcher.Launch(ctx)
	if err != nil {
		r.record("Login", report.StatusError, fmt.Sprintf("cannot launch browser: %v", err))
		r.transition(AuthFailed)
		return out, fmt.Errorf("launch browser: %w", err)
	}
	r.session = session
	defer func() {
		if cerr := session.Close(); cerr != nil {
			r.logger.Warn("browser close failed", "error", cerr)
		}
	}()

	page, err := session.NewPage(ctx)
	if err != nil {
		r.record("Login", report.StatusError, fmt.Sprintf("cannot open page: %v", err))
		r.transition(AuthFailed)
		return out, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if ok := r.authenticate(ctx, page); !ok {
		r.transition(AuthFailed)
		return out, nil
	}
	r.transition(Authenticated)

	if sc.Accounts != nil {
		r.accounts(ctx)
	}
	if sc.List != nil {
		r.list(ctx, page, sc.List)
	}
	if sc.Create != nil {
		r.create(ctx, page, sc.Create)
	}
	if sc.Edit != nil {
		r.edit(ctx, page, sc.Edit)
	}
	for _, c := range sc.Checks {
		r.check(ctx, page, c)
	}
	return out, nil
}

func (r *runner) transition(s State) {
	r.logger.Debug("state", "from", r.out.State(), "to", s)
	r.out.States = append(r.out.States, s)
}

// runStep executes fn with panic recovery, records its result and takes a
// screenshot.
func (r *runner) runStep(ctx context.Context, page browser.Page, test string, fn stepFunc) report.Status {
	status, msg := r.safely(ctx, test, fn)
	r.record(test, status, msg)
	r.screenshot(ctx, page, test)
	return status
}

func (r *runner) safely(ctx context.Context, test string, fn stepFunc) (status report.Status, msg string) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("step panicked", "test", test, "panic", p)
			status, msg = report.StatusError, fmt.Sprintf("step panicked: %v", p)
		}
	}()

	status, msg, err := fn(ctx)
	if err != nil {
		if status == "" {
			status = report.StatusFailed
		}
		return status, err.Error()
	}
	if status == "" {
		status = report.StatusUnknown
	}
	return status, msg
}

func (r *runner) record(test string, status report.Status, msg string) {
	res := r.out.Reporter.Record(r.feature(), test, status, msg)
	fmt.Fprintf(r.opts.Progress, "%s %s / %s: %s - %s\n", mark(status), res.Feature, test, status, msg)
	r.logger.Debug("result", "test", test, "status", status, "message", msg)
}

func (r *runner) feature() string {
	if r.sc.Feature != "" {
		return r.sc.Feature
	}
	return r.sc.Name
}

func mark(s report.Status) string {
	switch s {
	case report.StatusSuccess:
		return "✓"
	case report.StatusFailed, report.StatusError:
		return "✗"
	case report.StatusSkipped:
		return "-"
	default:
		return "?"
	}
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	s = slugUnsafe.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "step"
	}
	return s
}

// screenshot failures are logged only; a missing picture never fails a step.
func (r *runner) screenshot(ctx context.Context, page browser.Page, test string) {
	if r.opts.ScreenshotDir == "" || page == nil {
		return
	}
	r.shots++
	path := filepath.Join(r.opts.ScreenshotDir, slug(r.sc.Name), fmt.Sprintf("%02d-%s.png", r.shots, slug(test)))
	if err := page.Screenshot(ctx, path); err != nil {
		r.logger.Warn("screenshot failed", "test", test, "error", err)
		return
	}
	r.out.Screenshots = append(r.out.Screenshots, path)
}

// url resolves an application path or href against the base URL.
func (r *runner) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return r.opts.BaseURL + path
}

// open navigates and lets the page settle. An idle wait that expires is
// not fatal: long-polling pages never go idle.
func (r *runner) open(ctx context.Context, page browser.Page, path string) error {
	if err := page.Navigate(ctx, r.url(path)); err != nil {
		return err
	}
	if err := page.WaitIdle(ctx); err != nil {
		r.logger.Debug("page did not settle", "path", path, "error", err)
	}
	return nil
}
