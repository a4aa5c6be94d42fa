package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/rod/lib/utils"
)

// RodOptions configures RodLauncher.
type RodOptions struct {
	// Headless runs the browser without a window.
	Headless bool

	// Bin is the browser binary. Empty lets rod find or download one.
	Bin string

	// SlowMotion delays every input action, for watching a run.
	SlowMotion time.Duration

	// Timeout bounds every navigation and element wait.
	Timeout time.Duration

	Logger *slog.Logger
}

// RodLauncher launches Chromium through go-rod.
type RodLauncher struct {
	opts RodOptions
}

// NewRodLauncher creates a launcher. A zero Timeout uses DefaultTimeout.
func NewRodLauncher(opts RodOptions) *RodLauncher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &RodLauncher{opts: opts}
}

// Launch starts a browser process and connects to it.
func (l *RodLauncher) Launch(ctx context.Context) (Session, error) {
	lc := launcher.New().Context(ctx).Headless(l.opts.Headless)
	if l.opts.Bin != "" {
		lc = lc.Bin(l.opts.Bin)
	}

	controlURL, err := lc.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).SlowMotion(l.opts.SlowMotion)
	if err := b.Connect(); err != nil {
		lc.Kill()
		lc.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	l.opts.Logger.Debug("browser launched", "pid", lc.PID(), "headless", l.opts.Headless)
	return &rodSession{browser: b, launcher: lc, timeout: l.opts.Timeout, logger: l.opts.Logger}, nil
}

type rodSession struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
	logger   *slog.Logger
}

func (s *rodSession) NewPage(ctx context.Context) (Page, error) {
	incognito, err := s.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("open browser context: %w", err)
	}
	p, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	return &rodPage{page: p, timeout: s.timeout}, nil
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	s.logger.Debug("browser closed")
	return err
}

type rodPage struct {
	page    *rod.Page
	timeout time.Duration
}

// bounded returns a page handle that honours ctx and the per-call timeout.
// done releases the timeout's timer and must be called once the call ends.
func (p *rodPage) bounded(ctx context.Context) (page *rod.Page, done func()) {
	page = p.page.Context(ctx).Timeout(p.timeout)
	return page, func() { page.CancelTimeout() }
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page, done := p.bounded(ctx)
	defer done()
	if err := page.Navigate(url); err != nil {
		return wrapTimeout(fmt.Sprintf("navigate to %s", url), err)
	}
	if err := page.WaitLoad(); err != nil {
		return wrapTimeout(fmt.Sprintf("load %s", url), err)
	}
	return nil
}

func (p *rodPage) WaitIdle(ctx context.Context) error {
	page, done := p.bounded(ctx)
	defer done()
	if err := page.WaitIdle(p.timeout); err != nil {
		return wrapTimeout("wait for idle", err)
	}
	return nil
}

func (p *rodPage) URL(ctx context.Context) (string, error) {
	page, done := p.bounded(ctx)
	defer done()
	info, err := page.Info()
	if err != nil {
		return "", wrapTimeout("read page info", err)
	}
	return info.URL, nil
}

func (p *rodPage) Query(ctx context.Context, selector string) ([]Element, error) {
	page, done := p.bounded(ctx)
	defer done()
	els, err := page.Elements(selector)
	if err != nil {
		return nil, wrapTimeout(fmt.Sprintf("query %q", selector), err)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el, timeout: p.timeout})
	}
	return out, nil
}

func (p *rodPage) Has(ctx context.Context, selector string) (bool, error) {
	page, done := p.bounded(ctx)
	defer done()
	has, _, err := page.Has(selector)
	if err != nil {
		return false, wrapTimeout(fmt.Sprintf("query %q", selector), err)
	}
	return has, nil
}

func (p *rodPage) Screenshot(ctx context.Context, path string) error {
	page, done := p.bounded(ctx)
	defer done()
	data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return wrapTimeout("capture screenshot", err)
	}
	return utils.OutputFile(path, data)
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

type rodElement struct {
	el      *rod.Element
	timeout time.Duration
}

func (e *rodElement) bounded(ctx context.Context) (el *rod.Element, done func()) {
	el = e.el.Context(ctx).Timeout(e.timeout)
	return el, func() { el.CancelTimeout() }
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	el, done := e.bounded(ctx)
	defer done()
	text, err := el.Text()
	if err != nil {
		return "", wrapTimeout("read text", err)
	}
	return text, nil
}

func (e *rodElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	el, done := e.bounded(ctx)
	defer done()
	v, err := el.Attribute(name)
	if err != nil {
		return "", false, wrapTimeout(fmt.Sprintf("read attribute %q", name), err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *rodElement) Fill(ctx context.Context, value string) error {
	el, done := e.bounded(ctx)
	defer done()

	tag, err := el.Eval(`() => this.tagName`)
	if err != nil {
		return wrapTimeout("inspect element", err)
	}
	if tag.Value.Str() == "SELECT" {
		if err := el.Select([]string{value}, true, rod.SelectorTypeText); err != nil {
			return wrapTimeout(fmt.Sprintf("select %q", value), err)
		}
		return nil
	}

	if err := el.SelectAllText(); err != nil {
		return wrapTimeout("clear input", err)
	}
	if err := el.Input(value); err != nil {
		return wrapTimeout("type into input", err)
	}
	return nil
}

func (e *rodElement) Click(ctx context.Context) error {
	el, done := e.bounded(ctx)
	defer done()
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return wrapTimeout("click", err)
	}
	return nil
}

// wrapTimeout marks deadline expiry with ErrTimeout so callers can tell a
// slow page from a broken one.
func wrapTimeout(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
