package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/roach88/uismoke/internal/browser"
)

// FakeSite is an in-memory web application implementing browser.Launcher.
//
// Pages are keyed by path. Selectors are matched literally against the keys
// of FakePage.Elements; a comma-separated selector list is the union of its
// parts in order. Clicking an element with an Href navigates there; clicking
// one with Submits calls the page's Submit func with every value filled
// since the last navigation.
type FakeSite struct {
	BaseURL string
	Pages   map[string]*FakePage

	// LaunchErr makes Launch fail.
	LaunchErr error

	mu          sync.Mutex
	launches    int
	closes      int
	pagesOpened int
	pagesClosed int
	visits      []string
	fills       []Fill
	clicks      []string
	screenshots []string
}

// FakePage is one page of a FakeSite.
type FakePage struct {
	Elements map[string][]*FakeElement

	// NavigateErr makes navigation to this page fail.
	NavigateErr error

	// Submit handles a click on a Submits element. It returns the path to
	// land on, or "" to stay.
	Submit func(values map[string]string) string
}

// FakeElement is one DOM node.
type FakeElement struct {
	// Name keys the filled value passed to Submit. Empty uses the selector
	// the element was found by.
	Name    string
	Text    string
	Attrs   map[string]string
	Href    string
	Submits bool
}

// Fill records one Element.Fill call.
type Fill struct {
	Path  string
	Field string
	Value string
}

// NewFakeSite creates an empty site at http://app.test.
func NewFakeSite() *FakeSite {
	return &FakeSite{BaseURL: "http://app.test", Pages: make(map[string]*FakePage)}
}

// Page returns the page at path, creating it.
func (s *FakeSite) Page(path string) *FakePage {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Pages[path]
	if !ok {
		p = &FakePage{Elements: make(map[string][]*FakeElement)}
		s.Pages[path] = p
	}
	return p
}

// Add appends elements under selector.
func (p *FakePage) Add(selector string, els ...*FakeElement) *FakePage {
	if p.Elements == nil {
		p.Elements = make(map[string][]*FakeElement)
	}
	p.Elements[selector] = append(p.Elements[selector], els...)
	return p
}

// Remove drops every element under selector.
func (p *FakePage) Remove(selector string) *FakePage {
	delete(p.Elements, selector)
	return p
}

// Launch implements browser.Launcher.
func (s *FakeSite) Launch(ctx context.Context) (browser.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LaunchErr != nil {
		return nil, s.LaunchErr
	}
	s.launches++
	return &fakeSession{site: s}, nil
}

// Launches returns how many sessions were launched.
func (s *FakeSite) Launches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launches
}

// Closes returns how many sessions were closed.
func (s *FakeSite) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// PagesOpened returns how many pages were opened and closed.
func (s *FakeSite) PagesOpened() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagesOpened, s.pagesClosed
}

// Visits returns every navigated path in order.
func (s *FakeSite) Visits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visits...)
}

// Fills returns every fill in order.
func (s *FakeSite) Fills() []Fill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Fill(nil), s.fills...)
}

// Clicks returns "path selector" for every click in order.
func (s *FakeSite) Clicks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.clicks...)
}

// Screenshots returns every screenshot path in order.
func (s *FakeSite) Screenshots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.screenshots...)
}

type fakeSession struct {
	site *FakeSite
}

func (f *fakeSession) NewPage(ctx context.Context) (browser.Page, error) {
	f.site.mu.Lock()
	defer f.site.mu.Unlock()
	f.site.pagesOpened++
	return &fakeTab{site: f.site, path: "about:blank", values: map[string]string{}}, nil
}

func (f *fakeSession) Close() error {
	f.site.mu.Lock()
	defer f.site.mu.Unlock()
	f.site.closes++
	return nil
}

type fakeTab struct {
	site   *FakeSite
	path   string
	values map[string]string
}

func (t *fakeTab) pathOf(url string) string {
	p := strings.TrimPrefix(url, t.site.BaseURL)
	if p == "" {
		p = "/"
	}
	return p
}

// navigate must be called with site.mu held.
func (t *fakeTab) navigate(url string) error {
	path := t.pathOf(url)
	key, _, _ := strings.Cut(path, "?")
	if page, ok := t.site.Pages[key]; ok && page.NavigateErr != nil {
		return page.NavigateErr
	}
	t.site.visits = append(t.site.visits, path)
	t.path = path
	t.values = map[string]string{}
	return nil
}

func (t *fakeTab) current() *FakePage {
	key, _, _ := strings.Cut(t.path, "?")
	return t.site.Pages[key]
}

func (t *fakeTab) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.site.mu.Lock()
	defer t.site.mu.Unlock()
	return t.navigate(url)
}

func (t *fakeTab) WaitIdle(ctx context.Context) error {
	return ctx.Err()
}

func (t *fakeTab) URL(ctx context.Context) (string, error) {
	t.site.mu.Lock()
	defer t.site.mu.Unlock()
	return t.site.BaseURL + t.path, nil
}

func (t *fakeTab) Query(ctx context.Context, selector string) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.site.mu.Lock()
	defer t.site.mu.Unlock()

	page := t.current()
	if page == nil {
		return nil, nil
	}
	var out []browser.Element
	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		for _, el := range page.Elements[part] {
			out = append(out, &fakeHandle{tab: t, el: el, selector: part})
		}
	}
	return out, nil
}

func (t *fakeTab) Has(ctx context.Context, selector string) (bool, error) {
	els, err := t.Query(ctx, selector)
	return len(els) > 0, err
}

func (t *fakeTab) Screenshot(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte("\x89PNG fake"), 0644); err != nil {
		return err
	}
	t.site.mu.Lock()
	defer t.site.mu.Unlock()
	t.site.screenshots = append(t.site.screenshots, path)
	return nil
}

func (t *fakeTab) Close() error {
	t.site.mu.Lock()
	defer t.site.mu.Unlock()
	t.site.pagesClosed++
	return nil
}

type fakeHandle struct {
	tab      *fakeTab
	el       *FakeElement
	selector string
}

func (h *fakeHandle) field() string {
	if h.el.Name != "" {
		return h.el.Name
	}
	return h.selector
}

func (h *fakeHandle) Text(ctx context.Context) (string, error) {
	return h.el.Text, nil
}

func (h *fakeHandle) Attribute(ctx context.Context, name string) (string, bool, error) {
	if name == "href" && h.el.Href != "" {
		return h.el.Href, true, nil
	}
	v, ok := h.el.Attrs[name]
	return v, ok, nil
}

func (h *fakeHandle) Fill(ctx context.Context, value string) error {
	h.tab.site.mu.Lock()
	defer h.tab.site.mu.Unlock()
	h.tab.values[h.field()] = value
	h.tab.site.fills = append(h.tab.site.fills, Fill{Path: h.tab.path, Field: h.field(), Value: value})
	return nil
}

func (h *fakeHandle) Click(ctx context.Context) error {
	h.tab.site.mu.Lock()
	h.tab.site.clicks = append(h.tab.site.clicks, h.tab.path+" "+h.selector)

	if h.el.Href != "" {
		defer h.tab.site.mu.Unlock()
		return h.tab.navigate(h.el.Href)
	}
	if !h.el.Submits {
		h.tab.site.mu.Unlock()
		return nil
	}

	page := h.tab.current()
	if page == nil || page.Submit == nil {
		h.tab.site.mu.Unlock()
		return errors.New("fake site: submit control has no handler")
	}
	values := make(map[string]string, len(h.tab.values))
	for k, v := range h.tab.values {
		values[k] = v
	}
	h.tab.site.mu.Unlock()

	// Submit may reshape the site, so it runs unlocked.
	next := page.Submit(values)
	if next == "" {
		return nil
	}

	h.tab.site.mu.Lock()
	defer h.tab.site.mu.Unlock()
	if err := h.tab.navigate(next); err != nil {
		return fmt.Errorf("fake site: follow submit: %w", err)
	}
	return nil
}
