// Package browser abstracts the automated browser a scenario runner drives.
//
// The harness only depends on the Launcher, Session, Page and Element
// interfaces. RodLauncher implements them on top of a real Chromium via
// go-rod; tests use the fake site in internal/testutil.
//
// Every call that waits on the browser is bounded by a timeout. Expiry is
// returned as an error to the caller, which records it as a step failure.
package browser

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds every navigation and element wait.
const DefaultTimeout = 10 * time.Second

// ErrTimeout is returned (wrapped) when a bounded wait expires.
var ErrTimeout = errors.New("timed out")

// Launcher starts browser processes.
type Launcher interface {
	// Launch starts one browser process owned by the caller.
	Launch(ctx context.Context) (Session, error)
}

// Session is one browser process. It must be closed on every exit path.
type Session interface {
	// NewPage opens a page for one logical user. Pages do not share cookies,
	// so two pages can be logged in as different accounts.
	NewPage(ctx context.Context) (Page, error)

	// Close releases the browser process.
	Close() error
}

// Page is a single tab.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// WaitIdle waits until the page has no pending network activity.
	WaitIdle(ctx context.Context) error

	// URL returns the current location.
	URL(ctx context.Context) (string, error)

	// Query returns every element matching selector. No match is not an error.
	Query(ctx context.Context, selector string) ([]Element, error)

	// Has reports whether selector matches at least one element.
	Has(ctx context.Context, selector string) (bool, error)

	// Screenshot writes a full-page PNG to path, creating directories.
	Screenshot(ctx context.Context, path string) error

	// Close discards the page and its cookies.
	Close() error
}

// Element is a DOM node handle.
type Element interface {
	// Text returns the visible text.
	Text(ctx context.Context) (string, error)

	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)

	// Fill replaces the value of an input, textarea or select.
	Fill(ctx context.Context, value string) error

	// Click clicks the element with the primary button.
	Click(ctx context.Context) error
}
