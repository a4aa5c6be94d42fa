package harness

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/roach88/uismoke/internal/browser"
	"github.com/roach88/uismoke/internal/report"
)

// authenticate signs the main page in. It is the only step whose failure
// ends the run.
func (r *runner) authenticate(ctx context.Context, page browser.Page) bool {
	creds := r.opts.Credentials
	status := r.runStep(ctx, page, "Login", func(ctx context.Context) (report.Status, string, error) {
		landed, err := r.signIn(ctx, page, creds.Username, creds.Password)
		if err != nil {
			return report.StatusError, "", err
		}
		return report.StatusSuccess, fmt.Sprintf("authenticated as %s, landed on %s", creds.Username, landed), nil
	})
	return status == report.StatusSuccess
}

// signIn fills and submits the login form and waits until the browser has
// left the login path or the application shell is visible. It returns the
// URL it landed on.
func (r *runner) signIn(ctx context.Context, page browser.Page, username, password string) (string, error) {
	login := r.sc.Login
	if err := r.open(ctx, page, login.Path); err != nil {
		return "", fmt.Errorf("open login page: %w", err)
	}

	userInput, _, ok, err := browser.FindFirst(ctx, page, login.UsernameSelectors)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", missing("username input", login.UsernameSelectors)
	}
	passInput, _, ok, err := browser.FindFirst(ctx, page, login.PasswordSelectors)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", missing("password input", login.PasswordSelectors)
	}

	if err := userInput.Fill(ctx, username); err != nil {
		return "", fmt.Errorf("fill username: %w", err)
	}
	if err := passInput.Fill(ctx, password); err != nil {
		return "", fmt.Errorf("fill password: %w", err)
	}

	submit, ok, err := browser.FindActionControl(ctx, page, login.Submit)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &MissingElementError{What: "login submit control", Tried: login.Submit.String()}
	}
	if err := submit.Click(ctx); err != nil {
		return "", fmt.Errorf("submit login form: %w", err)
	}

	var landed string
	outcome, _ := browser.Poll(ctx, r.opts.Timeout, func(ctx context.Context) (bool, error) {
		current, err := page.URL(ctx)
		if err != nil {
			return false, err
		}
		landed = current
		if !onPath(current, login.Path) {
			return true, nil
		}
		_, found, err := browser.HasAny(ctx, page, login.ShellSelectors)
		return found, err
	})
	if outcome == browser.Ready {
		return landed, nil
	}

	if text, found := browser.TextOf(ctx, page, login.ErrorSelectors); found && text != "" {
		return "", fmt.Errorf("%w: %s", ErrAuthRejected, text)
	}
	return "", fmt.Errorf("%w: still on %s", ErrAuthRejected, landed)
}

// onPath reports whether the URL's path contains fragment.
func onPath(rawURL, fragment string) bool {
	if fragment == "" {
		return false
	}
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	return strings.Contains(path, fragment)
}

// accounts signs in once per fixture record in its own page, so every
// account starts from a fresh cookie jar.
func (r *runner) accounts(ctx context.Context) {
	name := stepName(r.sc.Accounts.Name, "Login accounts")
	if len(r.opts.Fixtures) == 0 {
		r.record(name, report.StatusSkipped, "no fixture records")
		return
	}

	for i, rec := range r.opts.Fixtures {
		username := strings.TrimSpace(rec.Get("username"))
		if username == "" {
			r.record(name, report.StatusSkipped, fmt.Sprintf("fixture row %d has no username", i+1))
			continue
		}
		role := rec.Get("role")
		expectFailure := strings.EqualFold(strings.TrimSpace(rec.Get("expect")), "failure")

		test := "Login as " + username
		if role != "" {
			test += " (" + role + ")"
		}

		page, err := r.session.NewPage(ctx)
		if err != nil {
			r.record(test, report.StatusError, fmt.Sprintf("cannot open page: %v", err))
			continue
		}
		r.runStep(ctx, page, test, func(ctx context.Context) (report.Status, string, error) {
			landed, err := r.signIn(ctx, page, username, rec.Get("password"))
			switch {
			case expectFailure && err == nil:
				return report.StatusFailed, fmt.Sprintf("login as %s should have been rejected, landed on %s", username, landed), nil
			case expectFailure && isRejection(err):
				return report.StatusSuccess, fmt.Sprintf("rejected as expected: %v", err), nil
			case err != nil:
				return report.StatusFailed, "", err
			}
			return report.StatusSuccess, fmt.Sprintf("landed on %s", landed), nil
		})
		if err := page.Close(); err != nil {
			r.logger.Debug("page close failed", "error", err)
		}
	}
}
