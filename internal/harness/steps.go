package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/uismoke/internal/browser"
	"github.com/roach88/uismoke/internal/fixture"
	"github.com/roach88/uismoke/internal/report"
)

func stepName(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

// list succeeds when the list page shows rows or its empty-state marker.
func (r *runner) list(ctx context.Context, page browser.Page, step *ListStep) {
	r.runStep(ctx, page, stepName(step.Name, "List view"), func(ctx context.Context) (report.Status, string, error) {
		if err := r.open(ctx, page, step.Path); err != nil {
			return report.StatusFailed, "", fmt.Errorf("open %s: %w", step.Path, err)
		}

		candidates := append(append([]string(nil), step.PopulatedSelectors...), step.EmptySelectors...)
		outcome, _ := browser.Poll(ctx, r.opts.Timeout, func(ctx context.Context) (bool, error) {
			_, found, err := browser.HasAny(ctx, page, candidates)
			return found, err
		})
		if outcome == browser.TimedOut {
			return report.StatusFailed, "", missing("list marker", candidates)
		}

		if sel, found, _ := browser.HasAny(ctx, page, step.PopulatedSelectors); found {
			return report.StatusSuccess, fmt.Sprintf("listing present (%s)", sel), nil
		}
		sel, _, _ := browser.HasAny(ctx, page, step.EmptySelectors)
		return report.StatusSuccess, fmt.Sprintf("empty listing marker present (%s)", sel), nil
	})
}

// create submits the creation form once per fixture record.
func (r *runner) create(ctx context.Context, page browser.Page, step *CreateStep) {
	name := stepName(step.Name, "Create")
	if len(r.opts.Fixtures) == 0 {
		r.record(name, report.StatusSkipped, "no fixture data")
		return
	}

	records := r.opts.Fixtures
	if step.Records > 0 && step.Records < len(records) {
		records = records[:step.Records]
	}
	for _, rec := range records {
		r.runStep(ctx, page, name+" "+rec.Label(step.LabelFields...), func(ctx context.Context) (report.Status, string, error) {
			return r.submitRecord(ctx, page, step, rec)
		})
	}
}

func (r *runner) submitRecord(ctx context.Context, page browser.Page, step *CreateStep, rec fixture.Record) (report.Status, string, error) {
	if err := r.open(ctx, page, step.Path); err != nil {
		return report.StatusFailed, "", fmt.Errorf("open %s: %w", step.Path, err)
	}

	filled, err := r.fill(ctx, page, step.Fields, rec)
	if err != nil {
		return report.StatusFailed, "", err
	}

	submit, ok, err := browser.FindActionControl(ctx, page, step.Submit)
	if err != nil {
		return report.StatusFailed, "", err
	}
	if !ok {
		return report.StatusFailed, "", &MissingElementError{What: "submit control", Tried: step.Submit.String()}
	}
	if err := submit.Click(ctx); err != nil {
		return report.StatusFailed, "", fmt.Errorf("submit form: %w", err)
	}

	listLike := func(current string) bool {
		if onPath(current, step.Path) {
			return false
		}
		for _, marker := range step.ListURLMarkers {
			if onPath(current, marker) {
				return true
			}
		}
		return false
	}
	status, msg := r.classify(ctx, page, listLike, step.SuccessSelectors, step.ErrorSelectors)
	return status, fmt.Sprintf("%s (%d of %d fields filled)", msg, filled, len(step.Fields)), nil
}

// fill types fixture values into the inputs that exist. A binding whose
// input is absent, or whose value is blank, is skipped.
func (r *runner) fill(ctx context.Context, page browser.Page, bindings []FieldBinding, rec fixture.Record) (int, error) {
	filled := 0
	for _, b := range bindings {
		value := b.Value
		if value == "" {
			value = rec.Get(b.Field)
		}
		if strings.TrimSpace(value) == "" {
			continue
		}

		input, _, ok, err := browser.FindFirst(ctx, page, b.Selectors)
		if err != nil {
			return filled, err
		}
		if !ok {
			r.logger.Debug("input absent, skipping field", "field", b.Field)
			continue
		}
		if err := input.Fill(ctx, value); err != nil {
			return filled, fmt.Errorf("fill %s: %w", b.Field, err)
		}
		filled++
	}
	return filled, nil
}

// classify waits for the page to react to a submit. Success is a
// navigation accepted by navigated or a success marker; an error marker is
// a failure carrying the scraped text. Neither within the timeout is
// Unknown.
func (r *runner) classify(ctx context.Context, page browser.Page, navigated func(string) bool, success, failure []string) (report.Status, string) {
	var (
		status report.Status
		msg    string
	)
	outcome, _ := browser.Poll(ctx, r.opts.Timeout, func(ctx context.Context) (bool, error) {
		current, err := page.URL(ctx)
		if err != nil {
			return false, err
		}
		if navigated != nil && navigated(current) {
			status, msg = report.StatusSuccess, "redirected to "+current
			return true, nil
		}
		if sel, found, err := browser.HasAny(ctx, page, success); err != nil {
			return false, err
		} else if found {
			status, msg = report.StatusSuccess, fmt.Sprintf("success marker present (%s)", sel)
			return true, nil
		}
		if text, found := browser.TextOf(ctx, page, failure); found {
			if text == "" {
				text = "error marker present"
			}
			status, msg = report.StatusFailed, "application reported: "+text
			return true, nil
		}
		return false, nil
	})
	if outcome == browser.Ready {
		return status, msg
	}

	current, _ := page.URL(ctx)
	return report.StatusUnknown, fmt.Sprintf("no success or error marker after submit, still on %s", current)
}

// edit opens a record from the list, changes one field and saves.
func (r *runner) edit(ctx context.Context, page browser.Page, step *EditStep) {
	r.runStep(ctx, page, stepName(step.Name, "Edit"), func(ctx context.Context) (report.Status, string, error) {
		if err := r.open(ctx, page, step.ListPath); err != nil {
			return report.StatusFailed, "", fmt.Errorf("open %s: %w", step.ListPath, err)
		}

		var links []browser.Element
		outcome, _ := browser.Poll(ctx, r.opts.Timeout, func(ctx context.Context) (bool, error) {
			for _, sel := range step.LinkSelectors {
				els, err := page.Query(ctx, sel)
				if err != nil {
					return false, err
				}
				if len(els) > 0 {
					links = els
					return true, nil
				}
			}
			return false, nil
		})
		if outcome == browser.TimedOut {
			return report.StatusSkipped, "no records to edit", nil
		}

		target := links[0]
		if step.SkipFirst && len(links) > 1 {
			target = links[1]
		}
		if err := r.follow(ctx, page, target); err != nil {
			return report.StatusFailed, "", fmt.Errorf("open record: %w", err)
		}

		marker := step.EditURLMarker
		if marker == "" {
			marker = DefaultEditURLMarker
		}

		before, err := page.URL(ctx)
		if err != nil {
			return report.StatusFailed, "", err
		}

		// Lists that link straight to the edit form need no second hop.
		if len(step.EditLinkSelectors) > 0 && !onPath(before, marker) {
			editLink, _, ok, err := browser.FindFirst(ctx, page, step.EditLinkSelectors)
			if err != nil {
				return report.StatusFailed, "", err
			}
			if !ok {
				return report.StatusFailed, "", missing("edit link", step.EditLinkSelectors)
			}
			if err := r.follow(ctx, page, editLink); err != nil {
				return report.StatusFailed, "", fmt.Errorf("open edit form: %w", err)
			}
			if before, err = page.URL(ctx); err != nil {
				return report.StatusFailed, "", err
			}
		}

		if m := step.Mutate; m != nil && m.Value != "" {
			input, _, ok, err := browser.FindFirst(ctx, page, m.Selectors)
			if err != nil {
				return report.StatusFailed, "", err
			}
			if !ok {
				return report.StatusFailed, "", missing(m.Field+" input", m.Selectors)
			}
			if err := input.Fill(ctx, m.Value); err != nil {
				return report.StatusFailed, "", fmt.Errorf("fill %s: %w", m.Field, err)
			}
		}

		submit, ok, err := browser.FindActionControl(ctx, page, step.Submit)
		if err != nil {
			return report.StatusFailed, "", err
		}
		if !ok {
			return report.StatusFailed, "", &MissingElementError{What: "save control", Tried: step.Submit.String()}
		}
		if err := submit.Click(ctx); err != nil {
			return report.StatusFailed, "", fmt.Errorf("submit edit form: %w", err)
		}

		// Either a navigation away from the edit form or an in-place success
		// marker counts.
		leftEditForm := func(current string) bool {
			return onPath(before, marker) && !onPath(current, marker)
		}
		status, msg := r.classify(ctx, page, leftEditForm, step.SuccessSelectors, step.ErrorSelectors)
		return status, msg, nil
	})
}

// follow opens a link by its href, or clicks it when it has none.
func (r *runner) follow(ctx context.Context, page browser.Page, el browser.Element) error {
	href, ok, err := el.Attribute(ctx, "href")
	if err != nil {
		return err
	}
	if ok && href != "" && !strings.HasPrefix(href, "#") && !strings.HasPrefix(href, "javascript:") {
		return r.open(ctx, page, href)
	}
	if err := el.Click(ctx); err != nil {
		return err
	}
	if err := page.WaitIdle(ctx); err != nil {
		r.logger.Debug("page did not settle", "error", err)
	}
	return nil
}

// check probes for a domain feature.
func (r *runner) check(ctx context.Context, page browser.Page, c Check) {
	r.runStep(ctx, page, c.Name, func(ctx context.Context) (report.Status, string, error) {
		if c.Path != "" {
			if err := r.open(ctx, page, c.Path); err != nil {
				return report.StatusFailed, "", fmt.Errorf("open %s: %w", c.Path, err)
			}
		}

		var sel string
		outcome, _ := browser.Poll(ctx, r.opts.Timeout, func(ctx context.Context) (bool, error) {
			s, found, err := browser.HasAny(ctx, page, c.Selectors)
			sel = s
			return found, err
		})
		if outcome == browser.Ready {
			return report.StatusSuccess, fmt.Sprintf("found %s", sel), nil
		}
		if c.Mandatory {
			return report.StatusFailed, "", missing(c.Name, c.Selectors)
		}
		return report.StatusSkipped, fmt.Sprintf("optional feature not present: none of %q found", c.Selectors), nil
	})
}
