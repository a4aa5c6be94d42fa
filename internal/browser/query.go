package browser

import (
	"context"
	"fmt"
	"strings"
)

// ActionCandidates matches controls that can trigger an action. It is the
// search space for text-based intents.
const ActionCandidates = "button, input[type=submit], input[type=button], [role=button], a"

// Intent describes an action control by capability rather than by a single
// selector: any of the attribute selectors, or any action-like control whose
// text contains one of the fragments (case-insensitive).
type Intent struct {
	TextContains []string `yaml:"text_contains,omitempty"`
	Selectors    []string `yaml:"selectors,omitempty"`
}

// Empty reports whether the intent cannot match anything.
func (i Intent) Empty() bool {
	return len(i.TextContains) == 0 && len(i.Selectors) == 0
}

// String describes the intent for result messages.
func (i Intent) String() string {
	var parts []string
	if len(i.Selectors) > 0 {
		parts = append(parts, fmt.Sprintf("selectors %q", i.Selectors))
	}
	if len(i.TextContains) > 0 {
		parts = append(parts, fmt.Sprintf("text containing %q", i.TextContains))
	}
	if len(parts) == 0 {
		return "empty intent"
	}
	return strings.Join(parts, " or ")
}

// FindActionControl resolves an intent on the current page. Attribute
// selectors win over text matches. The boolean is false when nothing
// matches; err is only set when the page itself could not be queried.
func FindActionControl(ctx context.Context, page Page, intent Intent) (Element, bool, error) {
	el, _, ok, err := FindFirst(ctx, page, intent.Selectors)
	if err != nil || ok {
		return el, ok, err
	}
	if len(intent.TextContains) == 0 {
		return nil, false, nil
	}

	candidates, err := page.Query(ctx, ActionCandidates)
	if err != nil {
		return nil, false, fmt.Errorf("query action controls: %w", err)
	}
	for _, c := range candidates {
		label := controlLabel(ctx, c)
		if label == "" {
			continue
		}
		for _, fragment := range intent.TextContains {
			if strings.Contains(strings.ToLower(label), strings.ToLower(fragment)) {
				return c, true, nil
			}
		}
	}
	return nil, false, nil
}

// controlLabel is the visible text of a control, or its value attribute for
// inputs that carry their label there.
func controlLabel(ctx context.Context, el Element) string {
	text, err := el.Text(ctx)
	if err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	if v, ok, err := el.Attribute(ctx, "value"); err == nil && ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// FindFirst returns the first element matched by the first selector that
// matches anything, together with that selector.
func FindFirst(ctx context.Context, page Page, selectors []string) (Element, string, bool, error) {
	for _, sel := range selectors {
		els, err := page.Query(ctx, sel)
		if err != nil {
			return nil, "", false, fmt.Errorf("query %q: %w", sel, err)
		}
		if len(els) > 0 {
			return els[0], sel, true, nil
		}
	}
	return nil, "", false, nil
}

// HasAny reports the first selector that matches at least one element.
func HasAny(ctx context.Context, page Page, selectors []string) (string, bool, error) {
	for _, sel := range selectors {
		ok, err := page.Has(ctx, sel)
		if err != nil {
			return "", false, fmt.Errorf("query %q: %w", sel, err)
		}
		if ok {
			return sel, true, nil
		}
	}
	return "", false, nil
}

// TextOf returns the trimmed text of the first element matched by selectors.
func TextOf(ctx context.Context, page Page, selectors []string) (string, bool) {
	el, _, ok, err := FindFirst(ctx, page, selectors)
	if err != nil || !ok {
		return "", false
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", true
	}
	return strings.TrimSpace(text), true
}
