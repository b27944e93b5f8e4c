// Package session holds the single loaded evaluation and its transient view state.
package session

import (
	"fmt"
	"maps"

	"cdim-evaluator/internal/presenter"
)

// UploadStatus is the outcome of the most recent load attempt.
type UploadStatus int

const (
	// StatusIdle - No attempt since start or since the last reset.
	StatusIdle UploadStatus = iota
	// StatusSuccess - The last attempt produced the current session.
	StatusSuccess
	// StatusError - The last attempt was rejected; the user may retry.
	StatusError
)

// String returns the string representation of the status.
func (s UploadStatus) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusSuccess:
		return "SUCCESS"
	case StatusError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Theme is the page colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

type itemKey struct {
	card  presenter.Card
	side  presenter.Side
	index int
}

// ViewState is the per-document UI flags. Values are immutable: every transition
// returns a new ViewState and leaves the receiver untouched. The zero value shows all
// cards front side up, nothing expanded, and every panel open.
type ViewState struct {
	flipped   map[presenter.Card]bool
	expanded  map[itemKey]bool
	collapsed map[presenter.Panel]bool
}

// Flipped reports whether the card shows its gaps side.
func (v ViewState) Flipped(card presenter.Card) bool {
	return v.flipped[card]
}

// Expanded reports whether a truncated item is shown in full.
func (v ViewState) Expanded(card presenter.Card, side presenter.Side, index int) bool {
	return v.expanded[itemKey{card, side, index}]
}

// Collapsed reports whether a recommendations panel is closed.
func (v ViewState) Collapsed(panel presenter.Panel) bool {
	return v.collapsed[panel]
}

// Flip turns a card over.
func (v ViewState) Flip(card presenter.Card) ViewState {
	v.flipped = toggle(v.flipped, card)
	return v
}

// ToggleExpanded shows or truncates one item.
func (v ViewState) ToggleExpanded(card presenter.Card, side presenter.Side, index int) ViewState {
	v.expanded = toggle(v.expanded, itemKey{card, side, index})
	return v
}

// TogglePanel opens or closes a recommendations panel.
func (v ViewState) TogglePanel(panel presenter.Panel) ViewState {
	v.collapsed = toggle(v.collapsed, panel)
	return v
}

// toggle returns a copy of m with key flipped; absent means false.
func toggle[K comparable](m map[K]bool, key K) map[K]bool {
	out := make(map[K]bool, len(m)+1)
	maps.Copy(out, m)
	if out[key] {
		delete(out, key)
	} else {
		out[key] = true
	}
	return out
}
