// Package storefront keeps the third-party options widget's rendered price in
// line with the roller minimum-area pricing rules.
//
// All types in this package expect to be driven from a single eventloop.Loop.
// A Document is re-queried on every read; node identity is never cached
// because the widget re-renders its inputs at arbitrary times.
package storefront

import "strings"

// Input is a snapshot of a form input as rendered at query time.
type Input struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Value   string `json:"value"`
	Checked bool   `json:"checked"`
	Visible bool   `json:"visible"`
}

// IsRadio reports whether the input is a radio button.
func (i Input) IsRadio() bool {
	return strings.EqualFold(i.Type, "radio")
}

// PriceNode is a rendered price element. Original holds the text saved on the
// node before the first override; HasOriginal distinguishes a saved empty
// string from nothing saved.
type PriceNode struct {
	Key         string `json:"key"`
	Text        string `json:"text"`
	Visible     bool   `json:"visible"`
	Original    string `json:"original"`
	HasOriginal bool   `json:"has_original"`
}

// Banner is the minimum-price warning box.
type Banner struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// ChangeKind classifies a document notification.
type ChangeKind int

const (
	// ChangeValue is an input value change (input/change events or value attribute mutations).
	ChangeValue ChangeKind = iota
	// ChangeChecked is a radio selection change.
	ChangeChecked
	// ChangeChildList means inputs were added or removed.
	ChangeChildList
	// ChangePrice means a price node's text was rewritten by someone else.
	ChangePrice
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeValue:
		return "value"
	case ChangeChecked:
		return "checked"
	case ChangeChildList:
		return "childlist"
	case ChangePrice:
		return "price"
	}
	return "unknown"
}

// Change is a notification about a named field.
type Change struct {
	Kind ChangeKind
	Name string
}

// Document is the page as seen by the hook. Implementations must tolerate
// being called for names that no longer exist.
type Document interface {
	// Inputs returns every input currently in the observed subtree.
	Inputs() ([]Input, error)
	// SetInputValue sets the value of the input named name and dispatches input/change.
	SetInputValue(name, value string) error
	// CheckInput checks the radio input with the given name and value.
	CheckInput(name, value string) error
	// SelectedVariant returns the text and value of the product variant selector.
	SelectedVariant() (text, value string, err error)

	// PriceNodes returns every price display element.
	PriceNodes() ([]PriceNode, error)
	// SetPriceText replaces the text of the price node key.
	SetPriceText(key, text string) error
	// SaveOriginal stores text as the node's original price unless one is already stored.
	SaveOriginal(key, text string) error
	// ClearOriginal drops the stored original of key.
	ClearOriginal(key string) error

	// Banner returns the warning box state.
	Banner() (Banner, error)
	// SetBanner replaces the warning box state.
	SetBanner(b Banner) error

	// Subscribe registers fn for change notifications and returns a cancel func.
	Subscribe(fn func(Change)) (unsubscribe func())
}
