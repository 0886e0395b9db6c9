package storefront

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryDocument is an in-process Document. Mutators emit change
// notifications synchronously to subscribers, the same way DOM events fire.
type MemoryDocument struct {
	mu       sync.Mutex
	inputs   []Input
	variant  [2]string
	prices   map[string]*PriceNode
	banner   Banner
	subs     map[int]func(Change)
	nextSub  int
	writes   int
	bannerWr int
}

// NewMemoryDocument returns an empty document.
func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{prices: map[string]*PriceNode{}, subs: map[int]func(Change){}}
}

// AddInput appends an input and notifies subscribers of a child list change.
func (d *MemoryDocument) AddInput(in Input) {
	d.mu.Lock()
	d.inputs = append(d.inputs, in)
	d.mu.Unlock()
	d.emit(Change{Kind: ChangeChildList, Name: in.Name})
}

// RemoveInputs drops every input whose name is name, simulating a re-render.
func (d *MemoryDocument) RemoveInputs(name string) {
	d.mu.Lock()
	kept := d.inputs[:0]
	for _, in := range d.inputs {
		if in.Name != name {
			kept = append(kept, in)
		}
	}
	d.inputs = kept
	d.mu.Unlock()
	d.emit(Change{Kind: ChangeChildList, Name: name})
}

// SetVisible toggles visibility of all inputs whose name is name.
func (d *MemoryDocument) SetVisible(name string, visible bool) {
	d.mu.Lock()
	for i := range d.inputs {
		if d.inputs[i].Name == name {
			d.inputs[i].Visible = visible
		}
	}
	d.mu.Unlock()
}

// SetSelectedVariant sets what SelectedVariant returns.
func (d *MemoryDocument) SetSelectedVariant(text, value string) {
	d.mu.Lock()
	d.variant = [2]string{text, value}
	d.mu.Unlock()
}

// AddPriceNode registers a price element with its widget-rendered text.
func (d *MemoryDocument) AddPriceNode(key, text string, visible bool) {
	d.mu.Lock()
	d.prices[key] = &PriceNode{Key: key, Text: text, Visible: visible}
	d.mu.Unlock()
}

// RenderPrice rewrites a price node as the widget would and notifies subscribers.
func (d *MemoryDocument) RenderPrice(key, text string) {
	d.mu.Lock()
	if n, ok := d.prices[key]; ok {
		n.Text = text
	}
	d.mu.Unlock()
	d.emit(Change{Kind: ChangePrice, Name: key})
}

// PriceText returns the current text of a price node.
func (d *MemoryDocument) PriceText(key string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n, ok := d.prices[key]; ok {
		return n.Text
	}
	return ""
}

// TextWrites counts SetPriceText calls.
func (d *MemoryDocument) TextWrites() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// BannerWrites counts SetBanner calls.
func (d *MemoryDocument) BannerWrites() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bannerWr
}

func (d *MemoryDocument) Inputs() ([]Input, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Input, len(d.inputs))
	copy(out, d.inputs)
	return out, nil
}

func (d *MemoryDocument) SetInputValue(name, value string) error {
	d.mu.Lock()
	found := false
	for i := range d.inputs {
		if d.inputs[i].Name == name && !d.inputs[i].IsRadio() {
			d.inputs[i].Value = value
			found = true
		}
	}
	d.mu.Unlock()
	if !found {
		return fmt.Errorf("input %q not found", name)
	}
	d.emit(Change{Kind: ChangeValue, Name: name})
	return nil
}

func (d *MemoryDocument) CheckInput(name, value string) error {
	d.mu.Lock()
	found := false
	for i := range d.inputs {
		if d.inputs[i].Name != name {
			continue
		}
		match := d.inputs[i].Value == value
		d.inputs[i].Checked = match
		found = found || match
	}
	d.mu.Unlock()
	if !found {
		return fmt.Errorf("option %q of %q not found", value, name)
	}
	d.emit(Change{Kind: ChangeChecked, Name: name})
	return nil
}

func (d *MemoryDocument) SelectedVariant() (string, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.variant[0], d.variant[1], nil
}

func (d *MemoryDocument) PriceNodes() ([]PriceNode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]PriceNode, 0, len(d.prices))
	for _, n := range d.prices {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (d *MemoryDocument) SetPriceText(key, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.prices[key]
	if !ok {
		return fmt.Errorf("price node %q not found", key)
	}
	n.Text = text
	d.writes++
	return nil
}

func (d *MemoryDocument) SaveOriginal(key, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.prices[key]
	if !ok {
		return fmt.Errorf("price node %q not found", key)
	}
	if !n.HasOriginal {
		n.Original = text
		n.HasOriginal = true
	}
	return nil
}

func (d *MemoryDocument) ClearOriginal(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n, ok := d.prices[key]; ok {
		n.Original = ""
		n.HasOriginal = false
	}
	return nil
}

func (d *MemoryDocument) Banner() (Banner, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.banner, nil
}

func (d *MemoryDocument) SetBanner(b Banner) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.banner = b
	d.bannerWr++
	return nil
}

func (d *MemoryDocument) Subscribe(fn func(Change)) func() {
	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

func (d *MemoryDocument) emit(c Change) {
	d.mu.Lock()
	ids := make([]int, 0, len(d.subs))
	for id := range d.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, d.subs[id])
	}
	d.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}
