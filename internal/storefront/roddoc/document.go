// Package roddoc implements storefront.Document on a live browser page driven
// through the Chrome DevTools protocol.
package roddoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/storefront"
)

const (
	defaultPriceSelector = ".tpo_total-additional-price, .price"
	defaultPollInterval  = 250 * time.Millisecond
)

// Options configures a Document.
type Options struct {
	// PriceSelector matches the price nodes to override.
	PriceSelector string
	// PollInterval is how often the page is diffed for change notifications.
	PollInterval time.Duration
	Logger       zerolog.Logger
}

// Document is a storefront.Document backed by a rod page. Every call
// evaluates a small script in the page; nothing about the DOM is cached
// between calls except the last snapshot used to derive notifications.
type Document struct {
	ctx  context.Context
	page *rod.Page
	opts Options

	mu      sync.Mutex
	subs    map[int]func(storefront.Change)
	nextSub int
	written map[string]string
	polling bool

	cancel context.CancelFunc
	done   chan struct{}
}

var _ storefront.Document = (*Document)(nil)

// New wraps page. Polling starts with the first subscriber and stops when ctx
// ends or Close is called.
func New(ctx context.Context, page *rod.Page, opts Options) *Document {
	if opts.PriceSelector == "" {
		opts.PriceSelector = defaultPriceSelector
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Document{
		ctx:     ctx,
		page:    page,
		opts:    opts,
		subs:    map[int]func(storefront.Change){},
		written: map[string]string{},
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Close stops polling and waits for the poller to exit.
func (d *Document) Close() {
	d.cancel()
	d.mu.Lock()
	polling := d.polling
	d.mu.Unlock()
	if polling {
		<-d.done
	}
}

func (d *Document) eval(js string, dst any, args ...any) error {
	res, err := d.page.Context(d.ctx).Evaluate(&rod.EvalOptions{
		JS:      js,
		JSArgs:  args,
		ByValue: true,
	})
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	if dst == nil || res == nil {
		return nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return json.Unmarshal(raw, dst)
}

func (d *Document) Inputs() ([]storefront.Input, error) {
	var out []storefront.Input
	if err := d.eval(jsInputs, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Document) SetInputValue(name, value string) error {
	var n int
	if err := d.eval(jsSetValue, &n, name, value); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("input %q not found", name)
	}
	return nil
}

func (d *Document) CheckInput(name, value string) error {
	var ok bool
	if err := d.eval(jsCheck, &ok, name, value); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("option %q of %q not found", value, name)
	}
	return nil
}

func (d *Document) SelectedVariant() (string, string, error) {
	var pair [2]string
	if err := d.eval(jsSelectedVariant, &pair); err != nil {
		return "", "", err
	}
	return pair[0], pair[1], nil
}

func (d *Document) PriceNodes() ([]storefront.PriceNode, error) {
	var out []storefront.PriceNode
	if err := d.eval(jsPriceNodes, &out, d.opts.PriceSelector); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Document) SetPriceText(key, text string) error {
	var ok bool
	if err := d.eval(jsSetPriceText, &ok, key, text); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("price node %q not found", key)
	}
	d.mu.Lock()
	d.written[key] = text
	d.mu.Unlock()
	return nil
}

func (d *Document) SaveOriginal(key, text string) error {
	return d.eval(jsSaveOriginal, nil, key, text)
}

func (d *Document) ClearOriginal(key string) error {
	return d.eval(jsClearOriginal, nil, key)
}

func (d *Document) Banner() (storefront.Banner, error) {
	var b storefront.Banner
	err := d.eval(jsBanner, &b)
	return b, err
}

func (d *Document) SetBanner(b storefront.Banner) error {
	return d.eval(jsSetBanner, nil, b.Text, b.Visible)
}

// Subscribe registers fn for change notifications. fn runs on the poller
// goroutine.
func (d *Document) Subscribe(fn func(storefront.Change)) func() {
	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	start := !d.polling
	d.polling = true
	d.mu.Unlock()
	if start {
		go d.poll()
	}
	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

type snapshot struct {
	Inputs []storefront.Input `json:"inputs"`
	Prices map[string]string  `json:"prices"`
}

func (d *Document) snapshot() (snapshot, error) {
	var s snapshot
	err := d.eval(jsSnapshot, &s, d.opts.PriceSelector)
	return s, err
}

func (d *Document) poll() {
	defer close(d.done)
	log := d.opts.Logger.With().Str("component", "roddoc").Logger()
	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()

	prev, err := d.snapshot()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Debug().Err(err).Msg("initial snapshot")
	}
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
		}
		cur, err := d.snapshot()
		if err != nil {
			if d.ctx.Err() == nil {
				log.Debug().Err(err).Msg("snapshot page")
			}
			continue
		}
		d.mu.Lock()
		changes := diff(prev, cur, d.written)
		fns := make([]func(storefront.Change), 0, len(d.subs))
		for _, fn := range d.subs {
			fns = append(fns, fn)
		}
		d.mu.Unlock()
		prev = cur
		for _, c := range changes {
			for _, fn := range fns {
				fn(c)
			}
		}
	}
}

func inputIdentity(in storefront.Input) string {
	if in.IsRadio() {
		return in.Name + "=" + in.Value
	}
	return in.Name
}

// diff derives the notifications a DOM observer would have fired between two
// snapshots. Price texts equal to our own last write are not reported.
func diff(prev, cur snapshot, written map[string]string) []storefront.Change {
	var out []storefront.Change
	seen := map[storefront.Change]bool{}
	add := func(c storefront.Change) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	before := make(map[string]storefront.Input, len(prev.Inputs))
	for _, in := range prev.Inputs {
		before[inputIdentity(in)] = in
	}
	structural := len(prev.Inputs) != len(cur.Inputs)
	for _, in := range cur.Inputs {
		old, ok := before[inputIdentity(in)]
		if !ok {
			structural = true
			continue
		}
		if in.IsRadio() {
			if old.Checked != in.Checked {
				add(storefront.Change{Kind: storefront.ChangeChecked, Name: in.Name})
			}
		} else if old.Value != in.Value {
			add(storefront.Change{Kind: storefront.ChangeValue, Name: in.Name})
		}
	}
	if structural {
		add(storefront.Change{Kind: storefront.ChangeChildList})
	}

	for key, text := range cur.Prices {
		if old, ok := prev.Prices[key]; ok && old == text {
			continue
		}
		if w, ok := written[key]; ok && w == text {
			continue
		}
		add(storefront.Change{Kind: storefront.ChangePrice, Name: key})
	}
	return out
}
