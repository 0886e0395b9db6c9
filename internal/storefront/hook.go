package storefront

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/eventloop"
	"github.com/noah-isme/roller-shop/internal/obs"
	"github.com/noah-isme/roller-shop/internal/pricing"
)

// Config tunes the hook's timers and retry budgets.
type Config struct {
	Debounce                 time.Duration
	SelectionPollInterval    time.Duration
	InitialColorCacheDelay   time.Duration
	ColorRecacheDelay        time.Duration
	ColorRestore             RestoreConfig
	DimensionRestoreInterval time.Duration
	DimensionRestoreAttempts int
	PriceReapplyDelay        time.Duration
}

// DefaultConfig mirrors the widget integration's production timings.
func DefaultConfig() Config {
	return Config{
		Debounce:                 50 * time.Millisecond,
		SelectionPollInterval:    100 * time.Millisecond,
		InitialColorCacheDelay:   500 * time.Millisecond,
		ColorRecacheDelay:        300 * time.Millisecond,
		ColorRestore:             RestoreConfig{Delay: 150 * time.Millisecond, Interval: 100 * time.Millisecond, Retries: 5},
		DimensionRestoreInterval: 100 * time.Millisecond,
		DimensionRestoreAttempts: 50,
		PriceReapplyDelay:        50 * time.Millisecond,
	}
}

// Measurements is the public summary of the hook state.
type Measurements struct {
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	Area           float64 `json:"area"`
	MinAreaM2      float64 `json:"min_area_m2"`
	MinimumApplied bool    `json:"minimum_applied"`
}

// Hook owns the observer, resolver and override controller for one page.
// Every method must be called on the hook's loop.
type Hook struct {
	cfg    Config
	doc    Document
	loop   eventloop.Loop
	prices *pricing.Registry
	state  *State
	log    zerolog.Logger

	resolver *Resolver
	observer *Observer
	override *Override

	started      bool
	unsubscribe  func()
	lastSel      string
	lastMPC      pricing.MPC
	selTimer     eventloop.Timer
	cacheTimer   eventloop.Timer
	recacheTimer eventloop.Timer
	reapplyTimer eventloop.Timer
	dimRestore   eventloop.Timer
}

// NewHook wires the components. A nil registry uses the built-in price table.
func NewHook(doc Document, loop eventloop.Loop, prices *pricing.Registry, state *State, logger zerolog.Logger, cfg Config) *Hook {
	if prices == nil {
		prices = pricing.NewRegistry(0)
	}
	if state == nil {
		state = NewState(nil, "")
	}
	h := &Hook{
		cfg:    cfg,
		doc:    doc,
		loop:   loop,
		prices: prices,
		state:  state,
		log:    logger.With().Str("component", "storefront_hook").Logger(),
	}
	h.resolver = NewResolver(doc, loop, state, h.log, cfg.ColorRestore)
	h.override = NewOverride(doc, loop, state, h.log)
	h.observer = NewObserver(doc, loop, state, h.log, cfg.Debounce, h.minArea, h.Trigger, h.onCleared)
	return h
}

// State exposes the hook's state.
func (h *Hook) State() *State { return h.state }

// Resolver exposes the selection resolver.
func (h *Hook) Resolver() *Resolver { return h.resolver }

// Observer exposes the measurement observer.
func (h *Hook) Observer() *Observer { return h.observer }

// Override exposes the price override controller.
func (h *Hook) Override() *Override { return h.override }

func (h *Hook) minArea() float64 {
	return h.prices.Current().MinAreaM2
}

// Start subscribes to document changes, performs the initial read and starts
// the selection watcher.
func (h *Hook) Start() {
	if h.started {
		return
	}
	h.started = true
	h.unsubscribe = h.doc.Subscribe(func(c Change) {
		h.loop.Post(func() {
			if h.started {
				h.handleChange(c)
			}
		})
	})
	h.observer.Read()
	h.selTimer = h.loop.AfterFunc(h.cfg.SelectionPollInterval, h.watchSelection)
	h.cacheTimer = h.loop.AfterFunc(h.cfg.InitialColorCacheDelay, h.resolver.CacheColor)
	h.log.Info().Msg("hook started")
}

// Stop cancels every timer and loop the hook owns.
func (h *Hook) Stop() {
	if !h.started {
		return
	}
	h.started = false
	if h.unsubscribe != nil {
		h.unsubscribe()
		h.unsubscribe = nil
	}
	for _, t := range []*eventloop.Timer{&h.selTimer, &h.cacheTimer, &h.recacheTimer, &h.reapplyTimer, &h.dimRestore} {
		if *t != nil {
			(*t).Stop()
			*t = nil
		}
	}
	h.observer.CancelDebounce()
	h.resolver.CancelRestore()
	h.override.StopLoop()
	h.persist()
	h.log.Info().Msg("hook stopped")
}

// Measurements reports the current measurement summary.
func (h *Hook) Measurements() Measurements {
	st := h.state.Snapshot()
	minArea := h.minArea()
	return Measurements{
		Width:          st.Width,
		Height:         st.Height,
		Area:           st.Area,
		MinAreaM2:      minArea,
		MinimumApplied: st.Area > 0 && st.Area < minArea,
	}
}

func isSelectorName(lname string) bool {
	return strings.Contains(lname, "materialauswahl") ||
		strings.Contains(lname, "profilhoehe") ||
		strings.Contains(lname, "profilhöhe") ||
		strings.Contains(lname, "farbwahl")
}

func (h *Hook) handleChange(c Change) {
	switch c.Kind {
	case ChangeValue:
		if strings.Contains(c.Name, "Abmessung") {
			h.observer.Read()
		}
	case ChangeChildList:
		h.observer.Read()
	case ChangeChecked:
		lname := strings.ToLower(c.Name)
		if !isSelectorName(lname) {
			return
		}
		if strings.Contains(lname, "farbwahl") {
			h.resolver.CacheColor()
		}
		h.observer.CancelDebounce()
		h.Trigger("selector")
	case ChangePrice:
		if h.override.Active() && h.reapplyTimer == nil {
			h.reapplyTimer = h.loop.AfterFunc(h.cfg.PriceReapplyDelay, func() {
				h.reapplyTimer = nil
				h.override.Apply()
			})
		}
	}
}

// Trigger recomputes the quote from the current state and switches the
// override on or off. An incomplete measurement skips the update; a missing
// selection only skips it below the minimum area.
func (h *Hook) Trigger(reason string) {
	if !h.observer.Current().Complete() {
		h.log.Debug().Str("reason", reason).Msg("measurements incomplete, skipping quote")
		return
	}
	st := h.state.Snapshot()
	sel, ok := h.resolver.DetectActiveSelection()
	if !ok {
		if st.Area >= h.minArea() {
			h.override.Deactivate()
			h.persist()
			return
		}
		h.log.Debug().Str("reason", reason).Msg("no material/profile selected, skipping quote")
		return
	}
	snap := h.prices.Current()
	q, ok := snap.Quote(pricing.Dimension{WidthMM: st.Width, HeightMM: st.Height}, sel.Context(1))
	if !ok {
		return
	}
	if q.FallbackPrice {
		h.log.Warn().Str("key", sel.Context(1).Key()).Msg("price table key missing, using fallback price")
	}
	h.state.setQuote(q, sel.MPC, sel.Special)

	colorClass := "standard"
	if sel.Special {
		colorClass = "special"
	}
	obs.RecordQuote(string(sel.Material), string(sel.Profile), colorClass, q.MinimumApplied())

	if q.MinimumApplied() {
		h.log.Info().
			Str("reason", reason).
			Str("mpc", string(sel.MPC)).
			Str("color_class", colorClass).
			Float64("area", q.AreaM2).
			Str("price_per_m2", pricing.Decimal(q.PricePerM2)).
			Str("price", pricing.Decimal(q.TotalPrice)).
			Msg("area below minimum, applying minimum price")
		h.override.Activate(q, sel)
	} else {
		h.log.Debug().Str("reason", reason).Float64("area", q.AreaM2).Msg("area meets minimum, no adjustment")
		h.override.Deactivate()
	}
	h.persist()
}

func (h *Hook) onCleared() {
	h.state.clearPricing()
	h.override.Deactivate()
	h.persist()
}

func (h *Hook) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := h.state.Persist(ctx); err != nil {
		h.log.Warn().Err(err).Msg("persist observer state")
	}
}

// watchSelection polls the selection because the widget sometimes flips
// radios without firing events.
func (h *Hook) watchSelection() {
	h.selTimer = nil
	if !h.started {
		return
	}
	if sel, ok := h.resolver.DetectActiveSelection(); ok && sel.key() != h.lastSel {
		h.lastSel = sel.key()
		h.log.Info().Str("mpc", string(sel.MPC)).Bool("special", sel.Special).Msg("selection changed, updating pricing")
		if sel.MPC != h.lastMPC {
			// only a variant switch clears the widget's inputs
			if h.lastMPC != "" {
				h.checkClearedDimensions()
				h.resolver.RestoreColor()
			}
			h.lastMPC = sel.MPC
		}
		if h.recacheTimer != nil {
			h.recacheTimer.Stop()
		}
		h.recacheTimer = h.loop.AfterFunc(h.cfg.ColorRecacheDelay, func() {
			h.recacheTimer = nil
			h.resolver.CacheColor()
		})
		h.observer.CancelDebounce()
		h.Trigger("selection")
	}
	if h.started {
		h.selTimer = h.loop.AfterFunc(h.cfg.SelectionPollInterval, h.watchSelection)
	}
}

// checkClearedDimensions restores the cached measurement when the widget
// cleared the visible dimension inputs during a variant switch.
func (h *Hook) checkClearedDimensions() {
	inputs, err := h.doc.Inputs()
	if err != nil {
		return
	}
	var width, height *Input
	for i := range inputs {
		in := &inputs[i]
		if !in.Visible || !strings.Contains(in.Name, "Abmessung") {
			continue
		}
		upper := strings.ToUpper(in.Name)
		if strings.Contains(upper, "BREITE") {
			width = in
		}
		if strings.Contains(upper, "HÖHE") || strings.Contains(upper, "HOEHE") || strings.Contains(upper, "HEIGHT") {
			height = in
		}
	}

	variant := ""
	if width != nil {
		variant, _, _ = parseDimensionName(width.Name)
	}
	var w, ht float64
	if width != nil {
		w = parseMM(width.Value)
	}
	if height != nil {
		ht = parseMM(height.Value)
	}

	st := h.state.Snapshot()
	if (w == 0 || ht == 0) && (st.Width > 0 || st.Height > 0) {
		if variant == "" {
			variant = st.Variant
		}
		h.log.Info().Float64("width", st.Width).Float64("height", st.Height).Str("variant", variant).Msg("dimensions cleared by widget, restoring from cache")
		h.restoreDimensions(variant, st.Width, st.Height)
	}
}

// restoreDimensions polls for the variant's inputs, which may still be
// rendering, and writes the cached values once both exist.
func (h *Hook) restoreDimensions(variant string, width, height float64) {
	if h.dimRestore != nil {
		h.dimRestore.Stop()
		h.dimRestore = nil
	}
	attempts := 0
	var poll func()
	poll = func() {
		h.dimRestore = nil
		if !h.started {
			return
		}
		attempts++
		widthName, heightName := h.findDimensionInputs(variant)
		if widthName != "" && heightName != "" {
			_ = h.doc.SetInputValue(widthName, formatMM(width))
			_ = h.doc.SetInputValue(heightName, formatMM(height))
			h.log.Info().Int("attempt", attempts).Str("variant", variant).Msg("dimensions restored")
			return
		}
		if attempts < h.cfg.DimensionRestoreAttempts {
			h.dimRestore = h.loop.AfterFunc(h.cfg.DimensionRestoreInterval, poll)
			return
		}
		h.log.Warn().Int("attempts", attempts).Str("variant", variant).Msg("dimension restore timed out")
	}
	poll()
}

// DimensionInputs names the visible width and height inputs.
func (h *Hook) DimensionInputs() (widthName, heightName string) {
	inputs, err := h.doc.Inputs()
	if err != nil {
		return "", ""
	}
	for _, in := range inputs {
		if !in.Visible {
			continue
		}
		_, isWidth, ok := parseDimensionName(in.Name)
		switch {
		case !ok:
		case isWidth && widthName == "":
			widthName = in.Name
		case !isWidth && heightName == "":
			heightName = in.Name
		}
	}
	return widthName, heightName
}

// findDimensionInputs ignores visibility; the target group may still be hidden.
func (h *Hook) findDimensionInputs(variant string) (widthName, heightName string) {
	if variant == "" {
		return "", ""
	}
	inputs, err := h.doc.Inputs()
	if err != nil {
		return "", ""
	}
	for _, in := range inputs {
		v, isWidth, ok := parseDimensionName(in.Name)
		if !ok || !strings.EqualFold(v, variant) {
			continue
		}
		if isWidth {
			widthName = in.Name
		} else {
			heightName = in.Name
		}
	}
	return widthName, heightName
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
