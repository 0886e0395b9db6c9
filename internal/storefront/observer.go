package storefront

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/eventloop"
	"github.com/noah-isme/roller-shop/internal/obs"
)

var dimensionName = regexp.MustCompile(`(?i)Abmessung \(mm\) (.+?)-(Breite|Höhe)`)

// Measurement is the width and height of one variant group.
type Measurement struct {
	Width   float64
	Height  float64
	Variant string
}

// Complete reports whether both sides are set.
func (m Measurement) Complete() bool {
	return m.Width > 0 && m.Height > 0
}

// parseDimensionName splits "Abmessung (mm) Alu Mini-Breite" into variant and side.
func parseDimensionName(name string) (variant string, width bool, ok bool) {
	m := dimensionName.FindStringSubmatch(name)
	if m == nil {
		return "", false, false
	}
	return strings.TrimSpace(m[1]), strings.EqualFold(m[2], "breite"), true
}

func parseMM(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(v, ",", ".")), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// variantGroups collects dimension inputs per variant, in document order.
func variantGroups(inputs []Input) []Measurement {
	var groups []Measurement
	index := map[string]int{}
	for _, in := range inputs {
		variant, isWidth, ok := parseDimensionName(in.Name)
		if !ok {
			continue
		}
		i, seen := index[variant]
		if !seen {
			i = len(groups)
			index[variant] = i
			groups = append(groups, Measurement{Variant: variant})
		}
		if isWidth {
			groups[i].Width = parseMM(in.Value)
		} else {
			groups[i].Height = parseMM(in.Value)
		}
	}
	return groups
}

// selectActiveGroup picks the group named by the variant selector, else the
// first complete group.
func selectActiveGroup(groups []Measurement, selText, selValue string) Measurement {
	for _, g := range groups {
		if selText != "" && strings.Contains(selText, g.Variant) {
			return g
		}
		if selValue != "" && strings.Contains(g.Variant, selValue) {
			return g
		}
	}
	for _, g := range groups {
		if g.Complete() {
			return g
		}
	}
	return Measurement{}
}

// Observer turns dimension input changes into pricing triggers. Updates are
// debounced unless they cross the minimum-area threshold.
type Observer struct {
	doc      Document
	loop     eventloop.Loop
	state    *State
	log      zerolog.Logger
	debounce time.Duration
	minArea  func() float64

	trigger   func(reason string)
	onCleared func()

	prev  Measurement
	timer eventloop.Timer
}

// NewObserver wires an observer. trigger runs the pricing update; onCleared
// runs when the measurements are cleared.
func NewObserver(doc Document, loop eventloop.Loop, state *State, logger zerolog.Logger, debounce time.Duration, minArea func() float64, trigger func(string), onCleared func()) *Observer {
	return &Observer{
		doc:       doc,
		loop:      loop,
		state:     state,
		log:       logger,
		debounce:  debounce,
		minArea:   minArea,
		trigger:   trigger,
		onCleared: onCleared,
	}
}

// Current returns the last measurement the observer accepted.
func (o *Observer) Current() Measurement {
	return o.prev
}

// Pending reports whether a debounced trigger is waiting.
func (o *Observer) Pending() bool {
	return o.timer != nil
}

// CancelDebounce drops a pending debounced trigger.
func (o *Observer) CancelDebounce() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

// Read re-queries the document and handles any change of the active group.
func (o *Observer) Read() {
	inputs, err := o.doc.Inputs()
	if err != nil {
		o.log.Debug().Err(err).Msg("read dimension inputs")
		return
	}
	groups := variantGroups(inputs)
	text, value, err := o.doc.SelectedVariant()
	if err != nil {
		text, value = "", ""
	}
	o.handle(selectActiveGroup(groups, text, value))
}

func (o *Observer) handle(cur Measurement) {
	if cur == o.prev {
		return
	}
	prev := o.prev
	o.prev = cur

	if cur.Complete() {
		prevArea, area := o.state.setMeasurement(cur.Width, cur.Height, cur.Variant)
		minArea := o.minArea()
		o.log.Debug().
			Float64("width", cur.Width).
			Float64("height", cur.Height).
			Float64("area", area).
			Str("variant", cur.Variant).
			Msg("measurements changed")

		up := prevArea < minArea && area >= minArea
		down := prevArea >= minArea && area < minArea
		o.CancelDebounce()
		if up || down {
			direction := "down"
			if up {
				direction = "up"
			}
			obs.RecordThresholdCrossing(direction)
			o.log.Info().Str("direction", direction).Float64("area", area).Msg("crossed minimum area threshold, updating immediately")
			o.trigger("threshold")
			return
		}
		o.timer = o.loop.AfterFunc(o.debounce, func() {
			o.timer = nil
			o.trigger("debounce")
		})
		return
	}

	if prev.Width > 0 || prev.Height > 0 {
		o.log.Info().Float64("width", cur.Width).Float64("height", cur.Height).Msg("measurements cleared")
		o.CancelDebounce()
		o.onCleared()
	}
}
