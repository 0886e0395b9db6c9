package storefront

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/eventloop"
	"github.com/noah-isme/roller-shop/internal/obs"
	"github.com/noah-isme/roller-shop/internal/pricing"
)

// Selection is the active material/profile/color combination.
type Selection struct {
	Material   pricing.Material `json:"material"`
	Profile    pricing.Profile  `json:"profile"`
	MPC        pricing.MPC      `json:"mpc"`
	ColorField string           `json:"color_field,omitempty"`
	ColorValue string           `json:"color_value,omitempty"`
	ColorID    string           `json:"color_id,omitempty"`
	Special    bool             `json:"special"`
}

// Context converts the selection into a pricing context.
func (s Selection) Context(quantity int) pricing.Context {
	return pricing.Context{Material: s.Material, Profile: s.Profile, SpecialColor: s.Special, Quantity: quantity}
}

// key identifies the selection for change detection.
func (s Selection) key() string {
	if s.Special {
		return string(s.MPC) + ":special"
	}
	return string(s.MPC) + ":standard"
}

// RestoreConfig bounds the color restore after a variant switch.
type RestoreConfig struct {
	Delay    time.Duration
	Interval time.Duration
	Retries  int
}

// Resolver detects the active selection and carries the color cache across
// variant switches.
type Resolver struct {
	doc     Document
	loop    eventloop.Loop
	state   *State
	log     zerolog.Logger
	cfg     RestoreConfig
	pending eventloop.Timer
}

// NewResolver builds a resolver bound to doc.
func NewResolver(doc Document, loop eventloop.Loop, state *State, logger zerolog.Logger, cfg RestoreConfig) *Resolver {
	return &Resolver{doc: doc, loop: loop, state: state, log: logger, cfg: cfg}
}

// DetectActiveSelection reads the checked material and profile radios and
// the color radio of that product line. ok is false when material or profile
// is not selected; callers skip the quote update in that case.
func (r *Resolver) DetectActiveSelection() (Selection, bool) {
	inputs, err := r.doc.Inputs()
	if err != nil {
		r.log.Debug().Err(err).Msg("read inputs")
		return Selection{}, false
	}
	return detectSelection(inputs)
}

func detectSelection(inputs []Input) (Selection, bool) {
	var material, profile *Input
	for i := range inputs {
		in := &inputs[i]
		if !in.IsRadio() || !in.Checked {
			continue
		}
		name := strings.ToLower(in.Name)
		if material == nil && strings.Contains(name, "materialauswahl") {
			material = in
		}
		if profile == nil && (strings.Contains(name, "profilhoehe") || strings.Contains(name, "profilhöhe")) {
			profile = in
		}
	}
	if material == nil || profile == nil {
		return Selection{}, false
	}

	mat, ok := materialFromValue(material.Value)
	if !ok {
		return Selection{}, false
	}
	prof := pricing.ProfileMaxi
	if v := strings.ToLower(profile.Value); strings.Contains(v, "mini") || strings.Contains(v, "37") {
		prof = pricing.ProfileMini
	}
	code, _ := pricing.CodeFor(mat, prof)
	sel := Selection{Material: mat, Profile: prof, MPC: code}

	keywords := code.ColorFieldKeywords()
	for _, in := range inputs {
		if !in.IsRadio() || !in.Checked {
			continue
		}
		name := strings.ToLower(in.Name)
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				sel.ColorField = in.Name
				sel.ColorValue = in.Value
				sel.ColorID, sel.Special = classifyColor(mat, prof, in.Value)
				return sel, true
			}
		}
	}
	return sel, true
}

func materialFromValue(v string) (pricing.Material, bool) {
	v = strings.ToLower(v)
	switch {
	case strings.Contains(v, "alu"):
		return pricing.MaterialAlu, true
	case strings.Contains(v, "pvc"), strings.Contains(v, "kunststoff"):
		return pricing.MaterialPVC, true
	}
	return "", false
}

// classifyColor maps a widget color value onto the line's catalog. Values
// outside the catalog fall back to the label markers.
func classifyColor(mat pricing.Material, prof pricing.Profile, value string) (id string, special bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", false
	}
	bare := strings.TrimSpace(strings.TrimSuffix(v, "(S)"))
	for _, c := range pricing.Colors(mat, prof) {
		label := strings.TrimSpace(strings.TrimSuffix(c.Label, "(S)"))
		if strings.EqualFold(v, c.ID) || strings.EqualFold(v, c.Label) || strings.EqualFold(bare, label) {
			return c.ID, pricing.IsSpecialColor(c.ID)
		}
	}
	return "", pricing.SpecialColorLabel(v)
}

// CacheColor records the current color selection, preferring the visible group.
func (r *Resolver) CacheColor() {
	inputs, err := r.doc.Inputs()
	if err != nil {
		return
	}
	var pick *Input
	for i := range inputs {
		in := &inputs[i]
		if !in.IsRadio() || !in.Checked || !strings.Contains(strings.ToLower(in.Name), "farbwahl") {
			continue
		}
		if pick == nil || (!pick.Visible && in.Visible) {
			pick = in
		}
	}
	if pick == nil {
		return
	}
	special := pricing.SpecialColorLabel(pick.Value)
	if sel, ok := detectSelection(inputs); ok && sel.ColorField == pick.Name {
		special = sel.Special
	}
	r.state.setColor(ColorCache{Value: pick.Value, Special: special, Field: pick.Name})
}

// RestoreColor re-selects the cached color in the newly visible color group.
// It waits cfg.Delay, then tries up to cfg.Retries more times cfg.Interval
// apart. A newer call cancels an unfinished one.
func (r *Resolver) RestoreColor() {
	cached := r.state.Snapshot().Color
	if cached.Value == "" {
		return
	}
	r.CancelRestore()
	r.pending = r.loop.AfterFunc(r.cfg.Delay, func() { r.attemptRestore(cached.Value, 0) })
}

// CancelRestore stops a pending restore.
func (r *Resolver) CancelRestore() {
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}

func (r *Resolver) attemptRestore(value string, attempt int) {
	r.pending = nil
	inputs, err := r.doc.Inputs()
	var visible []Input
	if err == nil {
		for _, in := range inputs {
			if in.IsRadio() && in.Visible && strings.Contains(strings.ToLower(in.Name), "farbwahl") {
				visible = append(visible, in)
			}
		}
	}

	if len(visible) == 0 {
		if attempt < r.cfg.Retries {
			r.pending = r.loop.AfterFunc(r.cfg.Interval, func() { r.attemptRestore(value, attempt+1) })
			return
		}
		r.log.Warn().Str("color", value).Int("attempts", attempt+1).Msg("color restore gave up, no visible color options")
		obs.RecordColorRestore("exhausted")
		return
	}

	field := visible[0].Name
	for _, in := range visible {
		if in.Name != field || in.Value != value {
			continue
		}
		if in.Checked {
			obs.RecordColorRestore("unchanged")
			return
		}
		if err := r.doc.CheckInput(in.Name, in.Value); err != nil {
			r.log.Warn().Err(err).Str("color", value).Msg("color restore failed")
			obs.RecordColorRestore("error")
			return
		}
		r.log.Info().Str("color", value).Str("field", field).Msg("color restored from cache")
		obs.RecordColorRestore("restored")
		return
	}
	r.log.Info().Str("color", value).Str("field", field).Msg("cached color not available in new variant, keeping current selection")
	obs.RecordColorRestore("unavailable")
}
