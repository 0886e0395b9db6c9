// Package cart turns a configured roller into a storefront cart line and
// submits it to the shop's cart endpoint.
package cart

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/noah-isme/roller-shop/internal/pricing"
)

const (
	minQuantity = 1
	maxQuantity = 999

	// EndleisteMatch selects the end strip in the roller's own color.
	EndleisteMatch = "match"
)

// ErrInvalidDimensions is returned when width or height is not positive.
var ErrInvalidDimensions = errors.New("cart: width and height must be positive")

// ErrUnknownVariant is returned for a material/profile pair outside the catalog.
var ErrUnknownVariant = errors.New("cart: unknown material/profile combination")

// Endleiste is the end strip option of a roller.
type Endleiste struct {
	Color string `json:"color" yaml:"color"`
	Holes bool   `json:"holes" yaml:"holes"`
}

// Config is a fully configured roller.
type Config struct {
	Material  pricing.Material `json:"material" yaml:"material"`
	Profile   pricing.Profile  `json:"profile" yaml:"profile"`
	WidthMM   float64          `json:"width_mm" yaml:"width_mm"`
	HeightMM  float64          `json:"height_mm" yaml:"height_mm"`
	Color     string           `json:"color" yaml:"color"`
	Quantity  int              `json:"quantity" yaml:"quantity"`
	Endleiste Endleiste        `json:"endleiste" yaml:"endleiste"`
}

// Item is one line of a /cart/add.js request.
type Item struct {
	ID         string            `json:"id"`
	Quantity   int               `json:"quantity"`
	Properties map[string]string `json:"properties"`
}

// VariantID names the catalog variant, e.g. ROLLER-ALU-MINI-STD.
func VariantID(material pricing.Material, profile pricing.Profile, color string) string {
	class := "STD"
	if pricing.IsSpecialColor(color) {
		class = "SPL"
	}
	prof := "MAXI"
	if profile == pricing.ProfileMini {
		prof = "MINI"
	}
	mat := "PVC"
	if material == pricing.MaterialAlu {
		mat = "ALU"
	}
	return "ROLLER-" + mat + "-" + prof + "-" + class
}

// ClampQuantity keeps q within 1..999.
func ClampQuantity(q int) int {
	if q < minQuantity {
		return minQuantity
	}
	if q > maxQuantity {
		return maxQuantity
	}
	return q
}

// BuildItem prices cfg with snap and renders the cart line.
func BuildItem(cfg Config, snap pricing.Snapshot) (Item, error) {
	if cfg.WidthMM <= 0 || cfg.HeightMM <= 0 {
		return Item{}, ErrInvalidDimensions
	}
	if _, ok := pricing.CodeFor(cfg.Material, cfg.Profile); !ok {
		return Item{}, fmt.Errorf("%w: %q/%q", ErrUnknownVariant, cfg.Material, cfg.Profile)
	}
	qty := ClampQuantity(cfg.Quantity)
	ctx := pricing.Context{
		Material:     cfg.Material,
		Profile:      cfg.Profile,
		SpecialColor: pricing.IsSpecialColor(cfg.Color),
		Quantity:     qty,
	}
	q, ok := snap.Quote(pricing.Dimension{WidthMM: cfg.WidthMM, HeightMM: cfg.HeightMM}, ctx)
	if !ok {
		return Item{}, ErrInvalidDimensions
	}
	if q.FallbackPrice {
		return Item{}, fmt.Errorf("cart: no price for %s", ctx.Key())
	}

	colorLabel := cfg.Color
	if c, found := pricing.FindColor(cfg.Material, cfg.Profile, cfg.Color); found {
		colorLabel = c.Label
	}

	return Item{
		ID:       VariantID(cfg.Material, cfg.Profile, cfg.Color),
		Quantity: qty,
		Properties: map[string]string{
			"Width (mm)":      formatMM(cfg.WidthMM),
			"Height (mm)":     formatMM(cfg.HeightMM),
			"Material":        materialLabel(cfg.Material),
			"Profile":         profileLabel(cfg.Profile),
			"Color":           colorLabel,
			"Area (m2)":       fmt.Sprintf("%.3f", q.AreaM2),
			"Endleiste_Color": endleisteLabel(cfg, colorLabel),
			"Endleiste_Holes": yesNo(cfg.Endleiste.Holes),
			"Unit price":      pricing.FormatEUR(q.UnitPrice),
			"Total":           pricing.FormatEUR(q.TotalPrice),
		},
	}, nil
}

func endleisteLabel(cfg Config, colorLabel string) string {
	switch cfg.Endleiste.Color {
	case "":
		return colorLabel
	case EndleisteMatch:
		return colorLabel + " (Abgestimmt)"
	}
	if c, ok := pricing.FindColor(cfg.Material, cfg.Profile, cfg.Endleiste.Color); ok {
		return c.Label
	}
	return cfg.Endleiste.Color
}

func materialLabel(m pricing.Material) string {
	if m == pricing.MaterialAlu {
		return "Aluminium"
	}
	return "PVC"
}

func profileLabel(p pricing.Profile) string {
	if p == pricing.ProfileMini {
		return "Mini (37mm)"
	}
	return "Maxi (52mm)"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
