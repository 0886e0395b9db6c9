package pricing

import "math"

// Money represents a monetary value stored in minor units (cents).
type Money = int64

// DefaultMinAreaM2 is the smallest area billed for a single roller.
const DefaultMinAreaM2 = 1.0

// FallbackPricePerM2 is applied when a table key is missing. It exists so a
// misconfigured table never yields a zero price; quotes using it are flagged.
const FallbackPricePerM2 Money = 3000

// Material of the roller slats.
type Material string

const (
	MaterialAlu Material = "alu"
	MaterialPVC Material = "pvc"
)

// Profile is the slat height.
type Profile string

const (
	ProfileMini Profile = "mini"
	ProfileMaxi Profile = "maxi"
)

// Dimension is a measured opening in millimetres.
type Dimension struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
}

// AreaM2 converts the dimension to square metres.
func (d Dimension) AreaM2() float64 {
	return d.WidthMM * d.HeightMM / 1e6
}

// Context determines which price table entry applies.
type Context struct {
	Material     Material `json:"material"`
	Profile      Profile  `json:"profile"`
	SpecialColor bool     `json:"special_color"`
	Quantity     int      `json:"quantity"`
}

// Key returns the price table key, e.g. alu_mini_standard.
func (c Context) Key() string {
	class := "standard"
	if c.SpecialColor {
		class = "special"
	}
	return string(c.Material) + "_" + string(c.Profile) + "_" + class
}

// Quote is the computed price for a dimension and context.
type Quote struct {
	AreaM2           float64 `json:"area_m2"`
	ChargeableAreaM2 float64 `json:"chargeable_area_m2"`
	MinAreaM2        float64 `json:"min_area_m2"`
	PricePerM2       Money   `json:"price_per_m2"`
	UnitPrice        Money   `json:"unit_price"`
	TotalPrice       Money   `json:"total_price"`
	Quantity         int     `json:"quantity"`
	FallbackPrice    bool    `json:"fallback_price,omitempty"`
}

// MinimumApplied reports whether the billed area was raised to the minimum.
func (q Quote) MinimumApplied() bool {
	return q.AreaM2 < q.MinAreaM2
}

// ComputeQuote prices dim under ctx using the default table.
// ok is false when either side is not positive.
func ComputeQuote(dim Dimension, ctx Context, minAreaM2 float64) (Quote, bool) {
	return DefaultTable().Quote(dim, ctx, minAreaM2)
}

// Quote prices dim under ctx using t. A minAreaM2 <= 0 selects DefaultMinAreaM2.
func (t Table) Quote(dim Dimension, ctx Context, minAreaM2 float64) (Quote, bool) {
	if dim.WidthMM <= 0 || dim.HeightMM <= 0 {
		return Quote{}, false
	}
	if minAreaM2 <= 0 {
		minAreaM2 = DefaultMinAreaM2
	}
	qty := ctx.Quantity
	if qty < 1 {
		qty = 1
	}

	area := dim.AreaM2()
	chargeable := math.Max(area, minAreaM2)
	perM2, found := t.Lookup(ctx.Key())
	unit := Money(math.Round(float64(perM2) * chargeable))

	return Quote{
		AreaM2:           area,
		ChargeableAreaM2: chargeable,
		MinAreaM2:        minAreaM2,
		PricePerM2:       perM2,
		UnitPrice:        unit,
		TotalPrice:       unit * Money(qty),
		Quantity:         qty,
		FallbackPrice:    !found,
	}, true
}
