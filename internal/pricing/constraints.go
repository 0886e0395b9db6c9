package pricing

import "fmt"

// Range is an inclusive millimetre interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside r.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Limits are the manufacturable dimensions of a material.
type Limits struct {
	Width  Range `json:"width"`
	Height Range `json:"height"`
}

var limits = map[Material]Limits{
	MaterialAlu: {Width: Range{100, 3000}, Height: Range{100, 2500}},
	MaterialPVC: {Width: Range{100, 2500}, Height: Range{100, 2300}},
}

// Constraints returns the dimension limits for material.
func Constraints(material Material) (Limits, bool) {
	l, ok := limits[material]
	return l, ok
}

// DimensionError names the field that is out of range.
type DimensionError struct {
	Field string
	Value float64
	Range Range
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s must be between %.0f and %.0f mm", e.Field, e.Range.Min, e.Range.Max)
}

// ValidateDimension checks dim against the limits of material.
func ValidateDimension(material Material, dim Dimension) error {
	l, ok := limits[material]
	if !ok {
		return fmt.Errorf("unknown material %q", material)
	}
	if !l.Width.Contains(dim.WidthMM) {
		return &DimensionError{Field: "width", Value: dim.WidthMM, Range: l.Width}
	}
	if !l.Height.Contains(dim.HeightMM) {
		return &DimensionError{Field: "height", Value: dim.HeightMM, Range: l.Height}
	}
	return nil
}

// ParseMaterial accepts canonical ids as well as display names.
func ParseMaterial(s string) (Material, bool) {
	switch normalize(s) {
	case "alu", "aluminium", "aluminum":
		return MaterialAlu, true
	case "pvc", "kunststoff":
		return MaterialPVC, true
	}
	return "", false
}

// ParseProfile accepts canonical ids as well as display names.
func ParseProfile(s string) (Profile, bool) {
	switch normalize(s) {
	case "mini", "37", "37mm":
		return ProfileMini, true
	case "maxi", "52", "52mm":
		return ProfileMaxi, true
	}
	return "", false
}
