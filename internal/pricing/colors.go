package pricing

// Color is a selectable slat color.
type Color struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Hex   string `json:"hex"`
}

var standardColors = map[string]struct{}{
	"beige": {},
	"weiss": {},
	"grau":  {},
}

// IsSpecialColor reports whether colorID is priced at the special tier.
// Every caller that needs the color class must go through this function.
func IsSpecialColor(colorID string) bool {
	if colorID == "" {
		return false
	}
	_, standard := standardColors[colorID]
	return !standard
}

var pvcColors = []Color{
	{ID: "beige", Label: "Beige", Hex: "#E0D1C2"},
	{ID: "weiss", Label: "Weiß", Hex: "#F6F7F2"},
	{ID: "grau", Label: "Grau", Hex: "#DFE3E0"},
	{ID: "altweiss", Label: "Altweiß (S)", Hex: "#B0B7B9"},
	{ID: "hellelfenbein", Label: "Hellelfenbein (S)", Hex: "#F7F3E3"},
	{ID: "holzhell", Label: "Holz hell (S)", Hex: "#F0DDB2"},
	{ID: "oregon", Label: "Oregon (S)", Hex: "#E0E6DA"},
	{ID: "holzdunkel", Label: "Holz dunkel (S)", Hex: "#BD8449"},
	{ID: "graubraun", Label: "Graubraun (S)", Hex: "#9D5430"},
}

var aluColors = []Color{
	{ID: "beige", Label: "Beige", Hex: "#E0D1C2"},
	{ID: "weiss", Label: "Weiß", Hex: "#F6F7F2"},
	{ID: "grau", Label: "Grau", Hex: "#DFE3E0"},
	{ID: "silber", Label: "Silber (S)", Hex: "#B0B7B9"},
	{ID: "cremeweiss", Label: "Cremeweiß (S)", Hex: "#F7F3E3"},
	{ID: "hellelfenbein", Label: "Hellelfenbein (S)", Hex: "#F0DDB2"},
	{ID: "grauweiss", Label: "Grauweiß (S)", Hex: "#E0E6DA"},
	{ID: "holzhell", Label: "Holz hell (S)", Hex: "#BD8449"},
	{ID: "goldenoak", Label: "GoldenOak (S)", Hex: "#9D5430"},
	{ID: "graubraun", Label: "Graubraun (S)", Hex: "#362313"},
	{ID: "anthrazitgrau", Label: "Anthrazitgrau (S)", Hex: "#192C32"},
	{ID: "eisenglimmer", Label: "Eisenglimmer (S)", Hex: "#2F3637"},
	{ID: "moosgruen", Label: "Moosgrün (S)", Hex: "#15533D"},
	{ID: "graualuminium", Label: "Graualuminium (S)", Hex: "#5D686D"},
	{ID: "perlweiss", Label: "Perlweiß (S)", Hex: "#EEDFC4"},
	{ID: "antikweiss", Label: "Antikweiß (S)", Hex: "#FFF9EA"},
	{ID: "altweiss", Label: "Altweiß (S)", Hex: "#EBE9DA"},
	{ID: "oregon", Label: "Oregon (S)", Hex: "#B25D42"},
	{ID: "holzdunkel", Label: "Holz dunkel (S)", Hex: "#936640"},
}

// the maxi aluminium line stops at graualuminium
var colorCatalog = map[string][]Color{
	"pvc_mini": pvcColors,
	"pvc_maxi": pvcColors,
	"alu_mini": aluColors,
	"alu_maxi": aluColors[:14],
}

// Colors returns the color options of a product line.
func Colors(material Material, profile Profile) []Color {
	src := colorCatalog[string(material)+"_"+string(profile)]
	out := make([]Color, len(src))
	copy(out, src)
	return out
}

// FindColor looks up a color by id within a product line.
func FindColor(material Material, profile Profile, id string) (Color, bool) {
	for _, c := range colorCatalog[string(material)+"_"+string(profile)] {
		if c.ID == id {
			return c, true
		}
	}
	return Color{}, false
}
