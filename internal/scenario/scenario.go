// Package scenario replays configurator scenarios through the storefront hook
// on an in-memory page and checks the resulting price.
package scenario

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/roller-shop/internal/eventloop"
	"github.com/noah-isme/roller-shop/internal/pricing"
	"github.com/noah-isme/roller-shop/internal/storefront"
)

// tolerance in euros between the expected and the computed total.
const tolerance = 0.01

const priceNode = "product-price"

// File is the YAML document holding the scenarios.
type File struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Scenario is one configurator state to price.
type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Material    string   `yaml:"material"`
	Profile     string   `yaml:"profile"`
	Color       string   `yaml:"color"`
	WidthMM     float64  `yaml:"width_mm"`
	HeightMM    float64  `yaml:"height_mm"`
	PricePerM2  float64  `yaml:"price_per_m2"`
	Expected    Expected `yaml:"expected"`
	Note        string   `yaml:"note"`
}

// Expected overrides the derived expectations. Nil fields are computed from
// the price table.
type Expected struct {
	TotalPrice     *float64 `yaml:"total_price"`
	MinimumApplied *bool    `yaml:"minimum_applied"`
}

// Result is the outcome of one scenario.
type Result struct {
	Name             string
	AreaM2           float64
	ChargeableAreaM2 float64
	PricePerM2       pricing.Money
	Total            pricing.Money
	ExpectedTotal    float64
	MinimumApplied   bool
	PriceText        string
	Pass             bool
	Reason           string
}

// Load reads a scenario file.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read scenarios: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("decode scenarios: %w", err)
	}
	return f, nil
}

// Run prices sc with base. An error means the scenario could not be set up;
// a wrong price is reported through Result.Pass.
func Run(sc Scenario, base pricing.Snapshot, logger zerolog.Logger) (Result, error) {
	mat, ok := pricing.ParseMaterial(sc.Material)
	if !ok {
		return Result{}, fmt.Errorf("%s: invalid material %q", sc.Name, sc.Material)
	}
	prof, ok := pricing.ParseProfile(sc.Profile)
	if !ok {
		return Result{}, fmt.Errorf("%s: invalid profile %q", sc.Name, sc.Profile)
	}
	color, ok := pricing.FindColor(mat, prof, sc.Color)
	if !ok {
		return Result{}, fmt.Errorf("%s: unknown color %q for %s %s", sc.Name, sc.Color, mat, prof)
	}

	key := pricing.Context{Material: mat, Profile: prof, SpecialColor: pricing.IsSpecialColor(color.ID)}.Key()
	table := make(pricing.Table, len(base.Table))
	for k, v := range base.Table {
		table[k] = v
	}
	if sc.PricePerM2 > 0 {
		table[key] = pricing.Money(math.Round(sc.PricePerM2 * 100))
	}
	registry := pricing.NewRegistry(base.MinAreaM2)
	registry.Replace(table, base.MinAreaM2)

	doc, widthField, heightField := configurator(mat, prof, color)
	loop := eventloop.NewVirtual(time.Unix(0, 0).UTC())
	cfg := storefront.DefaultConfig()
	hook := storefront.NewHook(doc, loop, registry, storefront.NewState(storefront.NewMemoryStore(), sc.Name), logger, cfg)
	hook.Start()
	defer hook.Stop()

	_ = doc.SetInputValue(widthField, strconv.FormatFloat(sc.WidthMM, 'f', -1, 64))
	_ = doc.SetInputValue(heightField, strconv.FormatFloat(sc.HeightMM, 'f', -1, 64))
	loop.Flush()
	loop.Advance(cfg.Debounce * 2)

	st := hook.State().Snapshot()
	if st.LastQuote == nil {
		return Result{}, fmt.Errorf("%s: no quote produced for %v x %v mm", sc.Name, sc.WidthMM, sc.HeightMM)
	}
	q := *st.LastQuote

	res := Result{
		Name:             sc.Name,
		AreaM2:           q.AreaM2,
		ChargeableAreaM2: q.ChargeableAreaM2,
		PricePerM2:       q.PricePerM2,
		Total:            q.TotalPrice,
		MinimumApplied:   q.MinimumApplied(),
		PriceText:        doc.PriceText(priceNode),
		Pass:             true,
	}

	res.ExpectedTotal = round2(math.Max(q.AreaM2, base.MinAreaM2) * float64(q.PricePerM2) / 100)
	if sc.Expected.TotalPrice != nil {
		res.ExpectedTotal = *sc.Expected.TotalPrice
	}
	expectMinimum := q.AreaM2 < base.MinAreaM2
	if sc.Expected.MinimumApplied != nil {
		expectMinimum = *sc.Expected.MinimumApplied
	}

	got := float64(q.TotalPrice) / 100
	switch {
	case math.Abs(got-res.ExpectedTotal) >= tolerance:
		res.Pass = false
		res.Reason = fmt.Sprintf("expected total €%.2f, got €%.2f", res.ExpectedTotal, got)
	case res.MinimumApplied != expectMinimum:
		res.Pass = false
		res.Reason = fmt.Sprintf("expected minimum applied %t, got %t", expectMinimum, res.MinimumApplied)
	case res.MinimumApplied && res.PriceText != pricing.FormatEUR(q.TotalPrice):
		res.Pass = false
		res.Reason = fmt.Sprintf("price node shows %q, want %q", res.PriceText, pricing.FormatEUR(q.TotalPrice))
	}
	return res, nil
}

// RunAll runs every scenario and reports whether all of them passed.
func RunAll(f File, base pricing.Snapshot, logger zerolog.Logger) ([]Result, bool, error) {
	results := make([]Result, 0, len(f.Scenarios))
	allPass := true
	for _, sc := range f.Scenarios {
		res, err := Run(sc, base, logger)
		if err != nil {
			return results, false, err
		}
		allPass = allPass && res.Pass
		results = append(results, res)
	}
	return results, allPass, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// configurator renders the inputs of one product line the way the widget
// does: material and profile radios, the line's color group, and a pair of
// dimension fields.
func configurator(mat pricing.Material, prof pricing.Profile, color pricing.Color) (*storefront.MemoryDocument, string, string) {
	matLabel, profLabel := "PVC", "Maxi"
	if mat == pricing.MaterialAlu {
		matLabel = "Alu"
	}
	if prof == pricing.ProfileMini {
		profLabel = "Mini"
	}
	variant := matLabel + " " + profLabel
	widthField := "Abmessung (mm) " + variant + "-Breite"
	heightField := "Abmessung (mm) " + variant + "-Höhe"

	doc := storefront.NewMemoryDocument()
	doc.AddInput(radio("Materialauswahl", "Aluminium", mat == pricing.MaterialAlu))
	doc.AddInput(radio("Materialauswahl", "PVC", mat == pricing.MaterialPVC))
	doc.AddInput(radio("Profilhöhe", "Mini (37mm)", prof == pricing.ProfileMini))
	doc.AddInput(radio("Profilhöhe", "Maxi (52mm)", prof == pricing.ProfileMaxi))
	colorField := "Farbwahl_" + string(mat) + "_" + string(prof)
	for _, c := range pricing.Colors(mat, prof) {
		doc.AddInput(radio(colorField, c.Label, c.ID == color.ID))
	}
	doc.AddInput(storefront.Input{Name: widthField, Type: "text", Visible: true})
	doc.AddInput(storefront.Input{Name: heightField, Type: "text", Visible: true})
	doc.SetSelectedVariant(variant, "")
	doc.AddPriceNode(priceNode, "0,00 €", true)
	return doc, widthField, heightField
}

func radio(name, value string, checked bool) storefront.Input {
	return storefront.Input{Name: name, Type: "radio", Value: value, Checked: checked, Visible: true}
}
