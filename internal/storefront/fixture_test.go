package storefront

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/eventloop"
	"github.com/noah-isme/roller-shop/internal/pricing"
)

const (
	aluMiniWidth   = "Abmessung (mm) Alu Mini-Breite"
	aluMiniHeight  = "Abmessung (mm) Alu Mini-Höhe"
	aluMaxiWidth   = "Abmessung (mm) Alu Maxi-Breite"
	aluMaxiHeight  = "Abmessung (mm) Alu Maxi-Höhe"
	materialField  = "Materialauswahl"
	profileField   = "Profilhöhe"
	aluMiniColors  = "Farbwahl_alu_mini"
	aluMaxiColors  = "Farbwahl_alu_maxi"
	priceNode      = "product-price"
	widgetPrice    = "99,00 €"
	aluMiniMinimum = "33,60 €"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func radio(name, value string, checked, visible bool) Input {
	return Input{Name: name, Type: "radio", Value: value, Checked: checked, Visible: visible}
}

func textInput(name, value string, visible bool) Input {
	return Input{Name: name, Type: "text", Value: value, Visible: visible}
}

// newConfigurator renders an aluminium mini configurator with an aluminium
// maxi group that is still hidden.
func newConfigurator() *MemoryDocument {
	doc := NewMemoryDocument()
	doc.AddInput(radio(materialField, "Aluminium", true, true))
	doc.AddInput(radio(materialField, "PVC", false, true))
	doc.AddInput(radio(profileField, "Mini (37mm)", true, true))
	doc.AddInput(radio(profileField, "Maxi (52mm)", false, true))
	doc.AddInput(radio(aluMiniColors, "Weiß", true, true))
	doc.AddInput(radio(aluMiniColors, "Anthrazitgrau (S)", false, true))
	doc.AddInput(radio(aluMaxiColors, "Beige", true, false))
	doc.AddInput(radio(aluMaxiColors, "Weiß", false, false))
	doc.AddInput(radio(aluMaxiColors, "Anthrazitgrau (S)", false, false))
	doc.AddInput(textInput(aluMiniWidth, "", true))
	doc.AddInput(textInput(aluMiniHeight, "", true))
	doc.AddInput(textInput(aluMaxiWidth, "", false))
	doc.AddInput(textInput(aluMaxiHeight, "", false))
	doc.SetSelectedVariant("Alu Mini", "")
	doc.AddPriceNode(priceNode, widgetPrice, true)
	return doc
}

func inputByValue(t *testing.T, doc *MemoryDocument, name, value string) Input {
	t.Helper()
	inputs, _ := doc.Inputs()
	for _, in := range inputs {
		if in.Name == name && in.Value == value {
			return in
		}
	}
	t.Fatalf("input %s=%s not found", name, value)
	return Input{}
}

func inputValue(t *testing.T, doc *MemoryDocument, name string) string {
	t.Helper()
	inputs, _ := doc.Inputs()
	for _, in := range inputs {
		if in.Name == name {
			return in.Value
		}
	}
	t.Fatalf("input %s not found", name)
	return ""
}

type harness struct {
	doc   *MemoryDocument
	loop  *eventloop.Virtual
	hook  *Hook
	store *MemoryStore
	logs  *bytes.Buffer
}

func newHarness(t *testing.T, doc *MemoryDocument) *harness {
	t.Helper()
	var buf bytes.Buffer
	loop := eventloop.NewVirtual(epoch)
	store := NewMemoryStore()
	h := NewHook(doc, loop, pricing.NewRegistry(0), NewState(store, "test"), zerolog.New(&buf), DefaultConfig())
	t.Cleanup(h.Stop)
	return &harness{doc: doc, loop: loop, hook: h, store: store, logs: &buf}
}

// measure types both dimensions into the visible alu mini inputs.
func (h *harness) measure(width, height string) {
	_ = h.doc.SetInputValue(aluMiniWidth, width)
	_ = h.doc.SetInputValue(aluMiniHeight, height)
	h.loop.Flush()
}

func (h *harness) logCount(msg string) int {
	return strings.Count(h.logs.String(), msg)
}
