package storefront

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roller-shop/internal/pricing"
)

func TestHookAppliesMinimumPriceAfterDebounce(t *testing.T) {
	h := newHarness(t, newConfigurator())
	h.hook.Start()

	h.measure("800", "900")
	require.True(t, h.hook.Observer().Pending())
	require.Equal(t, widgetPrice, h.doc.PriceText(priceNode))

	h.loop.Advance(50 * time.Millisecond)
	require.True(t, h.hook.Override().Active())
	require.Equal(t, aluMiniMinimum, h.doc.PriceText(priceNode))

	banner, _ := h.doc.Banner()
	require.True(t, banner.Visible)
	require.Equal(t, "Mindestpreis (_1_1 (Standard)): €33.60/m² × max(0.720, 1,0) m² = €33.60", banner.Text)

	st := h.hook.State().Snapshot()
	require.True(t, st.MinimumWarningShown)
	require.Equal(t, pricing.MPCAluMini, st.MPC)
	require.NotNil(t, st.LastQuote)
	require.Equal(t, pricing.Money(3360), st.LastQuote.TotalPrice)

	m := h.hook.Measurements()
	require.InDelta(t, 0.72, m.Area, 1e-9)
	require.True(t, m.MinimumApplied)

	persisted, found, err := h.store.Load(context.Background(), "test")
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 0.72, persisted.Area, 1e-9)
}

func TestHookThresholdCrossingSkipsDebounce(t *testing.T) {
	h := newHarness(t, newConfigurator())
	h.hook.Start()

	h.measure("1000", "950")
	h.loop.Advance(50 * time.Millisecond)
	require.True(t, h.hook.Override().Active())

	_ = h.doc.SetInputValue(aluMiniHeight, "1050")
	h.loop.Flush()

	require.False(t, h.hook.Observer().Pending())
	require.False(t, h.hook.Override().Active())
	require.Equal(t, widgetPrice, h.doc.PriceText(priceNode))
	require.Equal(t, 1, h.logCount("crossed minimum area threshold"))

	banner, _ := h.doc.Banner()
	require.False(t, banner.Visible)
	require.False(t, h.hook.State().Snapshot().MinimumWarningShown)
}

func TestHookThresholdCrossingDownwards(t *testing.T) {
	h := newHarness(t, newConfigurator())
	h.hook.Start()

	h.measure("1200", "1200")
	h.loop.Advance(50 * time.Millisecond)
	require.False(t, h.hook.Override().Active())

	_ = h.doc.SetInputValue(aluMiniHeight, "800")
	h.loop.Flush()

	require.False(t, h.hook.Observer().Pending())
	require.True(t, h.hook.Override().Active())
	require.Equal(t, aluMiniMinimum, h.doc.PriceText(priceNode))
}

func TestHookDebouncesChangesOnSameSide(t *testing.T) {
	h := newHarness(t, newConfigurator())
	h.hook.Start()

	h.measure("1000", "950")
	h.loop.Advance(50 * time.Millisecond)

	_ = h.doc.SetInputValue(aluMiniHeight, "970")
	h.loop.Flush()
	require.True(t, h.hook.Observer().Pending())
	require.InDelta(t, 0.95, h.hook.State().Snapshot().LastQuote.AreaM2, 1e-9)

	h.loop.Advance(50 * time.Millisecond)
	require.False(t, h.hook.Observer().Pending())
	require.InDelta(t, 0.97, h.hook.State().Snapshot().LastQuote.AreaM2, 1e-9)
}

func TestHookClearingMeasurementsResetsWarning(t *testing.T) {
	h := newHarness(t, newConfigurator())
	h.hook.Start()

	h.measure("1000", "950")
	h.loop.Advance(50 * time.Millisecond)
	require.True(t, h.hook.Override().Active())

	_ = h.doc.SetInputValue(aluMiniHeight, "970")
	h.loop.Flush()
	require.True(t, h.hook.Observer().Pending())

	_ = h.doc.SetInputValue(aluMiniWidth, "")
	h.loop.Flush()

	require.False(t, h.hook.Observer().Pending())
	require.False(t, h.hook.Override().Active())
	require.Equal(t, widgetPrice, h.doc.PriceText(priceNode))

	st := h.hook.State().Snapshot()
	require.False(t, st.MinimumWarningShown)
	require.Nil(t, st.LastQuote)
	require.Equal(t, float64(1000), st.Width)

	h.loop.Advance(50 * time.Millisecond)
	require.Nil(t, h.hook.State().Snapshot().LastQuote)
}

func TestHookSkipsQuoteWithoutSelection(t *testing.T) {
	doc := NewMemoryDocument()
	doc.AddInput(radio(profileField, "Mini (37mm)", true, true))
	doc.AddInput(textInput(aluMiniWidth, "", true))
	doc.AddInput(textInput(aluMiniHeight, "", true))
	doc.AddPriceNode(priceNode, widgetPrice, true)

	h := newHarness(t, doc)
	h.hook.Start()
	h.measure("800", "900")
	h.loop.Advance(200 * time.Millisecond)

	require.False(t, h.hook.Override().Active())
	require.Nil(t, h.hook.State().Snapshot().LastQuote)
	require.Equal(t, widgetPrice, doc.PriceText(priceNode))
}

func TestHookLiftsOverrideAboveMinimumWithoutSelection(t *testing.T) {
	h := newHarness(t, newConfigurator())
	h.hook.Start()
	h.measure("800", "900")
	h.loop.Advance(50 * time.Millisecond)
	require.True(t, h.hook.Override().Active())

	// the widget drops the material radios while re-rendering
	h.doc.RemoveInputs(materialField)
	require.NoError(t, h.doc.SetInputValue(aluMiniWidth, "1200"))
	h.loop.Advance(200 * time.Millisecond)

	require.InDelta(t, 1.08, h.hook.State().Snapshot().Area, 1e-9)
	require.False(t, h.hook.Override().Active())
	require.Equal(t, widgetPrice, h.doc.PriceText(priceNode))
	banner, _ := h.doc.Banner()
	require.False(t, banner.Visible)
}

func TestHookSelectorClickAfterClearingKeepsWidgetPrice(t *testing.T) {
	h := newHarness(t, newConfigurator())
	h.hook.Start()
	h.measure("800", "900")
	h.loop.Advance(50 * time.Millisecond)
	require.True(t, h.hook.Override().Active())

	h.measure("", "")
	require.False(t, h.hook.Override().Active())

	require.NoError(t, h.doc.CheckInput(aluMiniColors, "Anthrazitgrau (S)"))
	h.loop.Advance(200 * time.Millisecond)

	require.False(t, h.hook.Override().Active())
	require.Equal(t, widgetPrice, h.doc.PriceText(priceNode))
	require.False(t, h.hook.State().Snapshot().MinimumWarningShown)
	require.Nil(t, h.hook.State().Snapshot().LastQuote)
	banner, _ := h.doc.Banner()
	require.False(t, banner.Visible)
}

func TestHookReappliesAfterWidgetRerender(t *testing.T) {
	h := newHarness(t, newConfigurator())
	h.hook.Start()
	h.measure("800", "900")
	h.loop.Advance(50 * time.Millisecond)

	h.doc.RenderPrice(priceNode, "120,00 €")
	h.loop.Advance(60 * time.Millisecond)
	require.Equal(t, aluMiniMinimum, h.doc.PriceText(priceNode))

	_ = h.doc.SetInputValue(aluMiniWidth, "1500")
	h.loop.Flush()
	require.False(t, h.hook.Override().Active())
	require.Equal(t, widgetPrice, h.doc.PriceText(priceNode))
}

func TestHookSelectorChangeRequotes(t *testing.T) {
	h := newHarness(t, newConfigurator())
	h.hook.Start()
	h.measure("800", "900")
	h.loop.Advance(50 * time.Millisecond)

	require.NoError(t, h.doc.CheckInput(aluMiniColors, "Anthrazitgrau (S)"))
	h.loop.Flush()

	st := h.hook.State().Snapshot()
	require.True(t, st.SpecialColor)
	require.Equal(t, pricing.Money(3468), st.LastQuote.TotalPrice)
	require.Equal(t, "34,68 €", h.doc.PriceText(priceNode))
	require.Equal(t, "Anthrazitgrau (S)", st.Color.Value)
	require.True(t, st.Color.Special)
}

func TestHookVariantSwitchRestoresDimensionsAndColor(t *testing.T) {
	h := newHarness(t, newConfigurator())
	h.hook.Start()
	h.measure("800", "900")
	h.loop.Advance(600 * time.Millisecond)
	require.Equal(t, "Weiß", h.hook.State().Snapshot().Color.Value)

	// the widget swaps the visible groups and leaves the new inputs empty
	for _, name := range []string{aluMiniColors, aluMiniWidth, aluMiniHeight} {
		h.doc.SetVisible(name, false)
	}
	for _, name := range []string{aluMaxiColors, aluMaxiWidth, aluMaxiHeight} {
		h.doc.SetVisible(name, true)
	}
	h.doc.SetSelectedVariant("Alu Maxi", "")
	require.NoError(t, h.doc.CheckInput(profileField, "Maxi (52mm)"))
	h.loop.Flush()

	h.loop.Advance(400 * time.Millisecond)

	require.Equal(t, "800", inputValue(t, h.doc, aluMaxiWidth))
	require.Equal(t, "900", inputValue(t, h.doc, aluMaxiHeight))
	require.True(t, inputByValue(t, h.doc, aluMaxiColors, "Weiß").Checked)
	require.False(t, inputByValue(t, h.doc, aluMaxiColors, "Beige").Checked)

	st := h.hook.State().Snapshot()
	require.Equal(t, pricing.MPCAluMaxi, st.MPC)
	require.Equal(t, "Alu Maxi", st.Variant)
	require.Equal(t, aluMaxiColors, st.Color.Field)
	require.Equal(t, "37,15 €", h.doc.PriceText(priceNode))
	require.Equal(t, 1, h.logCount("dimensions restored"))
	require.Equal(t, 1, h.logCount("color restored from cache"))
}

func TestHookDimensionRestoreIsBounded(t *testing.T) {
	h := newHarness(t, newConfigurator())
	h.hook.Start()
	h.measure("800", "900")

	h.hook.restoreDimensions("Alu Midi", 800, 900)
	h.loop.Advance(10 * time.Second)

	require.Equal(t, 1, h.logCount("dimension restore timed out"))
	require.Contains(t, h.logs.String(), `"attempts":50`)
	require.Nil(t, h.hook.dimRestore)
}

func TestHookRebindsToReplacedInputs(t *testing.T) {
	h := newHarness(t, newConfigurator())
	h.hook.Start()
	h.measure("800", "900")
	h.loop.Advance(50 * time.Millisecond)
	require.True(t, h.hook.Override().Active())

	// the widget re-renders the width input; the stale node is gone
	h.doc.RemoveInputs(aluMiniWidth)
	h.doc.AddInput(textInput(aluMiniWidth, "1200", true))
	h.loop.Flush()
	require.False(t, h.hook.Override().Active())

	require.NoError(t, h.doc.SetInputValue(aluMiniWidth, "1000"))
	h.loop.Flush()
	require.True(t, h.hook.Override().Active())
	require.InDelta(t, 0.9, h.hook.State().Snapshot().Area, 1e-9)
}

func TestHookStopCancelsEverything(t *testing.T) {
	h := newHarness(t, newConfigurator())
	h.hook.Start()
	h.measure("800", "900")
	h.loop.Advance(60 * time.Millisecond)
	require.True(t, h.hook.Override().Active())

	h.hook.Stop()
	require.Equal(t, 0, h.loop.Pending())

	_ = h.doc.SetInputValue(aluMiniWidth, "400")
	h.loop.Advance(time.Second)
	require.Equal(t, float64(800), h.hook.State().Snapshot().Width)
}

func TestHookDimensionInputsFollowVisibility(t *testing.T) {
	h := newHarness(t, newConfigurator())
	w, hh := h.hook.DimensionInputs()
	require.Equal(t, aluMiniWidth, w)
	require.Equal(t, aluMiniHeight, hh)

	h.doc.SetVisible(aluMiniWidth, false)
	h.doc.SetVisible(aluMiniHeight, false)
	h.doc.SetVisible(aluMaxiWidth, true)
	h.doc.SetVisible(aluMaxiHeight, true)
	w, hh = h.hook.DimensionInputs()
	require.Equal(t, aluMaxiWidth, w)
	require.Equal(t, aluMaxiHeight, hh)
}
