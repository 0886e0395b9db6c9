package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// Sample measurements used for converted fixtures.
const (
	fixtureWidthMM   = 2000
	fixtureHeightMM  = 1500
	fallbackPricePM2 = 50.0
)

type shopifyOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type shopifyVariant struct {
	ID    json.Number `json:"id"`
	Title string      `json:"title"`
	Price string      `json:"price"`
}

type shopifyProduct struct {
	ID       json.Number      `json:"id"`
	Title    string           `json:"title"`
	Options  []shopifyOption  `json:"options"`
	Variants []shopifyVariant `json:"variants"`
}

type fixture struct {
	Configurator configuratorFixture `json:"configurator"`
	Cart         cartFixture         `json:"shopify_cart"`
}

type configuratorFixture struct {
	ProductID         string            `json:"product_id"`
	Title             string            `json:"title"`
	VariantSelections map[string]string `json:"variant_selections"`
	Measurements      fixtureMeasures   `json:"measurements"`
	Pricing           fixturePricing    `json:"pricing"`
}

type fixtureMeasures struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
	AreaM2   float64 `json:"area_m2"`
}

type fixturePricing struct {
	BasePricePerM2 float64 `json:"base_price_per_m2"`
	MinAreaM2      float64 `json:"min_area_m2"`
	MinimumApplied bool    `json:"minimum_applied"`
	TotalPrice     string  `json:"total_price"`
}

type cartFixture struct {
	Items []cartFixtureItem `json:"items"`
}

type cartFixtureItem struct {
	Title      string            `json:"title"`
	VariantID  string            `json:"variant_id"`
	Properties map[string]string `json:"properties"`
	Price      string            `json:"price"`
	Quantity   int               `json:"quantity"`
}

func newConvertProductCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "convert-product <product.json> <fixture.json>",
		Short: "Convert a Shopify product export into a configurator test fixture",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read product: %w", err)
			}
			product, err := decodeProduct(raw)
			if err != nil {
				return err
			}
			reg, err := opts.registry()
			if err != nil {
				return err
			}
			fx, err := convertProduct(product, reg.Current().MinAreaM2)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(fx, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], append(out, '\n'), 0o644); err != nil {
				return fmt.Errorf("write fixture: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %s €)\n", args[1], fx.Configurator.Title, fx.Configurator.Pricing.TotalPrice)
			return nil
		},
	}
}

// decodeProduct accepts a bare product, {"product": ...}, {"products": [...]}
// or a top level array, and returns the first product found.
func decodeProduct(raw []byte) (shopifyProduct, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var list []shopifyProduct
		if err := json.Unmarshal(raw, &list); err != nil {
			return shopifyProduct{}, fmt.Errorf("decode product list: %w", err)
		}
		if len(list) == 0 {
			return shopifyProduct{}, errors.New("product list is empty")
		}
		return list[0], nil
	}

	var wrapper struct {
		Product  *shopifyProduct  `json:"product"`
		Products []shopifyProduct `json:"products"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return shopifyProduct{}, fmt.Errorf("decode product: %w", err)
	}
	switch {
	case wrapper.Product != nil:
		return *wrapper.Product, nil
	case len(wrapper.Products) > 0:
		return wrapper.Products[0], nil
	}
	var p shopifyProduct
	if err := json.Unmarshal(raw, &p); err != nil {
		return shopifyProduct{}, fmt.Errorf("decode product: %w", err)
	}
	return p, nil
}

func convertProduct(p shopifyProduct, minAreaM2 float64) (fixture, error) {
	if len(p.Variants) == 0 {
		return fixture{}, fmt.Errorf("product %q has no variants", p.Title)
	}
	v := p.Variants[0]

	pricePM2 := fallbackPricePM2
	if parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Price), 64); err == nil && parsed > 0 {
		pricePM2 = parsed
	}

	selections := map[string]string{}
	for _, opt := range p.Options {
		if opt.Name == "" || len(opt.Values) == 0 {
			continue
		}
		selections[opt.Name] = opt.Values[0]
	}

	area := float64(fixtureWidthMM) * float64(fixtureHeightMM) / 1e6
	billable := math.Max(area, minAreaM2)
	total := strconv.FormatFloat(math.Round(billable*pricePM2*100)/100, 'f', 2, 64)

	props := make(map[string]string, len(selections)+3)
	for k, val := range selections {
		props[k] = val
	}
	props["Width (mm)"] = strconv.Itoa(fixtureWidthMM)
	props["Height (mm)"] = strconv.Itoa(fixtureHeightMM)
	props["Area (m2)"] = strconv.FormatFloat(area, 'f', 3, 64)

	return fixture{
		Configurator: configuratorFixture{
			ProductID:         p.ID.String(),
			Title:             p.Title,
			VariantSelections: selections,
			Measurements:      fixtureMeasures{WidthMM: fixtureWidthMM, HeightMM: fixtureHeightMM, AreaM2: area},
			Pricing: fixturePricing{
				BasePricePerM2: pricePM2,
				MinAreaM2:      minAreaM2,
				MinimumApplied: area < minAreaM2,
				TotalPrice:     total,
			},
		},
		Cart: cartFixture{Items: []cartFixtureItem{{
			Title:      p.Title,
			VariantID:  v.ID.String(),
			Properties: props,
			Price:      total,
			Quantity:   1,
		}}},
	}, nil
}
