package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/roller-shop/internal/pricing"
)

type quoteFlags struct {
	width, height     float64
	material, profile string
	color             string
	quantity          int
	asJSON            bool
}

func newQuoteCmd(opts *rootOptions) *cobra.Command {
	f := &quoteFlags{}
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a single configuration",
		Example: "  rollerctl quote --width 800 --height 900 --material alu --profile mini --color weiss\n" +
			"  rollerctl quote -W 1500 -H 1000 -m pvc -p maxi -c oregon -q 3 --json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := opts.registry()
			if err != nil {
				return err
			}
			resp, err := pricing.QuoteFor(reg.Current(), f.width, f.height, f.material, f.profile, f.color, f.quantity)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if f.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			fmt.Fprintf(out, "%s (%s)\n", resp.Code, resp.Key)
			fmt.Fprintf(out, "area      %.3f m²\n", resp.AreaM2)
			fmt.Fprintf(out, "billed    %.3f m²\n", resp.ChargeableAreaM2)
			fmt.Fprintf(out, "per m²    %s\n", pricing.FormatEUR(resp.PricePerM2))
			fmt.Fprintf(out, "unit      %s\n", resp.UnitFormatted)
			fmt.Fprintf(out, "total     %s (x%d)\n", resp.TotalFormatted, resp.Quantity)
			if resp.Warning != "" {
				fmt.Fprintf(out, "\n%s\n", resp.Warning)
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.Float64VarP(&f.width, "width", "W", 0, "width in mm")
	fl.Float64VarP(&f.height, "height", "H", 0, "height in mm")
	fl.StringVarP(&f.material, "material", "m", string(pricing.MaterialAlu), "alu or pvc")
	fl.StringVarP(&f.profile, "profile", "p", string(pricing.ProfileMini), "mini or maxi")
	fl.StringVarP(&f.color, "color", "c", "", "color id, e.g. weiss or oregon")
	fl.IntVarP(&f.quantity, "quantity", "q", 1, "number of units")
	fl.BoolVar(&f.asJSON, "json", false, "print the API response body")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}
