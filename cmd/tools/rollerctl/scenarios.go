package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/roller-shop/internal/pricing"
	"github.com/noah-isme/roller-shop/internal/scenario"
)

func newScenariosCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios <file.yaml>",
		Short: "Replay pricing scenarios through the storefront hook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			reg, err := opts.registry()
			if err != nil {
				return err
			}
			results, ok, err := scenario.RunAll(f, reg.Current(), opts.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			passed := 0
			for _, r := range results {
				mark := "PASS"
				if r.Pass {
					passed++
				} else {
					mark = "FAIL"
				}
				fmt.Fprintf(out, "%s  %s\n", mark, r.Name)
				fmt.Fprintf(out, "      area %.3f m² (billed %.3f) x %s/m² = %s", r.AreaM2, r.ChargeableAreaM2, pricing.FormatEUR(r.PricePerM2), pricing.FormatEUR(r.Total))
				if r.MinimumApplied {
					fmt.Fprint(out, "  [minimum]")
				}
				fmt.Fprintln(out)
				if !r.Pass {
					fmt.Fprintf(out, "      %s\n", r.Reason)
				}
			}
			fmt.Fprintf(out, "\n%d/%d scenarios passed\n", passed, len(results))
			if !ok {
				return fmt.Errorf("%d scenario(s) failed", len(results)-passed)
			}
			return nil
		},
	}
}
