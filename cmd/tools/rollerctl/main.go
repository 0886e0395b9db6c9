// Command rollerctl bundles the operator tooling around roller pricing:
// fixture conversion, scenario replay, one-off quotes, live page probes,
// test cart submissions and account lookups against the shop API.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/roller-shop/internal/config"
	"github.com/noah-isme/roller-shop/internal/pricing"
	"github.com/noah-isme/roller-shop/internal/resilience"
)

type rootOptions struct {
	pricesFile string
	minArea    float64
	verbose    bool

	cfg *config.Config
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "rollerctl",
		Short:         "Tooling for roller shutter pricing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentPreRunE = func(*cobra.Command, []string) error {
		cfg, err := config.LoadTooling()
		if err != nil {
			return err
		}
		opts.cfg = cfg
		return nil
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.pricesFile, "prices", "", "YAML or JSON price table (defaults to $PRICING_TABLE_FILE, then the built-in table)")
	root.PersistentFlags().Float64Var(&opts.minArea, "min-area", 0, "minimum billable area in m² (defaults to the table's value, then $PRICING_MIN_AREA_M2)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newConvertProductCmd(opts),
		newScenariosCmd(opts),
		newQuoteCmd(opts),
		newProbeCmd(opts),
		newCartCmd(opts),
		newAccountCmd(opts),
	)
	return root
}

func (o *rootOptions) logger(w io.Writer) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if o.verbose {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).Level(lvl).With().Timestamp().Logger()
}

// registry loads the price table selected by the flags, falling back to
// the environment.
func (o *rootOptions) registry() (*pricing.Registry, error) {
	file := strings.TrimSpace(o.pricesFile)
	minArea := o.minArea
	if o.cfg != nil {
		if file == "" {
			file = o.cfg.PricingTableFile
		}
		if minArea <= 0 && file == "" {
			minArea = o.cfg.PricingMinAreaM2
		}
	}
	reg := pricing.NewRegistry(minArea)
	if file == "" {
		return reg, nil
	}
	table, fileMin, err := pricing.LoadTableFile(file)
	if err != nil {
		return nil, err
	}
	if minArea <= 0 {
		minArea = fileMin
	}
	reg.Replace(table, minArea)
	return reg, nil
}

// outbound returns client settings for target; timeout overrides the
// environment when positive.
func (o *rootOptions) outbound(target string, timeout time.Duration) resilience.Options {
	cfg := o.cfg
	if cfg == nil {
		cfg = &config.Config{RetryMaxAttempts: 1}
	}
	opts := cfg.Outbound(target)
	if timeout > 0 {
		opts.Timeout = timeout
	}
	return opts
}
