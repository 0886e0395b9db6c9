package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/roller-shop/internal/eventloop"
	"github.com/noah-isme/roller-shop/internal/pricing"
	"github.com/noah-isme/roller-shop/internal/storefront"
	"github.com/noah-isme/roller-shop/internal/storefront/roddoc"
)

type probeFlags struct {
	controlURL    string
	priceSelector string
	headless      bool
	wait          time.Duration
	width, height string
}

type probeReport struct {
	URL          string                  `json:"url"`
	Selection    *storefront.Selection   `json:"selection"`
	Measurements storefront.Measurements `json:"measurements"`
	Quote        *pricing.Quote          `json:"quote,omitempty"`
	Override     bool                    `json:"override_active"`
	PriceNodes   []storefront.PriceNode  `json:"price_nodes"`
}

func newProbeCmd(opts *rootOptions) *cobra.Command {
	f := &probeFlags{}
	cmd := &cobra.Command{
		Use:   "probe <url>",
		Short: "Open a product page, attach the pricing hook and report what it sees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.registry()
			if err != nil {
				return err
			}
			logger := opts.logger(cmd.ErrOrStderr())

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sess, err := roddoc.Open(ctx, f.controlURL, args[0], f.headless)
			if err != nil {
				return err
			}
			defer func() {
				if err := sess.Close(); err != nil {
					logger.Debug().Err(err).Msg("close browser")
				}
			}()

			doc := roddoc.New(ctx, sess.Page, roddoc.Options{PriceSelector: f.priceSelector, Logger: logger})
			defer doc.Close()

			loop := eventloop.New()
			loopDone := make(chan error, 1)
			go func() { loopDone <- loop.Run(ctx) }()

			hookCfg := storefront.DefaultConfig()
			if opts.cfg != nil && opts.cfg.StorefrontDebounce > 0 {
				hookCfg.Debounce = opts.cfg.StorefrontDebounce
			}
			hook := storefront.NewHook(doc, loop, reg, storefront.NewState(storefront.NewMemoryStore(), args[0]), logger, hookCfg)
			if err := loop.Do(ctx, hook.Start); err != nil {
				return err
			}
			if f.width != "" && f.height != "" {
				if err := typeDimensions(ctx, loop, hook, doc, f.width, f.height); err != nil {
					return err
				}
			}

			select {
			case <-time.After(f.wait):
			case <-ctx.Done():
				return ctx.Err()
			}

			report := probeReport{URL: args[0]}
			err = loop.Do(ctx, func() {
				if sel, ok := hook.Resolver().DetectActiveSelection(); ok {
					report.Selection = &sel
				}
				report.Measurements = hook.Measurements()
				report.Quote = hook.State().Snapshot().LastQuote
				report.Override = hook.Override().Active()
				report.PriceNodes, _ = doc.PriceNodes()
				hook.Stop()
			})
			if err != nil {
				return err
			}
			cancel()
			<-loopDone

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.controlURL, "control-url", "", "DevTools websocket of a running browser (launches one when empty)")
	fl.StringVar(&f.priceSelector, "price-selector", "", "CSS selector of the price nodes")
	fl.BoolVar(&f.headless, "headless", true, "run the launched browser headless")
	fl.DurationVar(&f.wait, "wait", 3*time.Second, "how long to let the hook settle before reporting")
	fl.StringVar(&f.width, "width", "", "type this width (mm) into the active configurator")
	fl.StringVar(&f.height, "height", "", "type this height (mm) into the active configurator")
	return cmd
}

// typeDimensions fills the visible dimension pair of the active variant.
func typeDimensions(ctx context.Context, loop *eventloop.Runner, hook *storefront.Hook, doc storefront.Document, width, height string) error {
	var widthField, heightField string
	if err := loop.Do(ctx, func() {
		widthField, heightField = hook.DimensionInputs()
	}); err != nil {
		return err
	}
	if widthField == "" || heightField == "" {
		return fmt.Errorf("no visible dimension inputs on the page")
	}
	if err := doc.SetInputValue(widthField, width); err != nil {
		return err
	}
	return doc.SetInputValue(heightField, height)
}
