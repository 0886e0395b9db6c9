package storefront

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/eventloop"
	"github.com/noah-isme/roller-shop/internal/obs"
	"github.com/noah-isme/roller-shop/internal/pricing"
)

// Override keeps price nodes showing the minimum price while the area is
// below the minimum. The widget may re-render its price at any time, so the
// override is re-applied on every frame until Deactivate.
type Override struct {
	doc   Document
	loop  eventloop.Loop
	state *State
	log   zerolog.Logger

	active bool
	frame  eventloop.Timer
	price  pricing.Money
	text   string
	banner string
}

// NewOverride builds an inactive controller.
func NewOverride(doc Document, loop eventloop.Loop, state *State, logger zerolog.Logger) *Override {
	return &Override{doc: doc, loop: loop, state: state, log: logger}
}

// Active reports whether the frame loop is running.
func (c *Override) Active() bool {
	return c.active
}

// Activate sets the price to enforce, applies it at once and starts the frame
// loop if it is not already running.
func (c *Override) Activate(q pricing.Quote, sel Selection) {
	c.price = q.TotalPrice
	c.text = pricing.FormatEUR(q.TotalPrice)
	c.banner = BannerText(q, sel)
	if !c.active {
		c.active = true
		obs.RecordPriceOverride("activate")
	}
	c.Apply()
	if c.frame == nil && c.active {
		c.frame = c.loop.RequestFrame(c.tick)
	}
}

func (c *Override) tick() {
	c.frame = nil
	if !c.active {
		return
	}
	c.Apply()
	if c.active {
		c.frame = c.loop.RequestFrame(c.tick)
	}
}

// Apply performs one override pass. Nodes are only written when their text
// differs, and the warning is only logged when the price changed.
func (c *Override) Apply() {
	if !c.active {
		return
	}
	nodes, err := c.doc.PriceNodes()
	if err != nil {
		c.log.Debug().Err(err).Msg("read price nodes")
		return
	}
	for _, n := range nodes {
		if !n.Visible {
			continue
		}
		if !n.HasOriginal {
			if err := c.doc.SaveOriginal(n.Key, n.Text); err != nil {
				continue
			}
		}
		if strings.TrimSpace(n.Text) != c.text {
			if err := c.doc.SetPriceText(n.Key, c.text); err != nil {
				c.log.Debug().Err(err).Str("node", n.Key).Msg("override price text")
			}
		}
	}

	want := Banner{Text: c.banner, Visible: true}
	if cur, err := c.doc.Banner(); err != nil || cur != want {
		if err := c.doc.SetBanner(want); err != nil {
			c.log.Debug().Err(err).Msg("show minimum price banner")
		}
	}

	if c.state.setWarning(true, c.price) {
		c.log.Info().Str("price", pricing.Decimal(c.price)).Msg("minimum price warning displayed")
	}
}

// StopLoop cancels the frame loop without touching the document.
func (c *Override) StopLoop() {
	c.active = false
	if c.frame != nil {
		c.frame.Stop()
		c.frame = nil
	}
}

// Deactivate stops the loop, restores every saved original text exactly and
// hides the banner.
func (c *Override) Deactivate() {
	wasActive := c.active
	c.StopLoop()

	restored := 0
	if nodes, err := c.doc.PriceNodes(); err == nil {
		for _, n := range nodes {
			if !n.HasOriginal {
				continue
			}
			if n.Text != n.Original {
				if err := c.doc.SetPriceText(n.Key, n.Original); err != nil {
					c.log.Debug().Err(err).Str("node", n.Key).Msg("restore price text")
					continue
				}
			}
			_ = c.doc.ClearOriginal(n.Key)
			restored++
		}
	}

	if cur, err := c.doc.Banner(); err == nil && cur.Visible {
		_ = c.doc.SetBanner(Banner{})
	}
	c.state.setWarning(false, 0)

	if wasActive {
		obs.RecordPriceOverride("restore")
		c.log.Info().Int("nodes", restored).Msg("original prices restored")
	}
}

// BannerText renders the minimum price breakdown.
func BannerText(q pricing.Quote, sel Selection) string {
	return pricing.MinimumNotice(q, sel.MPC, sel.Special)
}
