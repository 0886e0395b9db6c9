package roddoc

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Session is a connected browser with one open page.
type Session struct {
	Browser *rod.Browser
	Page    *rod.Page
}

// Open connects to controlURL, or launches a local browser when it is empty,
// and navigates to pageURL.
func Open(ctx context.Context, controlURL, pageURL string, headless bool) (*Session, error) {
	if controlURL == "" {
		u, err := launcher.New().Headless(headless).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("open %s: %w", pageURL, err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("wait for %s: %w", pageURL, err)
	}
	return &Session{Browser: browser, Page: page}, nil
}

// Close shuts the browser down.
func (s *Session) Close() error {
	if s == nil || s.Browser == nil {
		return nil
	}
	return s.Browser.Close()
}
