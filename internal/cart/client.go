package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/obs"
	"github.com/noah-isme/roller-shop/internal/resilience"
)

// Client posts items to a shop's /cart/add.js.
type Client struct {
	HTTP    resilience.HTTPClient
	BaseURL string
	Logger  zerolog.Logger
}

type addRequest struct {
	Items []Item `json:"items"`
}

// Add submits items and returns the shop's raw JSON response. Network errors
// and non-2xx statuses are returned after the HTTP client's retries.
func (c *Client) Add(ctx context.Context, items ...Item) (json.RawMessage, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("cart: no items")
	}
	body, err := json.Marshal(addRequest{Items: items})
	if err != nil {
		return nil, fmt.Errorf("encode cart items: %w", err)
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/cart/add.js"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		obs.RecordCartSubmission("error")
		c.Logger.Error().Err(err).Str("url", url).Msg("cart submission failed")
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		obs.RecordCartSubmission("error")
		return nil, fmt.Errorf("read cart response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		obs.RecordCartSubmission("rejected")
		c.Logger.Warn().Int("status", resp.StatusCode).Msg("cart rejected items")
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	obs.RecordCartSubmission("success")
	c.Logger.Info().Int("items", len(items)).Str("variant", items[0].ID).Msg("added to cart")
	return json.RawMessage(raw), nil
}
