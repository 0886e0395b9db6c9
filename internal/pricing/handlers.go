package pricing

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/cache"
	"github.com/noah-isme/roller-shop/internal/common"
	"github.com/noah-isme/roller-shop/internal/obs"
)

const maxQuantity = 999

// Handler serves the public pricing endpoints.
type Handler struct {
	Registry    *Registry
	Cache       *cache.Cache
	CachePrefix string
	Production  bool
	Logger      zerolog.Logger
}

// ConfigResponse describes everything a configurator needs to price locally.
type ConfigResponse struct {
	Version     uint64              `json:"version"`
	MinAreaM2   float64             `json:"min_area_m2"`
	PricesCents map[string]Money    `json:"prices_cents"`
	Constraints map[Material]Limits `json:"constraints"`
	Colors      map[string][]Color  `json:"colors"`
	Codes       map[string]MPC      `json:"codes"`
}

type quoteRequest struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
	Material string  `json:"material"`
	Profile  string  `json:"profile"`
	Color    string  `json:"color"`
	Quantity int     `json:"quantity"`
}

// QuoteResponse is a quote plus the derived display values.
type QuoteResponse struct {
	Quote
	Key            string `json:"key"`
	Code           MPC    `json:"code"`
	SpecialColor   bool   `json:"special_color"`
	MinimumApplied bool   `json:"minimum_applied"`
	Warning        string `json:"warning,omitempty"`
	UnitFormatted  string `json:"unit_price_formatted"`
	TotalFormatted string `json:"total_price_formatted"`
}

// Config handles GET /api/pricing/config.
func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	snap := h.Registry.Current()
	key := cache.KeyPricingConfig(h.CachePrefix, strconv.FormatUint(snap.Version, 10))

	var resp ConfigResponse
	found, err := h.Cache.GetJSON(r.Context(), key, &resp)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("read pricing config cache")
	}
	if !found {
		resp = BuildConfig(snap)
		if err := h.Cache.SetJSON(r.Context(), key, resp); err != nil {
			h.Logger.Warn().Err(err).Msg("write pricing config cache")
		}
	}
	common.JSON(w, http.StatusOK, resp)
}

// BuildConfig renders snap for clients.
func BuildConfig(snap Snapshot) ConfigResponse {
	resp := ConfigResponse{
		Version:     snap.Version,
		MinAreaM2:   snap.MinAreaM2,
		PricesCents: make(map[string]Money, len(snap.Table)),
		Constraints: make(map[Material]Limits, len(limits)),
		Colors:      make(map[string][]Color, len(colorCatalog)),
		Codes:       make(map[string]MPC, 4),
	}
	for k, v := range snap.Table {
		resp.PricesCents[k] = v
	}
	for m, l := range limits {
		resp.Constraints[m] = l
	}
	for _, m := range []Material{MaterialAlu, MaterialPVC} {
		for _, p := range []Profile{ProfileMini, ProfileMaxi} {
			line := string(m) + "_" + string(p)
			resp.Colors[line] = Colors(m, p)
			code, _ := CodeFor(m, p)
			resp.Codes[line] = code
		}
	}
	return resp
}

// Quote handles POST /api/pricing/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	resp, err := QuoteFor(h.Registry.Current(), req.WidthMM, req.HeightMM, req.Material, req.Profile, req.Color, req.Quantity)
	if err != nil {
		h.fail(w, err)
		return
	}
	if resp.FallbackPrice {
		h.Logger.Warn().Str("key", resp.Key).Msg("price table key missing, using fallback price")
	}
	common.JSON(w, http.StatusOK, resp)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	common.WriteError(w, err, h.Production)
}

// QuoteFor validates the raw request values and prices them with snap.
func QuoteFor(snap Snapshot, widthMM, heightMM float64, material, profile, color string, quantity int) (QuoteResponse, error) {
	mat, ok := ParseMaterial(material)
	if !ok {
		return QuoteResponse{}, common.BadRequest("Invalid material")
	}
	prof, ok := ParseProfile(profile)
	if !ok {
		return QuoteResponse{}, common.BadRequest("Invalid profile")
	}
	dim := Dimension{WidthMM: widthMM, HeightMM: heightMM}
	if err := ValidateDimension(mat, dim); err != nil {
		var dimErr *DimensionError
		if errors.As(err, &dimErr) {
			return QuoteResponse{}, common.BadRequest(dimErr.Error()).WithDetails(map[string]any{
				"field": dimErr.Field,
				"min":   dimErr.Range.Min,
				"max":   dimErr.Range.Max,
			})
		}
		return QuoteResponse{}, err
	}
	if color != "" {
		if _, ok := FindColor(mat, prof, color); !ok {
			return QuoteResponse{}, common.BadRequest("Unknown color for this product line")
		}
	}
	if quantity > maxQuantity {
		quantity = maxQuantity
	}

	special := IsSpecialColor(color)
	ctx := Context{Material: mat, Profile: prof, SpecialColor: special, Quantity: quantity}
	q, _ := snap.Quote(dim, ctx)
	code, _ := CodeFor(mat, prof)

	resp := QuoteResponse{
		Quote:          q,
		Key:            ctx.Key(),
		Code:           code,
		SpecialColor:   special,
		MinimumApplied: q.MinimumApplied(),
		UnitFormatted:  FormatEUR(q.UnitPrice),
		TotalFormatted: FormatEUR(q.TotalPrice),
	}
	if resp.MinimumApplied {
		resp.Warning = MinimumNotice(q, code, special)
	}
	class := "standard"
	if special {
		class = "special"
	}
	obs.RecordQuote(string(mat), string(prof), class, resp.MinimumApplied)
	return resp, nil
}
