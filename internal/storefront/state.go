package storefront

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/roller-shop/internal/cache"
	"github.com/noah-isme/roller-shop/internal/pricing"
)

// ColorCache remembers the last stable color selection so it can be
// re-selected after a variant switch.
type ColorCache struct {
	Value   string `json:"value"`
	Special bool   `json:"special"`
	Field   string `json:"field"`
}

// ObserverState is the hook's view of the configurator.
type ObserverState struct {
	Width               float64        `json:"width"`
	Height              float64        `json:"height"`
	Area                float64        `json:"area"`
	Variant             string         `json:"variant,omitempty"`
	MPC                 pricing.MPC    `json:"mpc,omitempty"`
	SpecialColor        bool           `json:"special_color"`
	LastQuote           *pricing.Quote `json:"last_quote,omitempty"`
	MinimumWarningShown bool           `json:"minimum_warning_shown"`
	LastLoggedPrice     pricing.Money  `json:"last_logged_price,omitempty"`
	Color               ColorCache     `json:"color"`
}

// State owns an ObserverState. Each slice of it has exactly one mutator:
// measurements, quote, warning, and color.
type State struct {
	mu    sync.RWMutex
	cur   ObserverState
	store StateStore
	key   string
}

// NewState creates state persisted under session in store (nil store keeps
// it in memory only).
func NewState(store StateStore, session string) *State {
	return &State{store: store, key: session}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() ObserverState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.cur
	if s.cur.LastQuote != nil {
		q := *s.cur.LastQuote
		out.LastQuote = &q
	}
	return out
}

// Load replaces the state with the persisted copy, if any.
func (s *State) Load(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	st, found, err := s.store.Load(ctx, s.key)
	if err != nil || !found {
		return false, err
	}
	s.mu.Lock()
	s.cur = st
	s.mu.Unlock()
	return true, nil
}

// Persist saves the current state.
func (s *State) Persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Save(ctx, s.key, s.Snapshot())
}

func (s *State) setMeasurement(width, height float64, variant string) (prevArea, area float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prevArea = s.cur.Area
	s.cur.Width = width
	s.cur.Height = height
	s.cur.Area = width * height / 1e6
	if variant != "" {
		s.cur.Variant = variant
	}
	return prevArea, s.cur.Area
}

func (s *State) setQuote(q pricing.Quote, mpc pricing.MPC, special bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.LastQuote = &q
	s.cur.MPC = mpc
	s.cur.SpecialColor = special
}

// setWarning updates the warning slice and reports whether price differs
// from the last logged one.
func (s *State) setWarning(shown bool, price pricing.Money) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.MinimumWarningShown = shown
	changed = s.cur.LastLoggedPrice != price
	s.cur.LastLoggedPrice = price
	return changed
}

func (s *State) setColor(c ColorCache) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Color = c
}

// clearPricing drops the quote and warning after the measurements were
// cleared. The last measurement is kept so it can be restored.
func (s *State) clearPricing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.LastQuote = nil
	s.cur.MinimumWarningShown = false
	s.cur.LastLoggedPrice = 0
}

// StateStore persists observer state between sessions.
type StateStore interface {
	Load(ctx context.Context, session string) (ObserverState, bool, error)
	Save(ctx context.Context, session string, st ObserverState) error
}

// MemoryStore keeps state in process.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]ObserverState
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: map[string]ObserverState{}}
}

func (m *MemoryStore) Load(_ context.Context, session string) (ObserverState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[session]
	return st, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, session string, st ObserverState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[session] = st
	return nil
}

// RedisStore persists state as JSON in Redis.
type RedisStore struct {
	Cache  *cache.Cache
	Prefix string
}

// NewRedisStore stores states through c; the cache TTL bounds their lifetime.
func NewRedisStore(c *cache.Cache, prefix string) *RedisStore {
	return &RedisStore{Cache: c, Prefix: prefix}
}

func (r *RedisStore) Load(ctx context.Context, session string) (ObserverState, bool, error) {
	var st ObserverState
	found, err := r.Cache.GetJSON(ctx, cache.KeyObserverState(r.Prefix, session), &st)
	return st, found, err
}

func (r *RedisStore) Save(ctx context.Context, session string, st ObserverState) error {
	return r.Cache.SetJSON(ctx, cache.KeyObserverState(r.Prefix, session), st)
}

const persistTimeout = 500 * time.Millisecond
