package pricing

import (
	"fmt"
	"math"
	"os"
	"sort"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Table maps keys such as alu_mini_standard to a price per square metre.
type Table map[string]Money

var defaultTable = Table{
	"alu_mini_standard": 3360,
	"alu_mini_special":  3468,
	"alu_maxi_standard": 3715,
	"alu_maxi_special":  3791,
	"pvc_mini_standard": 2322,
	"pvc_mini_special":  2467,
	"pvc_maxi_standard": 2458,
	"pvc_maxi_special":  2558,
}

// DefaultTable returns a copy of the built-in price list.
func DefaultTable() Table {
	out := make(Table, len(defaultTable))
	for k, v := range defaultTable {
		out[k] = v
	}
	return out
}

// Lookup returns the price for key, or FallbackPricePerM2 with found=false.
func (t Table) Lookup(key string) (price Money, found bool) {
	if p, ok := t[key]; ok && p > 0 {
		return p, true
	}
	return FallbackPricePerM2, false
}

// Keys lists table keys in stable order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TableFile is the on-disk price override format.
type TableFile struct {
	MinAreaM2 float64            `yaml:"min_area_m2"`
	Prices    map[string]float64 `yaml:"prices"`
}

// LoadTableFile reads a YAML price file. Keys not present in the file keep
// their built-in price. Prices are given in euros.
func LoadTableFile(path string) (Table, float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read price file: %w", err)
	}
	return ParseTable(raw)
}

// ParseTable decodes the YAML price format.
func ParseTable(raw []byte) (Table, float64, error) {
	var file TableFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, 0, fmt.Errorf("decode price file: %w", err)
	}
	table := DefaultTable()
	for key, euros := range file.Prices {
		if _, ok := defaultTable[key]; !ok {
			return nil, 0, fmt.Errorf("unknown price key %q", key)
		}
		if euros <= 0 {
			return nil, 0, fmt.Errorf("price for %s must be positive", key)
		}
		table[key] = Money(math.Round(euros * 100))
	}
	minArea := file.MinAreaM2
	if minArea < 0 {
		return nil, 0, fmt.Errorf("min_area_m2 must not be negative")
	}
	if minArea == 0 {
		minArea = DefaultMinAreaM2
	}
	return table, minArea, nil
}

// Snapshot is an immutable table plus the minimum area it is used with.
type Snapshot struct {
	Table     Table
	MinAreaM2 float64
	// Version increases with every Replace.
	Version uint64
}

// Quote prices dim with the snapshot's table and minimum area.
func (s Snapshot) Quote(dim Dimension, ctx Context) (Quote, bool) {
	return s.Table.Quote(dim, ctx, s.MinAreaM2)
}

// Registry holds the active price snapshot and allows swapping it at runtime.
type Registry struct {
	current atomic.Pointer[Snapshot]
}

// NewRegistry starts with the built-in table and minArea (<= 0 means default).
func NewRegistry(minAreaM2 float64) *Registry {
	if minAreaM2 <= 0 {
		minAreaM2 = DefaultMinAreaM2
	}
	r := &Registry{}
	r.current.Store(&Snapshot{Table: DefaultTable(), MinAreaM2: minAreaM2, Version: 1})
	return r
}

// Current returns the active snapshot.
func (r *Registry) Current() Snapshot {
	return *r.current.Load()
}

// Replace installs a new snapshot.
func (r *Registry) Replace(table Table, minAreaM2 float64) {
	prev := r.current.Load()
	r.current.Store(&Snapshot{Table: table, MinAreaM2: minAreaM2, Version: prev.Version + 1})
}

// LoadFile replaces the snapshot with the contents of path.
func (r *Registry) LoadFile(path string) error {
	table, minArea, err := LoadTableFile(path)
	if err != nil {
		return err
	}
	r.Replace(table, minArea)
	return nil
}
