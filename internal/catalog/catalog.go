package catalog

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type Category string

const (
	All       Category = "ALL"
	Land      Category = "LAND"
	Equipment Category = "EQUIPMENT"
	Upgrade   Category = "UPGRADE"
)

// ParseCategory accepts any case; unrecognised names fall back to Upgrade,
// the catch-all tab of the market.
func ParseCategory(s string) Category {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case "", All:
		return All
	case Land, Equipment:
		return c
	default:
		return Upgrade
	}
}

type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Category    Category `json:"category"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Command     string   `json:"command"`
}

// Catalog is immutable after Load.
type Catalog struct {
	items  []Item
	byID   map[string]Item
	Digest string
}

//go:embed market.json
var builtin []byte

// Default returns the built-in market catalog.
func Default() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("market.json: %v", err))
	}
	return c
}

// Load reads a catalog file; an empty path yields the built-in one.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Parse(b []byte) (*Catalog, error) {
	var items []Item
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&items); err != nil {
		return nil, err
	}
	c := &Catalog{byID: make(map[string]Item, len(items))}
	for _, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("empty item id")
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("duplicate item id: %s", it.ID)
		}
		switch it.Category {
		case Land, Equipment, Upgrade:
		default:
			return nil, fmt.Errorf("%s: bad category %q", it.ID, it.Category)
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("%s: negative price", it.ID)
		}
		if it.Command == "" {
			return nil, fmt.Errorf("%s: empty command", it.ID)
		}
		c.byID[it.ID] = it
		c.items = append(c.items, it)
	}
	d, err := sha256Hex(c.items)
	if err != nil {
		return nil, err
	}
	c.Digest = d
	return c, nil
}

func (c *Catalog) ByID(id string) (Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// Filter returns a fresh slice in catalog order.
func (c *Catalog) Filter(cat Category) []Item {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		if cat == All || it.Category == cat {
			out = append(out, it)
		}
	}
	return out
}

func (c *Catalog) Len() int { return len(c.items) }

func sha256Hex(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
