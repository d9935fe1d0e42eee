// Package catalog holds the static list of race events offered for registration.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/atmosgear/skate-league/internal/model"
)

//go:embed events.yaml
var defaultEvents []byte

// Catalog is an immutable, ordered set of events.
type Catalog struct {
	events []model.Event
	byID   map[string]model.Event
}

type file struct {
	Events []model.Event `yaml:"events"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultEvents)
}

// Load reads a catalog from a YAML file. An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML event list.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	c := &Catalog{
		events: make([]model.Event, 0, len(f.Events)),
		byID:   make(map[string]model.Event, len(f.Events)),
	}
	for i, e := range f.Events {
		e.ID = strings.TrimSpace(e.ID)
		if e.ID == "" {
			return nil, fmt.Errorf("event #%d: id is required", i+1)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("event %q: duplicate id", e.ID)
		}
		if !e.Type.Valid() {
			return nil, fmt.Errorf("event %q: unknown type %q", e.ID, e.Type)
		}
		if e.TotalSpots < 0 {
			return nil, fmt.Errorf("event %q: total_spots must not be negative", e.ID)
		}
		c.events = append(c.events, e)
		c.byID[e.ID] = e
	}
	return c, nil
}

// All returns the events in declaration order.
func (c *Catalog) All() []model.Event {
	out := make([]model.Event, len(c.events))
	copy(out, c.events)
	return out
}

// IDs returns the event ids in declaration order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.events))
	for i, e := range c.events {
		ids[i] = e.ID
	}
	return ids
}

// Get looks up an event by id.
func (c *Catalog) Get(id string) (model.Event, bool) {
	e, ok := c.byID[id]
	return e, ok
}
