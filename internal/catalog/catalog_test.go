package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atmosgear/skate-league/internal/model"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	events := c.All()
	if len(events) != 6 {
		t.Fatalf("expected 6 events, got %d", len(events))
	}
	if events[0].ID != "king-15-mars" {
		t.Errorf("expected first event king-15-mars, got %q", events[0].ID)
	}

	e, ok := c.Get("electric-9-mai")
	if !ok {
		t.Fatal("electric-9-mai missing")
	}
	if e.Type != model.EventElectric || e.TotalSpots != 20 || e.ComingSoon {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Date != "SAMEDI 9 MAI" {
		t.Errorf("date: got %q", e.Date)
	}

	mixte, _ := c.Get("mixte-24-mai")
	if !mixte.ComingSoon {
		t.Error("mixte-24-mai should be coming soon")
	}

	if _, ok := c.Get("nope"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	events := c.All()
	events[0].Title = "mutated"

	if c.All()[0].Title == "mutated" {
		t.Error("All must not expose the internal slice")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing id": `events:
  - type: king
`,
		"unknown type": `events:
  - id: a
    type: sprint
`,
		"duplicate id": `events:
  - id: a
    type: king
  - id: a
    type: queen
`,
		"negative spots": `events:
  - id: a
    type: king
    total_spots: -1
`,
		"bad yaml": "events: [",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	doc := `events:
  - id: queen-1
    date: SAMEDI 1 JUIN
    title: Queen of the Road
    type: queen
    total_spots: 12
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := strings.Join(c.IDs(), ","); got != "queen-1" {
		t.Errorf("ids: got %q", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
