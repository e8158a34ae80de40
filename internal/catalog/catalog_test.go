package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Len() != 5 {
		t.Fatalf("expected 5 items, got %d", c.Len())
	}
	it, ok := c.ByID("WATER_OPT")
	if !ok || it.Price != 1800 || it.Command != "WATER_OPTIMIZER" || it.Category != Upgrade {
		t.Fatalf("unexpected WATER_OPT: %+v", it)
	}
	if c.Digest == "" || len(c.Digest) != 64 {
		t.Fatalf("bad digest %q", c.Digest)
	}
	if Default().Digest != c.Digest {
		t.Fatalf("digest must be stable")
	}
}

func TestFilter(t *testing.T) {
	c := Default()
	ids := func(items []Item) []string {
		var out []string
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}
	cases := []struct {
		cat  Category
		want []string
	}{
		{All, []string{"WHEAT_FIELD", "CORN_FIELD", "SMART_DRONE", "WATER_OPT", "SPEED_CHIP"}},
		{Land, []string{"WHEAT_FIELD", "CORN_FIELD"}},
		{Equipment, []string{"SMART_DRONE"}},
		{Upgrade, []string{"WATER_OPT", "SPEED_CHIP"}},
		{ParseCategory("resources"), []string{"WATER_OPT", "SPEED_CHIP"}},
	}
	for _, tc := range cases {
		got := ids(c.Filter(tc.cat))
		if len(got) != len(tc.want) {
			t.Fatalf("%s: got %v want %v", tc.cat, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: got %v want %v", tc.cat, got, tc.want)
			}
		}
	}

	// Callers cannot mutate the catalog through a filtered slice.
	f := c.Filter(All)
	f[0].Price = 1
	if it, _ := c.ByID("WHEAT_FIELD"); it.Price != 1000 {
		t.Fatalf("filter leaked catalog storage")
	}
}

func TestLoadOverrideAndErrors(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "market.json")
	if err := os.WriteFile(good, []byte(`[{"id":"X","name":"X","category":"LAND","price":5,"command":"X"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(good)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("len %d", c.Len())
	}

	bad := []string{
		`[{"id":"","category":"LAND","command":"X"}]`,
		`[{"id":"A","category":"LAND","command":"X"},{"id":"A","category":"LAND","command":"Y"}]`,
		`[{"id":"A","category":"FOOD","command":"X"}]`,
		`[{"id":"A","category":"LAND","price":-1,"command":"X"}]`,
		`[{"id":"A","category":"LAND"}]`,
		`[{"id":"A","category":"LAND","command":"X","color":"red"}]`,
	}
	for _, b := range bad {
		if _, err := Parse([]byte(b)); err == nil {
			t.Fatalf("expected error for %s", b)
		}
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
