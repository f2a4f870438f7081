package domain

import "testing"

func testCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := NewCatalog([]Project{
		{ID: "personal_brand", Name: "Личный Бренд", Platforms: []string{"telegram", "instagram"}},
		{ID: "leader_team", Name: "Лидер Тим", Platforms: []string{"telegram", "linkedin"}},
		{ID: "pixie", Name: "Пикси", Platforms: []string{"telegram", "facebook"}},
	}, map[string]string{
		"личный":       "personal_brand",
		"личный бренд": "personal_brand",
		"лидер тим":    "leader_team",
		"пикси":        "pixie",
	}, map[string]string{
		"тг":       "telegram",
		"telegram": "telegram",
		"инста":    "instagram",
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func TestCatalogTargets(t *testing.T) {
	t.Parallel()

	c := testCatalog(t)

	if got := len(c.Targets("", "")); got != 6 {
		t.Fatalf("expected 6 targets for all projects, got %d", got)
	}

	pixie := c.Targets("pixie", "")
	if len(pixie) != 2 || pixie[0].Platform != "telegram" || pixie[1].Platform != "facebook" {
		t.Fatalf("unexpected pixie targets: %+v", pixie)
	}

	one := c.Targets("pixie", "telegram")
	if len(one) != 1 || one[0] != (Target{ProjectID: "pixie", Platform: "telegram"}) {
		t.Fatalf("unexpected single target: %+v", one)
	}
}

func TestCatalogParseTarget(t *testing.T) {
	t.Parallel()

	c := testCatalog(t)

	tests := []struct {
		in           string
		wantProject  string
		wantPlatform string
	}{
		{"личный тг", "personal_brand", "telegram"},
		{"Лидер Тим", "leader_team", ""},
		{"инста пикси", "pixie", "instagram"},
		{"pixie", "pixie", ""},
		{"unknown words", "", ""},
	}

	for _, tt := range tests {
		project, platform := c.ParseTarget(tt.in)
		if project != tt.wantProject || platform != tt.wantPlatform {
			t.Errorf("ParseTarget(%q) = %q, %q; want %q, %q", tt.in, project, platform, tt.wantProject, tt.wantPlatform)
		}
	}
}

func TestCatalogIsImmutable(t *testing.T) {
	t.Parallel()

	platforms := []string{"telegram"}
	c, err := NewCatalog([]Project{{ID: "p", Platforms: platforms}}, nil, nil)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	platforms[0] = "mutated"

	p, _ := c.Project("p")
	if p.Platforms[0] != "telegram" {
		t.Fatalf("catalog observed caller mutation: %v", p.Platforms)
	}
	p.Platforms[0] = "again"
	p2, _ := c.Project("p")
	if p2.Platforms[0] != "telegram" {
		t.Fatalf("catalog observed reader mutation: %v", p2.Platforms)
	}
}

func TestNewCatalogRejectsBadAlias(t *testing.T) {
	t.Parallel()

	if _, err := NewCatalog([]Project{{ID: "a"}}, map[string]string{"x": "b"}, nil); err == nil {
		t.Fatal("expected error for alias to unknown project")
	}
}
