package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/modelscout/modelscout/internal/models"
)

func TestDefault(t *testing.T) {
	tax := Default()
	cats := tax.Categories()
	if len(cats) != 5 {
		t.Fatalf("expected 5 categories, got %d", len(cats))
	}
	if cats[0] != "natural_language_processing" {
		t.Errorf("priority order should start with NLP, got %s", cats[0])
	}
	for _, id := range cats {
		cat, ok := tax.Category(id)
		if !ok {
			t.Fatalf("category %s missing", id)
		}
		if cat.Label == "" {
			t.Errorf("category %s has no label", id)
		}
		for subID, sub := range cat.Subcategories {
			if len(sub.Examples) == 0 {
				t.Errorf("%s/%s has no examples", id, subID)
			}
		}
	}
}

func TestSeeds_curatedOnly(t *testing.T) {
	tax := Default()
	seeds := tax.Seeds(false)
	if len(seeds) == 0 {
		t.Fatal("expected seeds")
	}
	for _, s := range seeds {
		if s.Provenance != models.ProvenanceCurated {
			t.Errorf("expected curated provenance, got %s for %q", s.Provenance, s.Text)
		}
		if s.Category == "" || s.Subcategory == "" || s.Text == "" {
			t.Errorf("incomplete seed: %+v", s)
		}
	}
}

func TestSeeds_ablationIncludesKeywordSeeds(t *testing.T) {
	tax := Default()
	curated := tax.Seeds(false)
	all := tax.Seeds(true)
	if len(all) <= len(curated) {
		t.Fatalf("ablation mode should add keyword seeds: %d vs %d", len(all), len(curated))
	}
	found := false
	for _, s := range all {
		if s.Provenance == models.ProvenanceKeyword {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected at least one keyword-provenance seed")
	}
}

func TestSeeds_deterministicOrder(t *testing.T) {
	tax := Default()
	a := tax.Seeds(false)
	b := tax.Seeds(false)
	if len(a) != len(b) {
		t.Fatal("seed count changed between calls")
	}
	for i := range a {
		if a[i].Text != b[i].Text || a[i].Category != b[i].Category || a[i].Subcategory != b[i].Subcategory {
			t.Fatalf("seed order is not deterministic at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestNew_skipsInvalidEntries(t *testing.T) {
	cats := map[string]Category{
		"good": {
			Label: "Good",
			Subcategories: map[string]Subcategory{
				"sub": {Label: "Sub", Examples: []string{"an example phrase"}},
			},
		},
		"no_label": {
			Subcategories: map[string]Subcategory{
				"sub": {Label: "Sub", Examples: []string{"phrase"}},
			},
		},
		"empty_examples": {
			Label: "Empty",
			Subcategories: map[string]Subcategory{
				"sub": {Label: "Sub"},
			},
		},
	}
	tax, err := New(cats, []string{"good"})
	if err != nil {
		t.Fatal(err)
	}
	if len(tax.Categories()) != 1 {
		t.Errorf("expected only the valid category, got %v", tax.Categories())
	}
	if _, ok := tax.Category("no_label"); ok {
		t.Error("unlabeled category should be skipped")
	}
	if _, ok := tax.Category("empty_examples"); ok {
		t.Error("category with no example phrases should be skipped")
	}
}

func TestNew_dropsBlankExamplePhrases(t *testing.T) {
	cats := map[string]Category{
		"vision": {
			Label: "Vision",
			Subcategories: map[string]Subcategory{
				"classify": {Label: "Classify", Examples: []string{"   ", "classify product photos", "!!!"}},
				"blank":    {Label: "Blank", Examples: []string{"  ", "..."}},
			},
		},
	}
	tax, err := New(cats, []string{"vision"})
	if err != nil {
		t.Fatal(err)
	}
	cat, _ := tax.Category("vision")
	if _, ok := cat.Subcategories["blank"]; ok {
		t.Error("subcategory with only blank examples should be skipped")
	}
	sub := cat.Subcategories["classify"]
	if len(sub.Examples) != 1 || sub.Examples[0] != "classify product photos" {
		t.Errorf("blank phrases should be dropped, got %v", sub.Examples)
	}
	for _, s := range tax.Seeds(false) {
		if len(s.Text) == 0 || s.Subcategory == "blank" {
			t.Errorf("blank-derived seed leaked into the corpus: %+v", s)
		}
	}
}

func TestNew_errorWhenNothingValid(t *testing.T) {
	if _, err := New(map[string]Category{}, nil); err == nil {
		t.Error("expected error for empty taxonomy")
	}
	cats := map[string]Category{"bad": {}}
	if _, err := New(cats, nil); err == nil {
		t.Error("expected error when all categories are invalid")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	content := `
priority: [vision]
categories:
  vision:
    label: Vision
    subcategories:
      classify:
        label: Classify Images
        examples:
          - "label photos by subject"
        keywords: ["photos"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	tax, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if tax.Label("vision") != "Vision" {
		t.Errorf("unexpected label: %s", tax.Label("vision"))
	}
	if tax.SubcategoryLabel("vision", "classify") != "Classify Images" {
		t.Errorf("unexpected subcategory label")
	}
	seeds := tax.Seeds(false)
	if len(seeds) != 1 || seeds[0].Text != "label photos by subject" {
		t.Errorf("unexpected seeds: %+v", seeds)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
