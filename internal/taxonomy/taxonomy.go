// Package taxonomy defines the task taxonomy and builds the reference corpus
// the classifier votes against.
package taxonomy

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/modelscout/modelscout/internal/models"
	"github.com/modelscout/modelscout/pkg/utils"
)

// Subcategory is a leaf task type with hand-authored example phrases and
// keywords for the fallback scorer.
type Subcategory struct {
	Label    string   `yaml:"label"`
	Examples []string `yaml:"examples"`
	Keywords []string `yaml:"keywords"`
}

// Category is a top-level task family.
type Category struct {
	Label         string                 `yaml:"label"`
	Subcategories map[string]Subcategory `yaml:"subcategories"`
}

// file is the on-disk taxonomy shape.
type file struct {
	Priority   []string            `yaml:"priority"`
	Categories map[string]Category `yaml:"categories"`
}

// Taxonomy is a validated task taxonomy.
type Taxonomy struct {
	categories map[string]Category
	priority   []string
}

// Option configures taxonomy construction.
type Option func(*builder)

type builder struct {
	logger *zap.Logger
}

// WithLogger logs skipped entries during validation.
func WithLogger(l *zap.Logger) Option {
	return func(b *builder) { b.logger = l }
}

// New validates raw categories and returns a Taxonomy. Categories or
// subcategories missing a label, and subcategories with no example phrases,
// are skipped (and logged) rather than silently producing an under-populated
// corpus entry that can never win a vote.
func New(categories map[string]Category, priority []string, opts ...Option) (*Taxonomy, error) {
	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("taxonomy has no categories")
	}

	valid := make(map[string]Category, len(categories))
	for id, cat := range categories {
		if cat.Label == "" {
			b.skip("category missing label", id, "")
			continue
		}
		subs := make(map[string]Subcategory, len(cat.Subcategories))
		for subID, sub := range cat.Subcategories {
			if sub.Label == "" {
				b.skip("subcategory missing label", id, subID)
				continue
			}
			examples := make([]string, 0, len(sub.Examples))
			for _, ex := range sub.Examples {
				if len(utils.Tokenize(ex)) == 0 {
					b.skip("example phrase has no words", id, subID)
					continue
				}
				examples = append(examples, ex)
			}
			if len(examples) == 0 {
				b.skip("subcategory has no example phrases", id, subID)
				continue
			}
			sub.Examples = examples
			subs[subID] = sub
		}
		if len(subs) == 0 {
			b.skip("category has no valid subcategories", id, "")
			continue
		}
		valid[id] = Category{Label: cat.Label, Subcategories: subs}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("taxonomy has no valid categories after validation")
	}

	order := make([]string, 0, len(valid))
	seen := make(map[string]bool)
	for _, id := range priority {
		if _, ok := valid[id]; ok && !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}
	// Categories absent from the priority list come last, alphabetically.
	rest := make([]string, 0)
	for id := range valid {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	return &Taxonomy{categories: valid, priority: order}, nil
}

func (b *builder) skip(reason, category, subcategory string) {
	if b.logger == nil {
		return
	}
	b.logger.Warn("taxonomy entry skipped",
		zap.String("reason", reason),
		zap.String("category", category),
		zap.String("subcategory", subcategory))
}

// Load reads and validates a taxonomy YAML file.
func Load(path string, opts ...Option) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	return New(f.Categories, f.Priority, opts...)
}

// Categories returns category IDs in priority order (most general-purpose first).
func (t *Taxonomy) Categories() []string {
	out := make([]string, len(t.priority))
	copy(out, t.priority)
	return out
}

// Category returns the category by ID.
func (t *Taxonomy) Category(id string) (Category, bool) {
	cat, ok := t.categories[id]
	return cat, ok
}

// Label returns the display label for a category, or the ID when unknown.
func (t *Taxonomy) Label(category string) string {
	if cat, ok := t.categories[category]; ok {
		return cat.Label
	}
	return category
}

// SubcategoryLabel returns the display label for a subcategory, or the ID when unknown.
func (t *Taxonomy) SubcategoryLabel(category, subcategory string) string {
	if cat, ok := t.categories[category]; ok {
		if sub, ok := cat.Subcategories[subcategory]; ok {
			return sub.Label
		}
	}
	return subcategory
}

// Seeds flattens the taxonomy into reference corpus seeds (embeddings not yet
// attached). Only hand-authored example phrases are used unless
// includeKeywordSeeds is set; keyword-derived phrases are lower quality and
// measurably hurt the similarity signal, so they exist only for the
// calibration harness's ablation mode, flagged by provenance.
func (t *Taxonomy) Seeds(includeKeywordSeeds bool) []models.ReferenceExample {
	var seeds []models.ReferenceExample
	for _, catID := range t.priority {
		cat := t.categories[catID]
		subIDs := make([]string, 0, len(cat.Subcategories))
		for subID := range cat.Subcategories {
			subIDs = append(subIDs, subID)
		}
		sort.Strings(subIDs)
		for _, subID := range subIDs {
			sub := cat.Subcategories[subID]
			for _, ex := range sub.Examples {
				seeds = append(seeds, models.ReferenceExample{
					Text:        ex,
					Category:    catID,
					Subcategory: subID,
					Provenance:  models.ProvenanceCurated,
				})
			}
			if includeKeywordSeeds {
				for _, kw := range sub.Keywords {
					seeds = append(seeds, models.ReferenceExample{
						Text:        kw,
						Category:    catID,
						Subcategory: subID,
						Provenance:  models.ProvenanceKeyword,
					})
				}
			}
		}
	}
	return seeds
}
