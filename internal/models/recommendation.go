package models

// CatalogModel is one entry in the model catalog.
type CatalogModel struct {
	Name          string   `json:"name" yaml:"name"`
	Category      string   `json:"category" yaml:"category"`
	Subcategories []string `json:"subcategories,omitempty" yaml:"subcategories"`
	SizeMB        float64  `json:"size_mb" yaml:"size_mb"`
	Accuracy      float64  `json:"accuracy" yaml:"accuracy"`
	License       string   `json:"license,omitempty" yaml:"license"`
}

// RankedModel is a catalog model with its position in a recommendation.
type RankedModel struct {
	Model            CatalogModel `json:"model"`
	Rank             int          `json:"rank"`
	SubcategoryMatch bool         `json:"subcategory_match"`
	// EnergyNote is a rough impact estimate derived from model size.
	EnergyNote string `json:"energy_note,omitempty"`
}

// Recommendation is the response to a recommend request: the task
// classification plus catalog models ranked smaller-first.
type Recommendation struct {
	ID             string                `json:"id"`
	Classification *ClassificationResult `json:"classification"`
	Models         []RankedModel         `json:"models"`
	// NeedsClarification is set when classification confidence stayed below
	// the gate threshold; callers should prompt for a clearer task description.
	NeedsClarification bool `json:"needs_clarification,omitempty"`
}

// RecommendRequest is a recommendation request.
type RecommendRequest struct {
	Text        string  `json:"text"`
	MaxSizeMB   float64 `json:"max_size_mb,omitempty"`
	MinAccuracy float64 `json:"min_accuracy,omitempty"`
	Limit       int     `json:"limit,omitempty"`
}

// Validate rejects empty input and normalizes the limit.
func (q *RecommendRequest) Validate() error {
	if err := (&ClassifyRequest{Text: q.Text}).Validate(); err != nil {
		return err
	}
	if q.Limit <= 0 {
		q.Limit = 5
	}
	if q.Limit > 25 {
		q.Limit = 25
	}
	return nil
}
