package models

// Context keys the relay adds for the dialog engine.
const (
	ContextKeyEntities   = "analysis_entities"
	ContextKeyKeywords   = "analysis_keywords"
	ContextKeyCategories = "analysis_categories"
)

// FeatureOptions is sent empty to request a feature with service defaults.
type FeatureOptions struct{}

type Features struct {
	Entities   *FeatureOptions `json:"entities,omitempty"`
	Keywords   *FeatureOptions `json:"keywords,omitempty"`
	Categories *FeatureOptions `json:"categories,omitempty"`
}

// DefaultFeatures requests entities, keywords and categories.
func DefaultFeatures() Features {
	return Features{
		Entities:   &FeatureOptions{},
		Keywords:   &FeatureOptions{},
		Categories: &FeatureOptions{},
	}
}

// AnalyzeRequest is the text analyzer call.
type AnalyzeRequest struct {
	Text     string   `json:"text"`
	Features Features `json:"features"`
}

type Entity struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type Keyword struct {
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
}

type Category struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// AnalysisResult is what the text analyzer found. A nil slice means the
// analyzer did not return that feature.
type AnalysisResult struct {
	Entities   []Entity   `json:"entities,omitempty"`
	Keywords   []Keyword  `json:"keywords,omitempty"`
	Categories []Category `json:"categories,omitempty"`
}

// Empty reports whether no feature produced any element.
func (a *AnalysisResult) Empty() bool {
	return a == nil || (len(a.Entities) == 0 && len(a.Keywords) == 0 && len(a.Categories) == 0)
}

// MergeInto adds each non-empty feature array to ctx under its analysis key.
// Empty or missing arrays leave ctx untouched.
func (a *AnalysisResult) MergeInto(ctx Context) error {
	if a.Empty() {
		return nil
	}
	if len(a.Entities) > 0 {
		if err := ctx.Set(ContextKeyEntities, a.Entities); err != nil {
			return err
		}
	}
	if len(a.Keywords) > 0 {
		if err := ctx.Set(ContextKeyKeywords, a.Keywords); err != nil {
			return err
		}
	}
	if len(a.Categories) > 0 {
		if err := ctx.Set(ContextKeyCategories, a.Categories); err != nil {
			return err
		}
	}
	return nil
}

// StripAnalysisKeys removes analysis keys left over from an earlier turn so
// the dialog engine only sees annotations for the current input.
func StripAnalysisKeys(ctx Context) {
	delete(ctx, ContextKeyEntities)
	delete(ctx, ContextKeyKeywords)
	delete(ctx, ContextKeyCategories)
}
