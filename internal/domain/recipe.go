package domain

type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Optional bool   `json:"optional"`
	Notes    string `json:"notes,omitempty"`
}

type Instruction struct {
	StepNumber     int      `json:"step_number"`
	Description    string   `json:"description"`
	TimestampStart *float64 `json:"timestamp_start"`
	TimestampEnd   *float64 `json:"timestamp_end"`
}

type Recipe struct {
	JobID           string        `json:"job_id"`
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	Ingredients     []Ingredient  `json:"ingredients"`
	Instructions    []Instruction `json:"instructions"`
	CookTimeMinutes *int          `json:"cook_time_minutes,omitempty"`
	PrepTimeMinutes *int          `json:"prep_time_minutes,omitempty"`
	Servings        *int          `json:"servings,omitempty"`
	Difficulty      string        `json:"difficulty,omitempty"`
	Tags            []string      `json:"tags"`
	SourceURL       string        `json:"source_url"`
	ThumbnailURL    string        `json:"thumbnail_url,omitempty"`
	ConfidenceScore float64       `json:"confidence_score"`
}

const TagExtractionFailed = "extraction-failed"

// FallbackRecipe is the zero-confidence sentinel stored when extraction
// cannot produce a usable result. It never fails to construct, which makes
// it the last line of defense before a job is marked failed.
func FallbackRecipe(jobID, sourceURL string) *Recipe {
	return &Recipe{
		JobID:           jobID,
		Title:           "Recipe Extraction Failed",
		Description:     "Could not extract recipe from this video. The video may not contain a recipe or the content was not recognizable.",
		Ingredients:     []Ingredient{},
		Instructions:    []Instruction{},
		Tags:            []string{TagExtractionFailed},
		SourceURL:       sourceURL,
		ConfidenceScore: 0.0,
	}
}
