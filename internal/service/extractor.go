package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vixomaix/reel-to-recipe-api/internal/domain"
	"github.com/vixomaix/reel-to-recipe-api/internal/port"
)

const systemPrompt = `You are an expert recipe extraction AI. Your task is to analyze video content data and extract a complete, well-structured recipe.

You will receive:
1. OCR text extracted from video frames (may include ingredient lists, instructions shown on screen)
2. Audio transcription (spoken instructions and commentary)
3. Video metadata (duration, etc.)

Your goal is to create a complete recipe with:
- A clear, descriptive title
- A list of ingredients with quantities and units
- Step-by-step instructions
- Cooking/prep times if mentioned
- Serving size if mentioned
- Tags for categorization

Respond in valid JSON format matching the Recipe schema.`

const recipeSchema = `
{
  "title": "Recipe Title",
  "description": "Brief description of the dish",
  "ingredients": [
    {
      "name": "ingredient name",
      "quantity": "amount (e.g., 2, 1/2, 3-4)",
      "unit": "unit (e.g., cups, tbsp, oz, pieces)",
      "optional": false,
      "notes": "any special notes"
    }
  ],
  "instructions": [
    {
      "step_number": 1,
      "description": "Detailed instruction text",
      "timestamp_start": null,
      "timestamp_end": null
    }
  ],
  "cook_time_minutes": null,
  "prep_time_minutes": null,
  "servings": null,
  "difficulty": "easy|medium|hard",
  "tags": ["tag1", "tag2"],
  "confidence_score": 0.95
}
`

const (
	extractionTemperature = 0.3
	maxOCRLines           = 50
	minOCRLength          = 4
	maxTranscriptChars    = 5000
)

// Extractor turns a VideoData record into a Recipe through one AI call.
// Extraction is a pure function of its input apart from that call, so
// redelivery of the same record produces an equivalent result.
type Extractor struct {
	provider port.Provider
	timeout  time.Duration
}

func NewExtractor(provider port.Provider, timeout time.Duration) *Extractor {
	return &Extractor{provider: provider, timeout: timeout}
}

func (e *Extractor) Extract(ctx context.Context, jobID string, video *domain.VideoData) (*domain.Recipe, error) {
	userPrompt := buildPrompt(video)

	// A slow provider call must never starve the worker loop.
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.provider.GenerateJSON(callCtx, systemPrompt+"\n\nJSON Schema:\n"+recipeSchema, userPrompt, extractionTemperature)
	if err != nil {
		return nil, fmt.Errorf("generate recipe: %w", err)
	}

	recipe, err := decodeRecipe(raw)
	if err != nil {
		return nil, err
	}

	postProcess(recipe, jobID, video)
	return recipe, nil
}

func buildPrompt(video *domain.VideoData) string {
	var parts []string

	parts = append(parts, "# Video Information")
	if video.DurationSeconds > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %g seconds", video.DurationSeconds))
	} else {
		parts = append(parts, "Duration: Unknown")
	}
	if video.Resolution != nil {
		parts = append(parts, fmt.Sprintf("Resolution: %dx%d", video.Resolution.Width, video.Resolution.Height))
	}
	parts = append(parts, "")

	parts = append(parts, "# OCR Text from Video Frames")
	ocrLines := ocrLines(video.Frames)
	if len(ocrLines) > 0 {
		parts = append(parts, ocrLines...)
	} else {
		parts = append(parts, "(No text detected in frames)")
	}
	parts = append(parts, "")

	parts = append(parts, "# Audio Transcription")
	transcription := strings.TrimSpace(video.Transcription)
	if transcription != "" {
		if len(transcription) > maxTranscriptChars {
			transcription = transcription[:maxTranscriptChars]
		}
		parts = append(parts, transcription)
	} else {
		parts = append(parts, "(No audio transcription available)")
	}

	parts = append(parts, "")
	parts = append(parts, "# Task")
	parts = append(parts, "Extract a complete recipe from the above information. Return valid JSON.")

	return strings.Join(parts, "\n")
}

// ocrLines formats frame OCR text as "[<timestamp>s] <text>", dropping
// short noise fragments and capping the total to bound prompt size.
func ocrLines(frames []domain.Frame) []string {
	var lines []string
	for _, frame := range frames {
		text := strings.TrimSpace(frame.OCRText)
		if len(text) < minOCRLength {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%gs] %s", frame.Timestamp, text))
		if len(lines) == maxOCRLines {
			break
		}
	}
	return lines
}

func decodeRecipe(raw map[string]any) (*domain.Recipe, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("re-encode model response: %w", err)
	}
	var recipe domain.Recipe
	if err := json.Unmarshal(data, &recipe); err != nil {
		return nil, fmt.Errorf("model response does not match recipe schema: %w", err)
	}
	return &recipe, nil
}

// postProcess enforces the parts of the Recipe contract the model cannot be
// trusted with: identity fields, non-nil sequences, normalized step numbers
// and back-filled timing.
func postProcess(recipe *domain.Recipe, jobID string, video *domain.VideoData) {
	recipe.JobID = jobID
	recipe.SourceURL = video.SourceURL

	if recipe.Ingredients == nil {
		recipe.Ingredients = []domain.Ingredient{}
	}
	if recipe.Instructions == nil {
		recipe.Instructions = []domain.Instruction{}
	}
	if recipe.Tags == nil {
		recipe.Tags = []string{}
	}
	recipe.ConfidenceScore = math.Min(1, math.Max(0, recipe.ConfidenceScore))

	normalizeSteps(recipe.Instructions)
	backfillTimestamps(recipe.Instructions, video.DurationSeconds)
}

// normalizeSteps sorts instructions by the model's step numbering and
// renumbers them 1..N with no gaps.
func normalizeSteps(instructions []domain.Instruction) {
	sort.SliceStable(instructions, func(i, j int) bool {
		return instructions[i].StepNumber < instructions[j].StepNumber
	})
	for i := range instructions {
		instructions[i].StepNumber = i + 1
	}
}

// backfillTimestamps divides the video duration evenly across the steps:
// step i spans [(i-1)·D/N, i·D/N]. This is a uniform-pacing estimate, not
// derived from actual spoken timing.
func backfillTimestamps(instructions []domain.Instruction, duration float64) {
	if duration <= 0 || len(instructions) == 0 {
		return
	}

	stepDuration := duration / float64(len(instructions))
	for i := range instructions {
		start := round2(float64(instructions[i].StepNumber-1) * stepDuration)
		end := round2(float64(instructions[i].StepNumber) * stepDuration)
		instructions[i].TimestampStart = &start
		instructions[i].TimestampEnd = &end
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
