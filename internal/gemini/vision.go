package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// ErrMalformedTraits is returned when the model output is not the expected JSON object.
var ErrMalformedTraits = errors.New("malformed character traits")

const analysisInstruction = "You are a character designer. Look at the character in this image and " +
	"produce a creative name for them, a 2-3 sentence description of their appearance and personality, " +
	"and about 5 short descriptive keywords. Respond with a JSON object containing exactly the fields " +
	"\"name\" (string), \"description\" (string) and \"keywords\" (array of strings)."

// CharacterTraits is the structured result of analyzing one character image.
type CharacterTraits struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Analyzer turns a character image into CharacterTraits.
type Analyzer struct {
	caller
}

func NewAnalyzer(gen ContentGenerator, model string, timeout time.Duration) *Analyzer {
	return &Analyzer{caller{gen: gen, model: model, operation: "analyze", timeout: timeout}}
}

func traitsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"keywords": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"name", "description", "keywords"},
	}
}

func (a *Analyzer) AnalyzeCharacter(ctx context.Context, image []byte, mimeType string) (*CharacterTraits, error) {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		{Text: analysisInstruction},
	}
	resp, err := a.generate(ctx, parts, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   traitsSchema(),
	})
	if err != nil {
		return nil, err
	}

	text, err := candidateText(resp)
	if err != nil {
		a.fail()
		return nil, fmt.Errorf("analyze: %w", err)
	}
	traits, err := ParseCharacterTraits(text)
	if err != nil {
		a.fail()
		return nil, fmt.Errorf("analyze: %w", err)
	}
	return traits, nil
}

// ParseCharacterTraits decodes the model's JSON answer. Surrounding markdown code
// fences are tolerated; every field must be present.
func ParseCharacterTraits(text string) (*CharacterTraits, error) {
	raw := stripCodeFence(text)

	var payload struct {
		Name        *string   `json:"name"`
		Description *string   `json:"description"`
		Keywords    *[]string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTraits, err)
	}

	var missing []string
	if payload.Name == nil {
		missing = append(missing, "name")
	}
	if payload.Description == nil {
		missing = append(missing, "description")
	}
	if payload.Keywords == nil {
		missing = append(missing, "keywords")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedTraits, strings.Join(missing, ", "))
	}

	keywords := *payload.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return &CharacterTraits{
		Name:        *payload.Name,
		Description: *payload.Description,
		Keywords:    keywords,
	}, nil
}

func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
