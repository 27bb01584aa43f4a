package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// ErrNoImageData is returned when the model answered without an inline image.
var ErrNoImageData = errors.New("no image data returned")

const defaultImageMIMEType = "image/png"

// VisualizationRequest describes the character to draw and the scene to draw it in.
type VisualizationRequest struct {
	Reference         []byte
	ReferenceMIMEType string
	Name              string
	Description       string
	Keywords          []string
	Prompt            string
}

// Image is a generated image.
type Image struct {
	Data     []byte
	MIMEType string
}

// Illustrator renders new images of an existing character.
type Illustrator struct {
	caller
}

func NewIllustrator(gen ContentGenerator, model string, timeout time.Duration) *Illustrator {
	return &Illustrator{caller{gen: gen, model: model, operation: "visualize", timeout: timeout}}
}

func (il *Illustrator) GenerateVisualization(ctx context.Context, req VisualizationRequest) (*Image, error) {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: req.ReferenceMIMEType, Data: req.Reference}},
		{Text: VisualizationInstruction(req)},
	}
	resp, err := il.generate(ctx, parts, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, err
	}

	img, err := FirstInlineImage(resp)
	if err != nil {
		il.fail()
		return nil, fmt.Errorf("visualize: %w", err)
	}
	return img, nil
}

// VisualizationInstruction composes the text part sent alongside the reference image.
func VisualizationInstruction(req VisualizationRequest) string {
	var sb strings.Builder
	sb.WriteString("Create a new illustration of the character shown in the reference image. ")
	sb.WriteString("Keep their appearance consistent with the reference.\n")
	fmt.Fprintf(&sb, "Name: %s\n", req.Name)
	fmt.Fprintf(&sb, "Description: %s\n", req.Description)
	fmt.Fprintf(&sb, "Keywords: %s\n", strings.Join(req.Keywords, ", "))
	fmt.Fprintf(&sb, "Scene: %s", req.Prompt)
	return sb.String()
}

// FirstInlineImage returns the first non-empty inline image of the first candidate.
func FirstInlineImage(resp *genai.GenerateContentResponse) (*Image, error) {
	cand, err := firstCandidate(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImageData, err)
	}
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = defaultImageMIMEType
			}
			return &Image{Data: part.InlineData.Data, MIMEType: mimeType}, nil
		}
	}
	if cand.FinishReason != "" && cand.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("%w (finish reason %s)", ErrNoImageData, cand.FinishReason)
	}
	return nil, ErrNoImageData
}
