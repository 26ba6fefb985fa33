// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package recipegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/curioswitch/sweetspot/internal/llm"
	"github.com/curioswitch/sweetspot/internal/sweetdb"
)

// ErrGenerationFailed indicates the service returned nothing that
// deserializes as a recipe. There is no partial-recipe fallback.
var ErrGenerationFailed = errors.New("recipegen: could not parse recipe data")

var (
	errNoInput  = errors.New("recipegen: either a text query or an image is required")
	errTwoInput = errors.New("recipegen: text query and image are mutually exclusive")
	errServings = errors.New("recipegen: servings must be at least 1")
)

// Input is one analysis query. Exactly one of Text or Image is set.
type Input struct {
	// Text is a non-empty search query.
	Text string

	// Image is a decoded photo of the item, with its MIME type.
	Image         []byte
	ImageMIMEType string
}

// Options carry the user context an analysis is scaled to.
type Options struct {
	Proficiency sweetdb.ProficiencyLevel
	Servings    int

	// CupSize is set only for beverage and coffee analyses.
	CupSize string
}

func NewClient(genAI *genai.Client, model string) *Client {
	return &Client{
		genAI: genAI,
		model: model,
	}
}

// Client turns a query or photo into a structured recipe with a single
// schema-constrained generation call. It has no persistence side effects
// and never retries; retrying is the caller's decision.
type Client struct {
	genAI *genai.Client
	model string
}

func (c *Client) Generate(ctx context.Context, input Input, opts Options) (*sweetdb.RecipeRecord, error) {
	if input.Text == "" && len(input.Image) == 0 {
		return nil, errNoInput
	}
	if input.Text != "" && len(input.Image) > 0 {
		return nil, errTwoInput
	}
	if opts.Servings < 1 {
		return nil, errServings
	}

	levelContext := llm.LevelContext(opts.Proficiency, opts.Servings, opts.CupSize)
	var content *genai.Content
	if input.Text != "" {
		content = genai.NewContentFromText(llm.AnalyzeTextPrompt(input.Text, levelContext), genai.RoleUser)
	} else {
		content = &genai.Content{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{
					InlineData: &genai.Blob{
						Data:     input.Image,
						MIMEType: input.ImageMIMEType,
					},
				},
				{
					Text: llm.AnalyzeImagePrompt(levelContext),
				},
			},
		}
	}

	res, err := c.genAI.Models.GenerateContent(ctx, c.model, []*genai.Content{content}, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(llm.RecipeSystemPrompt(), genai.RoleModel),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    sweetdb.RecipeSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("recipegen: generating content: %w", err)
	}
	text := res.Text()
	if text == "" {
		return nil, ErrGenerationFailed
	}

	var recipe sweetdb.RecipeRecord
	if err := json.Unmarshal([]byte(text), &recipe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	// Step numbers are the join key to illustrations; normalize to a
	// contiguous 1..N regardless of what the model emitted.
	for i := range recipe.Steps {
		recipe.Steps[i].StepNumber = i + 1
	}
	return &recipe, nil
}
