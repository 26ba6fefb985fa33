// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package illustrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/curioswitch/sweetspot/internal/imageutil"
	"github.com/curioswitch/sweetspot/internal/llm"
)

// HeroStep is the step number used for hero image results.
const HeroStep = 0

// ErrNoImage indicates the service reply contained no inline image part.
var ErrNoImage = errors.New("illustrate: no illustration could be generated")

// Result is the outcome of a single fetch. Generation tags the analysis
// the fetch belongs to so stale results can be discarded.
type Result struct {
	Generation uint64
	Step       int
	URL        string
	Err        error
}

func NewEngine(genAI *genai.Client, model string, results chan<- Result) *Engine {
	return &Engine{
		genAI:   genAI,
		model:   model,
		results: results,
	}
}

// Engine fetches hero and step illustrations. Every fetch is one isolated
// call on its own goroutine; items complete out of order and a failure
// never affects sibling fetches.
type Engine struct {
	genAI   *genai.Client
	model   string
	results chan<- Result
}

// FetchHero requests the 16:9 photograph of the finished item.
func (e *Engine) FetchHero(ctx context.Context, generation uint64, itemName string) {
	go e.fetch(ctx, generation, HeroStep, llm.HeroImagePrompt(itemName), "16:9")
}

// FetchStep requests the 1:1 illustration for one recipe step.
func (e *Engine) FetchStep(ctx context.Context, generation uint64, step int, prompt string) {
	go e.fetch(ctx, generation, step, llm.StepImagePrompt(prompt), "1:1")
}

func (e *Engine) fetch(ctx context.Context, generation uint64, step int, prompt string, aspectRatio string) {
	url, err := e.generate(ctx, prompt, aspectRatio)
	select {
	case e.results <- Result{Generation: generation, Step: step, URL: url, Err: err}:
	case <-ctx.Done():
	}
}

func (e *Engine) generate(ctx context.Context, prompt string, aspectRatio string) (string, error) {
	res, err := e.genAI.Models.GenerateContent(ctx, e.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: aspectRatio,
		},
	})
	if err != nil {
		return "", fmt.Errorf("illustrate: generating image: %w", err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", ErrNoImage
	}
	for _, part := range res.Candidates[0].Content.Parts {
		if part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "image/") {
			return imageutil.BytesToURL(part.InlineData.MIMEType, part.InlineData.Data), nil
		}
	}
	return "", ErrNoImage
}
