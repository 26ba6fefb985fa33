// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package llm

import (
	"fmt"

	"github.com/curioswitch/sweetspot/internal/sweetdb"
)

// RecipeSystemPrompt fixes the tone of recipe analysis and the style
// contract for step image prompts.
func RecipeSystemPrompt() string {
	return recipeSystemPrompt
}

const recipeSystemPrompt = `You are an expert culinary AI. Provide accurate recipes. For imagePrompt, describe a subject ISOLATED ON A PURE WHITE BACKGROUND, hand-drawn watercolor style.`

// LevelContext returns the proficiency and scaling guidance embedded in
// every analysis request.
func LevelContext(proficiency sweetdb.ProficiencyLevel, servings int, cupSize string) string {
	sizeContext := ""
	if cupSize != "" {
		sizeContext = fmt.Sprintf(" Scale the ingredients for a %s cup size per serving.", cupSize)
	}
	guidance := ""
	switch proficiency {
	case sweetdb.ProficiencyBeginner:
		guidance = "Provide simple, detailed steps and common ingredients."
	case sweetdb.ProficiencyProfessional:
		guidance = "Use technical terminology and advanced techniques."
	default:
		guidance = "Provide a standard, high-quality recipe."
	}
	return fmt.Sprintf(`The user is at a %q level. Scale the recipe for %d people.%s %s`, proficiency, servings, sizeContext, guidance)
}

// AnalyzeTextPrompt is the user prompt for a text query.
func AnalyzeTextPrompt(query, levelContext string) string {
	return fmt.Sprintf(`Analyze this sweet: %q. %s Identify and provide recipe JSON.`, query, levelContext)
}

// AnalyzeImagePrompt is the user prompt accompanying an uploaded photo.
func AnalyzeImagePrompt(levelContext string) string {
	return fmt.Sprintf(`Identify this sweet from the image. %s Provide recipe JSON.`, levelContext)
}

// HeroImagePrompt describes the finished-item photograph shown atop the
// recipe view.
func HeroImagePrompt(itemName string) string {
	return fmt.Sprintf(`A professional, appetizing, high-resolution food photograph of %s. Gourmet presentation, soft natural sunlight, shallow depth of field, minimalist aesthetic, clean tabletop background.`, itemName)
}

// StepImagePrompt appends the fixed style qualifiers to a generated step
// prompt.
func StepImagePrompt(prompt string) string {
	return prompt + `. Style: Hand-drawn watercolor, vector, ISOLATED ON PURE WHITE BACKGROUND, NO BACKGROUND elements, soft pastel colors.`
}
