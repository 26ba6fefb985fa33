// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package sweetdb

import (
	"google.golang.org/genai"
)

type Category string

const (
	CategoryDessert  Category = "Dessert"
	CategoryBeverage Category = "Beverage"
	CategoryCoffee   Category = "Coffee"
)

// Categories lists the selectable categories in display order.
var Categories = []Category{CategoryDessert, CategoryBeverage, CategoryCoffee}

// Sized reports whether the category uses a cup size when scaling recipes.
func (c Category) Sized() bool {
	return c == CategoryBeverage || c == CategoryCoffee
}

type ProficiencyLevel string

const (
	ProficiencyBeginner     ProficiencyLevel = "Beginner"
	ProficiencyIntermediate ProficiencyLevel = "Intermediate"
	ProficiencyProfessional ProficiencyLevel = "Professional"
)

// CupSizes are the selectable cup sizes for beverage and coffee recipes.
var CupSizes = []string{"8oz", "12oz", "16oz", "20oz"}

// DefaultCupSize is applied whenever the category switches away from a
// sized one.
const DefaultCupSize = "12oz"

// Suggestions are the quick-recipe suggestions shown for each category.
var Suggestions = map[Category][]string{
	CategoryDessert:  {"Chocolate Lava Cake", "Strawberry Macarons", "Matcha Cheesecake", "Tiramisu"},
	CategoryBeverage: {"Iced Hibiscus Tea", "Mango Lassi", "Sparkling Lemonade", "Berry Smoothie"},
	CategoryCoffee:   {"Caramel Macchiato", "Vanilla Latte", "Dalgona Coffee", "Affogato"},
}

// RecipeStep represents a numbered step in a recipe.
type RecipeStep struct {
	// StepNumber is the 1-based position of the step. It is the join key
	// between a step and its illustration.
	StepNumber int `json:"stepNumber"`

	// Description is the description of the step.
	Description string `json:"description"`

	// ImagePrompt is a prompt for an illustration of the step.
	ImagePrompt string `json:"imagePrompt"`
}

// RecipeRecord is a recipe produced by a single analysis. It is immutable
// once received; a new analysis replaces it wholesale.
type RecipeRecord struct {
	// ItemName is the name of the food or drink item. It also keys saved
	// recipe membership.
	ItemName string `json:"itemName"`

	// Description is a short description of the item.
	Description string `json:"description"`

	// PrepTime is the preparation time as display text, e.g. "32 MINS".
	PrepTime string `json:"prepTime"`

	// Servings is the number of people as display text, e.g. "2 PEOPLE".
	Servings string `json:"servings"`

	// Calories is the calories per serving as display text, e.g. "230 CALORIES".
	Calories string `json:"calories"`

	// Ingredients are the required ingredients, scaled to the request.
	Ingredients []string `json:"ingredients"`

	// Tools are the required kitchen tools.
	Tools []string `json:"tools"`

	// Steps are the steps to prepare the item, numbered 1..N.
	Steps []RecipeStep `json:"steps"`
}

// RecipeSchema constrains recipe generation output to RecipeRecord JSON.
var RecipeSchema = &genai.Schema{
	Type:     "object",
	Required: []string{"itemName", "description", "prepTime", "servings", "calories", "ingredients", "tools", "steps"},
	Properties: map[string]*genai.Schema{
		"itemName": {
			Type:        "string",
			Description: "Name of the food or drink item.",
		},
		"description": {
			Type:        "string",
			Description: "Short appetizing description.",
		},
		"prepTime": {
			Type:        "string",
			Description: "Preparation time, e.g. '32 MINS'.",
		},
		"servings": {
			Type:        "string",
			Description: "Number of people, e.g. '2 PEOPLE'.",
		},
		"calories": {
			Type:        "string",
			Description: "Calories per serving, e.g. '230 CALORIES'.",
		},
		"ingredients": {
			Type:        "array",
			Description: "Required ingredients, scaled to the requested servings and size.",
			Items: &genai.Schema{
				Type: "string",
			},
		},
		"tools": {
			Type:        "array",
			Description: "Required kitchen tools.",
			Items: &genai.Schema{
				Type: "string",
			},
		},
		"steps": {
			Type:        "array",
			Description: "The steps of the recipe.",
			Items: &genai.Schema{
				Type: "object",
				Properties: map[string]*genai.Schema{
					"stepNumber": {
						Type:        "integer",
						Description: "The 1-based number of the step.",
					},
					"description": {
						Type:        "string",
						Description: "The description of the step.",
					},
					"imagePrompt": {
						Type:        "string",
						Description: "A simple prompt for a hand-drawn watercolor style illustration of this step.",
					},
				},
				Required: []string{"stepNumber", "description", "imagePrompt"},
			},
		},
	},
}
