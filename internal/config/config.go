// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"github.com/curioswitch/go-curiostack/config"
)

type Supabase struct {
	// URL is the base URL of the Supabase project, e.g. https://dlpyowpiwxpfrcadepnn.supabase.co.
	URL string `koanf:"url"`

	// AnonKey is the publishable anon key for the project.
	AnonKey string `koanf:"anonkey"`

	// SessionFile is the path the current auth session is persisted to so it
	// can be restored on the next start. Defaults to a file under the user
	// config directory when empty.
	SessionFile string `koanf:"sessionfile"`
}

type GenAI struct {
	// APIKey is the Gemini API key.
	APIKey string `koanf:"apikey"`

	// RecipeModel is the model used for recipe analysis, e.g. gemini-3-pro-preview.
	RecipeModel string `koanf:"recipemodel"`

	// ImageModel is the model used for hero and step image generation,
	// e.g. gemini-2.5-flash-image.
	ImageModel string `koanf:"imagemodel"`
}

type Config struct {
	config.Common

	// Supabase is the configuration for the persistence and auth backend.
	Supabase Supabase `koanf:"supabase"`

	// GenAI is the configuration for generative models.
	GenAI GenAI `koanf:"genai"`
}
