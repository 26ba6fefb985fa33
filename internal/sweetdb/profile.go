// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package sweetdb

import (
	"time"
)

// ProficiencyLevels holds the user's skill tier per category.
type ProficiencyLevels struct {
	Dessert  ProficiencyLevel `json:"dessert"`
	Beverage ProficiencyLevel `json:"beverage"`
	Coffee   ProficiencyLevel `json:"coffee"`
}

// DefaultLevels returns the levels applied before remote profile data
// arrives.
func DefaultLevels() ProficiencyLevels {
	return ProficiencyLevels{
		Dessert:  ProficiencyBeginner,
		Beverage: ProficiencyBeginner,
		Coffee:   ProficiencyBeginner,
	}
}

// For returns the level for the given category.
func (l ProficiencyLevels) For(c Category) ProficiencyLevel {
	switch c {
	case CategoryBeverage:
		return l.Beverage
	case CategoryCoffee:
		return l.Coffee
	default:
		return l.Dessert
	}
}

// With returns a copy with the level for the given category replaced.
func (l ProficiencyLevels) With(c Category, level ProficiencyLevel) ProficiencyLevels {
	switch c {
	case CategoryBeverage:
		l.Beverage = level
	case CategoryCoffee:
		l.Coffee = level
	default:
		l.Dessert = level
	}
	return l
}

// DiaryEntry is a user-posted photo and caption recording a cooking result.
type DiaryEntry struct {
	// ID is assigned by the backend on insert.
	ID string `json:"id,omitempty"`

	// Photo is the downscaled photo as a data URL.
	Photo string `json:"photo"`

	// Text is the caption.
	Text string `json:"text"`

	// Date is the creation time.
	Date time.Time `json:"date"`
}

// HistoryEntry is one recorded analysis.
type HistoryEntry struct {
	// ID is assigned by the backend on insert.
	ID string `json:"id,omitempty"`

	// Query is the search text, or "Image Analysis" for photo queries.
	Query string `json:"query"`

	// Result is the recipe the analysis produced.
	Result RecipeRecord `json:"result"`

	// CreatedAt is the creation time.
	CreatedAt time.Time `json:"created_at"`
}

// UserProfile is the durable per-user profile.
type UserProfile struct {
	// Avatar is a downscaled avatar photo as a data URL, empty when unset.
	Avatar string `json:"avatar,omitempty"`

	// Levels are the per-category proficiency levels.
	Levels ProficiencyLevels `json:"levels"`

	// Diaries are the user's diary entries, newest first.
	Diaries []DiaryEntry `json:"diaries,omitempty"`
}
