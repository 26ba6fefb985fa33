// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package app

import (
	"maps"
	"slices"

	"github.com/curioswitch/sweetspot/internal/session"
	"github.com/curioswitch/sweetspot/internal/sweetdb"
)

// Snapshot is a read-only copy of the application state for rendering.
type Snapshot struct {
	View View `json:"view"`

	// AuthGate blocks all views until a session exists.
	AuthGate bool           `json:"authGate"`
	Session  session.Status `json:"session"`
	Username string         `json:"username,omitempty"`

	Category    sweetdb.Category `json:"category"`
	Servings    int              `json:"servings"`
	CupSize     string           `json:"cupSize"`
	Suggestions []string         `json:"suggestions"`

	Analyzing bool   `json:"analyzing"`
	PostFlow  bool   `json:"postFlow"`
	Posting   bool   `json:"posting"`
	Notice    string `json:"notice,omitempty"`

	Recipe        *sweetdb.RecipeRecord `json:"recipe,omitempty"`
	Illustrations map[int]Illustration  `json:"illustrations"`

	Saved   []sweetdb.RecipeRecord `json:"saved"`
	History []sweetdb.HistoryEntry `json:"history"`
	Profile sweetdb.UserProfile    `json:"profile"`
}

// Snapshot returns a copy of the current state. The copy shares nothing
// mutable with the orchestrator, so callers can hold it freely.
func (o *Orchestrator) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	o.do(func() { reply <- o.snapshot() })
	select {
	case snap := <-reply:
		return snap
	case <-o.done:
		return Snapshot{}
	}
}

func (o *Orchestrator) snapshot() Snapshot {
	snap := Snapshot{
		View:          o.view,
		AuthGate:      o.session.State != session.StateAuthenticated,
		Session:       o.session,
		Username:      o.username,
		Category:      o.category,
		Servings:      o.servings,
		CupSize:       o.cupSize,
		Suggestions:   slices.Clone(sweetdb.Suggestions[o.category]),
		Analyzing:     o.analyzing,
		PostFlow:      o.postFlow,
		Posting:       o.posting,
		Notice:        o.notice,
		Illustrations: maps.Clone(o.illus),
		Saved:         slices.Clone(o.saved),
		History:       slices.Clone(o.history),
		Profile:       o.profile,
	}
	if o.recipe != nil {
		recipe := *o.recipe
		recipe.Ingredients = slices.Clone(recipe.Ingredients)
		recipe.Tools = slices.Clone(recipe.Tools)
		recipe.Steps = slices.Clone(recipe.Steps)
		snap.Recipe = &recipe
	}
	snap.Profile.Diaries = slices.Clone(o.profile.Diaries)
	return snap
}
