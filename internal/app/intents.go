// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package app

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/curioswitch/sweetspot/internal/imageutil"
	"github.com/curioswitch/sweetspot/internal/sweetdb"
)

// SetView switches the active screen. The recipe view is entered only by
// activating a recipe, never directly.
func (o *Orchestrator) SetView(v View) {
	o.do(func() {
		switch v {
		case ViewHome, ViewSaved, ViewProfile, ViewHistory:
			o.view = v
		}
	})
}

// SetCategory selects the active category. Leaving a sized category
// resets the cup size.
func (o *Orchestrator) SetCategory(c sweetdb.Category) {
	o.do(func() {
		if !slices.Contains(sweetdb.Categories, c) {
			return
		}
		o.category = c
		if !c.Sized() {
			o.cupSize = sweetdb.DefaultCupSize
		}
	})
}

// SetServings sets the serving count, clamped to the stepper bounds.
func (o *Orchestrator) SetServings(n int) {
	o.do(func() {
		o.servings = min(max(n, minServings), maxServings)
	})
}

// SetCupSize selects a cup size for sized categories.
func (o *Orchestrator) SetCupSize(size string) {
	o.do(func() {
		if !o.category.Sized() || !slices.Contains(sweetdb.CupSizes, size) {
			return
		}
		o.cupSize = size
	})
}

// OpenSaved activates a saved recipe by item name.
func (o *Orchestrator) OpenSaved(itemName string) {
	o.do(func() {
		if i := o.savedIndex(itemName); i >= 0 {
			o.openRecipe(o.saved[i])
		}
	})
}

// OpenHistory activates the recipe of a history entry by id.
func (o *Orchestrator) OpenHistory(id string) {
	o.do(func() {
		for _, entry := range o.history {
			if entry.ID == id {
				o.openRecipe(entry.Result)
				return
			}
		}
	})
}

// openRecipe makes a stored recipe active again. Opening a different
// recipe starts fresh illustrations; re-opening the same one keeps what
// already loaded and retries the rest.
func (o *Orchestrator) openRecipe(r sweetdb.RecipeRecord) {
	if o.recipe == nil || o.recipe.ItemName != r.ItemName {
		o.generation++
		o.illus = map[int]Illustration{}
		o.sourcePhoto = ""
	}
	recipe := r
	o.recipe = &recipe
	o.view = ViewRecipe
	o.activateRecipe(o.generation)
}

// ToggleSave adds the active recipe to the saved list, or removes it when
// already present. The local list changes only after the backend
// acknowledges the write.
func (o *Orchestrator) ToggleSave() {
	o.do(func() {
		if o.recipe == nil || o.session.Identity == nil {
			return
		}
		userID := o.session.Identity.UserID
		recipe := *o.recipe
		exists := o.savedIndex(recipe.ItemName) >= 0
		ctx := o.ctx
		go func() {
			var err error
			if exists {
				err = o.store.UnsaveRecipe(ctx, userID, recipe.ItemName)
			} else {
				err = o.store.SaveRecipe(ctx, userID, recipe)
			}
			if err != nil {
				slog.WarnContext(ctx, "app: toggling saved recipe", "error", err)
				return
			}
			o.do(func() {
				if o.session.Identity == nil || o.session.Identity.UserID != userID {
					return
				}
				if i := o.savedIndex(recipe.ItemName); exists && i >= 0 {
					o.saved = slices.Delete(o.saved, i, i+1)
				} else if !exists && i < 0 {
					o.saved = append(o.saved, recipe)
				}
			})
		}()
	})
}

// OpenPostFlow opens the diary post modal.
func (o *Orchestrator) OpenPostFlow() {
	o.do(func() { o.postFlow = true })
}

// ClosePostFlow dismisses the diary post modal.
func (o *Orchestrator) ClosePostFlow() {
	o.do(func() {
		o.postFlow = false
		o.posting = false
	})
}

// PostDiary stores a diary entry. An empty caption defaults to a line
// naming the active recipe. The entry appears locally only once the
// backend returns the stored row.
func (o *Orchestrator) PostDiary(photo string, caption string) {
	o.do(func() {
		if photo == "" || o.session.Identity == nil || o.posting {
			return
		}
		if caption == "" {
			item := "Sweet"
			if o.recipe != nil {
				item = o.recipe.ItemName
			}
			caption = fmt.Sprintf("My %s creation!", item)
		}
		o.posting = true
		userID := o.session.Identity.UserID
		ctx := o.ctx
		go func() {
			entry, err := o.store.PostDiary(ctx, userID, photo, caption)
			o.do(func() {
				o.posting = false
				if err != nil {
					slog.ErrorContext(ctx, "app: posting diary entry", "error", err)
					o.notice = msgPostFailed
					return
				}
				if o.session.Identity == nil || o.session.Identity.UserID != userID {
					return
				}
				o.profile.Diaries = append([]sweetdb.DiaryEntry{*entry}, o.profile.Diaries...)
				o.postFlow = false
			})
		}()
	})
}

// UpdateProficiency sets the skill level for one category, applied
// locally first and pushed remotely best-effort.
func (o *Orchestrator) UpdateProficiency(c sweetdb.Category, level sweetdb.ProficiencyLevel) {
	o.do(func() {
		switch level {
		case sweetdb.ProficiencyBeginner, sweetdb.ProficiencyIntermediate, sweetdb.ProficiencyProfessional:
		default:
			return
		}
		o.profile.Levels = o.profile.Levels.With(c, level)
		o.syncProfile(map[string]any{"levels": o.profile.Levels})
	})
}

// UpdateAvatar replaces the avatar with a downscaled copy of the photo,
// applied locally first and pushed remotely best-effort.
func (o *Orchestrator) UpdateAvatar(photo string) {
	o.do(func() {
		ctx := o.ctx
		go func() {
			url, err := imageutil.Downscale(photo, avatarMaxEdge)
			if err != nil {
				slog.ErrorContext(ctx, "app: compressing avatar", "error", err)
				return
			}
			o.do(func() {
				o.profile.Avatar = url
				o.syncProfile(map[string]any{"avatar": url})
			})
		}()
	})
}

// UpdateUsername renames the user, applied locally first and pushed
// remotely best-effort.
func (o *Orchestrator) UpdateUsername(name string) {
	o.do(func() {
		if name == "" {
			return
		}
		o.username = name
		o.syncProfile(map[string]any{"username": name})
	})
}

func (o *Orchestrator) syncProfile(updates map[string]any) {
	ident := o.session.Identity
	if ident == nil {
		return
	}
	userID := ident.UserID
	ctx := o.ctx
	go func() {
		if err := o.store.SyncProfile(ctx, userID, updates); err != nil {
			slog.WarnContext(ctx, "app: syncing profile", "error", err)
		}
	}()
}

// ShareText renders the active recipe as a shareable text summary, or
// empty when no recipe is active.
func (o *Orchestrator) ShareText() string {
	reply := make(chan string, 1)
	o.do(func() {
		if o.recipe == nil {
			reply <- ""
			return
		}
		reply <- shareSummary(o.recipe)
	})
	select {
	case text := <-reply:
		return text
	case <-o.done:
		return ""
	}
}

func shareSummary(r *sweetdb.RecipeRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍰 %s\n\n%q\n\n", r.ItemName, r.Description)
	fmt.Fprintf(&sb, "⏱️ %s\n👥 %s\n🔥 %s\n\n", r.PrepTime, r.Servings, r.Calories)
	sb.WriteString("🛒 Ingredients:\n")
	for _, ingredient := range r.Ingredients {
		fmt.Fprintf(&sb, "• %s\n", ingredient)
	}
	sb.WriteString("\nShared via SweetSpot")
	return sb.String()
}
