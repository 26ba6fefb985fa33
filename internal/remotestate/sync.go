// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package remotestate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"golang.org/x/sync/errgroup"

	"github.com/curioswitch/sweetspot/internal/imageutil"
	"github.com/curioswitch/sweetspot/internal/sweetdb"
)

const (
	tableProfiles = "profiles"
	tableSaved    = "saved_recipes"
	tableHistory  = "search_history"
	tableDiaries  = "diaries"

	// historyLimit caps how many analyses the history view shows.
	historyLimit = 10

	// diaryPhotoMaxEdge bounds stored diary photos.
	diaryPhotoMaxEdge = 800
)

// errNoDiaryRow means the diary insert succeeded but returned no
// representation row to render.
var errNoDiaryRow = errors.New("remotestate: diary insert returned no row")

// Kind identifies which remote collection a hydration result carries.
type Kind string

const (
	KindProfile Kind = "profile"
	KindSaved   Kind = "saved"
	KindHistory Kind = "history"
	KindDiaries Kind = "diaries"
)

// HydrateResult is one completed hydration fetch. Each collection arrives
// independently; UserID tags the sign-in the fetch belongs to so results
// for a stale session can be discarded.
type HydrateResult struct {
	UserID string
	Kind   Kind

	Profile *sweetdb.UserProfile
	Saved   []sweetdb.RecipeRecord
	History []sweetdb.HistoryEntry
	Diaries []sweetdb.DiaryEntry
}

// ProfileSeed carries the identity fields written when a first sign-in
// finds no stored profile.
type ProfileSeed struct {
	Username string
	Email    string
}

func NewSynchronizer(client *supabase.Client, results chan<- HydrateResult) *Synchronizer {
	return &Synchronizer{
		client:  client,
		results: results,
	}
}

// Synchronizer reads and writes the per-user remote collections. Hydration
// failures degrade to empty collections; explicit writes report their
// error so callers can decide whether local state may change.
type Synchronizer struct {
	client  *supabase.Client
	results chan<- HydrateResult
}

type profileRow struct {
	ID       string                     `json:"id"`
	Username string                     `json:"username,omitempty"`
	Email    string                     `json:"email,omitempty"`
	Avatar   string                     `json:"avatar,omitempty"`
	Levels   *sweetdb.ProficiencyLevels `json:"levels,omitempty"`
}

type savedRow struct {
	UserID     string               `json:"user_id"`
	RecipeData sweetdb.RecipeRecord `json:"recipe_data"`
}

type historyRow struct {
	ID        string               `json:"id,omitempty"`
	UserID    string               `json:"user_id"`
	Query     string               `json:"query"`
	Result    sweetdb.RecipeRecord `json:"result"`
	CreatedAt time.Time            `json:"created_at"`
}

type diaryRow struct {
	ID     string    `json:"id,omitempty"`
	UserID string    `json:"user_id"`
	Photo  string    `json:"photo"`
	Text   string    `json:"text"`
	Date   time.Time `json:"date"`
}

// HydrateAll fetches the four per-user collections concurrently, posting
// each to the results channel as it completes. A failed fetch is logged
// and posts its zero value so the views render empty rather than stale.
func (s *Synchronizer) HydrateAll(ctx context.Context, userID string, seed ProfileSeed) {
	var g errgroup.Group

	g.Go(func() error {
		profile := s.fetchProfile(ctx, userID, seed)
		s.post(ctx, HydrateResult{UserID: userID, Kind: KindProfile, Profile: profile})
		return nil
	})
	g.Go(func() error {
		saved, err := s.fetchSaved(ctx, userID)
		if err != nil {
			slog.WarnContext(ctx, "remotestate: fetching saved recipes", "error", err)
		}
		s.post(ctx, HydrateResult{UserID: userID, Kind: KindSaved, Saved: saved})
		return nil
	})
	g.Go(func() error {
		history, err := s.fetchHistory(ctx, userID)
		if err != nil {
			slog.WarnContext(ctx, "remotestate: fetching search history", "error", err)
		}
		s.post(ctx, HydrateResult{UserID: userID, Kind: KindHistory, History: history})
		return nil
	})
	g.Go(func() error {
		diaries, err := s.fetchDiaries(ctx, userID)
		if err != nil {
			slog.WarnContext(ctx, "remotestate: fetching diaries", "error", err)
		}
		s.post(ctx, HydrateResult{UserID: userID, Kind: KindDiaries, Diaries: diaries})
		return nil
	})

	go func() {
		_ = g.Wait()
		slog.InfoContext(ctx, "remotestate: hydration complete", "user", userID)
	}()
}

func (s *Synchronizer) post(ctx context.Context, res HydrateResult) {
	select {
	case s.results <- res:
	case <-ctx.Done():
	}
}

// fetchProfile reads the stored profile, creating one from the seed on
// first sign-in. Any failure falls back to the default profile.
func (s *Synchronizer) fetchProfile(ctx context.Context, userID string, seed ProfileSeed) *sweetdb.UserProfile {
	profile := &sweetdb.UserProfile{Levels: sweetdb.DefaultLevels()}

	data, _, err := s.client.From(tableProfiles).
		Select("*", "", false).
		Eq("id", userID).
		Single().
		Execute()
	if err != nil {
		// PGRST116 is "zero rows" from a single-row select, meaning the
		// profile does not exist yet.
		if strings.Contains(err.Error(), "PGRST116") {
			if serr := s.SyncProfile(ctx, userID, map[string]any{
				"username": seed.Username,
				"email":    seed.Email,
				"levels":   profile.Levels,
			}); serr != nil {
				slog.WarnContext(ctx, "remotestate: seeding profile", "error", serr)
			}
		} else {
			slog.WarnContext(ctx, "remotestate: fetching profile", "error", err)
		}
		return profile
	}

	var row profileRow
	if err := json.Unmarshal(data, &row); err != nil {
		slog.WarnContext(ctx, "remotestate: decoding profile", "error", err)
		return profile
	}
	profile.Avatar = row.Avatar
	if row.Levels != nil {
		profile.Levels = *row.Levels
	}
	return profile
}

func (s *Synchronizer) fetchSaved(_ context.Context, userID string) ([]sweetdb.RecipeRecord, error) {
	data, _, err := s.client.From(tableSaved).
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("remotestate: selecting saved recipes: %w", err)
	}
	var rows []savedRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("remotestate: decoding saved recipes: %w", err)
	}
	recipes := make([]sweetdb.RecipeRecord, 0, len(rows))
	for _, row := range rows {
		recipes = append(recipes, row.RecipeData)
	}
	return recipes, nil
}

func (s *Synchronizer) fetchHistory(_ context.Context, userID string) ([]sweetdb.HistoryEntry, error) {
	data, _, err := s.client.From(tableHistory).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(historyLimit, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("remotestate: selecting history: %w", err)
	}
	var rows []historyRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("remotestate: decoding history: %w", err)
	}
	entries := make([]sweetdb.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, sweetdb.HistoryEntry{
			ID:        row.ID,
			Query:     row.Query,
			Result:    row.Result,
			CreatedAt: row.CreatedAt,
		})
	}
	return entries, nil
}

func (s *Synchronizer) fetchDiaries(_ context.Context, userID string) ([]sweetdb.DiaryEntry, error) {
	data, _, err := s.client.From(tableDiaries).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("date", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("remotestate: selecting diaries: %w", err)
	}
	var rows []diaryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("remotestate: decoding diaries: %w", err)
	}
	entries := make([]sweetdb.DiaryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, sweetdb.DiaryEntry{
			ID:    row.ID,
			Photo: row.Photo,
			Text:  row.Text,
			Date:  row.Date,
		})
	}
	return entries, nil
}

// SyncProfile upserts profile fields keyed by user id. Callers treat it as
// best-effort; local profile state is already updated when this runs.
func (s *Synchronizer) SyncProfile(_ context.Context, userID string, updates map[string]any) error {
	row := map[string]any{"id": userID}
	for k, v := range updates {
		row[k] = v
	}
	if _, _, err := s.client.From(tableProfiles).Upsert(row, "id", "", "").Execute(); err != nil {
		return fmt.Errorf("remotestate: upserting profile: %w", err)
	}
	return nil
}

// SaveRecipe stores a recipe in the saved collection. Membership is keyed
// by item name, so saving the same item twice duplicates the row; callers
// check membership first.
func (s *Synchronizer) SaveRecipe(_ context.Context, userID string, recipe sweetdb.RecipeRecord) error {
	if _, _, err := s.client.From(tableSaved).
		Insert(savedRow{UserID: userID, RecipeData: recipe}, false, "", "", "").
		Execute(); err != nil {
		return fmt.Errorf("remotestate: inserting saved recipe: %w", err)
	}
	return nil
}

// UnsaveRecipe removes a saved recipe by its item name.
func (s *Synchronizer) UnsaveRecipe(_ context.Context, userID string, itemName string) error {
	if _, _, err := s.client.From(tableSaved).
		Delete("", "").
		Eq("user_id", userID).
		Filter("recipe_data->>itemName", "eq", itemName).
		Execute(); err != nil {
		return fmt.Errorf("remotestate: deleting saved recipe: %w", err)
	}
	return nil
}

// RecordHistory appends an analysis to the history and returns the
// refreshed newest-first window.
func (s *Synchronizer) RecordHistory(ctx context.Context, userID string, query string, result sweetdb.RecipeRecord) ([]sweetdb.HistoryEntry, error) {
	if _, _, err := s.client.From(tableHistory).
		Insert(historyRow{
			UserID:    userID,
			Query:     query,
			Result:    result,
			CreatedAt: time.Now().UTC(),
		}, false, "", "", "").
		Execute(); err != nil {
		return nil, fmt.Errorf("remotestate: inserting history: %w", err)
	}
	return s.fetchHistory(ctx, userID)
}

// PostDiary downscales the photo, stores the entry, and returns the row
// the backend created so the caller can render it with its assigned id.
func (s *Synchronizer) PostDiary(_ context.Context, userID string, photo string, caption string) (*sweetdb.DiaryEntry, error) {
	compressed, err := imageutil.Downscale(photo, diaryPhotoMaxEdge)
	if err != nil {
		return nil, fmt.Errorf("remotestate: compressing diary photo: %w", err)
	}
	data, _, err := s.client.From(tableDiaries).
		Insert(diaryRow{
			UserID: userID,
			Photo:  compressed,
			Text:   caption,
			Date:   time.Now().UTC(),
		}, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("remotestate: inserting diary entry: %w", err)
	}
	var rows []diaryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("remotestate: decoding inserted diary entry: %w", err)
	}
	if len(rows) == 0 {
		return nil, errNoDiaryRow
	}
	return &sweetdb.DiaryEntry{
		ID:    rows[0].ID,
		Photo: rows[0].Photo,
		Text:  rows[0].Text,
		Date:  rows[0].Date,
	}, nil
}
