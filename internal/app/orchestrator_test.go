// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioswitch/sweetspot/internal/illustrate"
	"github.com/curioswitch/sweetspot/internal/imageutil"
	"github.com/curioswitch/sweetspot/internal/recipegen"
	"github.com/curioswitch/sweetspot/internal/remotestate"
	"github.com/curioswitch/sweetspot/internal/session"
	"github.com/curioswitch/sweetspot/internal/sweetdb"
)

type fakeGen struct {
	mu     sync.Mutex
	calls  int
	inputs []recipegen.Input

	block  chan struct{}
	recipe *sweetdb.RecipeRecord
	err    error
}

func (f *fakeGen) Generate(_ context.Context, input recipegen.Input, _ recipegen.Options) (*sweetdb.RecipeRecord, error) {
	f.mu.Lock()
	f.calls++
	f.inputs = append(f.inputs, input)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.recipe, f.err
}

func (f *fakeGen) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEngine struct {
	mu        sync.Mutex
	heroCalls int
	stepCalls map[int]int

	// respond completes every fetch immediately with a ready URL.
	respond bool
	results chan<- illustrate.Result
}

func (f *fakeEngine) FetchHero(_ context.Context, generation uint64, _ string) {
	f.mu.Lock()
	f.heroCalls++
	f.mu.Unlock()
	if f.respond {
		f.results <- illustrate.Result{Generation: generation, Step: illustrate.HeroStep, URL: "data:hero"}
	}
}

func (f *fakeEngine) FetchStep(_ context.Context, generation uint64, step int, _ string) {
	f.mu.Lock()
	if f.stepCalls == nil {
		f.stepCalls = map[int]int{}
	}
	f.stepCalls[step]++
	f.mu.Unlock()
	if f.respond {
		f.results <- illustrate.Result{Generation: generation, Step: step, URL: "data:step"}
	}
}

func (f *fakeEngine) heroCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heroCalls
}

func (f *fakeEngine) stepCount(step int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stepCalls[step]
}

type fakeStore struct {
	mu sync.Mutex

	hydrates []remotestate.ProfileSeed
	saves    []string
	unsaves  []string
	queries  []string
	updates  []map[string]any
	captions []string

	saveErr  error
	history  []sweetdb.HistoryEntry
	diary    *sweetdb.DiaryEntry
	diaryErr error
}

func (f *fakeStore) HydrateAll(_ context.Context, _ string, seed remotestate.ProfileSeed) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hydrates = append(f.hydrates, seed)
}

func (f *fakeStore) SyncProfile(_ context.Context, _ string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updates)
	return nil
}

func (f *fakeStore) SaveRecipe(_ context.Context, _ string, recipe sweetdb.RecipeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, recipe.ItemName)
	return f.saveErr
}

func (f *fakeStore) UnsaveRecipe(_ context.Context, _ string, itemName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsaves = append(f.unsaves, itemName)
	return f.saveErr
}

func (f *fakeStore) RecordHistory(_ context.Context, _ string, query string, _ sweetdb.RecipeRecord) ([]sweetdb.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.history, nil
}

func (f *fakeStore) PostDiary(_ context.Context, _ string, _ string, caption string) (*sweetdb.DiaryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captions = append(f.captions, caption)
	return f.diary, f.diaryErr
}

func (f *fakeStore) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeStore) lastCaption() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.captions) == 0 {
		return ""
	}
	return f.captions[len(f.captions)-1]
}

func testRecipe() *sweetdb.RecipeRecord {
	return &sweetdb.RecipeRecord{
		ItemName:    "Tiramisu",
		Description: "Classic coffee-soaked layers.",
		PrepTime:    "30 MINS",
		Servings:    "2 PEOPLE",
		Calories:    "250 CALORIES",
		Ingredients: []string{"Mascarpone", "Ladyfingers"},
		Tools:       []string{"Mixing bowl"},
		Steps: []sweetdb.RecipeStep{
			{StepNumber: 1, Description: "Whisk mascarpone.", ImagePrompt: "A whisk in a bowl"},
			{StepNumber: 2, Description: "Layer ladyfingers.", ImagePrompt: "Layered ladyfingers"},
		},
	}
}

type testApp struct {
	orch          *Orchestrator
	gen           *fakeGen
	engine        *fakeEngine
	store         *fakeStore
	illustrations chan illustrate.Result
	hydrations    chan remotestate.HydrateResult
}

func newTestApp(t *testing.T, gen *fakeGen, store *fakeStore) *testApp {
	t.Helper()
	illustrations := make(chan illustrate.Result, 16)
	hydrations := make(chan remotestate.HydrateResult, 8)
	engine := &fakeEngine{results: illustrations}
	orch := New(gen, engine, store, illustrations, hydrations)
	go func() {
		_ = orch.Run(t.Context())
	}()
	return &testApp{
		orch:          orch,
		gen:           gen,
		engine:        engine,
		store:         store,
		illustrations: illustrations,
		hydrations:    hydrations,
	}
}

func (a *testApp) signIn() {
	a.orch.HandleSession(session.Status{
		State: session.StateAuthenticated,
		Identity: &session.Identity{
			UserID:   "u1",
			Email:    "amy@example.com",
			Username: "amy",
		},
	})
}

func (a *testApp) signOut() {
	a.orch.HandleSession(session.Status{State: session.StateAnonymous})
}

func TestAnalyzeActivatesRecipe(t *testing.T) {
	a := newTestApp(t, &fakeGen{recipe: testRecipe()}, &fakeStore{})
	a.signIn()

	a.orch.Analyze("Chocolate Lava Cake", "")

	require.Eventually(t, func() bool {
		snap := a.orch.Snapshot()
		return snap.Recipe != nil && !snap.Analyzing
	}, time.Second, 10*time.Millisecond)

	snap := a.orch.Snapshot()
	assert.Equal(t, ViewRecipe, snap.View)
	assert.Equal(t, "Tiramisu", snap.Recipe.ItemName)
	assert.NotEmpty(t, snap.Recipe.Ingredients)
	for i, step := range snap.Recipe.Steps {
		assert.Equal(t, i+1, step.StepNumber)
	}

	// Hero plus both steps are dispatched exactly once and stay loading.
	assert.Equal(t, 1, a.engine.heroCount())
	assert.Equal(t, 1, a.engine.stepCount(1))
	assert.Equal(t, 1, a.engine.stepCount(2))
	assert.True(t, snap.Illustrations[illustrate.HeroStep].Loading)
	assert.True(t, snap.Illustrations[1].Loading)

	assert.Eventually(t, func() bool {
		return a.store.lastQuery() == "Chocolate Lava Cake"
	}, time.Second, 10*time.Millisecond)
}

func TestAnalyzePhotoShortCircuitsHero(t *testing.T) {
	a := newTestApp(t, &fakeGen{recipe: testRecipe()}, &fakeStore{})
	a.signIn()

	photo := "data:image/png;base64,cGhvdG8="
	a.orch.Analyze("", photo)

	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Recipe != nil
	}, time.Second, 10*time.Millisecond)

	snap := a.orch.Snapshot()
	assert.Equal(t, photo, snap.Illustrations[illustrate.HeroStep].URL)
	assert.Zero(t, a.engine.heroCount(), "source photo reused as hero")

	assert.Eventually(t, func() bool {
		return a.store.lastQuery() == "Image Analysis"
	}, time.Second, 10*time.Millisecond)
}

func TestAnalyzeBlockedWhileInFlight(t *testing.T) {
	gen := &fakeGen{recipe: testRecipe(), block: make(chan struct{})}
	a := newTestApp(t, gen, &fakeStore{})
	a.signIn()

	a.orch.Analyze("tiramisu", "")
	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Analyzing
	}, time.Second, 10*time.Millisecond)

	a.orch.Analyze("macarons", "")
	assert.True(t, a.orch.Snapshot().Analyzing)

	close(gen.block)
	require.Eventually(t, func() bool {
		return !a.orch.Snapshot().Analyzing
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, gen.callCount(), "second request ignored while analyzing")
}

func TestAnalyzeFailure(t *testing.T) {
	a := newTestApp(t, &fakeGen{err: errors.New("boom")}, &fakeStore{})
	a.signIn()

	a.orch.Analyze("tiramisu", "")

	require.Eventually(t, func() bool {
		return !a.orch.Snapshot().Analyzing && a.orch.Snapshot().Notice != ""
	}, time.Second, 10*time.Millisecond)

	snap := a.orch.Snapshot()
	assert.Nil(t, snap.Recipe)
	assert.Equal(t, msgAnalyzeBusy, snap.Notice)
	assert.NotEqual(t, ViewRecipe, snap.View)
}

func TestStaleAnalysisDiscardedAfterSignOut(t *testing.T) {
	gen := &fakeGen{recipe: testRecipe(), block: make(chan struct{})}
	a := newTestApp(t, gen, &fakeStore{})
	a.signIn()

	a.orch.Analyze("tiramisu", "")
	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Analyzing
	}, time.Second, 10*time.Millisecond)

	a.signOut()
	close(gen.block)

	assert.Never(t, func() bool {
		return a.orch.Snapshot().Recipe != nil
	}, 300*time.Millisecond, 20*time.Millisecond)
	assert.Equal(t, ViewHome, a.orch.Snapshot().View)
}

func TestIllustrationResults(t *testing.T) {
	a := newTestApp(t, &fakeGen{recipe: testRecipe()}, &fakeStore{})
	a.signIn()
	a.orch.Analyze("tiramisu", "")
	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Recipe != nil
	}, time.Second, 10*time.Millisecond)

	a.illustrations <- illustrate.Result{Generation: 1, Step: 1, URL: "data:step1"}
	a.illustrations <- illustrate.Result{Generation: 1, Step: 2, Err: errors.New("boom")}
	a.illustrations <- illustrate.Result{Generation: 99, Step: 1, URL: "data:stale"}

	require.Eventually(t, func() bool {
		snap := a.orch.Snapshot()
		return snap.Illustrations[1].URL != "" && snap.Illustrations[2].Error != ""
	}, time.Second, 10*time.Millisecond)

	snap := a.orch.Snapshot()
	assert.Equal(t, "data:step1", snap.Illustrations[1].URL, "stale generation discarded")
	assert.Equal(t, msgRetrying, snap.Illustrations[2].Error)
	assert.False(t, snap.Illustrations[2].Loading)
}

func TestIllustrationsRespondImmediately(t *testing.T) {
	a := newTestApp(t, &fakeGen{recipe: testRecipe()}, &fakeStore{})
	a.engine.respond = true
	a.signIn()

	a.orch.Analyze("tiramisu", "")

	require.Eventually(t, func() bool {
		snap := a.orch.Snapshot()
		return snap.Illustrations[illustrate.HeroStep].URL != "" &&
			snap.Illustrations[1].URL != "" && snap.Illustrations[2].URL != ""
	}, time.Second, 10*time.Millisecond)
}

func TestToggleSaveRoundTrip(t *testing.T) {
	a := newTestApp(t, &fakeGen{recipe: testRecipe()}, &fakeStore{})
	a.signIn()
	a.orch.Analyze("tiramisu", "")
	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Recipe != nil
	}, time.Second, 10*time.Millisecond)

	a.orch.ToggleSave()
	require.Eventually(t, func() bool {
		return len(a.orch.Snapshot().Saved) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "Tiramisu", a.orch.Snapshot().Saved[0].ItemName)

	a.orch.ToggleSave()
	require.Eventually(t, func() bool {
		return len(a.orch.Snapshot().Saved) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestToggleSaveKeepsLocalOnFailure(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("boom")}
	a := newTestApp(t, &fakeGen{recipe: testRecipe()}, store)
	a.signIn()
	a.orch.Analyze("tiramisu", "")
	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Recipe != nil
	}, time.Second, 10*time.Millisecond)

	a.orch.ToggleSave()

	assert.Never(t, func() bool {
		return len(a.orch.Snapshot().Saved) != 0
	}, 300*time.Millisecond, 20*time.Millisecond)
}

func TestHydration(t *testing.T) {
	a := newTestApp(t, &fakeGen{}, &fakeStore{})
	a.signIn()

	require.Eventually(t, func() bool {
		a.store.mu.Lock()
		defer a.store.mu.Unlock()
		return len(a.store.hydrates) == 1
	}, time.Second, 10*time.Millisecond)

	a.hydrations <- remotestate.HydrateResult{
		UserID: "u1",
		Kind:   remotestate.KindProfile,
		Profile: &sweetdb.UserProfile{
			Avatar: "data:avatar",
			Levels: sweetdb.DefaultLevels().With(sweetdb.CategoryCoffee, sweetdb.ProficiencyProfessional),
		},
	}
	a.hydrations <- remotestate.HydrateResult{
		UserID: "u1",
		Kind:   remotestate.KindSaved,
		Saved:  []sweetdb.RecipeRecord{*testRecipe()},
	}
	a.hydrations <- remotestate.HydrateResult{
		UserID:  "u2",
		Kind:    remotestate.KindHistory,
		History: []sweetdb.HistoryEntry{{ID: "h1"}},
	}

	require.Eventually(t, func() bool {
		snap := a.orch.Snapshot()
		return snap.Profile.Avatar != "" && len(snap.Saved) == 1
	}, time.Second, 10*time.Millisecond)

	snap := a.orch.Snapshot()
	assert.Equal(t, sweetdb.ProficiencyProfessional, snap.Profile.Levels.Coffee)
	assert.Empty(t, snap.History, "result for another user discarded")
}

func TestPostDiaryDefaultCaption(t *testing.T) {
	store := &fakeStore{diary: &sweetdb.DiaryEntry{ID: "d1", Photo: "data:stored", Text: "My Tiramisu creation!"}}
	a := newTestApp(t, &fakeGen{recipe: testRecipe()}, store)
	a.signIn()
	a.orch.Analyze("tiramisu", "")
	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Recipe != nil
	}, time.Second, 10*time.Millisecond)

	a.orch.OpenPostFlow()
	a.orch.PostDiary("data:image/png;base64,cGhvdG8=", "")

	require.Eventually(t, func() bool {
		return len(a.orch.Snapshot().Profile.Diaries) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, "My Tiramisu creation!", store.lastCaption())
	snap := a.orch.Snapshot()
	assert.Equal(t, "d1", snap.Profile.Diaries[0].ID)
	assert.False(t, snap.PostFlow, "post flow closes on success")
}

func TestPostDiaryGenericCaption(t *testing.T) {
	store := &fakeStore{diary: &sweetdb.DiaryEntry{ID: "d1"}}
	a := newTestApp(t, &fakeGen{}, store)
	a.signIn()

	a.orch.PostDiary("data:image/png;base64,cGhvdG8=", "")

	require.Eventually(t, func() bool {
		return store.lastCaption() != ""
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "My Sweet creation!", store.lastCaption())
}

func TestPostDiaryFailure(t *testing.T) {
	store := &fakeStore{diaryErr: errors.New("boom")}
	a := newTestApp(t, &fakeGen{}, store)
	a.signIn()

	a.orch.OpenPostFlow()
	a.orch.PostDiary("data:image/png;base64,cGhvdG8=", "hello")

	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Notice == msgPostFailed
	}, time.Second, 10*time.Millisecond)
	snap := a.orch.Snapshot()
	assert.True(t, snap.PostFlow, "post flow stays open on failure")
	assert.Empty(t, snap.Profile.Diaries)
}

func TestCategorySelection(t *testing.T) {
	a := newTestApp(t, &fakeGen{}, &fakeStore{})

	a.orch.SetCategory(sweetdb.CategoryCoffee)
	a.orch.SetCupSize("16oz")
	snap := a.orch.Snapshot()
	assert.Equal(t, sweetdb.CategoryCoffee, snap.Category)
	assert.Equal(t, "16oz", snap.CupSize)
	assert.Equal(t, sweetdb.Suggestions[sweetdb.CategoryCoffee], snap.Suggestions)

	a.orch.SetCategory(sweetdb.CategoryDessert)
	snap = a.orch.Snapshot()
	assert.Equal(t, sweetdb.DefaultCupSize, snap.CupSize, "cup size resets off sized categories")

	a.orch.SetCupSize("20oz")
	assert.Equal(t, sweetdb.DefaultCupSize, a.orch.Snapshot().CupSize, "cup size ignored for desserts")
}

func TestServingsClamped(t *testing.T) {
	a := newTestApp(t, &fakeGen{}, &fakeStore{})

	a.orch.SetServings(99)
	assert.Equal(t, maxServings, a.orch.Snapshot().Servings)

	a.orch.SetServings(0)
	assert.Equal(t, minServings, a.orch.Snapshot().Servings)

	a.orch.SetServings(4)
	assert.Equal(t, 4, a.orch.Snapshot().Servings)
}

func TestShareText(t *testing.T) {
	a := newTestApp(t, &fakeGen{recipe: testRecipe()}, &fakeStore{})
	a.signIn()

	assert.Empty(t, a.orch.ShareText())

	a.orch.Analyze("tiramisu", "")
	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Recipe != nil
	}, time.Second, 10*time.Millisecond)

	text := a.orch.ShareText()
	assert.Contains(t, text, "Tiramisu")
	assert.Contains(t, text, "• Mascarpone")
	assert.Contains(t, text, "Shared via SweetSpot")
}

func TestUpdateProficiencyOptimistic(t *testing.T) {
	a := newTestApp(t, &fakeGen{}, &fakeStore{})
	a.signIn()

	a.orch.UpdateProficiency(sweetdb.CategoryBeverage, sweetdb.ProficiencyIntermediate)

	assert.Equal(t, sweetdb.ProficiencyIntermediate, a.orch.Snapshot().Profile.Levels.Beverage)
	require.Eventually(t, func() bool {
		a.store.mu.Lock()
		defer a.store.mu.Unlock()
		return len(a.store.updates) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestOpenSavedRetriesFailedIllustrations(t *testing.T) {
	a := newTestApp(t, &fakeGen{recipe: testRecipe()}, &fakeStore{})
	a.signIn()
	a.orch.Analyze("tiramisu", "")
	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Recipe != nil
	}, time.Second, 10*time.Millisecond)

	a.illustrations <- illustrate.Result{Generation: 1, Step: 1, URL: "data:step1"}
	a.illustrations <- illustrate.Result{Generation: 1, Step: 2, Err: errors.New("boom")}
	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Illustrations[2].Error != ""
	}, time.Second, 10*time.Millisecond)

	a.orch.ToggleSave()
	require.Eventually(t, func() bool {
		return len(a.orch.Snapshot().Saved) == 1
	}, time.Second, 10*time.Millisecond)

	// Re-opening the same recipe re-dispatches only the failed step.
	a.orch.OpenSaved("Tiramisu")
	require.Eventually(t, func() bool {
		return a.engine.stepCount(2) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, a.engine.stepCount(1), "loaded step not re-fetched")

	snap := a.orch.Snapshot()
	assert.Equal(t, "data:step1", snap.Illustrations[1].URL)
	assert.True(t, snap.Illustrations[2].Loading)
}

func TestOpenSavedDuringAnalysisDismissesOverlay(t *testing.T) {
	gen := &fakeGen{recipe: testRecipe(), block: make(chan struct{})}
	a := newTestApp(t, gen, &fakeStore{})
	a.signIn()

	a.hydrations <- remotestate.HydrateResult{
		UserID: "u1",
		Kind:   remotestate.KindSaved,
		Saved:  []sweetdb.RecipeRecord{{ItemName: "Mochi"}},
	}
	require.Eventually(t, func() bool {
		return len(a.orch.Snapshot().Saved) == 1
	}, time.Second, 10*time.Millisecond)

	a.orch.Analyze("tiramisu", "")
	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Analyzing
	}, time.Second, 10*time.Millisecond)

	a.orch.OpenSaved("Mochi")
	require.Eventually(t, func() bool {
		snap := a.orch.Snapshot()
		return snap.Recipe != nil && snap.Recipe.ItemName == "Mochi"
	}, time.Second, 10*time.Millisecond)

	// The superseded analysis completes: the overlay must dismiss while
	// the opened recipe stays active.
	close(gen.block)
	require.Eventually(t, func() bool {
		return !a.orch.Snapshot().Analyzing
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "Mochi", a.orch.Snapshot().Recipe.ItemName, "superseded result not applied")

	// Analysis is usable again afterwards.
	a.orch.Analyze("macarons", "")
	require.Eventually(t, func() bool {
		snap := a.orch.Snapshot()
		return snap.Recipe != nil && snap.Recipe.ItemName == "Tiramisu"
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, gen.callCount())
}

func TestUpdateAvatar(t *testing.T) {
	a := newTestApp(t, &fakeGen{}, &fakeStore{})
	a.signIn()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 600, 600))))
	a.orch.UpdateAvatar(imageutil.BytesToURL("image/png", buf.Bytes()))

	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Profile.Avatar != ""
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		a.store.mu.Lock()
		defer a.store.mu.Unlock()
		return len(a.store.updates) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestUpdateAvatarInvalidPhoto(t *testing.T) {
	a := newTestApp(t, &fakeGen{}, &fakeStore{})
	a.signIn()

	a.orch.UpdateAvatar("not-a-data-url")

	assert.Never(t, func() bool {
		return a.orch.Snapshot().Profile.Avatar != ""
	}, 300*time.Millisecond, 20*time.Millisecond)
}

func TestSignOutResetsState(t *testing.T) {
	a := newTestApp(t, &fakeGen{recipe: testRecipe()}, &fakeStore{})
	a.signIn()
	a.orch.Analyze("tiramisu", "")
	require.Eventually(t, func() bool {
		return a.orch.Snapshot().Recipe != nil
	}, time.Second, 10*time.Millisecond)

	a.signOut()

	require.Eventually(t, func() bool {
		snap := a.orch.Snapshot()
		return snap.Recipe == nil && snap.View == ViewHome
	}, time.Second, 10*time.Millisecond)

	snap := a.orch.Snapshot()
	assert.True(t, snap.AuthGate)
	assert.Empty(t, snap.Saved)
	assert.Empty(t, snap.History)
	assert.Equal(t, sweetdb.DefaultLevels(), snap.Profile.Levels)
}
