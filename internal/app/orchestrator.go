// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/curioswitch/sweetspot/internal/illustrate"
	"github.com/curioswitch/sweetspot/internal/imageutil"
	"github.com/curioswitch/sweetspot/internal/recipegen"
	"github.com/curioswitch/sweetspot/internal/remotestate"
	"github.com/curioswitch/sweetspot/internal/session"
	"github.com/curioswitch/sweetspot/internal/sweetdb"
)

// View selects the active screen.
type View string

const (
	ViewHome    View = "home"
	ViewSaved   View = "saved"
	ViewProfile View = "profile"
	ViewHistory View = "history"
	ViewRecipe  View = "recipe"
)

// Illustration is the render state of one image slot. Absent from the map
// means no fetch has been dispatched yet.
type Illustration struct {
	URL     string `json:"url,omitempty"`
	Loading bool   `json:"loading,omitempty"`
	Error   string `json:"error,omitempty"`
}

const (
	msgAnalyzeBusy = "Cloud brain is busy."
	msgPostFailed  = "Post failed. Please try again."
	msgRetrying    = "Retrying..."

	minServings = 1
	maxServings = 10

	avatarMaxEdge = 400
)

// Generator produces a recipe from one analysis input.
type Generator interface {
	Generate(ctx context.Context, input recipegen.Input, opts recipegen.Options) (*sweetdb.RecipeRecord, error)
}

// Illustrator dispatches asynchronous image fetches whose results arrive
// on the orchestrator's illustration channel.
type Illustrator interface {
	FetchHero(ctx context.Context, generation uint64, itemName string)
	FetchStep(ctx context.Context, generation uint64, step int, prompt string)
}

// Store is the remote collection surface the orchestrator persists through.
type Store interface {
	HydrateAll(ctx context.Context, userID string, seed remotestate.ProfileSeed)
	SyncProfile(ctx context.Context, userID string, updates map[string]any) error
	SaveRecipe(ctx context.Context, userID string, recipe sweetdb.RecipeRecord) error
	UnsaveRecipe(ctx context.Context, userID string, itemName string) error
	RecordHistory(ctx context.Context, userID string, query string, result sweetdb.RecipeRecord) ([]sweetdb.HistoryEntry, error)
	PostDiary(ctx context.Context, userID string, photo string, caption string) (*sweetdb.DiaryEntry, error)
}

func New(gen Generator, engine Illustrator, store Store,
	illustrations <-chan illustrate.Result, hydrations <-chan remotestate.HydrateResult,
) *Orchestrator {
	return &Orchestrator{
		gen:           gen,
		engine:        engine,
		store:         store,
		illustrations: illustrations,
		hydrations:    hydrations,
		events:        make(chan func(), 128),
		done:          make(chan struct{}),
		view:          ViewHome,
		session:       session.Status{State: session.StateAnonymous},
		category:      sweetdb.CategoryDessert,
		servings:      2,
		cupSize:       sweetdb.DefaultCupSize,
		illus:         map[int]Illustration{},
		profile:       sweetdb.UserProfile{Levels: sweetdb.DefaultLevels()},
	}
}

// Orchestrator owns all application state. Mutations happen only on the
// Run goroutine: intents and async completions are queued as events, so
// the state needs no lock.
type Orchestrator struct {
	gen    Generator
	engine Illustrator
	store  Store

	events        chan func()
	illustrations <-chan illustrate.Result
	hydrations    <-chan remotestate.HydrateResult
	done          chan struct{}

	ctx context.Context

	view     View
	session  session.Status
	username string

	category sweetdb.Category
	servings int
	cupSize  string

	analyzing bool
	postFlow  bool
	posting   bool
	notice    string

	// generation tags the active analysis; results carrying an older tag
	// are discarded. inflight is the generation of the running analysis,
	// zero when none is running; it keys the analyzing flag so a
	// superseded completion still dismisses the overlay.
	generation  uint64
	inflight    uint64
	recipe      *sweetdb.RecipeRecord
	sourcePhoto string
	illus       map[int]Illustration

	saved   []sweetdb.RecipeRecord
	history []sweetdb.HistoryEntry
	profile sweetdb.UserProfile
}

// Run processes events until the context is cancelled. It must be running
// before any intent has an effect.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.ctx = ctx
	defer close(o.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-o.events:
			ev()
		case res := <-o.illustrations:
			o.applyIllustration(res)
		case res := <-o.hydrations:
			o.applyHydration(res)
		}
	}
}

// do queues an event for the Run goroutine, dropping it once Run exits.
func (o *Orchestrator) do(fn func()) {
	select {
	case o.events <- fn:
	case <-o.done:
	}
}

// Analyze starts a recipe analysis from a text query or a photo data URL.
// Ignored while another analysis is in flight.
func (o *Orchestrator) Analyze(text string, photo string) {
	o.do(func() {
		if o.analyzing {
			return
		}
		if text == "" && photo == "" {
			return
		}

		o.analyzing = true
		o.notice = ""
		o.recipe = nil
		o.sourcePhoto = photo
		o.illus = map[int]Illustration{}
		o.generation++
		generation := o.generation
		o.inflight = generation

		// The query text selects which category's proficiency applies; an
		// unhinted query is treated as a dessert.
		prof := o.profile.Levels.Dessert
		lower := strings.ToLower(text)
		switch {
		case strings.Contains(lower, "coffee"):
			prof = o.profile.Levels.Coffee
		case strings.Contains(lower, "drink"), strings.Contains(lower, "beverage"):
			prof = o.profile.Levels.Beverage
		}
		opts := recipegen.Options{Proficiency: prof, Servings: o.servings}
		if o.category.Sized() {
			opts.CupSize = o.cupSize
		}

		query := text
		if photo != "" {
			query = "Image Analysis"
		}

		ctx := o.ctx
		go func() {
			input := recipegen.Input{Text: text}
			if photo != "" {
				mimeType, b, err := imageutil.URLToBytes(photo)
				if err != nil {
					o.do(func() { o.finishAnalysis(generation, nil, err, query) })
					return
				}
				input = recipegen.Input{Image: b, ImageMIMEType: mimeType}
			}
			recipe, err := o.gen.Generate(ctx, input, opts)
			o.do(func() { o.finishAnalysis(generation, recipe, err, query) })
		}()
	})
}

func (o *Orchestrator) finishAnalysis(generation uint64, recipe *sweetdb.RecipeRecord, err error, query string) {
	// The overlay dismisses whenever its own analysis completes, even when
	// the result is no longer wanted; only applying the result is gated on
	// the active generation.
	if generation == o.inflight {
		o.analyzing = false
		o.inflight = 0
	}
	if generation != o.generation {
		// Superseded by opening another recipe or a sign-out.
		return
	}
	if err != nil {
		slog.ErrorContext(o.ctx, "app: analysis failed", "error", err)
		o.notice = msgAnalyzeBusy
		return
	}

	o.recipe = recipe
	o.view = ViewRecipe
	o.activateRecipe(generation)

	ident := o.session.Identity
	if ident == nil {
		return
	}
	userID := ident.UserID
	result := *recipe
	ctx := o.ctx
	go func() {
		entries, err := o.store.RecordHistory(ctx, userID, query, result)
		if err != nil {
			slog.WarnContext(ctx, "app: recording history", "error", err)
			return
		}
		o.do(func() {
			if o.session.Identity == nil || o.session.Identity.UserID != userID {
				return
			}
			o.history = entries
		})
	}()
}

// activateRecipe dispatches every illustration that is neither loaded nor
// in flight. Failed entries re-enter loading, so re-activating the recipe
// view is how a retry happens.
func (o *Orchestrator) activateRecipe(generation uint64) {
	if o.recipe == nil {
		return
	}
	if hero := o.illus[illustrate.HeroStep]; hero.URL == "" && !hero.Loading {
		if o.sourcePhoto != "" {
			// The user's own photo serves as the hero; no fetch needed.
			o.illus[illustrate.HeroStep] = Illustration{URL: o.sourcePhoto}
		} else {
			o.illus[illustrate.HeroStep] = Illustration{Loading: true}
			o.engine.FetchHero(o.ctx, generation, o.recipe.ItemName)
		}
	}
	for _, step := range o.recipe.Steps {
		if entry := o.illus[step.StepNumber]; entry.URL != "" || entry.Loading {
			continue
		}
		o.illus[step.StepNumber] = Illustration{Loading: true}
		o.engine.FetchStep(o.ctx, generation, step.StepNumber, step.ImagePrompt)
	}
}

func (o *Orchestrator) applyIllustration(res illustrate.Result) {
	if res.Generation != o.generation {
		return
	}
	if res.Err != nil {
		slog.WarnContext(o.ctx, "app: illustration failed", "step", res.Step, "error", res.Err)
		o.illus[res.Step] = Illustration{Error: msgRetrying}
		return
	}
	o.illus[res.Step] = Illustration{URL: res.URL}
}

// HandleSession applies a session transition. Register it as a session
// manager subscriber.
func (o *Orchestrator) HandleSession(st session.Status) {
	o.do(func() {
		prev := o.session
		o.session = st
		switch {
		case st.State == session.StateAuthenticated && st.Identity != nil &&
			(prev.Identity == nil || prev.Identity.UserID != st.Identity.UserID):
			o.username = st.Identity.Username
			o.store.HydrateAll(o.ctx, st.Identity.UserID, remotestate.ProfileSeed{
				Username: st.Identity.Username,
				Email:    st.Identity.Email,
			})
		case st.State == session.StateAnonymous && prev.Identity != nil:
			o.reset()
		}
	})
}

// reset clears all per-user state after a sign-out. Bumping the
// generation makes any still-in-flight results discard themselves.
func (o *Orchestrator) reset() {
	o.view = ViewHome
	o.username = ""
	o.analyzing = false
	o.postFlow = false
	o.posting = false
	o.notice = ""
	o.generation++
	o.inflight = 0
	o.recipe = nil
	o.sourcePhoto = ""
	o.illus = map[int]Illustration{}
	o.saved = nil
	o.history = nil
	o.profile = sweetdb.UserProfile{Levels: sweetdb.DefaultLevels()}
}

func (o *Orchestrator) applyHydration(res remotestate.HydrateResult) {
	if o.session.Identity == nil || o.session.Identity.UserID != res.UserID {
		return
	}
	switch res.Kind {
	case remotestate.KindProfile:
		if res.Profile != nil {
			o.profile.Avatar = res.Profile.Avatar
			o.profile.Levels = res.Profile.Levels
		}
	case remotestate.KindSaved:
		o.saved = res.Saved
	case remotestate.KindHistory:
		o.history = res.History
	case remotestate.KindDiaries:
		o.profile.Diaries = res.Diaries
	}
}

func (o *Orchestrator) savedIndex(itemName string) int {
	for i, r := range o.saved {
		if r.ItemName == itemName {
			return i
		}
	}
	return -1
}
