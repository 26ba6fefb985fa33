// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/curioswitch/go-curiostack/server"
	"github.com/supabase-community/supabase-go"
	"google.golang.org/genai"

	"github.com/curioswitch/sweetspot/internal/app"
	"github.com/curioswitch/sweetspot/internal/config"
	"github.com/curioswitch/sweetspot/internal/httpapi"
	"github.com/curioswitch/sweetspot/internal/illustrate"
	"github.com/curioswitch/sweetspot/internal/recipegen"
	"github.com/curioswitch/sweetspot/internal/remotestate"
	"github.com/curioswitch/sweetspot/internal/session"
)

//go:embed conf/*.yaml
var confFiles embed.FS

func main() {
	conf, _ := fs.Sub(confFiles, "conf")
	os.Exit(server.Main(&config.Config{}, conf, setupServer))
}

func setupServer(ctx context.Context, conf *config.Config, s *server.Server) error {
	mux := server.Mux(s)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	genAI, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  conf.GenAI.APIKey,
	})
	if err != nil {
		return fmt.Errorf("main: creating genai client: %w", err)
	}

	sb, err := supabase.NewClient(conf.Supabase.URL, conf.Supabase.AnonKey, nil)
	if err != nil {
		return fmt.Errorf("main: creating supabase client: %w", err)
	}

	illustrations := make(chan illustrate.Result, 16)
	hydrations := make(chan remotestate.HydrateResult, 4)

	gen := recipegen.NewClient(genAI, conf.GenAI.RecipeModel)
	engine := illustrate.NewEngine(genAI, conf.GenAI.ImageModel, illustrations)
	store := remotestate.NewSynchronizer(sb, hydrations)

	sessionFile := conf.Supabase.SessionFile
	if sessionFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			sessionFile = filepath.Join(dir, "sweetspot", "session.json")
			if err := os.MkdirAll(filepath.Dir(sessionFile), 0o700); err != nil {
				slog.WarnContext(ctx, "main: creating session directory", "error", err)
				sessionFile = ""
			}
		}
	}

	auth := session.NewSupabaseAuth(sb, conf.Supabase.URL, conf.Supabase.AnonKey)
	sessions := session.NewManager(auth, sessionFile)
	defer sessions.Close()

	orch := app.New(gen, engine, store, illustrations, hydrations)
	sessions.Subscribe(orch.HandleSession)

	go func() {
		_ = orch.Run(ctx)
	}()
	go sessions.Restore(ctx)

	httpapi.NewHandler(orch, sessions).Routes(mux)

	if err := server.Start(ctx, s); err != nil {
		return fmt.Errorf("main: starting server: %w", err)
	}
	return nil
}
