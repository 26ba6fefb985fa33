// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/curioswitch/sweetspot/internal/app"
	"github.com/curioswitch/sweetspot/internal/session"
	"github.com/curioswitch/sweetspot/internal/sweetdb"
)

func NewHandler(orch *app.Orchestrator, sessions *session.Manager) *Handler {
	return &Handler{
		orch:     orch,
		sessions: sessions,
	}
}

// Handler exposes the application over JSON intent endpoints. Auth
// endpoints and the state read are reachable anonymously; everything else
// requires a session.
type Handler struct {
	orch     *app.Orchestrator
	sessions *session.Manager
}

// Routes registers all endpoints on the mux.
func (h *Handler) Routes(mux chi.Router) {
	mux.Route("/api", func(r chi.Router) {
		r.Get("/state", h.getState)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signin", h.signIn)
			r.Post("/signup", h.signUp)
			r.Post("/resend", h.resend)
			r.Post("/signout", h.signOut)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)

			r.Post("/analyze", h.analyze)
			r.Post("/view", h.setView)
			r.Post("/category", h.setCategory)
			r.Post("/servings", h.setServings)
			r.Post("/cupsize", h.setCupSize)

			r.Post("/recipe/save", h.toggleSave)
			r.Post("/recipe/share", h.share)
			r.Post("/saved/open", h.openSaved)
			r.Post("/history/open", h.openHistory)

			r.Post("/post/open", h.openPostFlow)
			r.Post("/post/close", h.closePostFlow)
			r.Post("/post", h.postDiary)

			r.Post("/profile/proficiency", h.setProficiency)
			r.Post("/profile/avatar", h.setAvatar)
			r.Post("/profile/username", h.setUsername)
		})
	})
}

func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.sessions.Status().State != session.StateAuthenticated {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.orch.Snapshot())
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	h.sessions.SignIn(r.Context(), req.Email, req.Password)
	writeJSON(w, r, h.sessions.Status())
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	h.sessions.SignUp(r.Context(), req.Email, req.Password, req.Username)
	writeJSON(w, r, h.sessions.Status())
}

func (h *Handler) resend(w http.ResponseWriter, r *http.Request) {
	h.sessions.ResendConfirmation(r.Context())
	writeJSON(w, r, h.sessions.Status())
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	h.sessions.SignOut(r.Context())
	writeJSON(w, r, h.sessions.Status())
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text  string `json:"text"`
		Photo string `json:"photo"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	h.orch.Analyze(req.Text, req.Photo)
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) setView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View app.View `json:"view"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	h.orch.SetView(req.View)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category sweetdb.Category `json:"category"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	h.orch.SetCategory(req.Category)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setServings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Servings int `json:"servings"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	h.orch.SetServings(req.Servings)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setCupSize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CupSize string `json:"cupSize"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	h.orch.SetCupSize(req.CupSize)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleSave(w http.ResponseWriter, _ *http.Request) {
	h.orch.ToggleSave()
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) share(w http.ResponseWriter, r *http.Request) {
	text := h.orch.ShareText()
	if text == "" {
		http.Error(w, "no active recipe", http.StatusConflict)
		return
	}
	writeJSON(w, r, map[string]string{"text": text})
}

func (h *Handler) openSaved(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemName string `json:"itemName"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	h.orch.OpenSaved(req.ItemName)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) openHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	h.orch.OpenHistory(req.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) openPostFlow(w http.ResponseWriter, _ *http.Request) {
	h.orch.OpenPostFlow()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) closePostFlow(w http.ResponseWriter, _ *http.Request) {
	h.orch.ClosePostFlow()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) postDiary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Photo   string `json:"photo"`
		Caption string `json:"caption"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	h.orch.PostDiary(req.Photo, req.Caption)
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) setProficiency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category sweetdb.Category         `json:"category"`
		Level    sweetdb.ProficiencyLevel `json:"level"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	h.orch.UpdateProficiency(req.Category, req.Level)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setAvatar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Photo string `json:"photo"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	h.orch.UpdateAvatar(req.Photo)
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) setUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	h.orch.UpdateUsername(req.Username)
	w.WriteHeader(http.StatusNoContent)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "httpapi: encoding response", "error", err)
	}
}
