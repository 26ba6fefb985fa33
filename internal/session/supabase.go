// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

func NewSupabaseAuth(client *supabase.Client, projectURL, anonKey string) *SupabaseAuth {
	return &SupabaseAuth{
		client:     client,
		projectURL: strings.TrimSuffix(projectURL, "/"),
		anonKey:    anonKey,
		http:       http.DefaultClient,
	}
}

// SupabaseAuth implements AuthAPI on the Supabase auth service.
type SupabaseAuth struct {
	client     *supabase.Client
	projectURL string
	anonKey    string
	http       *http.Client
}

func (a *SupabaseAuth) SignIn(_ context.Context, email, password string) (*Identity, error) {
	sess, err := a.client.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, classify(err)
	}
	a.client.UpdateAuthSession(sess)
	return identityFromSession(sess), nil
}

func (a *SupabaseAuth) SignUp(_ context.Context, email, password, username string) (*Identity, error) {
	resp, err := a.client.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data: map[string]interface{}{
			"username": username,
		},
	})
	if err != nil {
		return nil, classify(err)
	}
	// No session issued means the backend requires email confirmation.
	if resp.AccessToken == "" {
		return nil, nil
	}
	a.client.UpdateAuthSession(resp.Session)
	return identityFromSession(resp.Session), nil
}

// Resend calls the auth resend endpoint directly; the SDK does not expose
// it.
func (a *SupabaseAuth) Resend(ctx context.Context, email string) error {
	body, err := json.Marshal(map[string]string{
		"type":  "signup",
		"email": email,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.projectURL+"/auth/v1/resend", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", a.anonKey)

	res, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if res.StatusCode >= 400 {
		b, _ := io.ReadAll(res.Body)
		var remote struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(b, &remote); err == nil && remote.Msg != "" {
			return errors.New(remote.Msg)
		}
		return fmt.Errorf("resend failed with status %d", res.StatusCode)
	}
	return nil
}

func (a *SupabaseAuth) Refresh(_ context.Context, refreshToken string) (*Identity, error) {
	sess, err := a.client.RefreshToken(refreshToken)
	if err != nil {
		return nil, classify(err)
	}
	a.client.UpdateAuthSession(sess)
	return identityFromSession(sess), nil
}

func (a *SupabaseAuth) SignOut(_ context.Context, accessToken string) error {
	if err := a.client.Auth.WithToken(accessToken).Logout(); err != nil {
		return classify(err)
	}
	a.client.UpdateAuthSession(types.Session{})
	return nil
}

// classify maps rate-limit rejections to ErrRateLimited and passes other
// backend messages through untouched.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests") {
		return fmt.Errorf("%w: %s", ErrRateLimited, err.Error())
	}
	return err
}

func identityFromSession(sess types.Session) *Identity {
	username := ""
	if v, ok := sess.User.UserMetadata["username"].(string); ok {
		username = v
	}
	if username == "" {
		username, _, _ = strings.Cut(sess.User.Email, "@")
	}
	return &Identity{
		UserID:       sess.User.ID.String(),
		Email:        sess.User.Email,
		Username:     username,
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
	}
}
