// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrRateLimited classifies backend rejections caused by request rate
// limits. It triggers a client-side cooldown instead of an immediate retry.
var ErrRateLimited = errors.New("session: rate limited")

type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// Identity wraps the opaque remote session plus display fields derived
// from it. Exactly one identity is live per process.
type Identity struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Status is a snapshot of the auth surface.
type Status struct {
	State    State     `json:"state"`
	Identity *Identity `json:"identity,omitempty"`

	// Error and Message are user-readable notices for the auth gate.
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`

	// ConfirmationPending is set after a sign-up that issued no session.
	ConfirmationPending bool `json:"confirmationPending,omitempty"`

	// OfferResend is set when resending the confirmation link is useful.
	OfferResend bool `json:"offerResend,omitempty"`

	// Cooldown is the remaining lockout in seconds; zero when actions are
	// permitted.
	Cooldown int `json:"cooldown,omitempty"`

	// Email is the last submitted email, kept for resend.
	Email string `json:"email,omitempty"`
}

// AuthAPI is the remote auth surface the manager drives. Error messages
// returned by it are surfaced to the user verbatim, so implementations
// must not wrap backend messages with call-site context.
type AuthAPI interface {
	// SignIn exchanges credentials for a session.
	SignIn(ctx context.Context, email, password string) (*Identity, error)

	// SignUp registers a user. A nil identity with nil error means the
	// account was created but email confirmation is still required.
	SignUp(ctx context.Context, email, password, username string) (*Identity, error)

	// Resend re-sends the sign-up confirmation email.
	Resend(ctx context.Context, email string) error

	// Refresh exchanges a refresh token for a fresh session.
	Refresh(ctx context.Context, refreshToken string) (*Identity, error)

	// SignOut revokes the session for the given access token.
	SignOut(ctx context.Context, accessToken string) error
}

const (
	msgFillFields    = "Please fill in all required fields."
	msgShortPassword = "Password must be at least 6 characters long."
	msgUnconfirmed   = "Your email is not confirmed. Please check your inbox or resend the link."
	msgSignUpLimited = "Email rate limit reached. Please wait a moment."
	msgResendLimited = "Too many requests. Please wait a minute."
	msgResent        = "Confirmation email resent! Please check your spam folder."
	msgConfirmSent   = "Success! Check your email inbox (and spam folder) for the confirmation link."
	msgWelcome       = "Welcome to SweetSpot!"

	cooldownRateLimit  = 60
	cooldownPostSignUp = 30
)

func NewManager(auth AuthAPI, sessionFile string) *Manager {
	m := &Manager{
		auth:   auth,
		file:   sessionFile,
		status: Status{State: StateAnonymous},
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go m.notify()
	return m
}

// Manager owns the authentication lifecycle. All remote failures are
// converted to Status fields; nothing escapes as a process failure.
type Manager struct {
	auth AuthAPI
	file string

	signal chan struct{}
	done   chan struct{}

	mu           sync.Mutex
	status       Status
	subs         []func(Status)
	queue        []Status
	cooldownStop chan struct{}
}

// Subscribe registers a session-change listener for the process lifetime.
// The listener is invoked with a status snapshot after every transition,
// in transition order.
func (m *Manager) Subscribe(fn func(Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Status returns a snapshot of the current auth state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Restore recovers a persisted session on process start. Transport errors
// are retried with exponential backoff; if no session can be recovered the
// manager stays anonymous and the stale session file is removed.
func (m *Manager) Restore(ctx context.Context) {
	if m.file == "" {
		return
	}
	b, err := os.ReadFile(m.file)
	if err != nil {
		return
	}
	var saved Identity
	if err := json.Unmarshal(b, &saved); err != nil || saved.RefreshToken == "" {
		_ = os.Remove(m.file)
		return
	}

	ident, err := backoff.Retry(ctx, func() (*Identity, error) {
		return m.auth.Refresh(ctx, saved.RefreshToken)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(3))
	if err != nil {
		slog.InfoContext(ctx, "session: could not restore persisted session", "error", err)
		_ = os.Remove(m.file)
		return
	}

	m.update(func(s *Status) {
		s.State = StateAuthenticated
		s.Identity = ident
		s.Email = ident.Email
	})
}

// SignIn authenticates with an email and password. Constraint violations
// are rejected before any remote call.
func (m *Manager) SignIn(ctx context.Context, email, password string) {
	if !m.begin(func(s *Status) string {
		if email == "" || password == "" {
			return msgFillFields
		}
		if len(password) < 6 {
			return msgShortPassword
		}
		return ""
	}, email) {
		return
	}

	ident, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		m.update(func(s *Status) {
			s.State = StateAnonymous
			if strings.Contains(strings.ToLower(err.Error()), "confirmed") {
				s.Error = msgUnconfirmed
				s.OfferResend = true
			} else {
				s.Error = err.Error()
			}
		})
		return
	}

	m.update(func(s *Status) {
		s.State = StateAuthenticated
		s.Identity = ident
		s.Email = ident.Email
	})
}

// SignUp registers a new account. Three remote outcomes are distinguished:
// rate limit, confirmation pending, and an immediately issued session.
func (m *Manager) SignUp(ctx context.Context, email, password, username string) {
	if !m.begin(func(s *Status) string {
		if email == "" || password == "" || username == "" {
			return msgFillFields
		}
		if len(password) < 6 {
			return msgShortPassword
		}
		return ""
	}, email) {
		return
	}

	ident, err := m.auth.SignUp(ctx, email, password, username)
	switch {
	case errors.Is(err, ErrRateLimited):
		m.update(func(s *Status) {
			s.State = StateAnonymous
			s.Error = msgSignUpLimited
		})
		m.startCooldown(cooldownRateLimit)
	case err != nil:
		m.update(func(s *Status) {
			s.State = StateAnonymous
			s.Error = err.Error()
		})
	case ident == nil:
		m.update(func(s *Status) {
			s.State = StateAnonymous
			s.ConfirmationPending = true
			s.OfferResend = true
			s.Message = msgConfirmSent
		})
		m.startCooldown(cooldownPostSignUp)
	default:
		m.update(func(s *Status) {
			s.State = StateAuthenticated
			s.Identity = ident
			s.Email = ident.Email
			s.Message = msgWelcome
		})
	}
}

// ResendConfirmation re-sends the confirmation link to the stored email.
func (m *Manager) ResendConfirmation(ctx context.Context) {
	m.mu.Lock()
	email := m.status.Email
	blocked := email == "" || m.status.Cooldown > 0 || m.status.State == StateAuthenticating
	if !blocked {
		m.status.Error = ""
	}
	m.mu.Unlock()
	if blocked {
		return
	}

	err := m.auth.Resend(ctx, email)
	switch {
	case errors.Is(err, ErrRateLimited):
		m.update(func(s *Status) { s.Error = msgResendLimited })
		m.startCooldown(cooldownRateLimit)
	case err != nil:
		m.update(func(s *Status) { s.Error = err.Error() })
	default:
		m.update(func(s *Status) { s.Message = msgResent })
		m.startCooldown(cooldownRateLimit)
	}
}

// SignOut revokes and clears the session.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	ident := m.status.Identity
	m.mu.Unlock()
	if ident == nil {
		return
	}
	if err := m.auth.SignOut(ctx, ident.AccessToken); err != nil {
		slog.WarnContext(ctx, "session: remote sign-out failed", "error", err)
	}
	m.update(func(s *Status) {
		*s = Status{State: StateAnonymous, Email: s.Email}
	})
}

// Close stops the notifier and any running cooldown timer.
func (m *Manager) Close() {
	close(m.done)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCooldownLocked()
}

// begin validates locally, rejects when a cooldown or another auth attempt
// is in progress, and transitions to authenticating. It reports whether
// the remote call should proceed.
func (m *Manager) begin(validate func(*Status) string, email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status.Cooldown > 0 || m.status.State == StateAuthenticating {
		return false
	}
	if msg := validate(&m.status); msg != "" {
		m.status.Error = msg
		m.notifyLocked()
		return false
	}
	m.status.State = StateAuthenticating
	m.status.Error = ""
	m.status.Message = ""
	m.status.OfferResend = false
	m.status.Email = email
	m.notifyLocked()
	return true
}

func (m *Manager) update(mutate func(*Status)) {
	m.mu.Lock()
	mutate(&m.status)
	m.persistLocked()
	m.notifyLocked()
	m.mu.Unlock()
}

// notifyLocked queues the current status for the notifier goroutine.
// Transitions are queued under the lock, so subscribers see them in the
// order they happened.
func (m *Manager) notifyLocked() {
	m.queue = append(m.queue, m.status)
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// notify drains queued status snapshots to subscribers, one goroutine for
// the lifetime of the manager. It holds no lock while invoking listeners
// so they can call back into the manager.
func (m *Manager) notify() {
	for {
		select {
		case <-m.done:
			return
		case <-m.signal:
		}
		for {
			m.mu.Lock()
			if len(m.queue) == 0 {
				m.mu.Unlock()
				break
			}
			status := m.queue[0]
			m.queue = m.queue[1:]
			subs := slices.Clone(m.subs)
			m.mu.Unlock()
			for _, fn := range subs {
				fn(status)
			}
		}
	}
}

func (m *Manager) persistLocked() {
	if m.file == "" {
		return
	}
	if m.status.Identity == nil {
		_ = os.Remove(m.file)
		return
	}
	b, err := json.Marshal(m.status.Identity)
	if err != nil {
		return
	}
	if err := os.WriteFile(m.file, b, 0o600); err != nil {
		slog.Warn("session: persisting session", "error", err)
	}
}

// startCooldown begins a 1Hz countdown gating resubmission. A running
// countdown is cancelled first; a cancelled timer never ticks again.
func (m *Manager) startCooldown(seconds int) {
	m.mu.Lock()
	m.stopCooldownLocked()
	stop := make(chan struct{})
	m.cooldownStop = stop
	m.status.Cooldown = seconds
	m.notifyLocked()
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.mu.Lock()
				if m.cooldownStop != stop {
					m.mu.Unlock()
					return
				}
				m.status.Cooldown--
				done := m.status.Cooldown <= 0
				if done {
					m.status.Cooldown = 0
					m.stopCooldownLocked()
				}
				m.notifyLocked()
				m.mu.Unlock()
				if done {
					return
				}
			}
		}
	}()
}

func (m *Manager) stopCooldownLocked() {
	if m.cooldownStop != nil {
		close(m.cooldownStop)
		m.cooldownStop = nil
	}
}
