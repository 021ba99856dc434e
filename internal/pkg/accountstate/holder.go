package accountstate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/inkstone-app/inkstone-api/app/models"
)

const storeTimeout = 10 * time.Second

// Session describes an authenticated identity as reported by the auth layer.
// A nil session means signed out.
type Session struct {
	UserID string
	Email  string
}

// AuthEvents delivers auth state transitions to subscribers.
type AuthEvents interface {
	Subscribe(fn func(*Session)) string
	Unsubscribe(id string)
}

// Store is the narrow accounts projection the holder reads and writes.
type Store interface {
	Ensure(ctx context.Context, userID, email string) (*models.Account, error)
	SaveTheme(ctx context.Context, userID, themeName string) error
	SaveNotifications(ctx context.Context, userID string, enabled bool) error
}

// Snapshot is a copy of the holder's cached account state.
type Snapshot struct {
	UserID                 string
	Email                  string
	Authenticated          bool
	NotificationsEnabled   bool
	ThemeName              string
	SubscriptionTier       string
	CustomerID             string
	PlatformSubscriptionID string
	StripeConnectStatus    string
	StripeConnectAccountID string
	StripeConnectCreatedAt *time.Time
	ThemeLoading           bool
}

// Holder caches the authenticated account's preferences and subscription
// state for the presentation layer. It synchronizes from the store on
// sign-in, resets synchronously on sign-out, and persists preference changes
// optimistically: the cached value is written first and kept even when the
// store write later fails (the next sign-in reload converges it).
type Holder struct {
	store Store
	auth  AuthEvents
	subID string

	mu    sync.RWMutex
	state Snapshot

	persists sync.WaitGroup
}

// NewHolder creates a holder and registers its auth-change listener. Callers
// must Close the holder to release the listener.
func NewHolder(store Store, auth AuthEvents) *Holder {
	h := &Holder{
		store: store,
		auth:  auth,
		state: defaultState(),
	}
	h.subID = auth.Subscribe(h.handleAuthChange)
	return h
}

// Close unregisters the auth listener and waits for in-flight persists.
func (h *Holder) Close() {
	h.auth.Unsubscribe(h.subID)
	h.persists.Wait()
}

// Flush waits for in-flight preference persists. Intended for tests and
// shutdown paths.
func (h *Holder) Flush() {
	h.persists.Wait()
}

func defaultState() Snapshot {
	return Snapshot{
		NotificationsEnabled: true,
		ThemeName:            models.ThemeDefault,
		SubscriptionTier:     models.TierFree,
		ThemeLoading:         true,
	}
}

func (h *Holder) handleAuthChange(s *Session) {
	if s == nil || s.UserID == "" {
		// Sign-out resets the cache synchronously, no store call.
		h.mu.Lock()
		h.state = defaultState()
		h.state.ThemeLoading = false
		h.mu.Unlock()
		return
	}
	h.loadAccount(s)
}

func (h *Holder) loadAccount(s *Session) {
	h.mu.Lock()
	h.state.UserID = s.UserID
	h.state.Email = s.Email
	h.state.Authenticated = true
	h.state.ThemeLoading = true
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	acct, err := h.store.Ensure(ctx, s.UserID, s.Email)
	if err != nil {
		log.Printf("[accountstate] failed to load account for user %s: %v", s.UserID, err)
		h.mu.Lock()
		h.state.ThemeLoading = false
		h.mu.Unlock()
		return
	}

	h.mu.Lock()
	h.state.NotificationsEnabled = acct.NotificationsEnabled
	h.state.ThemeName = acct.ThemeName
	if !IsKnownTheme(acct.ThemeName) {
		h.state.ThemeName = models.ThemeDefault
	}
	h.state.SubscriptionTier = acct.SubscriptionTier
	h.state.CustomerID = acct.CustomerID
	h.state.PlatformSubscriptionID = acct.PlatformSubscriptionID
	h.state.StripeConnectStatus = acct.StripeConnectStatus
	h.state.StripeConnectAccountID = acct.StripeConnectAccountID
	h.state.StripeConnectCreatedAt = acct.StripeConnectCreatedAt
	h.state.ThemeLoading = false
	h.mu.Unlock()
}

// SetTheme updates the cached theme immediately and persists it in the
// background. Persistence failures are logged, not surfaced, and do not roll
// back the cached value.
func (h *Holder) SetTheme(name string) error {
	if !IsKnownTheme(name) {
		return fmt.Errorf("unknown theme %q", name)
	}

	h.mu.Lock()
	h.state.ThemeName = name
	userID := h.state.UserID
	h.mu.Unlock()

	if userID == "" {
		return nil
	}
	h.persists.Add(1)
	go func() {
		defer h.persists.Done()
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := h.store.SaveTheme(ctx, userID, name); err != nil {
			log.Printf("[accountstate] failed to persist theme for user %s: %v", userID, err)
		}
	}()
	return nil
}

// SetNotifications updates the cached preference immediately and persists it
// in the background, same contract as SetTheme.
func (h *Holder) SetNotifications(enabled bool) error {
	h.mu.Lock()
	h.state.NotificationsEnabled = enabled
	userID := h.state.UserID
	h.mu.Unlock()

	if userID == "" {
		return errors.New("not authenticated")
	}
	h.persists.Add(1)
	go func() {
		defer h.persists.Done()
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := h.store.SaveNotifications(ctx, userID, enabled); err != nil {
			log.Printf("[accountstate] failed to persist notifications for user %s: %v", userID, err)
		}
	}()
	return nil
}

// SetSubscriptionTier updates the cached tier. The authoritative value lives
// in the store and is written by the subscription service and the webhook
// reconciler; this only keeps the local cache in step after a change request.
func (h *Holder) SetSubscriptionTier(tier string) {
	h.mu.Lock()
	h.state.SubscriptionTier = tier
	h.mu.Unlock()
}

// Styles resolves a space-separated token string against the current theme.
func (h *Holder) Styles(tokens string) Style {
	h.mu.RLock()
	name := h.state.ThemeName
	h.mu.RUnlock()
	return ThemeByName(name).Resolve(tokens)
}

// StatusBarStyle returns the status bar variant for the current theme.
func (h *Holder) StatusBarStyle() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return StatusBarStyleFor(h.state.ThemeName)
}

// Snapshot returns a copy of the cached account state.
func (h *Holder) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}
