package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/chepyr/go-kanban/internal/validation"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

// AuthStore tracks the signed-in user and persists it across runs.
type AuthStore struct {
	identity IdentityProvider
	storage  Storage

	mu            sync.RWMutex
	user          *models.User
	token         string
	authenticated bool
	status
	onLogout []func()
}

func NewAuthStore(identity IdentityProvider, storage Storage) *AuthStore {
	return &AuthStore{identity: identity, storage: storage, status: status{status: StatusIdle}}
}

// OnLogout registers fn to run after every logout. Board containers use it
// to drop data that belonged to the previous user.
func (a *AuthStore) OnLogout(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onLogout = append(a.onLogout, fn)
}

// Restore loads the persisted session. Missing or inconsistent data leaves
// the store signed out.
func (a *AuthStore) Restore() error {
	flag, _, err := a.storage.Get(KeyIsAuthenticated)
	if err != nil {
		return err
	}
	raw, hasUser, err := a.storage.Get(KeyUser)
	if err != nil {
		return err
	}
	token, _, err := a.storage.Get(KeyToken)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.user, a.token, a.authenticated = nil, "", false
	if flag != "true" || !hasUser {
		return nil
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == uuid.Nil {
		return nil
	}
	a.user, a.token, a.authenticated = &user, token, true
	return nil
}

// Refresh asks the identity service whether the stored token is still
// valid. A rejected token signs the user out locally.
func (a *AuthStore) Refresh(ctx context.Context) error {
	token := a.Token()
	if token == "" {
		return ErrNotAuthenticated
	}
	user, err := a.identity.CurrentUser(ctx, token)
	if err != nil {
		if models.IsUnauthorized(err) {
			a.mu.Lock()
			hooks := a.clearLocked()
			a.mu.Unlock()
			runHooks(hooks)
			return a.storage.Clear()
		}
		return err
	}
	return a.SetUser(user)
}

func (a *AuthStore) Login(ctx context.Context, input models.LoginInput) error {
	input, err := validation.ValidateLogin(input)
	if err != nil {
		return err
	}
	return a.signIn(func() (*models.Session, error) { return a.identity.Login(ctx, input) })
}

func (a *AuthStore) Register(ctx context.Context, input models.RegisterInput) error {
	input, err := validation.ValidateRegister(input)
	if err != nil {
		return err
	}
	return a.signIn(func() (*models.Session, error) { return a.identity.Register(ctx, input) })
}

func (a *AuthStore) signIn(call func() (*models.Session, error)) error {
	a.mu.Lock()
	a.loading()
	a.mu.Unlock()

	session, err := call()
	if err == nil {
		err = a.persist(&session.User, session.Token)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.failed(err)
		return err
	}
	user := session.User
	a.user, a.token, a.authenticated = &user, session.Token, true
	a.loaded()
	return nil
}

// Logout ends the session everywhere it can. Local state is cleared even
// when the identity service cannot be reached; that error is still
// returned.
func (a *AuthStore) Logout(ctx context.Context) error {
	token := a.Token()
	var remoteErr error
	if token != "" {
		remoteErr = a.identity.Logout(ctx, token)
	}

	a.mu.Lock()
	hooks := a.clearLocked()
	a.mu.Unlock()

	runHooks(hooks)
	if err := a.storage.Clear(); err != nil {
		return err
	}
	if remoteErr != nil && !models.IsUnauthorized(remoteErr) {
		return fmt.Errorf("sign out remotely: %w", remoteErr)
	}
	return nil
}

func (a *AuthStore) clearLocked() []func() {
	a.user, a.token, a.authenticated = nil, "", false
	a.status = status{status: StatusIdle}
	return append([]func(){}, a.onLogout...)
}

func runHooks(hooks []func()) {
	for _, fn := range hooks {
		fn()
	}
}

// SetUser replaces the signed-in user's profile and persists it.
func (a *AuthStore) SetUser(user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	token := a.Token()
	if err := a.persist(user, token); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	u := *user
	a.user, a.authenticated = &u, true
	return nil
}

func (a *AuthStore) persist(user *models.User, token string) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := a.storage.Set(KeyUser, string(data)); err != nil {
		return err
	}
	if err := a.storage.Set(KeyToken, token); err != nil {
		return err
	}
	return a.storage.Set(KeyIsAuthenticated, "true")
}

func (a *AuthStore) ClearError() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = ""
	if a.status.status == StatusError {
		a.status.status = StatusIdle
	}
}

func (a *AuthStore) User() *models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

func (a *AuthStore) UserID() (uuid.UUID, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.authenticated || a.user == nil {
		return uuid.Nil, false
	}
	return a.user.ID, true
}

func (a *AuthStore) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *AuthStore) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authenticated
}

func (a *AuthStore) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status.status
}

// LastError is the message of the last failed operation, or "".
func (a *AuthStore) LastError() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}
