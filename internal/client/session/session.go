package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ritchy/BytePass/internal/client/document"
	"github.com/ritchy/BytePass/internal/client/remote"
)

var (
	ErrSignInRequired = errors.New("not signed in, run 'bytepass auth login' first")
	ErrMissingToken   = errors.New("redirect carries no access token")
)

// refreshBuffer treats tokens expiring this soon as needing refresh
const refreshBuffer = 5 * time.Minute

// SettingsStore persists the settings document holding the auth blob
type SettingsStore interface {
	LoadSettings(ctx context.Context) (document.SettingsDocument, error)
	SaveSettings(ctx context.Context, doc document.SettingsDocument) error
}

// Session is the sign-in state kept in the settings' auth_client blob
type Session struct {
	mu sync.RWMutex

	store  SettingsStore
	client document.AuthClient
	id     string

	now func() time.Time
	log logrus.FieldLogger
}

var _ remote.Authenticator = (*Session)(nil)

// Load reads the current auth blob from the settings store
func Load(ctx context.Context, store SettingsStore, log logrus.FieldLogger) (*Session, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	doc, err := store.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	return &Session{
		store:  store,
		client: doc.AuthClient,
		id:     doc.ClientAccessID,
		now:    time.Now,
		log:    log,
	}, nil
}

// ClientID returns this device's client access id
func (s *Session) ClientID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// AuthClient returns a copy of the auth blob
func (s *Session) AuthClient() document.AuthClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// ExpiresAt returns the token expiry, zero when none is recorded
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAtLocked()
}

func (s *Session) expiresAtLocked() time.Time {
	if s.client.Expiry == "" {
		return time.Time{}
	}
	t, err := document.ParseTimestamp(s.client.Expiry)
	if err != nil {
		// unreadable expiry counts as already expired
		return time.Unix(0, 0)
	}
	return t
}

// IsSignedIn returns true if a token is present and not expired
func (s *Session) IsSignedIn(context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.client.Data == "" {
		return false
	}
	exp := s.expiresAtLocked()
	return exp.IsZero() || s.now().Before(exp)
}

// NeedsRefresh returns true if the token has expired or will expire soon
func (s *Session) NeedsRefresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp := s.expiresAtLocked()
	if exp.IsZero() {
		return false
	}
	return s.now().Add(refreshBuffer).After(exp)
}

// SignIn succeeds when a valid token is already stored. Obtaining a token is
// done out of band through Login or HandleRedirect.
func (s *Session) SignIn(ctx context.Context) error {
	if s.IsSignedIn(ctx) {
		return nil
	}
	return ErrSignInRequired
}

// Login stores a new token. A zero expiresIn means the token does not expire.
func (s *Session) Login(ctx context.Context, token, tokenType, refreshToken string, expiresIn time.Duration) error {
	if token == "" {
		return ErrMissingToken
	}
	if tokenType == "" {
		tokenType = "Bearer"
	}

	now := s.now()
	ac := document.AuthClient{
		LastUpdated:  document.FormatTimestamp(now),
		Data:         token,
		Type:         tokenType,
		RefreshToken: refreshToken,
	}
	if expiresIn > 0 {
		ac.Expiry = document.FormatTimestamp(now.Add(expiresIn))
	}

	if err := s.persist(ctx, ac); err != nil {
		return err
	}

	s.log.WithField("op", "login").Debug("stored auth token")
	return nil
}

// SignOut clears the token data and persists the change
func (s *Session) SignOut(ctx context.Context) error {
	ac := s.AuthClient()
	ac.Data = ""
	ac.Expiry = ""
	ac.RefreshToken = ""
	ac.LastUpdated = document.FormatTimestamp(s.now())

	return s.persist(ctx, ac)
}

// HandleRedirect extracts token parameters from a sign-in callback URL.
// Parameters are read from the fragment when present, else from the query.
func (s *Session) HandleRedirect(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid redirect url: %w", err)
	}

	params := u.Query()
	if u.Fragment != "" {
		params, err = url.ParseQuery(u.Fragment)
		if err != nil {
			return fmt.Errorf("invalid redirect fragment: %w", err)
		}
	}

	if msg := params.Get("error"); msg != "" {
		return fmt.Errorf("sign-in rejected: %s", msg)
	}

	token := params.Get("access_token")
	if token == "" {
		return ErrMissingToken
	}

	var expiresIn time.Duration
	if v := params.Get("expires_in"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid expires_in %q: %w", v, err)
		}
		expiresIn = time.Duration(secs) * time.Second
	}

	return s.Login(ctx, token, params.Get("token_type"), params.Get("refresh_token"), expiresIn)
}

// persist re-reads settings so other fields written meanwhile are kept
func (s *Session) persist(ctx context.Context, ac document.AuthClient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	doc.AuthClient = ac

	if err := s.store.SaveSettings(ctx, doc); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	s.client = ac
	s.id = doc.ClientAccessID
	return nil
}
