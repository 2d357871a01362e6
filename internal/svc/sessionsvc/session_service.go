package sessionsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/fanhub-app/fanhub/internal/domain"
	"github.com/fanhub-app/fanhub/internal/infra/logging"
	"github.com/fanhub-app/fanhub/internal/infra/metrics"
	"github.com/fanhub-app/fanhub/internal/repo/kv"
)

// Storage slot keys. The session is always derivable from these two slots and
// every session mutation re-synchronizes them.
const (
	storageKeyToken = "auth_token"
	storageKeyUser  = "auth_user"
)

// Fallback messages surfaced when every candidate endpoint failed without
// producing a message of its own.
const (
	msgLoginFailed  = "Login failed"
	msgSignupFailed = "Signup failed"
)

// Operation names used for logging and metrics labels.
const (
	opLogin  = "login"
	opSignup = "signup"
)

// SessionConfig contains configuration parameters for the session service.
type SessionConfig struct {
	// BaseURL is the base URL of the external backend
	BaseURL string `env:"BASE_URL" default:"http://localhost:8000"`

	// LoginPaths are the candidate login endpoints, tried in order
	LoginPaths []string `env:"LOGIN_PATHS" default:"/api/auth/token/,/api/auth/login/,/api/auth/token/obtain/"`

	// SignupPaths are the candidate signup endpoints, tried in order
	SignupPaths []string `env:"SIGNUP_PATHS" default:"/api/auth/signup/,/api/auth/register/"`
}

// SessionService owns the authentication session: it negotiates login and
// signup with a backend whose exact auth contract is unknown (an ordered list
// of candidate endpoints is probed per operation), keeps the current session
// in memory, persists it across restarts and notifies subscribers on change.
type SessionService struct {
	Config SessionConfig
	Store  kv.Store
	Log    logging.Logger

	httpClient *http.Client
	metrics    *metrics.Metrics

	mu          sync.Mutex
	session     domain.Session
	subscribers map[int]func(domain.Session)
	nextSubID   int
}

// NewSessionService creates a new SessionService. The previous session is
// loaded from the store; missing, corrupt or unreadable slots degrade to an
// anonymous session, never to an error. If httpClient is nil,
// http.DefaultClient is used. mtr may be nil.
func NewSessionService(
	storeFactory kv.StoreFactory,
	cfg SessionConfig,
	httpClient *http.Client,
	mtr *metrics.Metrics,
) (*SessionService, error) {
	log := logging.GetLogger("svc.sessionsvc.session_service")

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	store, err := storeFactory()
	if err != nil {
		return nil, fmt.Errorf("new kv store: %w", err)
	}

	svc := &SessionService{
		Config:      cfg,
		Store:       store,
		Log:         log,
		httpClient:  httpClient,
		metrics:     mtr,
		subscribers: make(map[int]func(domain.Session)),
	}

	svc.session = svc.loadSession(context.Background())

	return svc, nil
}

// loadSession reads the two storage slots. Any failure on either slot is
// treated as "no value"; initialization never fails.
func (s *SessionService) loadSession(ctx context.Context) domain.Session {
	var session domain.Session

	if token, ok, err := s.Store.Get(ctx, storageKeyToken); err == nil && ok {
		session.Token = token
	} else if err != nil {
		s.Log.DebugContext(ctx, "token slot unreadable", "error", err)
	}

	if raw, ok, err := s.Store.Get(ctx, storageKeyUser); err == nil && ok {
		var user domain.Profile
		if err := json.Unmarshal([]byte(raw), &user); err == nil {
			session.User = user
		} else {
			s.Log.DebugContext(ctx, "user slot corrupt", "error", err)
		}
	} else if err != nil {
		s.Log.DebugContext(ctx, "user slot unreadable", "error", err)
	}

	return session
}

// Current returns a snapshot of the session state.
func (s *SessionService) Current() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session
}

// Subscribe registers fn to be called with the new session after every
// mutation. The returned function removes the subscription.
func (s *SessionService) Subscribe(fn func(domain.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.subscribers, id)
	}
}

// Login authenticates with the backend, trying each candidate login endpoint
// in order until one succeeds. On success the session state and storage
// reflect the new token and user. On exhaustion it returns a *domain.AuthError
// carrying the most recent failure message.
func (s *SessionService) Login(ctx context.Context, creds domain.Credentials) (err error) {
	log := s.Log.With(logging.Group("auth", "operation", opLogin, "username", creds.Username))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	return s.authenticate(ctx, opLogin, s.Config.LoginPaths, creds, msgLoginFailed)
}

// Signup registers a new account with the backend. Identical candidate-probing
// shape to Login, over the signup endpoint list.
func (s *SessionService) Signup(ctx context.Context, creds domain.Credentials) (err error) {
	log := s.Log.With(logging.Group("auth", "operation", opSignup, "username", creds.Username))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "signup failed", "error", err)
		} else {
			log.DebugContext(ctx, "signup successful")
		}
	}()

	return s.authenticate(ctx, opSignup, s.Config.SignupPaths, creds, msgSignupFailed)
}

func (s *SessionService) authenticate(
	ctx context.Context,
	operation string,
	paths []string,
	creds domain.Credentials,
	fallbackMsg string,
) error {
	var lastMsg string

	// Candidates are tried strictly in sequence; the first success wins and
	// the remaining candidates are never contacted.
	for _, path := range paths {
		result, probeErr := s.probe(ctx, path, creds)
		if probeErr != nil {
			s.metrics.RecordProbe(operation, path, probeErr.result)
			lastMsg = probeErr.message

			continue
		}

		s.metrics.RecordProbe(operation, path, metrics.ProbeSuccess)
		s.metrics.RecordAuthAttempt(operation, metrics.OutcomeSuccess)

		user := result.user
		if user == nil {
			user = domain.NewProfile(creds.Username)
		}

		s.setSession(ctx, domain.Session{Token: result.token, User: user})

		return nil
	}

	s.metrics.RecordAuthAttempt(operation, metrics.OutcomeFailure)

	if lastMsg == "" {
		lastMsg = fallbackMsg
	}

	return domain.NewAuthError(lastMsg)
}

// Logout clears the session. It is idempotent and has no network effect.
func (s *SessionService) Logout(ctx context.Context) {
	s.Log.DebugContext(ctx, "logout")

	s.setSession(ctx, domain.Session{})
}

// setSession commits the new session, re-synchronizes storage and notifies
// subscribers. Subscribers run synchronously on the mutating goroutine.
func (s *SessionService) setSession(ctx context.Context, session domain.Session) {
	s.mu.Lock()
	s.session = session

	subs := make([]func(domain.Session), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.persist(ctx, session)

	for _, fn := range subs {
		fn(session)
	}
}

// persist writes the session into the two storage slots: present values are
// written, absent values remove the slot. Writes are best-effort; storage
// failures degrade to non-persistent behavior and are never surfaced.
func (s *SessionService) persist(ctx context.Context, session domain.Session) {
	if session.Token != "" {
		if err := s.Store.Set(ctx, storageKeyToken, session.Token); err != nil {
			s.Log.DebugContext(ctx, "persist token failed", "error", err)
		}
	} else {
		if err := s.Store.Delete(ctx, storageKeyToken); err != nil {
			s.Log.DebugContext(ctx, "remove token failed", "error", err)
		}
	}

	if session.User != nil {
		raw, err := json.Marshal(session.User)
		if err == nil {
			err = s.Store.Set(ctx, storageKeyUser, string(raw))
		}

		if err != nil {
			s.Log.DebugContext(ctx, "persist user failed", "error", err)
		}
	} else {
		if err := s.Store.Delete(ctx, storageKeyUser); err != nil {
			s.Log.DebugContext(ctx, "remove user failed", "error", err)
		}
	}
}

// Close releases resources held by the service.
func (s *SessionService) Close() error {
	return s.Store.Close()
}
