package sessionsvc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/fanhub-app/fanhub/internal/domain"
	"github.com/fanhub-app/fanhub/internal/repo/kv"
	"github.com/fanhub-app/fanhub/internal/svc/sessionsvc"
)

const (
	pathToken       = "/api/auth/token/"
	pathLogin       = "/api/auth/login/"
	pathTokenObtain = "/api/auth/token/obtain/"
	pathSignup      = "/api/auth/signup/"
	pathRegister    = "/api/auth/register/"
)

// backendStub fakes the external backend: one canned response per path,
// everything else 404. It records the order of paths contacted.
type backendStub struct {
	t         *testing.T
	responses map[string]stubResponse
	contacted []string
}

type stubResponse struct {
	status int
	body   string
}

func (b *backendStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.contacted = append(b.contacted, r.URL.Path)

	if r.Method != http.MethodPost {
		b.t.Errorf("method = %s, want POST", r.Method)
	}

	if ct := r.Header.Get("Content-Type"); ct != "application/json" {
		b.t.Errorf("content-type = %q, want application/json", ct)
	}

	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		b.t.Errorf("request body not credentials JSON: %v", err)
	}

	resp, ok := b.responses[r.URL.Path]
	if !ok {
		http.NotFound(w, r)

		return
	}

	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}

func setupTestService(
	t *testing.T,
	store kv.Store,
	responses map[string]stubResponse,
) (*sessionsvc.SessionService, *backendStub) {
	t.Helper()

	stub := &backendStub{t: t, responses: responses}
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	if store == nil {
		store = kv.NewMemoryStore()
	}

	cfg := sessionsvc.SessionConfig{
		BaseURL:     server.URL,
		LoginPaths:  []string{pathToken, pathLogin, pathTokenObtain},
		SignupPaths: []string{pathSignup, pathRegister},
	}

	svc, err := sessionsvc.NewSessionService(
		func() (kv.Store, error) { return store, nil },
		cfg,
		server.Client(),
		nil,
	)
	if err != nil {
		t.Fatalf("new session service: %v", err)
	}

	return svc, stub
}

func creds(username string) domain.Credentials {
	return domain.Credentials{Username: username, Password: "hunter2"}
}

func TestLogin_FirstCandidateWins(t *testing.T) {
	t.Parallel()

	svc, stub := setupTestService(t, nil, map[string]stubResponse{
		pathToken: {status: http.StatusOK, body: `{"access": "abc123", "user": {"username": "alice"}}`},
	})

	if err := svc.Login(context.Background(), creds("alice")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	session := svc.Current()
	if session.Token != "abc123" {
		t.Errorf("Token = %q, want abc123", session.Token)
	}
	if got := session.User.Username(); got != "alice" {
		t.Errorf("Username = %q, want alice", got)
	}

	if !reflect.DeepEqual(stub.contacted, []string{pathToken}) {
		t.Errorf("contacted = %v, want only %s", stub.contacted, pathToken)
	}
}

func TestLogin_404FallsThroughToLaterCandidate(t *testing.T) {
	t.Parallel()

	svc, stub := setupTestService(t, nil, map[string]stubResponse{
		pathTokenObtain: {status: http.StatusOK, body: `{"token": "t2"}`},
	})

	if err := svc.Login(context.Background(), creds("bob")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	want := []string{pathToken, pathLogin, pathTokenObtain}
	if !reflect.DeepEqual(stub.contacted, want) {
		t.Errorf("contacted = %v, want %v", stub.contacted, want)
	}

	if svc.Current().Token != "t2" {
		t.Errorf("Token = %q, want t2", svc.Current().Token)
	}
}

func TestLogin_SynthesizesUserFromSubmittedUsername(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, nil, map[string]stubResponse{
		pathToken: {status: http.StatusOK, body: `{"access": "abc"}`},
	})

	if err := svc.Login(context.Background(), creds("bob")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	want := domain.Profile{"username": "bob"}
	if !reflect.DeepEqual(svc.Current().User, want) {
		t.Errorf("User = %v, want %v", svc.Current().User, want)
	}
}

func TestLogin_UsesResponseUsernameField(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, nil, map[string]stubResponse{
		pathToken: {status: http.StatusOK, body: `{"token": "t", "username": "backend-alice"}`},
	})

	if err := svc.Login(context.Background(), creds("alice")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if got := svc.Current().User.Username(); got != "backend-alice" {
		t.Errorf("Username = %q, want backend-alice", got)
	}
}

// A success response carrying none of the known token fields is accepted; the
// session ends up with a user but no token. Leniency preserved on purpose.
func TestLogin_TokenlessSuccessAccepted(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, nil, map[string]stubResponse{
		pathToken: {status: http.StatusOK, body: `{"user": {"username": "alice"}}`},
	})

	if err := svc.Login(context.Background(), creds("alice")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	session := svc.Current()
	if session.Token != "" {
		t.Errorf("Token = %q, want empty", session.Token)
	}
	if session.Authenticated() {
		t.Error("session reports authenticated without a token")
	}
}

func TestLogin_AllCandidatesNotFound(t *testing.T) {
	t.Parallel()

	svc, stub := setupTestService(t, nil, nil)

	err := svc.Login(context.Background(), creds("alice"))
	if err == nil {
		t.Fatal("Login succeeded against a backend with no auth endpoints")
	}

	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %T, want *domain.AuthError", err)
	}

	// The surfaced message references the last attempted path.
	want := "endpoint not found: " + pathTokenObtain
	if authErr.Message != want {
		t.Errorf("message = %q, want %q", authErr.Message, want)
	}

	if len(stub.contacted) != 3 {
		t.Errorf("contacted %d candidates, want 3", len(stub.contacted))
	}

	if !svc.Current().Anonymous() {
		t.Error("session not anonymous after failed login")
	}
}

func TestLogin_SurfacesDetailFromLastCandidate(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, nil, map[string]stubResponse{
		pathTokenObtain: {status: http.StatusBadRequest, body: `{"detail": "invalid credentials"}`},
	})

	err := svc.Login(context.Background(), creds("alice"))
	if err == nil {
		t.Fatal("Login succeeded, want rejection")
	}

	if err.Error() != "invalid credentials" {
		t.Errorf("message = %q, want %q", err.Error(), "invalid credentials")
	}
}

func TestLogin_ErrorMessagePrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "detail wins",
			body: `{"detail": "nope", "non_field_errors": ["x"]}`,
			want: "nope",
		},
		{
			name: "non_field_errors rendered structurally",
			body: `{"non_field_errors": ["Unable to log in with provided credentials."]}`,
			want: `["Unable to log in with provided credentials."]`,
		},
		{
			name: "whole body as fallback",
			body: `{"password": ["This field is required."]}`,
			want: `{"password":["This field is required."]}`,
		},
		{
			name: "raw text when body is not JSON",
			body: `upstream exploded`,
			want: "upstream exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := setupTestService(t, nil, map[string]stubResponse{
				pathTokenObtain: {status: http.StatusBadRequest, body: tt.body},
			})

			err := svc.Login(context.Background(), creds("alice"))
			if err == nil {
				t.Fatal("Login succeeded, want rejection")
			}

			if err.Error() != tt.want {
				t.Errorf("message = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

// A rejection on an early candidate is recorded but not surfaced when a later
// candidate succeeds.
func TestLogin_LaterCandidateOverridesEarlierRejection(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, nil, map[string]stubResponse{
		pathToken: {status: http.StatusBadRequest, body: `{"detail": "token endpoint says no"}`},
		pathLogin: {status: http.StatusOK, body: `{"token": "winner"}`},
	})

	if err := svc.Login(context.Background(), creds("alice")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if svc.Current().Token != "winner" {
		t.Errorf("Token = %q, want winner", svc.Current().Token)
	}
}

func TestLogin_NonJSONSuccessBodyFallsThrough(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, nil, map[string]stubResponse{
		pathToken: {status: http.StatusOK, body: `<html>definitely not json</html>`},
		pathLogin: {status: http.StatusOK, body: `{"token": "t"}`},
	})

	if err := svc.Login(context.Background(), creds("alice")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if svc.Current().Token != "t" {
		t.Errorf("Token = %q, want t", svc.Current().Token)
	}
}

func TestLogin_TransportFailure(t *testing.T) {
	t.Parallel()

	store := kv.NewMemoryStore()

	// A server that is already closed: every candidate fails at transport level.
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	cfg := sessionsvc.SessionConfig{
		BaseURL:    server.URL,
		LoginPaths: []string{pathToken, pathLogin},
	}

	svc, err := sessionsvc.NewSessionService(
		func() (kv.Store, error) { return store, nil },
		cfg,
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("new session service: %v", err)
	}

	loginErr := svc.Login(context.Background(), creds("alice"))
	if loginErr == nil {
		t.Fatal("Login succeeded against a dead backend")
	}

	if loginErr.Error() == "" {
		t.Error("transport failure produced an empty message")
	}
}

func TestLogin_NoCandidatesFallbackMessage(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, nil, nil)
	svc.Config.LoginPaths = nil

	err := svc.Login(context.Background(), creds("alice"))
	if err == nil || err.Error() != "Login failed" {
		t.Fatalf("err = %v, want %q", err, "Login failed")
	}
}

func TestSignup_UsesSignupCandidates(t *testing.T) {
	t.Parallel()

	svc, stub := setupTestService(t, nil, map[string]stubResponse{
		pathRegister: {status: http.StatusOK, body: `{"auth_token": "fresh", "user": {"username": "carol"}}`},
	})

	if err := svc.Signup(context.Background(), creds("carol")); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	want := []string{pathSignup, pathRegister}
	if !reflect.DeepEqual(stub.contacted, want) {
		t.Errorf("contacted = %v, want %v", stub.contacted, want)
	}

	if svc.Current().Token != "fresh" {
		t.Errorf("Token = %q, want fresh", svc.Current().Token)
	}
}

func TestSignup_NoCandidatesFallbackMessage(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, nil, nil)
	svc.Config.SignupPaths = nil

	err := svc.Signup(context.Background(), creds("carol"))
	if err == nil || err.Error() != "Signup failed" {
		t.Fatalf("err = %v, want %q", err, "Signup failed")
	}
}

func TestLogout_IdempotentAndClearsStorage(t *testing.T) {
	t.Parallel()

	store := kv.NewMemoryStore()
	svc, _ := setupTestService(t, store, map[string]stubResponse{
		pathToken: {status: http.StatusOK, body: `{"access": "abc123", "user": {"username": "alice"}}`},
	})

	ctx := context.Background()

	if err := svc.Login(ctx, creds("alice")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	svc.Logout(ctx)
	svc.Logout(ctx) // second call is a no-op

	if !svc.Current().Anonymous() {
		t.Error("session not anonymous after logout")
	}

	for _, key := range []string{"auth_token", "auth_user"} {
		if _, ok, _ := store.Get(ctx, key); ok {
			t.Errorf("storage slot %q still present after logout", key)
		}
	}
}

func TestStartup_EmptyStorageYieldsAnonymous(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, kv.NewMemoryStore(), nil)

	if !svc.Current().Anonymous() {
		t.Errorf("session = %+v, want anonymous", svc.Current())
	}
}

func TestStartup_CorruptUserSlotDegradesToNoUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemoryStore()

	if err := store.Set(ctx, "auth_token", "tok"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "auth_user", `{not json`); err != nil {
		t.Fatal(err)
	}

	svc, _ := setupTestService(t, store, nil)

	session := svc.Current()
	if session.Token != "tok" {
		t.Errorf("Token = %q, want tok", session.Token)
	}
	if session.User != nil {
		t.Errorf("User = %v, want absent", session.User)
	}
}

func TestPersistence_SurvivesReload(t *testing.T) {
	t.Parallel()

	store := kv.NewMemoryStore()
	svc, _ := setupTestService(t, store, map[string]stubResponse{
		pathToken: {status: http.StatusOK, body: `{"access": "abc123", "user": {"username": "alice", "plan": "gold"}}`},
	})

	if err := svc.Login(context.Background(), creds("alice")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Same store, fresh service: simulates an application reload.
	reloaded, _ := setupTestService(t, store, nil)

	want := svc.Current()
	got := reloaded.Current()

	if got.Token != want.Token {
		t.Errorf("Token = %q, want %q", got.Token, want.Token)
	}
	if !reflect.DeepEqual(got.User, want.User) {
		t.Errorf("User = %v, want %v", got.User, want.User)
	}
}

func TestSubscribe_NotifiesAndUnsubscribes(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, nil, map[string]stubResponse{
		pathToken: {status: http.StatusOK, body: `{"access": "abc", "user": {"username": "alice"}}`},
	})

	var notifications []domain.Session

	unsubscribe := svc.Subscribe(func(session domain.Session) {
		notifications = append(notifications, session)
	})

	ctx := context.Background()

	if err := svc.Login(ctx, creds("alice")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if len(notifications) != 1 || notifications[0].Token != "abc" {
		t.Fatalf("notifications = %+v, want one with token abc", notifications)
	}

	unsubscribe()
	svc.Logout(ctx)

	if len(notifications) != 1 {
		t.Errorf("received %d notifications after unsubscribe, want 1", len(notifications))
	}
}

func TestClaims_NonJWTToken(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, nil, map[string]stubResponse{
		pathToken: {status: http.StatusOK, body: `{"token": "opaque-not-a-jwt"}`},
	})

	if err := svc.Login(context.Background(), creds("alice")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, ok := svc.Claims(); ok {
		t.Error("Claims() decoded an opaque token")
	}

	if _, ok := svc.TokenExpiry(); ok {
		t.Error("TokenExpiry() produced a value for an opaque token")
	}
}

func TestClaims_JWTToken(t *testing.T) {
	t.Parallel()

	// Unsigned-alg JWT with exp claim; the client never verifies signatures.
	// header: {"alg":"none","typ":"JWT"} payload: {"exp":4102444800,"sub":"alice"}
	token := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJleHAiOjQxMDI0NDQ4MDAsInN1YiI6ImFsaWNlIn0."

	svc, _ := setupTestService(t, nil, map[string]stubResponse{
		pathToken: {status: http.StatusOK, body: `{"access": "` + token + `"}`},
	})

	if err := svc.Login(context.Background(), creds("alice")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, ok := svc.Claims()
	if !ok {
		t.Fatal("Claims() failed to decode a JWT")
	}

	if sub, _ := claims.GetSubject(); sub != "alice" {
		t.Errorf("sub = %q, want alice", sub)
	}

	expiry, ok := svc.TokenExpiry()
	if !ok {
		t.Fatal("TokenExpiry() failed")
	}

	if expiry.Unix() != 4102444800 {
		t.Errorf("expiry = %d, want 4102444800", expiry.Unix())
	}
}
