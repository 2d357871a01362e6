package websvc

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fanhub-app/fanhub/internal/domain"
	context_ "github.com/fanhub-app/fanhub/internal/infra/context"
	"github.com/fanhub-app/fanhub/internal/infra/logging"
	http_ "github.com/fanhub-app/fanhub/internal/infra/transport/http"
	"github.com/fanhub-app/fanhub/internal/svc/messagesvc"
	"github.com/fanhub-app/fanhub/internal/svc/sessionsvc"
)

// HTTPTransportConfig contains configuration parameters for the web front end.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport serves the fan-club pages: home, the message feed and the two
// auth forms. It renders server-side; every mutation goes through the session
// service and the result is reflected on the next page load.
type HTTPTransport struct {
	sessionSvc *sessionsvc.SessionService
	messageSvc *messagesvc.MessageService
	router     chi.Router
	log        logging.Logger
	cfg        HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport and sets up its routes:
// - GET  /          home
// - GET  /messages  message feed
// - GET  /login     login form      POST /login   submit
// - GET  /signup    signup form     POST /signup  submit
// - POST /logout    sign out
// - GET  /metrics   prometheus metrics.
func NewHTTPTransport(
	sessionSvc *sessionsvc.SessionService,
	messageSvc *messagesvc.MessageService,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	ht := &HTTPTransport{
		sessionSvc: sessionSvc,
		messageSvc: messageSvc,
		log:        logging.GetLogger("svc.websvc.http_transport"),
		cfg:        cfg,
	}

	router := chi.NewRouter()
	router.Use(ht.sessionContext)
	router.Get("/", ht.HandleHome)
	router.Get("/messages", ht.HandleMessages)
	router.Get("/login", ht.HandleLoginForm)
	router.Post("/login", ht.HandleLogin)
	router.Get("/signup", ht.HandleSignupForm)
	router.Post("/signup", ht.HandleSignup)
	router.Post("/logout", ht.HandleLogout)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	ht.router = router

	return ht
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

// sessionContext attaches the signed-in username to the request context so it
// shows up in log records.
func (ht *HTTPTransport) sessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session := ht.sessionSvc.Current(); session.Authenticated() {
			r = r.WithContext(context_.WithUsername(r.Context(), session.User.Username()))
		}

		next.ServeHTTP(w, r)
	})
}

// HandleHome renders the landing page with the current auth state.
func (ht *HTTPTransport) HandleHome(w http.ResponseWriter, r *http.Request) {
	data := homeData{
		Session: ht.sessionSvc.Current(),
	}

	if expiry, ok := ht.sessionSvc.TokenExpiry(); ok {
		data.TokenExpiry = expiry.UTC().Format("2006-01-02 15:04 MST")
	}

	ht.render(w, r, homeTemplate, data)
}

// HandleMessages renders the message feed. There is deliberately no route
// guard: an anonymous session fetches without a bearer token and whatever the
// backend answers is shown.
func (ht *HTTPTransport) HandleMessages(w http.ResponseWriter, r *http.Request) {
	data := messagesData{
		Session: ht.sessionSvc.Current(),
	}

	messages, err := ht.messageSvc.List(r.Context(), data.Session.Token)
	if err != nil {
		data.Error = "Could not load messages."
	} else {
		data.Messages = messages
	}

	ht.render(w, r, messagesTemplate, data)
}

// HandleLoginForm renders an empty login form.
func (ht *HTTPTransport) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	ht.render(w, r, loginTemplate, formData{Session: ht.sessionSvc.Current()})
}

// HandleLogin submits the login form. The credentials are passed through
// as-is; the backend is the sole validator.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ht.handleAuthSubmit(w, r, loginTemplate, ht.sessionSvc.Login)
}

// HandleSignupForm renders an empty signup form.
func (ht *HTTPTransport) HandleSignupForm(w http.ResponseWriter, r *http.Request) {
	ht.render(w, r, signupTemplate, formData{Session: ht.sessionSvc.Current()})
}

// HandleSignup submits the signup form.
func (ht *HTTPTransport) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ht.handleAuthSubmit(w, r, signupTemplate, ht.sessionSvc.Signup)
}

func (ht *HTTPTransport) handleAuthSubmit(
	w http.ResponseWriter,
	r *http.Request,
	tmpl string,
	operation func(context.Context, domain.Credentials) error,
) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return
	}

	creds := domain.Credentials{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}

	if err := operation(r.Context(), creds); err != nil {
		ht.render(w, r, tmpl, formData{
			Session:  ht.sessionSvc.Current(),
			Username: creds.Username,
			Error:    err.Error(),
		})

		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session and returns to the landing page.
func (ht *HTTPTransport) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ht.sessionSvc.Logout(r.Context())

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (ht *HTTPTransport) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := renderPage(w, name, data); err != nil {
		ht.log.ErrorContext(r.Context(), "render failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
