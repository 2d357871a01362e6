package websvc

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/fanhub-app/fanhub/internal/domain"
)

// Template names served by the transport.
const (
	homeTemplate     = "home.html"
	messagesTemplate = "messages.html"
	loginTemplate    = "login.html"
	signupTemplate   = "signup.html"
)

//go:embed templates
var templateFS embed.FS

//nolint:gochecknoglobals
var pages = func() map[string]*template.Template {
	names := []string{homeTemplate, messagesTemplate, loginTemplate, signupTemplate}
	parsed := make(map[string]*template.Template, len(names))

	for _, name := range names {
		parsed[name] = template.Must(template.ParseFS(
			templateFS,
			"templates/base.html",
			"templates/"+name,
		))
	}

	return parsed
}()

type homeData struct {
	Session     domain.Session
	TokenExpiry string
}

type messagesData struct {
	Session  domain.Session
	Messages []domain.Message
	Error    string
}

type formData struct {
	Session  domain.Session
	Username string
	Error    string
}

// renderPage executes the named page into a buffer first so a template error
// never produces a half-written response.
func renderPage(w io.Writer, name string, data any) error {
	tmpl, ok := pages[name]
	if !ok {
		return fmt.Errorf("unknown template: %s", name)
	}

	var buf bytes.Buffer

	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}
