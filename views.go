package keyhole

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// View names
const (
	ViewLogin  = "login"
	ViewSignup = "signup"
	ViewSecret = "secret"
)

// ViewData is what every page template receives.
type ViewData struct {
	Title         string
	User          *User  // set on protected pages
	ExternalLogin string // provider name when external login is configured
}

// Views renders the embedded page templates.
type Views struct {
	pages map[string]*template.Template
}

func NewViews() (*Views, error) {
	out := &Views{pages: make(map[string]*template.Template)}
	for _, name := range []string{ViewLogin, ViewSignup, ViewSecret} {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		out.pages[name] = t
	}
	return out, nil
}

// Render executes the named view into w. Output is buffered so a template
// failure still produces a clean 500.
func (v *Views) Render(w http.ResponseWriter, name string, data ViewData) error {
	t, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown view: %s", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
