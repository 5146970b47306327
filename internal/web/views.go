package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"shop-admin/internal/catalog"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pageTemplates = []string{
	"home.html",
	"product_form.html",
	"login.html",
	"register.html",
	"error.html",
}

// basePage is shared by every template.
type basePage struct {
	Title     string
	CSRFToken string
	SignedIn  bool
	Errors    []string
}

type homePage struct {
	basePage
	SearchTerm string
	Products   []catalog.Product
	TotalCount int
	Page       int
	HasMore    bool
}

func (p homePage) PrevPage() int { return p.Page - 1 }
func (p homePage) NextPage() int { return p.Page + 1 }

type productPage struct {
	basePage
	Form    productForm
	Editing bool
}

type loginPage struct {
	basePage
	Form loginForm
}

type registerPage struct {
	basePage
	Form registerForm
}

type errorPage struct {
	basePage
	Message   string
	RequestID string
}

type views struct {
	pages map[string]*template.Template
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"price": func(value float64) string {
			return strconv.FormatFloat(value, 'f', 2, 64)
		},
	}
}

func loadViews() (*views, error) {
	pages := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		tmpl, err := template.New("layout.html").
			Funcs(templateFuncs()).
			ParseFS(templateFiles, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &views{pages: pages}, nil
}

// render executes into a buffer first so a template failure never leaves a
// half-written page behind.
func (v *views) render(w http.ResponseWriter, status int, name string, data any) error {
	tmpl, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}
