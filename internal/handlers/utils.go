package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tiered-events/app/internal/identity"
	"github.com/tiered-events/app/internal/tier"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// TemplateFS returns the embedded template directory.
func TemplateFS() fs.FS {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

func staticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Template helper functions
var funcMap = template.FuncMap{
	"FormatDate":   FormatDate,
	"FormatTime":   FormatTime,
	"Nl2br":        Nl2br,
	"TitleCase":    TitleCase,
	"TierName":     tier.DisplayName,
	"TierBadge":    tier.BadgeStyle,
	"TierGradient": tier.Gradient,
	"TierBenefits": tier.Benefits,
}

// TitleCase converts a string to title case.
// e.g., "not_attending" -> "Not Attending"
func TitleCase(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	return cases.Title(language.English).String(s)
}

// FormatDate renders the long date shown on event cards,
// e.g. "Monday, January 2, 2006".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("Monday, January 2, 2006")
}

// FormatTime renders a two-digit 12-hour clock, e.g. "03:04 PM".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("03:04 PM")
}

// Nl2br escapes s and replaces newline characters with <br> tags.
func Nl2br(s string) template.HTML {
	return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
}

// templates holds all parsed page templates keyed by file name,
// e.g. "events.html".
var templates map[string]*template.Template

// LoadTemplates parses every page in fsys together with layout.html and
// the partials (files starting with "_"). It should be called once at
// application startup.
func LoadTemplates(fsys fs.FS) error {
	const layoutFile = "layout.html"
	if _, err := fs.Stat(fsys, layoutFile); err != nil {
		return fmt.Errorf("layout.html not found: %w", err)
	}

	partialFiles, err := fs.Glob(fsys, "_*.html")
	if err != nil {
		return fmt.Errorf("error globbing partial templates: %w", err)
	}
	allFiles, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return fmt.Errorf("error globbing all templates: %w", err)
	}

	loaded := make(map[string]*template.Template)
	for _, page := range allFiles {
		if page == layoutFile || strings.HasPrefix(page, "_") {
			continue
		}
		// The page itself first so its content is the template named after
		// the file; layout and partials supply the "define"d blocks.
		files := append([]string{page, layoutFile}, partialFiles...)
		tmpl, err := template.New(page).Funcs(funcMap).ParseFS(fsys, files...)
		if err != nil {
			return fmt.Errorf("error parsing page template %s with layout and partials: %w", page, err)
		}
		loaded[page] = tmpl
	}
	if len(loaded) == 0 {
		return fmt.Errorf("no page templates found next to %s", layoutFile)
	}

	templates = loaded
	return nil
}

// RenderTemplate executes the named page into a buffer and writes it out,
// so a failing template never leaves a half-written page.
func RenderTemplate(w http.ResponseWriter, name string, data any) {
	RenderTemplateStatus(w, http.StatusOK, name, data)
}

// RenderTemplateStatus is RenderTemplate with an explicit status code.
func RenderTemplateStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := templates[name]
	if !ok {
		log.Error().Str("template", name).Strs("available", getTemplateKeys()).Msg("Template not found")
		http.Error(w, "Template not found: "+name, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Error executing template")
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderErrorPage renders a standardized error page using the error.html template.
func RenderErrorPage(w http.ResponseWriter, r *http.Request, statusCode int, title string, message string) {
	data := pageData(r, fmt.Sprintf("Error %d - %s", statusCode, title))
	data["StatusCode"] = statusCode
	data["StatusText"] = http.StatusText(statusCode)
	data["ErrorTitle"] = title
	data["Message"] = message
	RenderTemplateStatus(w, statusCode, "error.html", data)
}

// pageData is the common data every page passes to the layout.
func pageData(r *http.Request, title string) map[string]any {
	data := map[string]any{
		"Title":       title,
		"CurrentYear": time.Now().Year(),
	}
	if caller, ok := identity.CallerFromContext(r.Context()); ok {
		data["Caller"] = caller
		if next, ok := tier.Next(caller.Level); ok {
			data["NextLevel"] = next
		}
	}
	return data
}

func getTemplateKeys() []string {
	keys := make([]string, 0, len(templates))
	for k := range templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
