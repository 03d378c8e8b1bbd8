package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/desertthunder/tubelist/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home.html", "dashboard.html", "playlist.html", "channel.html", "error.html"}

var funcs = template.FuncMap{
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return humanize.Time(t)
	},
	"comma": func(n int) string {
		return humanize.Comma(int64(n))
	},
	"plural": english.Plural,
	"initial": func(name string) string {
		for _, r := range name {
			return string(r)
		}
		return "?"
	},
}

// pageData is the value every template receives.
type pageData struct {
	Title      string
	Profile    *models.Profile
	Playlists  []models.Playlist
	Items      []models.PlaylistItem
	PlaylistID string
	ChannelID  string
	BackURL    string
	Message    string
	Status     int
}

func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// render executes page into a buffer so a template failure can still produce a clean 500.
func (a *App) render(w http.ResponseWriter, status int, page string, data pageData) {
	tmpl, ok := a.pages[page]
	if !ok {
		a.logger.Error("unknown template", "page", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		a.logger.Error("failed to render template", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (a *App) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := pageData{Title: http.StatusText(status), Message: message, Status: status, BackURL: "/"}
	if s, ok := sessionFrom(r); ok {
		data.Profile = &s.Profile
	}
	a.render(w, status, "error.html", data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
