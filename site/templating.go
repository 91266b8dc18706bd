package site

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"churchsite/auth"
	"churchsite/templates"

	"github.com/go-chi/chi/v5"
	g "github.com/maragudk/gomponents"
)

func renderPage(w http.ResponseWriter, status int, page g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Render(w); err != nil {
		log.Printf("Page render error: %v", err)
	}
}

func render(w http.ResponseWriter, page g.Node) {
	renderPage(w, http.StatusOK, page)
}

func publicProps(r *http.Request, title string) templates.LayoutProps {
	props := templates.LayoutProps{Title: title}
	if user := auth.CurrentUser(r.Context()); user != nil {
		props.CurrentUser = user.Username
	}
	return props
}

func adminProps(r *http.Request, title string) templates.LayoutProps {
	props := publicProps(r, title)
	props.Admin = true
	return props
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("JSON encode error: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// urlID parses the {id} route parameter.
func urlID(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

func tryParseDate(dateStr string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"2006-01-02T15:04",
		time.RFC3339,
		time.RFC3339Nano,
		time.RFC1123,
		time.RFC1123Z,
		time.RFC822,
		time.RFC822Z,
		// custom formats
		"01/02/2006",
		"2006-01-02 15:04:05-07:00",
	}

	for _, layout := range formats {
		date, err := time.Parse(layout, dateStr)
		if err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
