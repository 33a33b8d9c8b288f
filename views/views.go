// Package views holds the server-rendered HTML pages.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"civicsync/models"
)

//go:embed templates/*.tmpl
var files embed.FS

// Funcs are the helpers available to every page.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"statusLabel": func(s models.IssueStatus) string { return s.Label() },
		"date":        func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"datetime":    func(t time.Time) string { return t.Format("Jan 2, 2006 15:04") },
		"percent":     func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"categories": func() []models.IssueCategory { return models.Categories },
		"statuses":   func() []models.IssueStatus { return models.StatusSequence },
		"roles":      func() []models.Role { return models.Roles },
	}
}

// Load parses every page template.
func Load() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(Funcs()).ParseFS(files, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
