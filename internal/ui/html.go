package ui

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/theLastOfCats/series-browser/internal/templates"
)

const resultsTemplate = "results.html"

// Exporter writes a Page as a standalone HTML document.
type Exporter struct {
	templates *templates.Manager
}

func NewExporter() (*Exporter, error) {
	m, err := templates.NewManager(nil, template.FuncMap{
		"upper":    strings.ToUpper,
		"truncate": truncate,
	})
	if err != nil {
		return nil, err
	}
	return &Exporter{templates: m}, nil
}

func (e *Exporter) Export(w io.Writer, page Page) error {
	data := struct {
		Title   string
		Session string
		Stats   string
		View    any
	}{
		Title: fmt.Sprintf("Series: %s", page.Tab),
		Stats: page.Stats.String(),
		View:  page.View,
	}
	if page.Auth.LoggedIn {
		data.Session = page.Auth.RecoPrompt
	}

	out, err := e.templates.Render(resultsTemplate, data)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
