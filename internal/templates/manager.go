package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"sync"
)

//go:embed files/*.html
var embedded embed.FS

type Manager struct {
	fsys  fs.FS
	funcs template.FuncMap
	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewManager serves templates from fsys. A nil fsys uses the embedded files.
func NewManager(fsys fs.FS, funcs template.FuncMap) (*Manager, error) {
	if fsys == nil {
		sub, err := fs.Sub(embedded, "files")
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded templates: %w", err)
		}
		fsys = sub
	}
	return &Manager{
		fsys:  fsys,
		funcs: funcs,
		cache: make(map[string]*template.Template),
	}, nil
}

func (m *Manager) Render(templateName string, data any) (string, error) {
	tmpl, err := m.lookup(templateName)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	return buf.String(), nil
}

func (m *Manager) lookup(templateName string) (*template.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tmpl, ok := m.cache[templateName]; ok {
		return tmpl, nil
	}
	// Parsed on first use
	tmpl, err := template.New(templateName).Funcs(m.funcs).ParseFS(m.fsys, templateName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}
	m.cache[templateName] = tmpl
	return tmpl, nil
}
