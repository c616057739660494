package templates

import (
	"html/template"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"hello.html": {Data: []byte(`<p>{{shout .}}</p>`)},
	}
	m, err := NewManager(fsys, template.FuncMap{"shout": strings.ToUpper})
	require.NoError(t, err)

	out, err := m.Render("hello.html", "<b>lost</b>")
	require.NoError(t, err)
	assert.Equal(t, "<p>&lt;B&gt;LOST&lt;/B&gt;</p>", out)

	// second call hits the cache
	out, err = m.Render("hello.html", "dark")
	require.NoError(t, err)
	assert.Equal(t, "<p>DARK</p>", out)
}

func TestRenderMissingTemplate(t *testing.T) {
	m, err := NewManager(fstest.MapFS{}, nil)
	require.NoError(t, err)

	_, err = m.Render("missing.html", nil)
	assert.ErrorContains(t, err, "failed to parse template missing.html")
}

func TestEmbeddedTemplatesParse(t *testing.T) {
	m, err := NewManager(nil, template.FuncMap{
		"upper":    strings.ToUpper,
		"truncate": func(s string, n int) string { return s },
	})
	require.NoError(t, err)

	_, err = m.lookup("results.html")
	assert.NoError(t, err)
}
