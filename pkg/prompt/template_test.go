package prompt

import (
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFS = fstest.MapFS{
	"templates/search.tmpl": {Data: []byte("Open {{ .Provider }} and search {{ shout .Query }}")},
	"templates/order.tmpl":  {Data: []byte(`Order "{{ .Title }}" on {{ .Provider }}{{ if .Rider }} for {{ .Rider }}{{ end }}.`)},
	"templates/mode.tmpl":   {Data: []byte(`{{ .Query }} via {{ default "any" .Mode }}`)},
	"templates/broken.tmpl": {Data: []byte("{{ .Query ")},
}

func TestTemplateRender(t *testing.T) {
	funcs := template.FuncMap{"shout": strings.ToUpper}
	tpl, err := FromFS(testFS, "templates/search.tmpl", funcs)
	require.NoError(t, err)

	out, err := tpl.Render(map[string]any{"Provider": "Zomato", "Query": "paneer"})
	require.NoError(t, err)
	assert.Equal(t, "Open Zomato and search PANEER", out)
}

func TestTemplateFromFS(t *testing.T) {
	tpl, err := FromFS(testFS, "templates/order.tmpl", nil)
	require.NoError(t, err)
	assert.Equal(t, "order.tmpl", filepath.Base(tpl.Name()))

	out, err := tpl.Render(map[string]any{"Title": "Paneer Roll", "Provider": "Swiggy", "Rider": ""})
	require.NoError(t, err)
	assert.Equal(t, `Order "Paneer Roll" on Swiggy.`, out)

	_, err = FromFS(testFS, "templates/missing.tmpl", nil)
	assert.Error(t, err)
	_, err = FromFS(testFS, "templates/broken.tmpl", nil)
	assert.ErrorContains(t, err, "parse prompt template")
	_, err = FromFS(nil, "templates/order.tmpl", nil)
	assert.Error(t, err)
}

func TestTemplateMissingKeyFails(t *testing.T) {
	tpl := Must(FromFS(testFS, "templates/mode.tmpl", nil))
	out, err := tpl.Render(map[string]string{"Query": "milk", "Mode": ""})
	require.NoError(t, err)
	assert.Equal(t, "milk via any", out)

	_, err = tpl.Render(map[string]string{"Mode": "x"})
	assert.Error(t, err)
}

func TestDigest(t *testing.T) {
	search := Must(FromFS(testFS, "templates/search.tmpl", template.FuncMap{"shout": strings.ToUpper}))
	order := Must(FromFS(testFS, "templates/order.tmpl", nil))

	assert.Len(t, search.Digest(), 64)
	assert.NotEqual(t, search.Digest(), order.Digest())

	assert.Empty(t, Digest())
	assert.Equal(t, search.Digest(), Digest(search, nil))
	both := Digest(search, order)
	assert.Len(t, both, 64)
	assert.NotEqual(t, both, Digest(order, search))
}
