package hooks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/romangod6/sitemapgen/internal/hooks"
	"github.com/romangod6/sitemapgen/internal/models"
)

func TestApply_NoFiltersReturnsValue(t *testing.T) {
	r := hooks.NewRegistry()

	assert.True(t, hooks.Apply(r, hooks.IndexImages, true, int64(1)))
	assert.Equal(t, 200, hooks.Apply(r, hooks.URLsPerPage, 200))
}

func TestApply_NilRegistry(t *testing.T) {
	var r *hooks.Registry

	assert.Equal(t, []string{"post"}, hooks.Apply(r, hooks.PostTypes, []string{"post"}))
}

func TestApply_RunsInRegistrationOrder(t *testing.T) {
	r := hooks.NewRegistry()
	r.Add(hooks.PostTypes, func(v any, _ ...any) any {
		return append(v.([]string), "first")
	})
	r.Add(hooks.PostTypes, func(v any, _ ...any) any {
		return append(v.([]string), "second")
	})

	got := hooks.Apply(r, hooks.PostTypes, []string{"post"})

	assert.Equal(t, []string{"post", "first", "second"}, got)
}

func TestApply_PassesArgs(t *testing.T) {
	r := hooks.NewRegistry()
	r.Add(hooks.PostTranslations, func(v any, args ...any) any {
		m := v.(map[string]string)
		m["fr"] = "https://example.com/fr/" + args[1].(string)
		return m
	})

	got := hooks.Apply(r, hooks.PostTranslations, map[string]string{}, int64(7), "post")

	assert.Equal(t, map[string]string{"fr": "https://example.com/fr/post"}, got)
}

func TestApply_NilVetoesEntry(t *testing.T) {
	r := hooks.NewRegistry()
	r.Add(hooks.IndexPost, func(any, ...any) any { return nil })

	got := hooks.Apply(r, hooks.IndexPost, &models.Entry{URL: "https://example.com/a/"})

	assert.Nil(t, got)
}

func TestApply_IgnoresWrongType(t *testing.T) {
	r := hooks.NewRegistry()
	r.Add(hooks.URLsPerPage, func(any, ...any) any { return "fifty" })
	r.Add(hooks.URLsPerPage, func(v any, _ ...any) any { return v.(int) / 2 })

	assert.Equal(t, 100, hooks.Apply(r, hooks.URLsPerPage, 200))
}
