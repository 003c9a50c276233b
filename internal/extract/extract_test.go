package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/sitemapgen/internal/extract"
	"github.com/romangod6/sitemapgen/internal/models"
)

type fakeSource struct {
	attachments map[int64]*models.Attachment
	children    map[int64][]int64
	existsErr   error

	childCalls []childCall
}

type childCall struct {
	parent  int64
	exclude []int64
}

func (f *fakeSource) Exists(_ context.Context, id int64) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.attachments[id]
	return ok, nil
}

func (f *fakeSource) Attachment(_ context.Context, id int64) (*models.Attachment, error) {
	return f.attachments[id], nil
}

func (f *fakeSource) ChildAttachments(_ context.Context, parent int64, exclude []int64) ([]int64, error) {
	f.childCalls = append(f.childCalls, childCall{parent: parent, exclude: exclude})

	skip := make(map[int64]bool)
	for _, id := range exclude {
		skip[id] = true
	}

	var out []int64
	for _, id := range f.children[parent] {
		if !skip[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func newExtractor(t *testing.T, src *fakeSource) *extract.Extractor {
	t.Helper()

	e, err := extract.New(src, "https://example.com/")
	require.NoError(t, err)
	return e
}

func TestNew_RejectsRelativeHome(t *testing.T) {
	_, err := extract.New(&fakeSource{}, "/blog")
	assert.Error(t, err)
}

func TestAbsoluteURL(t *testing.T) {
	e := newExtractor(t, &fakeSource{})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"root relative", "/wp-content/uploads/a.jpg", "https://example.com/wp-content/uploads/a.jpg"},
		{"scheme relative", "//cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"absolute", "http://example.com/a.jpg", "http://example.com/a.jpg"},
		{"path relative unchanged", "images/a.jpg", "images/a.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.AbsoluteURL(tt.in))
		})
	}
}

func TestSameHost(t *testing.T) {
	e := newExtractor(t, &fakeSource{})

	assert.True(t, e.SameHost("https://example.com/a.jpg"))
	assert.True(t, e.SameHost("https://www.example.com/a.jpg"))
	assert.True(t, e.SameHost("http://EXAMPLE.com:8080/a.jpg"))
	assert.False(t, e.SameHost("https://other.example/x.jpg"))
	assert.False(t, e.SameHost("images/a.jpg"))
}

func TestSanitize(t *testing.T) {
	e := newExtractor(t, &fakeSource{})

	assert.Equal(t, "Café & more", e.Sanitize("  <b>Caf&eacute;</b> &amp; more "))
	assert.Equal(t, "Title", e.Sanitize("<script>alert(1)</script>Title"))
	assert.Equal(t, "bold", e.Sanitize("&lt;strong&gt;bold&lt;/strong&gt;"))
	assert.Equal(t, "", e.Sanitize(""))
}

func TestImages_InlineSameHost(t *testing.T) {
	e := newExtractor(t, &fakeSource{})

	body := `<p>Intro</p>
<img src="/wp-content/uploads/one.jpg" title="One &amp; only" alt=" first ">
<img src="https://other.example/x.jpg" alt="foreign">
<img src="//www.example.com/two.jpg">
<img src="">
<img alt="no src">`

	images, err := e.Images(context.Background(), body)
	require.NoError(t, err)

	assert.Equal(t, []models.Image{
		{URL: "https://example.com/wp-content/uploads/one.jpg", Title: "One & only", Alt: "first"},
		{URL: "https://www.example.com/two.jpg"},
	}, images)
}

func TestImages_ResolvesAttachmentClass(t *testing.T) {
	src := &fakeSource{attachments: map[int64]*models.Attachment{
		12: {ID: 12, URL: "https://example.com/wp-content/uploads/stored.jpg", Alt: "<i>Alt</i>", Title: "Stored"},
	}}
	e := newExtractor(t, src)

	body := `<img class="alignnone wp-image-12 size-medium" src="https://example.com/resized-300x200.jpg" alt="raw">`

	images, err := e.Images(context.Background(), body)
	require.NoError(t, err)
	require.Len(t, images, 1)

	assert.Equal(t, models.Image{
		ID:    12,
		URL:   "https://example.com/wp-content/uploads/stored.jpg",
		Title: "Stored",
		Alt:   "Alt",
	}, images[0])
}

func TestImages_FullSizeAndMissingAttachmentUseSrc(t *testing.T) {
	src := &fakeSource{attachments: map[int64]*models.Attachment{
		12: {ID: 12, URL: "https://example.com/stored.jpg"},
	}}
	e := newExtractor(t, src)

	body := `<img class="wp-image-12 size-full" src="/full.jpg">` +
		`<img class="wp-image-99" src="/gone.jpg">`

	images, err := e.Images(context.Background(), body)
	require.NoError(t, err)

	assert.Equal(t, []models.Image{
		{URL: "https://example.com/full.jpg"},
		{URL: "https://example.com/gone.jpg"},
	}, images)
}

func TestImages_MalformedMarkup(t *testing.T) {
	e := newExtractor(t, &fakeSource{})

	images, err := e.Images(context.Background(), `<div><img src="/a.jpg"<p>unclosed <img src='/b.jpg'`)
	require.NoError(t, err)

	for _, img := range images {
		assert.True(t, e.SameHost(img.URL))
	}
}

func TestImages_EmptyBody(t *testing.T) {
	e := newExtractor(t, &fakeSource{})

	images, err := e.Images(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, images)
}

func TestImages_RepositoryErrorSurfaces(t *testing.T) {
	e := newExtractor(t, &fakeSource{existsErr: errors.New("db down")})

	_, err := e.Images(context.Background(), `<img class="wp-image-3" src="/a.jpg">`)
	assert.ErrorContains(t, err, "db down")
}

func TestGalleryAttachmentIDs_ExplicitIDs(t *testing.T) {
	src := &fakeSource{}
	e := newExtractor(t, src)

	ids, err := e.GalleryAttachmentIDs(context.Background(), `<p>x</p>[gallery ids="5,7"]`, 1)
	require.NoError(t, err)

	assert.ElementsMatch(t, []int64{5, 7}, ids)
	assert.Empty(t, src.childCalls)
}

func TestGalleryAttachmentIDs_ParentFallbackWithExclude(t *testing.T) {
	src := &fakeSource{children: map[int64][]int64{
		1:  {20, 21, 22},
		40: {41},
	}}
	e := newExtractor(t, src)

	body := `[gallery exclude="21"] text [gallery id="40" columns='2'/] [gallery include="20, 50"]`

	ids, err := e.GalleryAttachmentIDs(context.Background(), body, 1)
	require.NoError(t, err)

	assert.Equal(t, []int64{20, 22, 41, 50}, ids)
	require.Len(t, src.childCalls, 2)
	assert.Equal(t, childCall{parent: 1, exclude: []int64{21}}, src.childCalls[0])
	assert.Equal(t, int64(40), src.childCalls[1].parent)
}

func TestGalleryAttachmentIDs_IgnoresEscapedAndOtherShortcodes(t *testing.T) {
	src := &fakeSource{children: map[int64][]int64{1: {9}}}
	e := newExtractor(t, src)

	ids, err := e.GalleryAttachmentIDs(context.Background(), `[[gallery ids="3"]] [galleryx ids="4"] [caption]c[/caption]`, 1)
	require.NoError(t, err)

	assert.Empty(t, ids)
	assert.Empty(t, src.childCalls)
}

func TestGalleryAttachmentIDs_DeduplicatesAcrossGalleries(t *testing.T) {
	e := newExtractor(t, &fakeSource{})

	ids, err := e.GalleryAttachmentIDs(context.Background(), `[gallery ids="5,7"][gallery ids="7 5 x 0 8"]`, 1)
	require.NoError(t, err)

	assert.Equal(t, []int64{5, 7, 8}, ids)
}

func TestImagesByID(t *testing.T) {
	src := &fakeSource{attachments: map[int64]*models.Attachment{
		5: {ID: 5, URL: "https://example.com/5.jpg", Title: "Five"},
	}}
	e := newExtractor(t, src)

	images, err := e.ImagesByID(context.Background(), []int64{5, 6})
	require.NoError(t, err)

	assert.Equal(t, []models.Image{
		{ID: 5, URL: "https://example.com/5.jpg", Title: "Five"},
		{ID: 6},
	}, images)
}
