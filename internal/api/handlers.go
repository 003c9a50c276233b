package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/romangod6/sitemapgen/internal/logger"
	"github.com/romangod6/sitemapgen/internal/render"
	"github.com/romangod6/sitemapgen/internal/sitemap"
	"github.com/romangod6/sitemapgen/internal/storage"
)

const xmlContentType = "application/xml; charset=UTF-8"

var pagePath = regexp.MustCompile(`^/sitemap-page-([0-9]+)\.xml$`)

// Runner starts sitemap generation runs. Start must claim the run before
// returning, so a second call while one is active fails with
// sitemap.ErrRunInProgress.
type Runner interface {
	Start(ctx context.Context, opts sitemap.Options) error
	Running() bool
	LastResult() *sitemap.Result
}

type Handler struct {
	ctx      context.Context
	pages    *sitemap.Pages
	home     string
	runner   Runner
	defaults sitemap.Options
	log      logger.Logger
	now      func() time.Time
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewHandler builds the HTTP handlers. Runs started through the API use ctx,
// so cancelling it stops them.
func NewHandler(ctx context.Context, pages *sitemap.Pages, home string, runner Runner, defaults sitemap.Options, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		ctx:      ctx,
		pages:    pages,
		home:     home,
		runner:   runner,
		defaults: defaults,
		log:      log,
		now:      time.Now,
	}
}

// SitemapIndex serves /sitemap.xml, or 404 until a sitemap has been generated.
func (h *Handler) SitemapIndex(c *gin.Context) {
	total, err := h.pages.TotalPages(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to read page count", logger.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	if total == 0 {
		c.Status(http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := render.WriteIndex(&buf, h.home, total, h.now()); err != nil {
		h.log.Error("Failed to render sitemap index", logger.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, xmlContentType, buf.Bytes())
}

// SitemapPage serves /sitemap-page-<n>.xml. It is installed as the NoRoute
// handler because the page number sits inside a path segment.
func (h *Handler) SitemapPage(c *gin.Context) {
	m := pagePath.FindStringSubmatch(c.Request.URL.Path)
	if m == nil || c.Request.Method != http.MethodGet {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		c.Status(http.StatusNotFound)
		return
	}

	ctx := c.Request.Context()
	total, err := h.pages.TotalPages(ctx)
	if err != nil {
		h.log.Error("Failed to read page count", logger.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	if n > total {
		c.Status(http.StatusNotFound)
		return
	}

	entries, err := h.pages.Page(ctx, n)
	if errors.Is(err, storage.ErrNotFound) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("Failed to read sitemap page", logger.Int("page", n), logger.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := render.WritePage(&buf, entries); err != nil {
		h.log.Error("Failed to render sitemap page", logger.Int("page", n), logger.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, xmlContentType, buf.Bytes())
}

func (h *Handler) Robots(c *gin.Context) {
	body := "User-agent: *\nDisallow:\n\nSitemap: " + h.home + "/sitemap.xml\n"
	c.String(http.StatusOK, body)
}

// Generate starts a run in the background. The range defaults to the
// configured one and may be overridden with ?range=.
func (h *Handler) Generate(c *gin.Context) {
	opts := h.defaults
	if raw, ok := c.GetQuery("range"); ok {
		r, err := sitemap.ParseRange(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid range"})
			return
		}
		opts.Range = r
	}

	err := h.runner.Start(h.ctx, opts)
	if errors.Is(err, sitemap.ErrRunInProgress) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Generation already running"})
		return
	}
	if err != nil {
		h.log.Error("Failed to start generation", logger.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to start generation"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "started", "range": opts.Range.String()})
}

func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	total, err := h.pages.TotalPages(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to read sitemap state"})
		return
	}

	resp := gin.H{
		"running":     h.runner.Running(),
		"total_pages": total,
	}
	if last := h.runner.LastResult(); last != nil {
		resp["last_run"] = last
	}
	c.JSON(http.StatusOK, resp)
}
