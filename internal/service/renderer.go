package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go-blog-app/internal/cache"
	"go-blog-app/internal/data"
	"go-blog-app/internal/logger"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer turns blog content (Markdown, possibly with inline HTML) into
// sanitised HTML, caching the result per blog revision.
type Renderer struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
	cache     *cache.Cache
	log       logger.Logger
}

// NewRenderer creates a Renderer. c may be nil to disable caching.
func NewRenderer(c *cache.Cache, log logger.Logger) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		// Raw HTML is let through here and cleaned by the sanitizer.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Renderer{
		md:        md,
		sanitizer: bluemonday.UGCPolicy(),
		cache:     c,
		log:       log,
	}
}

// Sanitize renders and cleans content without touching the cache.
func (r *Renderer) Sanitize(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(r.sanitizer.SanitizeBytes(buf.Bytes())), nil
}

// Render fills blog.HTMLContent.
func (r *Renderer) Render(ctx context.Context, blog *data.Blog) error {
	key := cacheKey(blog)
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, key)
		if err != nil {
			r.log.Error(err, "Render cache read failed")
		} else if cached != nil {
			blog.HTMLContent = template.HTML(cached)
			return nil
		}
	}

	out, err := r.Sanitize(blog.Content)
	if err != nil {
		return err
	}
	blog.HTMLContent = out

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, []byte(out), r.cache.TTL()); err != nil {
			r.log.Error(err, "Render cache write failed")
		}
	}
	return nil
}

// Forget drops every cached revision of a blog.
func (r *Renderer) Forget(ctx context.Context, blogID int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.DeletePrefix(ctx, fmt.Sprintf("blog:%d:", blogID)); err != nil {
		r.log.Error(err, "Render cache invalidation failed")
	}
}

func cacheKey(blog *data.Blog) string {
	return fmt.Sprintf("blog:%d:%d", blog.ID, blog.UpdatedAt.UnixNano())
}
