package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"go-blog-app/internal/middleware"
	"go-blog-app/internal/service"
)

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	pages   *service.PageService
	blogs   *service.BlogService
	baseURL string
}

// newSeoHandler creates a new SeoHandler. Absolute URLs use baseURL, or the
// request host when it is empty.
func newSeoHandler(pages *service.PageService, blogs *service.BlogService, baseURL string) *SeoHandler {
	return &SeoHandler{pages: pages, blogs: blogs, baseURL: baseURL}
}

// robotsHandler serves robots.txt pointing at the sitemap.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Disallow: /accounts/")
	fmt.Fprintln(w, "Disallow: /me/")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Sitemap: %s/sitemap.xml\n", siteURL(r, h.baseURL))
	return nil
}

const sitemapDateFormat = "2006-01-02"

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler lists the public pages and blogs.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pages, err := h.pages.Public(r.Context())
	if err != nil {
		return middleware.ServerError(err, "Failed to retrieve pages for sitemap")
	}
	blogs, err := h.blogs.Public(r.Context())
	if err != nil {
		return middleware.ServerError(err, "Failed to retrieve blogs for sitemap")
	}

	site := siteURL(r, h.baseURL)
	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, 0, len(pages)+len(blogs)+2),
	}
	sitemap.URLs = append(sitemap.URLs, sitemapURL{Loc: site + "/"}, sitemapURL{Loc: site + "/about"})
	for _, page := range pages {
		sitemap.URLs = append(sitemap.URLs, sitemapURL{Loc: site + pagePath(page.Slug)})
	}
	for _, blog := range blogs {
		if blog.Page == nil {
			continue
		}
		sitemap.URLs = append(sitemap.URLs, sitemapURL{
			Loc:     site + blogPath(blog.Page.Slug, blog.Slug),
			LastMod: blog.UpdatedAt.Format(sitemapDateFormat),
		})
	}

	out, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return middleware.ServerError(err, "Failed to generate sitemap XML")
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	w.Write(out)
	return nil
}
