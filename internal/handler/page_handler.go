package handler

import (
	"fmt"
	"net/http"

	"go-blog-app/internal/auth"
	"go-blog-app/internal/data"
	"go-blog-app/internal/flash"
	"go-blog-app/internal/form"
	"go-blog-app/internal/identity"
	"go-blog-app/internal/middleware"
	"go-blog-app/internal/service"

	"github.com/go-chi/chi/v5"
)

// PageHandler holds the dependencies for the page handlers.
type PageHandler struct {
	base
	pages     *service.PageService
	blogs     *service.BlogService
	maxUpload int64
}

// newPageHandler creates a new PageHandler with the given dependencies.
func newPageHandler(b base, pages *service.PageService, blogs *service.BlogService, maxUpload int64) *PageHandler {
	return &PageHandler{base: b, pages: pages, blogs: blogs, maxUpload: maxUpload}
}

// list serves /pages and, with selectPage, /write where a page is picked to post into.
func (h *PageHandler) list(selectPage bool) middleware.AppHandler {
	return func(w http.ResponseWriter, r *http.Request) *middleware.AppError {
		q := r.URL.Query()
		viewer := identity.From(r.Context())
		perPage := service.PagesPerPage
		if selectPage {
			perPage = service.WritePagesPerPage
		}
		list, err := h.pages.List(r.Context(), pageFilter(q), viewer.ID, perPage, q.Get("page"))
		if err != nil {
			return middleware.ServerError(err, "Failed to list pages")
		}
		categories, err := h.pages.Categories(r.Context())
		if err != nil {
			return middleware.ServerError(err, "Failed to list categories")
		}
		if list.Total == 0 {
			h.flash(r, flash.Warning, service.MsgNoPagesFound)
		}
		return h.render(w, r, "pages.html", map[string]interface{}{
			"List":       list,
			"Categories": categories,
			"SelectPage": selectPage,
		})
	}
}

func (h *PageHandler) myPages(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query()
	me := identity.From(r.Context())
	list, err := h.pages.MyPages(r.Context(), me.ID, pageFilter(q), q.Get("page"))
	if err != nil {
		return middleware.ServerError(err, "Failed to list pages")
	}
	categories, err := h.pages.Categories(r.Context())
	if err != nil {
		return middleware.ServerError(err, "Failed to list categories")
	}
	if list.Total == 0 {
		h.flash(r, flash.Warning, service.MsgNoPagesFound)
	}
	return h.render(w, r, "my_pages.html", map[string]interface{}{"List": list, "Categories": categories})
}

func (h *PageHandler) create(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	me := identity.From(r.Context())
	if err := h.pages.CanCreate(r.Context(), me.ID); err != nil {
		if service.ErrorCode(err) == service.CodeNoProfile {
			h.flash(r, flash.Warning, service.ErrorMessage(err))
			return h.redirect(w, r, flash.Warning, service.MsgCreateProfileFirst, auth.RouteProfileCreate)
		}
		return middleware.ServerError(err, "Failed to check profile")
	}
	categories, err := h.pages.Categories(r.Context())
	if err != nil {
		return middleware.ServerError(err, "Failed to list categories")
	}
	vars := map[string]interface{}{"Form": &form.Page{}, "Categories": categories}
	if r.Method != http.MethodPost {
		return h.render(w, r, "page_form.html", vars)
	}

	image, err := parseUpload(r, "image", h.maxUpload)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Bad Request", Code: http.StatusBadRequest}
	}
	if image != nil {
		defer image.Close()
	}
	f := form.NewPage(r.PostForm)
	page, err := h.pages.Create(r.Context(), me.ID, f, image)
	if err != nil {
		if errs := formErrors(err); errs != nil {
			vars["Form"], vars["Errors"] = f, errs
			return h.render(w, r, "page_form.html", vars)
		}
		return h.fail(w, r, err, auth.RoutePageCreate)
	}
	return h.redirect(w, r, flash.Success, fmt.Sprintf(service.MsgPageCreatedFormat, page.Title), auth.RouteMyPages)
}

func (h *PageHandler) detail(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, err := h.pages.Get(r.Context(), chi.URLParam(r, "page"))
	if err != nil {
		return h.fail(w, r, err, auth.RouteIndex)
	}
	q := r.URL.Query()
	viewer := identity.From(r.Context())
	list, err := h.blogs.PageBlogs(r.Context(), page, data.BlogFilter{TagSlugs: nonEmpty(q["tags"])}, viewer.ID, q.Get("page"))
	if err != nil {
		return middleware.ServerError(err, "Failed to list blogs")
	}
	tags, err := h.blogs.Tags(r.Context())
	if err != nil {
		return middleware.ServerError(err, "Failed to list tags")
	}
	if list.Total == 0 {
		h.flash(r, flash.Warning, service.MsgNoPageBlogs)
	}
	return h.render(w, r, "page_detail.html", map[string]interface{}{
		"Page": page,
		"List": list,
		"Tags": tags,
	})
}

func (h *PageHandler) edit(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	me := identity.From(r.Context())
	pageSlug := chi.URLParam(r, "page")
	page, err := h.pages.Editable(r.Context(), me.ID, pageSlug)
	if err != nil {
		return h.fail(w, r, err, auth.RouteIndex)
	}
	categories, err := h.pages.Categories(r.Context())
	if err != nil {
		return middleware.ServerError(err, "Failed to list categories")
	}
	vars := map[string]interface{}{"Page": page, "Categories": categories, "Editing": true}
	if r.Method != http.MethodPost {
		vars["Form"] = pageForm(page)
		return h.render(w, r, "page_form.html", vars)
	}

	image, err := parseUpload(r, "image", h.maxUpload)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Bad Request", Code: http.StatusBadRequest}
	}
	if image != nil {
		defer image.Close()
	}
	f := form.NewPage(r.PostForm)
	updated, err := h.pages.Update(r.Context(), me.ID, pageSlug, f, image)
	if err != nil {
		if errs := formErrors(err); errs != nil {
			vars["Form"], vars["Errors"] = f, errs
			return h.render(w, r, "page_form.html", vars)
		}
		return h.fail(w, r, err, auth.RouteIndex)
	}
	return h.redirect(w, r, flash.Success, fmt.Sprintf(service.MsgPageUpdatedFormat, updated.Title), pagePath(updated.Slug))
}

func (h *PageHandler) delete(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	me := identity.From(r.Context())
	pageSlug := chi.URLParam(r, "page")
	if err := h.pages.Delete(r.Context(), me.ID, pageSlug); err != nil {
		return h.fail(w, r, err, pagePath(pageSlug))
	}
	return h.redirect(w, r, flash.Success, service.MsgPageDeleted, auth.RouteMyPages)
}

func (h *PageHandler) category(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	viewer := identity.From(r.Context())
	category, list, err := h.pages.ByCategory(r.Context(), chi.URLParam(r, "category"), viewer.ID, r.URL.Query().Get("page"))
	if err != nil {
		if service.ErrorCode(err) == service.CodeNotFound {
			return h.redirect(w, r, flash.Warning, service.ErrorMessage(err), auth.RouteIndex)
		}
		return middleware.ServerError(err, "Failed to list pages")
	}
	if list.Total == 0 {
		return h.redirect(w, r, flash.Warning, service.MsgNoPagesInCategory, auth.RouteIndex)
	}
	return h.render(w, r, "pages.html", map[string]interface{}{"List": list, "Category": category})
}

// pageForm fills the edit form from the stored page.
func pageForm(p *data.Page) *form.Page {
	f := &form.Page{Title: p.Title, IsPrivate: p.IsPrivate}
	for _, c := range p.Categories {
		f.CategoryIDs = append(f.CategoryIDs, c.ID)
	}
	return f
}
