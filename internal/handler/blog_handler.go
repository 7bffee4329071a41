package handler

import (
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

// BlogHandler serves the blog listings and the post, edit and delete screens.
type BlogHandler struct {
	base
	blogs    *service.BlogService
	pages    *service.PageService
	taxonomy *service.TaxonomyService
}

// newBlogHandler creates a new BlogHandler.
func newBlogHandler(b base, blogs *service.BlogService, pages *service.PageService, taxonomy *service.TaxonomyService) *BlogHandler {
	return &BlogHandler{base: b, blogs: blogs, pages: pages, taxonomy: taxonomy}
}

func (h *BlogHandler) index(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query()
	viewer := identity.From(r.Context())
	list, err := h.blogs.List(r.Context(), blogFilter(q), viewer.ID, service.IndexPerPage, q.Get("page"))
	if err != nil {
		return middleware.ServerError(err, "Failed to list blogs")
	}
	vars, appErr := h.filterChoices(r)
	if appErr != nil {
		return appErr
	}
	if list.Total == 0 {
		h.flash(r, flash.Warning, service.MsgNoPostsFound)
	}
	vars["List"] = list
	return h.render(w, r, "index.html", vars)
}

func (h *BlogHandler) about(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.render(w, r, "about.html", nil)
}

func (h *BlogHandler) search(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query()
	term := q.Get("q")
	if term == "" {
		return h.redirect(w, r, "", "", auth.RouteIndex)
	}
	viewer := identity.From(r.Context())
	list, err := h.blogs.Search(r.Context(), term, viewer.ID, q.Get("page"))
	if err != nil {
		return middleware.ServerError(err, "Failed to search blogs")
	}
	if list.Total == 0 {
		h.flash(r, flash.Warning, service.MsgNoSearchResults)
	}
	return h.render(w, r, "index.html", map[string]interface{}{"List": list, "Search": term})
}

func (h *BlogHandler) tag(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	viewer := identity.From(r.Context())
	tag, list, err := h.blogs.ByTag(r.Context(), chi.URLParam(r, "tag"), viewer.ID, r.URL.Query().Get("page"))
	if err != nil {
		if service.ErrorCode(err) == service.CodeNotFound {
			return h.redirect(w, r, flash.Warning, service.ErrorMessage(err), auth.RouteIndex)
		}
		return middleware.ServerError(err, "Failed to list blogs")
	}
	if list.Total == 0 {
		return h.redirect(w, r, flash.Warning, service.MsgNoTagBlogs, auth.RouteIndex)
	}
	return h.render(w, r, "index.html", map[string]interface{}{"List": list, "Tag": tag})
}

func (h *BlogHandler) myBlogs(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query()
	me := identity.From(r.Context())
	list, err := h.blogs.MyBlogs(r.Context(), me.ID, blogFilter(q), q.Get("page"))
	if err != nil {
		return middleware.ServerError(err, "Failed to list blogs")
	}
	vars, appErr := h.filterChoices(r)
	if appErr != nil {
		return appErr
	}
	if list.Total == 0 {
		h.flash(r, flash.Warning, service.MsgNoPostsFound)
	}
	vars["List"] = list
	return h.render(w, r, "my_blogs.html", vars)
}

func (h *BlogHandler) detail(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, blog, err := h.blogs.Get(r.Context(), chi.URLParam(r, "page"), chi.URLParam(r, "blog"))
	if err != nil {
		return h.fail(w, r, err, auth.RouteIndex)
	}
	return h.render(w, r, "blog_detail.html", map[string]interface{}{"Page": page, "Blog": blog})
}

// post shows the blog form for a page and accepts either the blog form or
// the inline tag form, told apart by the blog_submit button.
func (h *BlogHandler) post(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	me := identity.From(r.Context())
	pageSlug := chi.URLParam(r, "page")
	page, err := h.blogs.PostTarget(r.Context(), me.ID, pageSlug)
	if err != nil {
		switch service.ErrorCode(err) {
		case service.CodeNoProfile:
			h.flash(r, flash.Error, service.ErrorMessage(err))
			return h.redirect(w, r, flash.Warning, service.MsgBlogCreateProfile, auth.RouteProfileCreate)
		case service.CodeForbidden:
			return h.redirect(w, r, flash.Error, service.ErrorMessage(err), pagePath(pageSlug))
		}
		return h.fail(w, r, err, auth.RouteIndex)
	}

	vars := map[string]interface{}{"Page": page, "PostView": true, "BlogForm": &form.Blog{}, "TagForm": &form.Tag{}}
	if r.Method != http.MethodPost {
		return h.blogForm(w, r, vars)
	}
	if err := r.ParseForm(); err != nil {
		return &middleware.AppError{Error: err, Message: "Bad Request", Code: http.StatusBadRequest}
	}

	self := r.URL.Path
	if r.PostForm.Get("blog_submit") == "" {
		return h.createTag(w, r, vars, self)
	}
	f := form.NewBlog(r.PostForm)
	if _, err := h.blogs.Post(r.Context(), me.ID, pageSlug, f); err != nil {
		if errs := formErrors(err); errs != nil {
			vars["BlogForm"], vars["BlogErrors"] = f, errs
			return h.blogForm(w, r, vars)
		}
		return h.fail(w, r, err, self)
	}
	return h.redirect(w, r, "", "", pagePath(page.Slug))
}

func (h *BlogHandler) edit(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	me := identity.From(r.Context())
	pageSlug, blogSlug := chi.URLParam(r, "page"), chi.URLParam(r, "blog")
	page, blog, err := h.blogs.Editable(r.Context(), me.ID, pageSlug, blogSlug)
	if err != nil {
		return h.fail(w, r, err, blogPath(pageSlug, blogSlug))
	}

	vars := map[string]interface{}{
		"Page":     page,
		"Blog":     blog,
		"PostView": true,
		"Editing":  true,
		"BlogForm": blogFormOf(blog),
		"TagForm":  &form.Tag{},
	}
	if r.Method != http.MethodPost {
		return h.blogForm(w, r, vars)
	}
	if err := r.ParseForm(); err != nil {
		return &middleware.AppError{Error: err, Message: "Bad Request", Code: http.StatusBadRequest}
	}

	self := r.URL.Path
	if r.PostForm.Get("blog_submit") == "" {
		return h.createTag(w, r, vars, self)
	}
	f := form.NewBlog(r.PostForm)
	updated, err := h.blogs.Update(r.Context(), me.ID, pageSlug, blogSlug, f)
	if err != nil {
		if errs := formErrors(err); errs != nil {
			vars["BlogForm"], vars["BlogErrors"] = f, errs
			return h.blogForm(w, r, vars)
		}
		return h.fail(w, r, err, blogPath(pageSlug, blogSlug))
	}
	return h.redirect(w, r, flash.Success, service.MsgBlogUpdated, blogPath(page.Slug, updated.Slug))
}

func (h *BlogHandler) delete(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	me := identity.From(r.Context())
	pageSlug, blogSlug := chi.URLParam(r, "page"), chi.URLParam(r, "blog")
	page, err := h.blogs.Delete(r.Context(), me.ID, pageSlug, blogSlug)
	if err != nil {
		return h.fail(w, r, err, blogPath(pageSlug, blogSlug))
	}
	return h.redirect(w, r, flash.Success, service.MsgBlogDeleted, pagePath(page.Slug))
}

// createTag handles the inline tag form and returns to the screen it was posted from.
func (h *BlogHandler) createTag(w http.ResponseWriter, r *http.Request, vars map[string]interface{}, back string) *middleware.AppError {
	f := form.NewTag(r.PostForm)
	if _, err := h.taxonomy.CreateTag(r.Context(), f); err != nil {
		if errs := formErrors(err); errs != nil {
			vars["TagForm"], vars["TagErrors"] = f, errs
			return h.blogForm(w, r, vars)
		}
		return h.fail(w, r, err, back)
	}
	return h.redirect(w, r, "", "", back)
}

// blogForm renders the post/edit screen with the tag choices.
func (h *BlogHandler) blogForm(w http.ResponseWriter, r *http.Request, vars map[string]interface{}) *middleware.AppError {
	tags, err := h.blogs.Tags(r.Context())
	if err != nil {
		return middleware.ServerError(err, "Failed to list tags")
	}
	vars["Tags"] = tags
	return h.render(w, r, "page_detail.html", vars)
}

// filterChoices loads the options of the blog filter form.
func (h *BlogHandler) filterChoices(r *http.Request) (map[string]interface{}, *middleware.AppError) {
	tags, err := h.blogs.Tags(r.Context())
	if err != nil {
		return nil, middleware.ServerError(err, "Failed to list tags")
	}
	pages, err := h.pages.Public(r.Context())
	if err != nil {
		return nil, middleware.ServerError(err, "Failed to list pages")
	}
	return map[string]interface{}{"Tags": tags, "Pages": pages, "Filter": blogFilter(r.URL.Query())}, nil
}

// blogFormOf fills the edit form from the stored blog.
func blogFormOf(b *data.Blog) *form.Blog {
	f := &form.Blog{
		Title:       b.Title,
		Subtitle:    b.Subtitle,
		Content:     b.Content,
		IsPublished: b.IsPublished,
		IsPrivate:   b.IsPrivate,
	}
	for _, t := range b.Tags {
		f.TagIDs = append(f.TagIDs, t.ID)
	}
	return f
}
