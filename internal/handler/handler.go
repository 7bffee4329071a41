package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"go-blog-app/internal/auth"
	"go-blog-app/internal/flash"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/middleware"
	"go-blog-app/internal/service"
	"go-blog-app/internal/session"
	"go-blog-app/internal/view"
)

// base holds what every handler needs to answer a request.
type base struct {
	view     *view.View
	sessions session.Manager
	log      logger.Logger
}

func (b *base) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) *middleware.AppError {
	if err := b.view.Render(w, r, name, data); err != nil {
		return middleware.ServerError(err, "Failed to render template")
	}
	return nil
}

func (b *base) flash(r *http.Request, level flash.Level, msg string) {
	flash.Add(r.Context(), b.sessions, level, msg)
}

// redirect queues msg, if any, and sends the client to "to".
func (b *base) redirect(w http.ResponseWriter, r *http.Request, level flash.Level, msg, to string) *middleware.AppError {
	if msg != "" {
		b.flash(r, level, msg)
	}
	http.Redirect(w, r, to, http.StatusFound)
	return nil
}

// fail answers a service error that the caller does not handle itself.
// Refusals become a flash and a redirect to back; lookups that failed show
// the 404 page.
func (b *base) fail(w http.ResponseWriter, r *http.Request, err error, back string) *middleware.AppError {
	switch service.ErrorCode(err) {
	case service.CodeNotFound:
		return middleware.NotFound(err)
	case service.CodeForbidden, service.CodeConflict, service.CodeUnavailable, service.CodeInvalid:
		return b.redirect(w, r, flash.Error, service.ErrorMessage(err), back)
	case service.CodeNoProfile:
		b.flash(r, flash.Error, service.ErrorMessage(err))
		return b.redirect(w, r, flash.Warning, service.MsgCreateProfileFirst, auth.RouteProfileCreate)
	default:
		return middleware.ServerError(err, "Internal Server Error")
	}
}

// formErrors returns the per-field problems of err, or nil when err is not a
// validation failure.
func formErrors(err error) map[string][]string {
	if service.ErrorCode(err) != service.CodeInvalid {
		return nil
	}
	return service.FieldErrors(err)
}

// parseUpload parses a form that may carry a file in field. The file is nil
// when none was sent; otherwise the caller closes it.
func parseUpload(r *http.Request, field string, maxBytes int64) (multipart.File, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, r.ParseForm()
		}
		return nil, err
	}
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	return file, err
}

// localPath keeps only same-site redirect targets.
func localPath(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

// siteURL is the scheme and host used in emailed links.
func siteURL(r *http.Request, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
