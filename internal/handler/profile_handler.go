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

const (
	msgProfileCreated = "Profile Created Successfully"
	msgProfileUpdated = "Profile updated successfully"
)

// ProfileHandler serves profile creation, viewing and editing.
type ProfileHandler struct {
	base
	profiles  *service.ProfileService
	maxUpload int64
}

// newProfileHandler creates a new ProfileHandler.
func newProfileHandler(b base, profiles *service.ProfileService, maxUpload int64) *ProfileHandler {
	return &ProfileHandler{base: b, profiles: profiles, maxUpload: maxUpload}
}

func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	me := identity.From(r.Context())
	exists, err := h.profiles.HasProfile(r.Context(), me.ID)
	if err != nil {
		return middleware.ServerError(err, "Failed to load profile")
	}
	if exists {
		return h.redirect(w, r, flash.Warning, service.MsgProfileExists, auth.RouteIndex)
	}

	if r.Method != http.MethodPost {
		user, err := h.profiles.User(r.Context(), me.ID)
		if err != nil {
			return middleware.ServerError(err, "Failed to load user")
		}
		f := &form.Profile{FirstName: user.FirstName, LastName: user.LastName, Email: user.Email}
		return h.render(w, r, "profile_form.html", map[string]interface{}{"Form": f})
	}

	picture, err := parseUpload(r, "profile_picture", h.maxUpload)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Bad Request", Code: http.StatusBadRequest}
	}
	if picture != nil {
		defer picture.Close()
	}
	f := form.NewProfile(r.PostForm)
	if _, err := h.profiles.Create(r.Context(), me.ID, f, picture); err != nil {
		if errs := formErrors(err); errs != nil {
			return h.render(w, r, "profile_form.html", map[string]interface{}{"Form": f, "Errors": errs})
		}
		return h.fail(w, r, err, auth.RouteIndex)
	}
	return h.redirect(w, r, flash.Success, msgProfileCreated, profilePath(me.Username))
}

func (h *ProfileHandler) show(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	username := chi.URLParam(r, "username")
	profile, err := h.profiles.Get(r.Context(), username)
	if err != nil {
		if service.ErrorCode(err) != service.CodeNotFound {
			return middleware.ServerError(err, "Failed to load profile")
		}
		me := identity.From(r.Context())
		if me.Authenticated() && me.Username == username {
			return h.redirect(w, r, "", "", auth.RouteProfileCreate)
		}
		return h.redirect(w, r, flash.Warning, service.ErrorMessage(err), auth.RouteIndex)
	}
	return h.render(w, r, "profile.html", map[string]interface{}{"Profile": profile})
}

func (h *ProfileHandler) edit(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	username := chi.URLParam(r, "username")
	me := identity.From(r.Context())
	profile, err := h.profiles.Get(r.Context(), username)
	if err != nil {
		if service.ErrorCode(err) == service.CodeNotFound {
			return h.redirect(w, r, flash.Warning, service.ErrorMessage(err), auth.RouteIndex)
		}
		return middleware.ServerError(err, "Failed to load profile")
	}
	if profile.UserID != me.ID {
		return h.redirect(w, r, flash.Error, service.MsgProfileForbidden, profilePath(username))
	}

	vars := map[string]interface{}{"Profile": profile, "Editing": true}
	if r.Method != http.MethodPost {
		vars["Form"] = profileForm(profile)
		return h.render(w, r, "profile_form.html", vars)
	}

	picture, err := parseUpload(r, "profile_picture", h.maxUpload)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Bad Request", Code: http.StatusBadRequest}
	}
	if picture != nil {
		defer picture.Close()
	}
	f := form.NewProfile(r.PostForm)
	if _, err := h.profiles.Update(r.Context(), me.ID, username, f, picture); err != nil {
		if errs := formErrors(err); errs != nil {
			vars["Form"], vars["Errors"] = f, errs
			return h.render(w, r, "profile_form.html", vars)
		}
		return h.fail(w, r, err, profilePath(username))
	}
	return h.redirect(w, r, flash.Success, msgProfileUpdated, profilePath(username))
}

// profileForm fills the edit form from the stored profile.
func profileForm(p *data.Profile) *form.Profile {
	f := &form.Profile{BirthDate: p.BirthDate.Format(form.DateLayout)}
	if p.User != nil {
		f.FirstName, f.LastName, f.Email = p.User.FirstName, p.User.LastName, p.User.Email
	}
	if p.Job != nil {
		f.Job = *p.Job
	}
	if p.Bio != nil {
		f.Bio = *p.Bio
	}
	return f
}
