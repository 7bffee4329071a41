package handler

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"go-blog-app/internal/auth"
	"go-blog-app/internal/flash"
	"go-blog-app/internal/form"
	"go-blog-app/internal/identity"
	"go-blog-app/internal/middleware"
	"go-blog-app/internal/service"
	"go-blog-app/internal/session"

	"github.com/go-chi/chi/v5"
)

const (
	msgWelcome       = "Welcome %s"
	msgLoggedOut     = "Logout Successful"
	msgRegistered    = "Registration Successful. An activation link has been sent to %s"
	msgActivated     = "Your account has been activated successfully!"
	msgPasswordSaved = "Your password was successfully updated!"
	msgResetSent     = "Your password reset link has been sent successfully. Please check your email."
	msgSSOFailed     = "Single sign-on failed. Please try again."
)

// AccountHandler serves registration, activation, login and password flows.
type AccountHandler struct {
	base
	accounts *service.AccountService
	// oidc is nil when single sign-on is not configured.
	oidc    *auth.Authenticator
	baseURL string
}

// newAccountHandler creates a new AccountHandler.
func newAccountHandler(b base, accounts *service.AccountService, oidc *auth.Authenticator, baseURL string) *AccountHandler {
	return &AccountHandler{base: b, accounts: accounts, oidc: oidc, baseURL: baseURL}
}

func (h *AccountHandler) login(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if identity.From(r.Context()).Authenticated() {
		return h.redirect(w, r, "", "", auth.RouteIndex)
	}
	data := map[string]interface{}{
		"Form":        &form.Login{},
		"Next":        localPath(r.URL.Query().Get("next")),
		"OIDCEnabled": h.oidc != nil,
	}
	if r.Method != http.MethodPost {
		return h.render(w, r, "login.html", data)
	}

	if err := r.ParseForm(); err != nil {
		return &middleware.AppError{Error: err, Message: "Bad Request", Code: http.StatusBadRequest}
	}
	f := form.NewLogin(r.PostForm)
	data["Form"] = f
	if next := localPath(r.PostForm.Get("next")); next != "" {
		data["Next"] = next
	}

	user, err := h.accounts.Authenticate(r.Context(), f)
	if err != nil {
		if errs := formErrors(err); errs != nil {
			data["Errors"] = errs
			return h.render(w, r, "login.html", data)
		}
		return h.fail(w, r, err, auth.RouteLogin)
	}
	if err := session.Login(r.Context(), h.sessions, user.ID, user.Username); err != nil {
		return middleware.ServerError(err, "Failed to start session")
	}
	if err := h.accounts.RecordLogin(r.Context(), user); err != nil {
		h.log.Error(err, "Failed to record last login")
	}

	to := auth.RouteIndex
	if next, _ := data["Next"].(string); next != "" {
		to = next
	}
	return h.redirect(w, r, flash.Success, fmt.Sprintf(msgWelcome, user.Username), to)
}

func (h *AccountHandler) logout(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.sessions.Destroy(r.Context()); err != nil {
		return middleware.ServerError(err, "Failed to end session")
	}
	return h.redirect(w, r, flash.Warning, msgLoggedOut, auth.RouteIndex)
}

func (h *AccountHandler) register(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if identity.From(r.Context()).Authenticated() {
		return h.redirect(w, r, "", "", auth.RouteIndex)
	}
	if r.Method != http.MethodPost {
		return h.render(w, r, "register.html", map[string]interface{}{"Form": &form.Register{}})
	}

	if err := r.ParseForm(); err != nil {
		return &middleware.AppError{Error: err, Message: "Bad Request", Code: http.StatusBadRequest}
	}
	f := form.NewRegister(r.PostForm)
	user, err := h.accounts.Register(r.Context(), f, siteURL(r, h.baseURL))
	if err != nil {
		if errs := formErrors(err); errs != nil {
			return h.render(w, r, "register.html", map[string]interface{}{"Form": f, "Errors": errs})
		}
		return h.fail(w, r, err, auth.RouteRegister)
	}
	return h.redirect(w, r, flash.Success, fmt.Sprintf(msgRegistered, user.Email), auth.RouteActivationSent)
}

func (h *AccountHandler) activationSent(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.render(w, r, "activation_sent.html", nil)
}

func (h *AccountHandler) activate(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	user, err := h.accounts.Activate(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "token"))
	if err != nil {
		if service.ErrorCode(err) != service.CodeInvalid {
			return middleware.ServerError(err, "Failed to activate account")
		}
		h.flash(r, flash.Error, service.ErrorMessage(err))
		return h.render(w, r, "activation_invalid.html", nil)
	}
	if err := session.Login(r.Context(), h.sessions, user.ID, user.Username); err != nil {
		return middleware.ServerError(err, "Failed to start session")
	}
	return h.redirect(w, r, flash.Success, msgActivated, auth.RouteIndex)
}

func (h *AccountHandler) passwordChange(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if r.Method != http.MethodPost {
		return h.render(w, r, "password_change.html", nil)
	}
	if err := r.ParseForm(); err != nil {
		return &middleware.AppError{Error: err, Message: "Bad Request", Code: http.StatusBadRequest}
	}
	user := identity.From(r.Context())
	if err := h.accounts.ChangePassword(r.Context(), user.ID, form.NewPasswordChange(r.PostForm)); err != nil {
		if errs := formErrors(err); errs != nil {
			return h.render(w, r, "password_change.html", map[string]interface{}{"Errors": errs})
		}
		return h.fail(w, r, err, auth.RoutePasswordChange)
	}
	// A fresh token keeps the user logged in while invalidating the old cookie.
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		return middleware.ServerError(err, "Failed to renew session")
	}
	return h.redirect(w, r, flash.Success, msgPasswordSaved, auth.RoutePasswordChange)
}

func (h *AccountHandler) passwordReset(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if r.Method != http.MethodPost {
		return h.render(w, r, "password_reset.html", map[string]interface{}{"Form": &form.PasswordResetRequest{}})
	}
	if err := r.ParseForm(); err != nil {
		return &middleware.AppError{Error: err, Message: "Bad Request", Code: http.StatusBadRequest}
	}
	f := form.NewPasswordResetRequest(r.PostForm)
	data := map[string]interface{}{"Form": f}
	if err := h.accounts.RequestPasswordReset(r.Context(), f, siteURL(r, h.baseURL)); err != nil {
		switch {
		case formErrors(err) != nil:
			data["Errors"] = formErrors(err)
		case service.ErrorCode(err) == service.CodeUnavailable:
			h.flash(r, flash.Error, service.ErrorMessage(err))
		default:
			return middleware.ServerError(err, "Failed to send reset link")
		}
		return h.render(w, r, "password_reset.html", data)
	}
	return h.redirect(w, r, flash.Success, msgResetSent, auth.RouteLogin)
}

func (h *AccountHandler) resetConfirm(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	uid, tok := chi.URLParam(r, "uid"), chi.URLParam(r, "token")
	if r.Method != http.MethodPost {
		_, err := h.accounts.CheckResetLink(r.Context(), uid, tok)
		return h.resetForm(w, r, err, nil)
	}

	if err := r.ParseForm(); err != nil {
		return &middleware.AppError{Error: err, Message: "Bad Request", Code: http.StatusBadRequest}
	}
	if err := h.accounts.ResetPassword(r.Context(), uid, tok, form.NewSetPassword(r.PostForm)); err != nil {
		if errs := formErrors(err); errs != nil {
			return h.resetForm(w, r, nil, errs)
		}
		return h.resetForm(w, r, err, nil)
	}
	return h.redirect(w, r, flash.Success, msgPasswordSaved, auth.RouteLogin)
}

// resetForm shows the set-password form, or the invalid link notice when linkErr is set.
func (h *AccountHandler) resetForm(w http.ResponseWriter, r *http.Request, linkErr error, errs map[string][]string) *middleware.AppError {
	data := map[string]interface{}{"Valid": linkErr == nil, "Errors": errs}
	if linkErr != nil {
		if service.ErrorCode(linkErr) != service.CodeInvalid {
			return middleware.ServerError(linkErr, "Failed to check reset link")
		}
		data["Notice"] = service.ErrorMessage(linkErr)
	}
	return h.render(w, r, "password_reset_confirm.html", data)
}

// oidcLogin redirects the user to the OIDC provider to log in.
// It uses a random 'state' string, kept in the session, for CSRF protection.
func (h *AccountHandler) oidcLogin(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.oidc == nil {
		return middleware.NotFound(nil)
	}
	state, err := randString(16)
	if err != nil {
		return middleware.ServerError(err, "Failed to create state")
	}
	h.sessions.Put(r.Context(), session.OIDCState, state)
	http.Redirect(w, r, h.oidc.AuthCodeURL(state), http.StatusFound)
	return nil
}

// oidcCallback is the redirect URL for the OIDC provider. The verified email
// must belong to an active account.
func (h *AccountHandler) oidcCallback(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.oidc == nil {
		return middleware.NotFound(nil)
	}
	q := r.URL.Query()
	state := h.sessions.PopString(r.Context(), session.OIDCState)
	if state == "" || q.Get("state") != state || q.Get("error") != "" {
		return h.redirect(w, r, flash.Error, msgSSOFailed, auth.RouteLogin)
	}

	email, err := h.oidc.VerifiedEmail(r.Context(), q.Get("code"))
	if err != nil {
		h.log.Warn("OIDC callback rejected: " + err.Error())
		return h.redirect(w, r, flash.Error, msgSSOFailed, auth.RouteLogin)
	}
	user, err := h.accounts.LoginByEmail(r.Context(), email)
	if err != nil {
		return h.fail(w, r, err, auth.RouteLogin)
	}
	if err := session.Login(r.Context(), h.sessions, user.ID, user.Username); err != nil {
		return middleware.ServerError(err, "Failed to start session")
	}
	if err := h.accounts.RecordLogin(r.Context(), user); err != nil {
		h.log.Error(err, "Failed to record last login")
	}
	return h.redirect(w, r, flash.Success, fmt.Sprintf(msgWelcome, user.Username), auth.RouteIndex)
}

// randString is a helper function to generate a random string for the 'state' parameter.
func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
