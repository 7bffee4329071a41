package form

import (
	"net/url"
	"strings"
	"time"
)

// DateLayout is the format of date inputs.
const DateLayout = "2006-01-02"

// Register is the sign-up form.
type Register struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"required,max=254,email"`
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Password1 string `form:"password1" validate:"required"`
	Password2 string `form:"password2" validate:"required"`
}

// NewRegister reads a Register form from submitted values.
func NewRegister(v url.Values) *Register {
	return &Register{
		Username:  strings.TrimSpace(v.Get("username")),
		Email:     strings.TrimSpace(v.Get("email")),
		FirstName: strings.TrimSpace(v.Get("first_name")),
		LastName:  strings.TrimSpace(v.Get("last_name")),
		Password1: v.Get("password1"),
		Password2: v.Get("password2"),
	}
}

// Validate checks field formats and the password rules.
// Uniqueness of username and email is checked against the store by the caller.
func (f *Register) Validate() Errors {
	errs := check(f)
	checkNewPassword(errs, "password2", f.Password1, f.Password2, f.Username)
	return errs
}

// Login is the username/password form.
type Login struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// NewLogin reads a Login form from submitted values.
func NewLogin(v url.Values) *Login {
	return &Login{Username: strings.TrimSpace(v.Get("username")), Password: v.Get("password")}
}

// Validate checks that both fields are present.
func (f *Login) Validate() Errors { return check(f) }

// PasswordChange is the form an authenticated user submits to change their password.
type PasswordChange struct {
	OldPassword  string `form:"old_password" validate:"required"`
	NewPassword1 string `form:"new_password1" validate:"required"`
	NewPassword2 string `form:"new_password2" validate:"required"`
}

// NewPasswordChange reads a PasswordChange form from submitted values.
func NewPasswordChange(v url.Values) *PasswordChange {
	return &PasswordChange{
		OldPassword:  v.Get("old_password"),
		NewPassword1: v.Get("new_password1"),
		NewPassword2: v.Get("new_password2"),
	}
}

// Validate checks the new password pair for username.
func (f *PasswordChange) Validate(username string) Errors {
	errs := check(f)
	checkNewPassword(errs, "new_password2", f.NewPassword1, f.NewPassword2, username)
	return errs
}

// PasswordResetRequest asks for a reset link.
type PasswordResetRequest struct {
	Email string `form:"email" validate:"required,max=254,email"`
}

// NewPasswordResetRequest reads a PasswordResetRequest form from submitted values.
func NewPasswordResetRequest(v url.Values) *PasswordResetRequest {
	return &PasswordResetRequest{Email: strings.TrimSpace(v.Get("email"))}
}

// Validate checks the email format.
func (f *PasswordResetRequest) Validate() Errors { return check(f) }

// SetPassword is submitted from a password reset link.
type SetPassword struct {
	NewPassword1 string `form:"new_password1" validate:"required"`
	NewPassword2 string `form:"new_password2" validate:"required"`
}

// NewSetPassword reads a SetPassword form from submitted values.
func NewSetPassword(v url.Values) *SetPassword {
	return &SetPassword{NewPassword1: v.Get("new_password1"), NewPassword2: v.Get("new_password2")}
}

// Validate checks the password pair for username.
func (f *SetPassword) Validate(username string) Errors {
	errs := check(f)
	checkNewPassword(errs, "new_password2", f.NewPassword1, f.NewPassword2, username)
	return errs
}

// Profile is the create/edit profile form. The picture arrives as a file upload.
type Profile struct {
	FirstName string `form:"first_name" validate:"required,max=150"`
	LastName  string `form:"last_name" validate:"required,max=150"`
	Email     string `form:"email" validate:"required,max=254,email"`
	Job       string `form:"job" validate:"max=100"`
	BirthDate string `form:"birth_date" validate:"required,datetime=2006-01-02"`
	Bio       string `form:"bio" validate:"max=1000"`
	// ClearPicture removes the current picture.
	ClearPicture bool `form:"-"`
}

// NewProfile reads a Profile form from submitted values.
func NewProfile(v url.Values) *Profile {
	return &Profile{
		FirstName:    strings.TrimSpace(v.Get("first_name")),
		LastName:     strings.TrimSpace(v.Get("last_name")),
		Email:        strings.TrimSpace(v.Get("email")),
		Job:          strings.TrimSpace(v.Get("job")),
		BirthDate:    strings.TrimSpace(v.Get("birth_date")),
		Bio:          strings.TrimSpace(v.Get("bio")),
		ClearPicture: checked(v.Get("picture-clear")),
	}
}

// Validate checks the fields; a birth date in the future is rejected relative to now.
func (f *Profile) Validate(now time.Time) Errors {
	errs := check(f)
	if errs.Get("birth_date") == "" {
		if d, _ := time.Parse(DateLayout, f.BirthDate); d.After(now) {
			errs.Add("birth_date", "Birth date cannot be in the future.")
		}
	}
	return errs
}

// Birth returns the parsed birth date. Call only after Validate succeeded.
func (f *Profile) Birth() time.Time {
	d, _ := time.Parse(DateLayout, f.BirthDate)
	return d
}
