package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"text/template"
	"time"

	"go-blog-app/internal/data"
	"go-blog-app/internal/form"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/mailer"
	"go-blog-app/internal/token"

	"golang.org/x/crypto/bcrypt"
)

// User-facing outcomes of the account flows.
const (
	MsgInvalidCredentials  = "Invalid username or password."
	MsgActivationInvalid   = "The activation link is invalid!"
	MsgActivationMailFail  = "Failed to send activation email. Please try again."
	MsgResetLinkInvalid    = "The password reset link was invalid, possibly because it has already been used. Please request a new password reset."
	MsgResetMailFail       = "Your password reset link could not be sent. Please try again."
	MsgEmailTaken          = "Email already registered."
	MsgUsernameTaken       = "A user with that username already exists."
	MsgUnknownResetEmail   = "There is no user registered with this email address."
	MsgOldPasswordMismatch = "Your old password was entered incorrectly. Please enter it again."
	MsgNoAccountForEmail   = "No active account matches that email address."
)

// UserRepository defines the interface for database operations on users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *data.User) error
	GetUserByID(ctx context.Context, id int64) (*data.User, error)
	GetUserByUsername(ctx context.Context, username string) (*data.User, error)
	GetUserByEmail(ctx context.Context, email string) (*data.User, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateUser(ctx context.Context, user *data.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// AccountService implements registration, activation, authentication and password management.
type AccountService struct {
	users      UserRepository
	tokens     *token.Generator
	mail       mailer.Sender
	emails     *template.Template
	bcryptCost int
	now        func() time.Time
	log        logger.Logger
}

// NewAccountService creates an AccountService. Email bodies are parsed from
// templates/email/*.txt in emailFS.
func NewAccountService(users UserRepository, tokens *token.Generator, mail mailer.Sender, emailFS fs.FS, bcryptCost int, log logger.Logger) (*AccountService, error) {
	emails, err := template.ParseFS(emailFS, "templates/email/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &AccountService{
		users:      users,
		tokens:     tokens,
		mail:       mail,
		emails:     emails,
		bcryptCost: bcryptCost,
		now:        time.Now,
		log:        log,
	}, nil
}

// Register creates an inactive account and emails its activation link.
// The account is deleted again when the email cannot be sent.
func (s *AccountService) Register(ctx context.Context, f *form.Register, siteURL string) (*data.User, error) {
	errs := f.Validate()
	if f.Username != "" {
		taken, err := s.users.UsernameExists(ctx, f.Username)
		if err != nil {
			return nil, internal(err)
		}
		if taken {
			errs.Add("username", MsgUsernameTaken)
		}
	}
	if f.Email != "" {
		taken, err := s.users.EmailExists(ctx, f.Email, 0)
		if err != nil {
			return nil, internal(err)
		}
		if taken {
			errs.Add("email", MsgEmailTaken)
		}
	}
	if !errs.Valid() {
		return nil, invalid(errs)
	}

	hash, err := s.hash(f.Password1)
	if err != nil {
		return nil, internal(err)
	}
	user := &data.User{
		Username:     f.Username,
		Email:        f.Email,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		PasswordHash: hash,
		IsActive:     false,
		DateJoined:   s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, internal(err)
	}

	if !s.sendLink(ctx, "activation.txt", "Activate your account.", token.Activation, user, siteURL, "/accounts/activate/") {
		if err := s.users.DeleteUser(ctx, user.ID); err != nil {
			s.log.Error(err, "Failed to roll back unactivated user")
		}
		return nil, unavailable(MsgActivationMailFail)
	}
	return user, nil
}

// Activate validates an activation link and marks the account active.
func (s *AccountService) Activate(ctx context.Context, uid, tok string) (*data.User, error) {
	user, err := s.userFromLink(ctx, uid)
	if err != nil || !s.tokens.Check(token.Activation, user, tok) {
		return nil, &Error{Code: CodeInvalid, Message: MsgActivationInvalid, Err: err}
	}
	user.IsActive = true
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, internal(err)
	}
	return user, nil
}

// ActivateByUsername marks an account active without a token, for operators.
func (s *AccountService) ActivateByUsername(ctx context.Context, username string) (*data.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, notFound(fmt.Sprintf("no user named %q", username), err)
		}
		return nil, internal(err)
	}
	if user.IsActive {
		return user, nil
	}
	user.IsActive = true
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, internal(err)
	}
	return user, nil
}

// Authenticate checks credentials. Inactive accounts are refused with the same message as a bad password.
func (s *AccountService) Authenticate(ctx context.Context, f *form.Login) (*data.User, error) {
	if errs := f.Validate(); !errs.Valid() {
		return nil, invalid(errs)
	}
	user, err := s.users.GetUserByUsername(ctx, f.Username)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, invalidField(form.NonField, MsgInvalidCredentials)
		}
		return nil, internal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(f.Password)) != nil || !user.IsActive {
		return nil, invalidField(form.NonField, MsgInvalidCredentials)
	}
	return user, nil
}

// RecordLogin stamps the user's last login time.
func (s *AccountService) RecordLogin(ctx context.Context, user *data.User) error {
	now := s.now().UTC()
	user.LastLogin = &now
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return internal(err)
	}
	return nil
}

// LoginByEmail finds the active account for a verified single sign-on email.
func (s *AccountService) LoginByEmail(ctx context.Context, email string) (*data.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, forbidden(MsgNoAccountForEmail)
		}
		return nil, internal(err)
	}
	if !user.IsActive {
		return nil, forbidden(MsgNoAccountForEmail)
	}
	return user, nil
}

// ChangePassword replaces the password of a logged-in user after checking the old one.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, f *form.PasswordChange) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return internal(err)
	}
	errs := f.Validate(user.Username)
	if f.OldPassword != "" && bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(f.OldPassword)) != nil {
		errs.Add("old_password", MsgOldPasswordMismatch)
	}
	if !errs.Valid() {
		return invalid(errs)
	}
	return s.setPassword(ctx, user, f.NewPassword1)
}

// RequestPasswordReset emails a reset link to the account registered with the email.
func (s *AccountService) RequestPasswordReset(ctx context.Context, f *form.PasswordResetRequest, siteURL string) error {
	if errs := f.Validate(); !errs.Valid() {
		return invalid(errs)
	}
	user, err := s.users.GetUserByEmail(ctx, f.Email)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return invalidField("email", MsgUnknownResetEmail)
		}
		return internal(err)
	}
	if !s.sendLink(ctx, "password_reset.txt", "Reset your password.", token.PasswordReset, user, siteURL, "/accounts/reset/") {
		return unavailable(MsgResetMailFail)
	}
	return nil
}

// CheckResetLink returns the user a reset link was issued for, if it is still valid.
func (s *AccountService) CheckResetLink(ctx context.Context, uid, tok string) (*data.User, error) {
	user, err := s.userFromLink(ctx, uid)
	if err != nil || !s.tokens.Check(token.PasswordReset, user, tok) {
		return nil, &Error{Code: CodeInvalid, Message: MsgResetLinkInvalid, Err: err}
	}
	return user, nil
}

// ResetPassword re-validates the link and sets the new password. The link
// stops working afterwards because the password hash changed.
func (s *AccountService) ResetPassword(ctx context.Context, uid, tok string, f *form.SetPassword) error {
	user, err := s.CheckResetLink(ctx, uid, tok)
	if err != nil {
		return err
	}
	if errs := f.Validate(user.Username); !errs.Valid() {
		return invalid(errs)
	}
	return s.setPassword(ctx, user, f.NewPassword1)
}

func (s *AccountService) setPassword(ctx context.Context, user *data.User, password string) error {
	hash, err := s.hash(password)
	if err != nil {
		return internal(err)
	}
	user.PasswordHash = hash
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return internal(err)
	}
	return nil
}

func (s *AccountService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (s *AccountService) userFromLink(ctx context.Context, uid string) (*data.User, error) {
	id, err := token.DecodeUID(uid)
	if err != nil {
		return nil, err
	}
	return s.users.GetUserByID(ctx, id)
}

// sendLink renders an email carrying a signed link and sends it.
func (s *AccountService) sendLink(ctx context.Context, tmpl, subject string, purpose token.Purpose, user *data.User, siteURL, path string) bool {
	tok, err := s.tokens.Make(purpose, user)
	if err != nil {
		s.log.Error(err, "Failed to create token")
		return false
	}
	var body bytes.Buffer
	err = s.emails.ExecuteTemplate(&body, tmpl, map[string]interface{}{
		"User": user,
		"Link": siteURL + path + token.EncodeUID(user.ID) + "/" + tok,
	})
	if err != nil {
		s.log.Error(err, "Failed to render email")
		return false
	}
	return s.mail.Send(ctx, subject, body.String(), []string{user.Email})
}
