package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go-blog-app/internal/data"
	"go-blog-app/internal/form"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/media"
)

// Profile outcomes shown to users.
const (
	MsgProfileExists    = "Profile already exists"
	MsgProfileMissing   = "Profile does not exist"
	MsgProfileForbidden = "You are not allowed to edit this profile"
	MsgUploadTooLarge   = "The uploaded file is too large."
	MsgUploadType       = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// ProfileRepository defines the interface for database operations on profiles.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *data.Profile, user *data.User) error
	GetProfileByUserID(ctx context.Context, userID int64) (*data.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*data.Profile, error)
	ProfileExists(ctx context.Context, userID int64) (bool, error)
	UpdateProfile(ctx context.Context, profile *data.Profile, user *data.User) error
}

// MediaStore saves and removes uploaded images.
type MediaStore interface {
	Save(folder string, r io.Reader) (string, error)
	Delete(rel string) error
}

// ProfileService manages user profiles.
type ProfileService struct {
	profiles ProfileRepository
	users    UserRepository
	media    MediaStore
	now      func() time.Time
	log      logger.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(profiles ProfileRepository, users UserRepository, store MediaStore, log logger.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, users: users, media: store, now: time.Now, log: log}
}

// HasProfile reports whether the user has created a profile.
func (s *ProfileService) HasProfile(ctx context.Context, userID int64) (bool, error) {
	ok, err := s.profiles.ProfileExists(ctx, userID)
	if err != nil {
		return false, internal(err)
	}
	return ok, nil
}

// Get returns the profile of username together with its user.
func (s *ProfileService) Get(ctx context.Context, username string) (*data.Profile, error) {
	p, err := s.profiles.GetProfileByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, notFound(MsgProfileMissing, err)
		}
		return nil, internal(err)
	}
	return p, nil
}

// User returns the account for userID, for pre-filling forms.
func (s *ProfileService) User(ctx context.Context, userID int64) (*data.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	return u, nil
}

// Create stores the first profile of a user. picture may be nil.
func (s *ProfileService) Create(ctx context.Context, userID int64, f *form.Profile, picture io.Reader) (*data.Profile, error) {
	exists, err := s.HasProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict(MsgProfileExists)
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	if err := s.validate(ctx, user, f); err != nil {
		return nil, err
	}

	profile := &data.Profile{UserID: userID, CreatedAt: s.now().UTC()}
	applyProfile(profile, f)
	if picture != nil {
		rel, err := saveUpload(s.media, media.ProfilePictures, "profile_picture", picture)
		if err != nil {
			return nil, err
		}
		profile.ProfilePicture = &rel
	}

	applyUser(user, f)
	if err := s.profiles.CreateProfile(ctx, profile, user); err != nil {
		s.discardUpload(profile.ProfilePicture)
		return nil, internal(err)
	}
	profile.User = user
	return profile, nil
}

// Update edits the profile of username on behalf of editorID. picture may be nil.
func (s *ProfileService) Update(ctx context.Context, editorID int64, username string, f *form.Profile, picture io.Reader) (*data.Profile, error) {
	profile, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if profile.UserID != editorID {
		return nil, forbidden(MsgProfileForbidden)
	}
	user := profile.User
	if user == nil {
		if user, err = s.users.GetUserByID(ctx, profile.UserID); err != nil {
			return nil, internal(err)
		}
	}
	if err := s.validate(ctx, user, f); err != nil {
		return nil, err
	}

	old := profile.ProfilePicture
	applyProfile(profile, f)
	switch {
	case picture != nil:
		rel, err := saveUpload(s.media, media.ProfilePictures, "profile_picture", picture)
		if err != nil {
			return nil, err
		}
		profile.ProfilePicture = &rel
	case f.ClearPicture:
		profile.ProfilePicture = nil
	}

	applyUser(user, f)
	if err := s.profiles.UpdateProfile(ctx, profile, user); err != nil {
		if picture != nil {
			s.discardUpload(profile.ProfilePicture)
		}
		return nil, internal(err)
	}
	if old != nil && (profile.ProfilePicture == nil || *profile.ProfilePicture != *old) {
		if err := s.media.Delete(*old); err != nil {
			s.log.Error(err, "Failed to remove replaced profile picture")
		}
	}
	return profile, nil
}

// discardUpload removes a picture saved for a write that did not happen.
func (s *ProfileService) discardUpload(rel *string) {
	if rel == nil {
		return
	}
	if err := s.media.Delete(*rel); err != nil {
		s.log.Error(err, "Failed to remove unused profile picture")
	}
}

func (s *ProfileService) validate(ctx context.Context, user *data.User, f *form.Profile) error {
	errs := f.Validate(s.now())
	if f.Email != "" && f.Email != user.Email {
		taken, err := s.users.EmailExists(ctx, f.Email, user.ID)
		if err != nil {
			return internal(err)
		}
		if taken {
			errs.Add("email", MsgEmailTaken)
		}
	}
	if !errs.Valid() {
		return invalid(errs)
	}
	return nil
}

// saveUpload stores an image and maps storage refusals onto the form field.
func saveUpload(store MediaStore, folder, field string, r io.Reader) (string, error) {
	rel, err := store.Save(folder, r)
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return "", invalidField(field, MsgUploadTooLarge)
	case errors.Is(err, media.ErrUnsupportedType):
		return "", invalidField(field, MsgUploadType)
	case err != nil:
		return "", internal(err)
	}
	return rel, nil
}

func applyProfile(p *data.Profile, f *form.Profile) {
	p.Job = optional(f.Job)
	p.Bio = optional(f.Bio)
	p.BirthDate = f.Birth()
}

func applyUser(u *data.User, f *form.Profile) {
	u.FirstName = f.FirstName
	u.LastName = f.LastName
	u.Email = f.Email
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
