package service

import (
	"context"
	"errors"
	"io"

	"go-blog-app/internal/data"
	"go-blog-app/internal/form"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/media"
	"go-blog-app/internal/slug"
)

// Page outcomes shown to users.
const (
	MsgPageMissing         = "Page not found"
	MsgPageNeedsProfile    = "You are not allowed to create pages."
	MsgCreateProfileFirst  = "Please create your profile first."
	MsgPageEditForbidden   = "You dont have permission to edit this page"
	MsgPageDeleteForbidden = "You do not have permission to delete this page."
	MsgPageTitleTaken      = "Page with this Title already exists."
	MsgTitleNoSlug         = "Title must contain at least one letter or digit."
	MsgInvalidChoice       = "Select a valid choice."
	MsgNoPagesFound        = "No pages were found that fit this filter."
	MsgNoPagesInCategory   = "No pages were found that fit this category."
	MsgCategoryMissing     = "Category does not exist"
	MsgPageDeleted         = "Page has been deleted successfully."
	MsgPageCreatedFormat   = "%s page has been created"
	MsgPageUpdatedFormat   = "%s page has been updated"
)

// PageRepository defines the interface for database operations on pages.
type PageRepository interface {
	CreatePage(ctx context.Context, page *data.Page, categoryIDs []int64) error
	GetPageBySlug(ctx context.Context, slug string) (*data.Page, error)
	UpdatePage(ctx context.Context, page *data.Page, categoryIDs []int64) error
	DeletePage(ctx context.Context, id int64) error
	ListPages(ctx context.Context, f data.PageFilter, limit, offset int) ([]*data.Page, error)
	CountPages(ctx context.Context, f data.PageFilter) (int, error)
	AllPages(ctx context.Context) ([]*data.Page, error)
	TitleExists(ctx context.Context, title string, excludeID int64) (bool, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
}

// CategoryRepository defines the interface for database operations on categories.
type CategoryRepository interface {
	FindBySlug(ctx context.Context, slug string) (*data.Category, error)
	GetAll(ctx context.Context) ([]*data.Category, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*data.Category, error)
	TitleExists(ctx context.Context, title string, excludeID int64) (bool, error)
	Save(ctx context.Context, category *data.Category) (int64, error)
}

// PageList is one window of a page listing.
type PageList struct {
	Pages []*data.Page
	Pagination
}

// PageService provides business logic for managing pages.
type PageService struct {
	pages       PageRepository
	categories  CategoryRepository
	profiles    ProfileRepository
	media       MediaStore
	hidePrivate bool
	log         logger.Logger
}

// NewPageService creates a new PageService. When hidePrivate is set, listings
// leave out private pages the viewer does not own.
func NewPageService(pages PageRepository, categories CategoryRepository, profiles ProfileRepository, store MediaStore, hidePrivate bool, log logger.Logger) *PageService {
	return &PageService{
		pages:       pages,
		categories:  categories,
		profiles:    profiles,
		media:       store,
		hidePrivate: hidePrivate,
		log:         log,
	}
}

// CanCreate reports, as an error, whether userID may create pages.
func (s *PageService) CanCreate(ctx context.Context, userID int64) error {
	return requireProfile(ctx, s.profiles, userID, MsgPageNeedsProfile)
}

// Create stores a new page owned by userID. image may be nil.
func (s *PageService) Create(ctx context.Context, userID int64, f *form.Page, image io.Reader) (*data.Page, error) {
	if err := s.CanCreate(ctx, userID); err != nil {
		return nil, err
	}
	page := &data.Page{CreatorID: userID}
	if err := s.validate(ctx, page, f); err != nil {
		return nil, err
	}
	page.Title = f.Title
	page.Slug = slug.Make(f.Title)
	page.IsPrivate = f.IsPrivate
	if image != nil {
		rel, err := saveUpload(s.media, media.PageImages, "image", image)
		if err != nil {
			return nil, err
		}
		page.Image = &rel
	}
	if err := s.pages.CreatePage(ctx, page, f.CategoryIDs); err != nil {
		if page.Image != nil {
			s.removeImage(*page.Image)
		}
		return nil, internal(err)
	}
	return page, nil
}

// Get returns the page with the slug.
func (s *PageService) Get(ctx context.Context, pageSlug string) (*data.Page, error) {
	page, err := s.pages.GetPageBySlug(ctx, pageSlug)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, notFound(MsgPageMissing, err)
		}
		return nil, internal(err)
	}
	return page, nil
}

// Editable returns the page if userID created it.
func (s *PageService) Editable(ctx context.Context, userID int64, pageSlug string) (*data.Page, error) {
	page, err := s.Get(ctx, pageSlug)
	if err != nil {
		return nil, err
	}
	if page.CreatorID != userID {
		return nil, forbidden(MsgPageEditForbidden)
	}
	return page, nil
}

// Update edits a page on behalf of userID. The slug follows the new title. image may be nil.
func (s *PageService) Update(ctx context.Context, userID int64, pageSlug string, f *form.Page, image io.Reader) (*data.Page, error) {
	page, err := s.Editable(ctx, userID, pageSlug)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, page, f); err != nil {
		return nil, err
	}

	old := page.Image
	page.Title = f.Title
	page.Slug = slug.Make(f.Title)
	page.IsPrivate = f.IsPrivate
	switch {
	case image != nil:
		rel, err := saveUpload(s.media, media.PageImages, "image", image)
		if err != nil {
			return nil, err
		}
		page.Image = &rel
	case f.ClearImage:
		page.Image = nil
	}
	if err := s.pages.UpdatePage(ctx, page, f.CategoryIDs); err != nil {
		if image != nil {
			s.removeImage(*page.Image)
		}
		return nil, internal(err)
	}
	if old != nil && (page.Image == nil || *page.Image != *old) {
		s.removeImage(*old)
	}
	return page, nil
}

// Delete removes a page, and with it its blogs, on behalf of userID.
func (s *PageService) Delete(ctx context.Context, userID int64, pageSlug string) error {
	page, err := s.Get(ctx, pageSlug)
	if err != nil {
		return err
	}
	if page.CreatorID != userID {
		return forbidden(MsgPageDeleteForbidden)
	}
	if err := s.pages.DeletePage(ctx, page.ID); err != nil {
		return internal(err)
	}
	if page.Image != nil {
		s.removeImage(*page.Image)
	}
	return nil
}

// List returns one window of pages matching f, as seen by viewerID.
func (s *PageService) List(ctx context.Context, f data.PageFilter, viewerID int64, perPage int, rawPage string) (*PageList, error) {
	f.HidePrivate = s.hidePrivate
	f.ViewerID = viewerID
	total, err := s.pages.CountPages(ctx, f)
	if err != nil {
		return nil, internal(err)
	}
	p := Paginate(total, perPage, rawPage)
	pages, err := s.pages.ListPages(ctx, f, p.PerPage, p.Offset())
	if err != nil {
		return nil, internal(err)
	}
	return &PageList{Pages: pages, Pagination: p}, nil
}

// MyPages lists the pages created by userID.
func (s *PageService) MyPages(ctx context.Context, userID int64, f data.PageFilter, rawPage string) (*PageList, error) {
	f.CreatorID = userID
	return s.List(ctx, f, userID, MyPagesPerPage, rawPage)
}

// ByCategory lists the pages filed under the category.
func (s *PageService) ByCategory(ctx context.Context, categorySlug string, viewerID int64, rawPage string) (*data.Category, *PageList, error) {
	category, err := s.categories.FindBySlug(ctx, categorySlug)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, nil, notFound(MsgCategoryMissing, err)
		}
		return nil, nil, internal(err)
	}
	list, err := s.List(ctx, data.PageFilter{CategorySlugs: []string{category.Slug}}, viewerID, CategoryPerPage, rawPage)
	if err != nil {
		return nil, nil, err
	}
	return category, list, nil
}

// Categories returns every category, for filters and forms.
func (s *PageService) Categories(ctx context.Context) ([]*data.Category, error) {
	categories, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return categories, nil
}

// Public returns every page that is not private.
func (s *PageService) Public(ctx context.Context) ([]*data.Page, error) {
	all, err := s.pages.AllPages(ctx)
	if err != nil {
		return nil, internal(err)
	}
	out := all[:0]
	for _, p := range all {
		if !p.IsPrivate {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *PageService) validate(ctx context.Context, page *data.Page, f *form.Page) error {
	errs := f.Validate()
	if errs.Get("title") == "" {
		switch taken, err := s.pages.TitleExists(ctx, f.Title, page.ID); {
		case err != nil:
			return internal(err)
		case taken:
			errs.Add("title", MsgPageTitleTaken)
		}
	}
	if errs.Get("title") == "" {
		base := slug.Make(f.Title)
		if base == "" {
			errs.Add("title", MsgTitleNoSlug)
		} else if taken, err := s.pages.SlugExists(ctx, base, page.ID); err != nil {
			return internal(err)
		} else if taken {
			errs.Add("title", MsgPageTitleTaken)
		}
	}
	if len(f.CategoryIDs) > 0 {
		found, err := s.categories.GetByIDs(ctx, f.CategoryIDs)
		if err != nil {
			return internal(err)
		}
		if !coversIDs(f.CategoryIDs, len(found), func(i int) int64 { return found[i].ID }) {
			errs.Add("categories", MsgInvalidChoice)
		}
	}
	if !errs.Valid() {
		return invalid(errs)
	}
	return nil
}

func (s *PageService) removeImage(rel string) {
	if err := s.media.Delete(rel); err != nil {
		s.log.Error(err, "Failed to remove page image")
	}
}

// requireProfile refuses users without a profile with msg.
func requireProfile(ctx context.Context, profiles ProfileRepository, userID int64, msg string) error {
	ok, err := profiles.ProfileExists(ctx, userID)
	if err != nil {
		return internal(err)
	}
	if !ok {
		return noProfile(msg)
	}
	return nil
}

// coversIDs reports whether every wanted id is among the n found ones.
func coversIDs(want []int64, n int, id func(int) int64) bool {
	have := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		have[id(i)] = true
	}
	for _, w := range want {
		if !have[w] {
			return false
		}
	}
	return true
}
