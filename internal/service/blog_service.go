package service

import (
	"context"
	"errors"
	"time"

	"go-blog-app/internal/data"
	"go-blog-app/internal/form"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/slug"
)

// Blog outcomes shown to users.
const (
	MsgBlogMissing         = "Blog not found"
	MsgBlogNeedsProfile    = "You dont have permission to create a blog"
	MsgBlogCreateProfile   = "You need create a profile"
	MsgPagePersonal        = "This page is personal"
	MsgBlogEditForbidden   = "You dont have permission to edit this blog"
	MsgBlogDeleteForbidden = "You dont have permission to delete this blog"
	MsgBlogUpdated         = "Blog has been updated"
	MsgBlogDeleted         = "Blog has been deleted successfully."
	MsgNoPostsFound        = "No posts were found that fit this filter."
	MsgNoSearchResults     = "No posts were found that fit this search."
	MsgNoPageBlogs         = "No blogs were found that fit this filter."
	MsgNoTagBlogs          = "No blogs were found that fit this tag."
	MsgTagMissing          = "Tag does not exist"
)

// BlogRepository defines the interface for database operations on blogs.
type BlogRepository interface {
	CreateBlog(ctx context.Context, blog *data.Blog, tagIDs []int64) error
	GetBlogBySlug(ctx context.Context, slug string) (*data.Blog, error)
	UpdateBlog(ctx context.Context, blog *data.Blog, tagIDs []int64) error
	DeleteBlog(ctx context.Context, id int64) error
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	ListBlogs(ctx context.Context, f data.BlogFilter, limit, offset int) ([]*data.Blog, error)
	CountBlogs(ctx context.Context, f data.BlogFilter) (int, error)
	AllBlogs(ctx context.Context) ([]*data.Blog, error)
	SearchBlogs(ctx context.Context, q string, f data.BlogFilter) ([]*data.Blog, error)
}

// TagRepository defines the interface for database operations on tags.
type TagRepository interface {
	FindBySlug(ctx context.Context, slug string) (*data.Tag, error)
	GetAll(ctx context.Context) ([]*data.Tag, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*data.Tag, error)
	TitleExists(ctx context.Context, title string, excludeID int64) (bool, error)
	Save(ctx context.Context, tag *data.Tag) (int64, error)
}

// BlogList is one window of a blog listing.
type BlogList struct {
	Blogs []*data.Blog
	Pagination
}

// BlogService provides business logic for posting, editing and finding blogs.
type BlogService struct {
	blogs       BlogRepository
	pages       PageRepository
	tags        TagRepository
	profiles    ProfileRepository
	renderer    *Renderer
	hidePrivate bool
	now         func() time.Time
	log         logger.Logger
}

// NewBlogService creates a BlogService. When hidePrivate is set, listings and
// search leave out private blogs, and blogs of private pages, the viewer does not own.
func NewBlogService(blogs BlogRepository, pages PageRepository, tags TagRepository, profiles ProfileRepository, renderer *Renderer, hidePrivate bool, log logger.Logger) *BlogService {
	return &BlogService{
		blogs:       blogs,
		pages:       pages,
		tags:        tags,
		profiles:    profiles,
		renderer:    renderer,
		hidePrivate: hidePrivate,
		now:         time.Now,
		log:         log,
	}
}

// PostTarget returns the page userID wants to post into, if they may.
func (s *BlogService) PostTarget(ctx context.Context, userID int64, pageSlug string) (*data.Page, error) {
	if err := requireProfile(ctx, s.profiles, userID, MsgBlogNeedsProfile); err != nil {
		return nil, err
	}
	page, err := s.page(ctx, pageSlug)
	if err != nil {
		return nil, err
	}
	if page.IsPrivate && page.CreatorID != userID {
		return nil, forbidden(MsgPagePersonal)
	}
	return page, nil
}

// Post publishes a new blog by userID into the page.
func (s *BlogService) Post(ctx context.Context, userID int64, pageSlug string, f *form.Blog) (*data.Blog, error) {
	page, err := s.PostTarget(ctx, userID, pageSlug)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, f); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	blogSlug, err := s.uniqueSlug(ctx, f.Title, 0, now)
	if err != nil {
		return nil, err
	}
	blog := &data.Blog{
		AuthorID:  userID,
		PageID:    page.ID,
		Slug:      blogSlug,
		CreatedAt: now,
		UpdatedAt: now,
		Page:      page,
	}
	applyBlog(blog, f)
	if err := s.blogs.CreateBlog(ctx, blog, f.TagIDs); err != nil {
		return nil, internal(err)
	}
	return blog, nil
}

// Get returns a blog of the page with its content rendered.
func (s *BlogService) Get(ctx context.Context, pageSlug, blogSlug string) (*data.Page, *data.Blog, error) {
	page, blog, err := s.find(ctx, pageSlug, blogSlug)
	if err != nil {
		return nil, nil, err
	}
	if err := s.renderer.Render(ctx, blog); err != nil {
		return nil, nil, internal(err)
	}
	return page, blog, nil
}

// Editable returns a blog if userID wrote it.
func (s *BlogService) Editable(ctx context.Context, userID int64, pageSlug, blogSlug string) (*data.Page, *data.Blog, error) {
	page, blog, err := s.find(ctx, pageSlug, blogSlug)
	if err != nil {
		return nil, nil, err
	}
	if blog.AuthorID != userID {
		return nil, nil, forbidden(MsgBlogEditForbidden)
	}
	return page, blog, nil
}

// Update edits a blog on behalf of userID. The slug only changes with the title.
func (s *BlogService) Update(ctx context.Context, userID int64, pageSlug, blogSlug string, f *form.Blog) (*data.Blog, error) {
	_, blog, err := s.Editable(ctx, userID, pageSlug, blogSlug)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, f); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if f.Title != blog.Title {
		if blog.Slug, err = s.uniqueSlug(ctx, f.Title, blog.ID, now); err != nil {
			return nil, err
		}
	}
	applyBlog(blog, f)
	blog.UpdatedAt = now
	if err := s.blogs.UpdateBlog(ctx, blog, f.TagIDs); err != nil {
		return nil, internal(err)
	}
	s.renderer.Forget(ctx, blog.ID)
	return blog, nil
}

// Delete removes a blog on behalf of userID and returns the page it was on.
func (s *BlogService) Delete(ctx context.Context, userID int64, pageSlug, blogSlug string) (*data.Page, error) {
	page, blog, err := s.find(ctx, pageSlug, blogSlug)
	if err != nil {
		return nil, err
	}
	if blog.AuthorID != userID {
		return nil, forbidden(MsgBlogDeleteForbidden)
	}
	if err := s.blogs.DeleteBlog(ctx, blog.ID); err != nil {
		return nil, internal(err)
	}
	s.renderer.Forget(ctx, blog.ID)
	return page, nil
}

// List returns one window of blogs matching f, newest first, as seen by viewerID.
func (s *BlogService) List(ctx context.Context, f data.BlogFilter, viewerID int64, perPage int, rawPage string) (*BlogList, error) {
	f.HidePrivate = s.hidePrivate
	f.ViewerID = viewerID
	total, err := s.blogs.CountBlogs(ctx, f)
	if err != nil {
		return nil, internal(err)
	}
	p := Paginate(total, perPage, rawPage)
	blogs, err := s.blogs.ListBlogs(ctx, f, p.PerPage, p.Offset())
	if err != nil {
		return nil, internal(err)
	}
	return &BlogList{Blogs: blogs, Pagination: p}, nil
}

// MyBlogs lists the blogs written by userID.
func (s *BlogService) MyBlogs(ctx context.Context, userID int64, f data.BlogFilter, rawPage string) (*BlogList, error) {
	f.AuthorID = userID
	return s.List(ctx, f, userID, MyBlogsPerPage, rawPage)
}

// PageBlogs lists the blogs of a page.
func (s *BlogService) PageBlogs(ctx context.Context, page *data.Page, f data.BlogFilter, viewerID int64, rawPage string) (*BlogList, error) {
	f.PageID = page.ID
	return s.List(ctx, f, viewerID, PageBlogsPerPage, rawPage)
}

// ByTag lists the blogs carrying the tag.
func (s *BlogService) ByTag(ctx context.Context, tagSlug string, viewerID int64, rawPage string) (*data.Tag, *BlogList, error) {
	tag, err := s.tags.FindBySlug(ctx, tagSlug)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, nil, notFound(MsgTagMissing, err)
		}
		return nil, nil, internal(err)
	}
	list, err := s.List(ctx, data.BlogFilter{TagSlugs: []string{tag.Slug}}, viewerID, TagPerPage, rawPage)
	if err != nil {
		return nil, nil, err
	}
	return tag, list, nil
}

// Search returns the blogs where q occurs, case-sensitively, in the title,
// subtitle, content, a tag title, the page title or a category title of the page.
func (s *BlogService) Search(ctx context.Context, q string, viewerID int64, rawPage string) (*BlogList, error) {
	found, err := s.blogs.SearchBlogs(ctx, q, data.BlogFilter{HidePrivate: s.hidePrivate, ViewerID: viewerID})
	if err != nil {
		return nil, internal(err)
	}
	p := Paginate(len(found), SearchPerPage, rawPage)
	start, end := p.window(len(found))
	return &BlogList{Blogs: found[start:end], Pagination: p}, nil
}

// Tags returns every tag, for filters and forms.
func (s *BlogService) Tags(ctx context.Context) ([]*data.Tag, error) {
	tags, err := s.tags.GetAll(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return tags, nil
}

// Public returns the blogs that are neither private nor on a private page.
func (s *BlogService) Public(ctx context.Context) ([]*data.Blog, error) {
	all, err := s.blogs.AllBlogs(ctx)
	if err != nil {
		return nil, internal(err)
	}
	out := all[:0]
	for _, b := range all {
		if !b.IsPrivate && (b.Page == nil || !b.Page.IsPrivate) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *BlogService) page(ctx context.Context, pageSlug string) (*data.Page, error) {
	page, err := s.pages.GetPageBySlug(ctx, pageSlug)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, notFound(MsgPageMissing, err)
		}
		return nil, internal(err)
	}
	return page, nil
}

// find resolves a blog by slug. It must belong to the page named in the URL.
func (s *BlogService) find(ctx context.Context, pageSlug, blogSlug string) (*data.Page, *data.Blog, error) {
	page, err := s.page(ctx, pageSlug)
	if err != nil {
		return nil, nil, err
	}
	blog, err := s.blogs.GetBlogBySlug(ctx, blogSlug)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, nil, notFound(MsgBlogMissing, err)
		}
		return nil, nil, internal(err)
	}
	if blog.PageID != page.ID {
		return nil, nil, notFound(MsgBlogMissing, nil)
	}
	blog.Page = page
	return page, blog, nil
}

func (s *BlogService) validate(ctx context.Context, f *form.Blog) error {
	errs := f.Validate()
	if errs.Get("title") == "" && slug.Make(f.Title) == "" {
		errs.Add("title", MsgTitleNoSlug)
	}
	if len(f.TagIDs) > 0 {
		found, err := s.tags.GetByIDs(ctx, f.TagIDs)
		if err != nil {
			return internal(err)
		}
		if !coversIDs(f.TagIDs, len(found), func(i int) int64 { return found[i].ID }) {
			errs.Add("tags", MsgInvalidChoice)
		}
	}
	if !errs.Valid() {
		return invalid(errs)
	}
	return nil
}

// uniqueSlug picks a slug for title that no blog other than excludeID uses.
func (s *BlogService) uniqueSlug(ctx context.Context, title string, excludeID int64, now time.Time) (string, error) {
	out, err := slug.Unique(ctx, slug.Make(title), now, func(ctx context.Context, candidate string) (bool, error) {
		return s.blogs.SlugExists(ctx, candidate, excludeID)
	})
	if err != nil {
		return "", internal(err)
	}
	return out, nil
}

func applyBlog(b *data.Blog, f *form.Blog) {
	b.Title = f.Title
	b.Subtitle = f.Subtitle
	b.Content = f.Content
	b.IsPublished = f.IsPublished
	b.IsPrivate = f.IsPrivate
}
