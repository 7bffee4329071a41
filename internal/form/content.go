package form

import (
	"net/url"
	"strings"
)

// Page is the create/edit page form. The image arrives as a file upload.
type Page struct {
	Title       string  `form:"title" validate:"required,max=50"`
	CategoryIDs []int64 `form:"categories"`
	IsPrivate   bool    `form:"is_private"`
	ClearImage  bool    `form:"-"`
}

// NewPage reads a Page form from submitted values.
func NewPage(v url.Values) *Page {
	return &Page{
		Title:       strings.TrimSpace(v.Get("title")),
		CategoryIDs: ids(v["categories"]),
		IsPrivate:   checked(v.Get("is_private")),
		ClearImage:  checked(v.Get("image-clear")),
	}
}

// Validate checks the fields.
func (f *Page) Validate() Errors { return check(f) }

// HasCategory reports whether id is selected, for re-rendering the form.
func (f *Page) HasCategory(id int64) bool { return contains(f.CategoryIDs, id) }

// Blog is the post/edit blog form.
type Blog struct {
	Title       string  `form:"title" validate:"required,max=50"`
	Subtitle    string  `form:"subtitle" validate:"required,max=200"`
	Content     string  `form:"content" validate:"required"`
	TagIDs      []int64 `form:"tags"`
	IsPublished bool    `form:"is_published"`
	IsPrivate   bool    `form:"is_private"`
}

// NewBlog reads a Blog form from submitted values.
func NewBlog(v url.Values) *Blog {
	return &Blog{
		Title:       strings.TrimSpace(v.Get("title")),
		Subtitle:    strings.TrimSpace(v.Get("subtitle")),
		Content:     v.Get("content"),
		TagIDs:      ids(v["tags"]),
		IsPublished: checked(v.Get("is_published")),
		IsPrivate:   checked(v.Get("is_private")),
	}
}

// Validate checks the fields.
func (f *Blog) Validate() Errors {
	errs := check(f)
	if strings.TrimSpace(f.Content) == "" && errs.Get("content") == "" {
		errs.Add("content", "This field is required.")
	}
	return errs
}

// HasTag reports whether id is selected, for re-rendering the form.
func (f *Blog) HasTag(id int64) bool { return contains(f.TagIDs, id) }

// Tag is the inline tag form on the post/edit blog screens.
type Tag struct {
	Title string `form:"title" validate:"required,max=50"`
}

// NewTag reads a Tag form. The tag title is posted as "tag_title" so it
// can share a page with the blog form.
func NewTag(v url.Values) *Tag {
	return &Tag{Title: strings.TrimSpace(v.Get("tag_title"))}
}

// Validate checks the fields.
func (f *Tag) Validate() Errors {
	errs := check(f)
	// The input is named tag_title on the page.
	if msgs, ok := errs["title"]; ok {
		delete(errs, "title")
		errs["tag_title"] = msgs
	}
	return errs
}

func contains(list []int64, id int64) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
