//go:build unit

package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"go-blog-app/internal/data"
	"go-blog-app/internal/form"
	"go-blog-app/internal/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageForm(title string, private bool) *form.Page {
	v := url.Values{"title": {title}}
	if private {
		v.Set("is_private", "on")
	}
	return form.NewPage(v)
}

func blogForm(title string) *form.Blog {
	return form.NewBlog(url.Values{"title": {title}, "subtitle": {"sub"}, "content": {"Some **bold** words"}})
}

func TestPageService_CreateRequiresProfile(t *testing.T) {
	fx := newContentFixture(false)
	ctx := context.Background()
	u := fx.users.add(data.User{Username: "noprofile"})

	_, err := fx.pageSvc.Create(ctx, u.ID, pageForm("Travel", false), nil)
	require.Error(t, err)
	assert.Equal(t, CodeNoProfile, ErrorCode(err))
	assert.Equal(t, MsgPageNeedsProfile, ErrorMessage(err))
	assert.Empty(t, fx.pages.byID)
}

func TestPageService_CreateValidates(t *testing.T) {
	fx := newContentFixture(false)
	ctx := context.Background()
	u := fx.member("alice")
	fx.categories.items = []*data.Category{{ID: 1, Title: "Go", Slug: "go"}}

	page, err := fx.pageSvc.Create(ctx, u.ID, pageForm("Travel Notes", true), strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "travel-notes", page.Slug)
	assert.True(t, page.IsPrivate)
	require.NotNil(t, page.Image)
	assert.True(t, strings.HasPrefix(*page.Image, media.PageImages+"/"))

	tests := []struct {
		name  string
		form  *form.Page
		field string
		want  string
	}{
		{"title taken", pageForm("Travel Notes", false), "title", MsgPageTitleTaken},
		{"slug taken", pageForm("travel notes!", false), "title", MsgPageTitleTaken},
		{"no slug", pageForm("!!!", false), "title", MsgTitleNoSlug},
		{"unknown category", form.NewPage(url.Values{"title": {"Other"}, "categories": {"1", "7"}}), "categories", MsgInvalidChoice},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.pageSvc.Create(ctx, u.ID, tc.form, nil)
			require.Error(t, err)
			assert.Equal(t, tc.want, FieldErrors(err).Get(tc.field))
		})
	}
	assert.Len(t, fx.pages.byID, 1)
}

func TestPageService_OwnershipIsEnforced(t *testing.T) {
	fx := newContentFixture(false)
	ctx := context.Background()
	owner := fx.member("owner")
	intruder := fx.member("intruder")

	page, err := fx.pageSvc.Create(ctx, owner.ID, pageForm("Mine", false), nil)
	require.NoError(t, err)

	_, err = fx.pageSvc.Editable(ctx, intruder.ID, page.Slug)
	assert.Equal(t, CodeForbidden, ErrorCode(err))

	_, err = fx.pageSvc.Update(ctx, intruder.ID, page.Slug, pageForm("Stolen", false), nil)
	require.Error(t, err)
	assert.Equal(t, MsgPageEditForbidden, ErrorMessage(err))

	err = fx.pageSvc.Delete(ctx, intruder.ID, page.Slug)
	require.Error(t, err)
	assert.Equal(t, MsgPageDeleteForbidden, ErrorMessage(err))

	stored, err := fx.pageSvc.Get(ctx, "mine")
	require.NoError(t, err, "refused mutations leave the page untouched")
	assert.Equal(t, "Mine", stored.Title)

	updated, err := fx.pageSvc.Update(ctx, owner.ID, page.Slug, pageForm("Mine Renamed", false), nil)
	require.NoError(t, err)
	assert.Equal(t, "mine-renamed", updated.Slug, "page slugs follow the title")

	require.NoError(t, fx.pageSvc.Delete(ctx, owner.ID, updated.Slug))
	_, err = fx.pageSvc.Get(ctx, updated.Slug)
	assert.Equal(t, CodeNotFound, ErrorCode(err))
}

func TestPageService_UpdateReplacesImage(t *testing.T) {
	fx := newContentFixture(false)
	ctx := context.Background()
	u := fx.member("alice")

	page, err := fx.pageSvc.Create(ctx, u.ID, pageForm("Photos", false), strings.NewReader("one"))
	require.NoError(t, err)
	first := *page.Image

	page, err = fx.pageSvc.Update(ctx, u.ID, page.Slug, pageForm("Photos", false), strings.NewReader("two"))
	require.NoError(t, err)
	assert.NotEqual(t, first, *page.Image)
	assert.Equal(t, []string{first}, fx.media.deleted)

	cleared := form.NewPage(url.Values{"title": {"Photos"}, "image-clear": {"on"}})
	page, err = fx.pageSvc.Update(ctx, u.ID, page.Slug, cleared, nil)
	require.NoError(t, err)
	assert.Nil(t, page.Image)
	assert.Len(t, fx.media.deleted, 2)
}

func TestPageService_FailedWriteRemovesUpload(t *testing.T) {
	fx := newContentFixture(false)
	ctx := context.Background()
	u := fx.member("alice")

	fx.pages.writeErr = errors.New("constraint failed")
	_, err := fx.pageSvc.Create(ctx, u.ID, pageForm("Photos", false), strings.NewReader("one"))
	require.Error(t, err)
	assert.Equal(t, CodeInternal, ErrorCode(err))
	assert.Empty(t, fx.pages.byID)
	require.Len(t, fx.media.saved, 1)
	assert.Equal(t, fx.media.saved, fx.media.deleted)

	fx.pages.writeErr = nil
	page, err := fx.pageSvc.Create(ctx, u.ID, pageForm("Photos", false), strings.NewReader("two"))
	require.NoError(t, err)
	kept := *page.Image

	fx.pages.writeErr = errors.New("constraint failed")
	_, err = fx.pageSvc.Update(ctx, u.ID, page.Slug, pageForm("Photos", false), strings.NewReader("three"))
	require.Error(t, err)
	require.Len(t, fx.media.saved, 3)
	assert.Equal(t, []string{fx.media.saved[0], fx.media.saved[2]}, fx.media.deleted)
	assert.NotContains(t, fx.media.deleted, kept, "the stored image survives a failed edit")
}

func TestPageService_UploadErrorsBecomeFieldErrors(t *testing.T) {
	fx := newContentFixture(false)
	u := fx.member("alice")
	fx.media.err = media.ErrUnsupportedType

	_, err := fx.pageSvc.Create(context.Background(), u.ID, pageForm("Photos", false), strings.NewReader("%PDF"))
	require.Error(t, err)
	assert.Equal(t, MsgUploadType, FieldErrors(err).Get("image"))
}

func TestPageService_ListHidesPrivateWhenConfigured(t *testing.T) {
	ctx := context.Background()
	for _, hide := range []bool{false, true} {
		fx := newContentFixture(hide)
		owner := fx.member("owner")
		other := fx.member("other")
		_, err := fx.pageSvc.Create(ctx, owner.ID, pageForm("Public", false), nil)
		require.NoError(t, err)
		_, err = fx.pageSvc.Create(ctx, owner.ID, pageForm("Secret", true), nil)
		require.NoError(t, err)

		list, err := fx.pageSvc.List(ctx, data.PageFilter{}, other.ID, PagesPerPage, "")
		require.NoError(t, err)
		if hide {
			assert.Equal(t, 1, list.Total)
		} else {
			assert.Equal(t, 2, list.Total)
		}

		mine, err := fx.pageSvc.MyPages(ctx, owner.ID, data.PageFilter{}, "")
		require.NoError(t, err)
		assert.Equal(t, 2, mine.Total, "owners always see their own pages")

		public, err := fx.pageSvc.Public(ctx)
		require.NoError(t, err)
		assert.Len(t, public, 1)
	}
}

func TestPageService_ListPaginates(t *testing.T) {
	fx := newContentFixture(false)
	ctx := context.Background()
	u := fx.member("alice")
	for _, title := range []string{"A", "B", "C", "D", "E"} {
		_, err := fx.pageSvc.Create(ctx, u.ID, pageForm("Page "+title, false), nil)
		require.NoError(t, err)
	}

	list, err := fx.pageSvc.List(ctx, data.PageFilter{}, 0, 2, "99")
	require.NoError(t, err)
	assert.Equal(t, 3, list.Number, "past the end shows the last page")
	require.Len(t, list.Pages, 1)
	assert.Equal(t, "Page E", list.Pages[0].Title)

	list, err = fx.pageSvc.List(ctx, data.PageFilter{}, 0, 2, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, list.Number)
	assert.Equal(t, []string{"Page A", "Page B"}, []string{list.Pages[0].Title, list.Pages[1].Title})
}

func TestPageService_ByCategory(t *testing.T) {
	fx := newContentFixture(false)
	fx.categories.items = []*data.Category{{ID: 1, Title: "Go", Slug: "go"}}

	cat, _, err := fx.pageSvc.ByCategory(context.Background(), "go", 0, "")
	require.NoError(t, err)
	assert.Equal(t, "Go", cat.Title)

	_, _, err = fx.pageSvc.ByCategory(context.Background(), "rust", 0, "")
	assert.Equal(t, CodeNotFound, ErrorCode(err))
}

func TestBlogService_DuplicateTitlesGetDistinctSlugs(t *testing.T) {
	fx := newContentFixture(false)
	ctx := context.Background()
	u := fx.member("alice")
	page, err := fx.pageSvc.Create(ctx, u.ID, pageForm("Journal", false), nil)
	require.NoError(t, err)

	var slugs []string
	for i := 0; i < 3; i++ {
		b, err := fx.blogSvc.Post(ctx, u.ID, page.Slug, blogForm("Hello World"))
		require.NoError(t, err)
		slugs = append(slugs, b.Slug)
	}
	assert.Equal(t, []string{
		"hello-world",
		"hello-world-20240301120000",
		"hello-world-20240301120000-2",
	}, slugs)
}

func TestBlogService_UpdateKeepsSlugForUnchangedTitle(t *testing.T) {
	fx := newContentFixture(false)
	ctx := context.Background()
	u := fx.member("alice")
	page, err := fx.pageSvc.Create(ctx, u.ID, pageForm("Journal", false), nil)
	require.NoError(t, err)

	_, err = fx.blogSvc.Post(ctx, u.ID, page.Slug, blogForm("Hello World"))
	require.NoError(t, err)
	second, err := fx.blogSvc.Post(ctx, u.ID, page.Slug, blogForm("Hello World"))
	require.NoError(t, err)
	require.Equal(t, "hello-world-20240301120000", second.Slug)

	edit := blogForm("Hello World")
	edit.Subtitle = "changed"
	updated, err := fx.blogSvc.Update(ctx, u.ID, page.Slug, second.Slug, edit)
	require.NoError(t, err)
	assert.Equal(t, second.Slug, updated.Slug, "an unchanged title keeps its slug")
	assert.Equal(t, "changed", updated.Subtitle)

	renamed, err := fx.blogSvc.Update(ctx, u.ID, page.Slug, second.Slug, blogForm("Fresh Start"))
	require.NoError(t, err)
	assert.Equal(t, "fresh-start", renamed.Slug)
}

func TestBlogService_PostingRules(t *testing.T) {
	fx := newContentFixture(false)
	ctx := context.Background()
	owner := fx.member("owner")
	guest := fx.member("guest")
	bare := fx.users.add(data.User{Username: "bare"})

	private, err := fx.pageSvc.Create(ctx, owner.ID, pageForm("Diary", true), nil)
	require.NoError(t, err)

	_, err = fx.blogSvc.Post(ctx, guest.ID, private.Slug, blogForm("Hi"))
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, ErrorCode(err))
	assert.Equal(t, MsgPagePersonal, ErrorMessage(err))

	_, err = fx.blogSvc.Post(ctx, bare.ID, private.Slug, blogForm("Hi"))
	assert.Equal(t, CodeNoProfile, ErrorCode(err))

	_, err = fx.blogSvc.Post(ctx, owner.ID, "missing", blogForm("Hi"))
	assert.Equal(t, CodeNotFound, ErrorCode(err))

	_, err = fx.blogSvc.Post(ctx, owner.ID, private.Slug, form.NewBlog(url.Values{"title": {"Hi"}, "subtitle": {"s"}, "tags": {"4"}, "content": {"x"}}))
	assert.Equal(t, MsgInvalidChoice, FieldErrors(err).Get("tags"))

	_, err = fx.blogSvc.Post(ctx, owner.ID, private.Slug, blogForm("Hi"))
	require.NoError(t, err)
	assert.Len(t, fx.blogs.byID, 1)
}

func TestBlogService_NonAuthorCannotEditOrDelete(t *testing.T) {
	fx := newContentFixture(false)
	ctx := context.Background()
	author := fx.member("author")
	other := fx.member("other")
	page, err := fx.pageSvc.Create(ctx, author.ID, pageForm("Shared", false), nil)
	require.NoError(t, err)
	blog, err := fx.blogSvc.Post(ctx, author.ID, page.Slug, blogForm("Original"))
	require.NoError(t, err)

	_, err = fx.blogSvc.Update(ctx, other.ID, page.Slug, blog.Slug, blogForm("Hijacked"))
	assert.Equal(t, MsgBlogEditForbidden, ErrorMessage(err))

	_, err = fx.blogSvc.Delete(ctx, other.ID, page.Slug, blog.Slug)
	assert.Equal(t, MsgBlogDeleteForbidden, ErrorMessage(err))

	_, stored, err := fx.blogSvc.Get(ctx, page.Slug, blog.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Original", stored.Title)

	back, err := fx.blogSvc.Delete(ctx, author.ID, page.Slug, blog.Slug)
	require.NoError(t, err)
	assert.Equal(t, page.ID, back.ID)
	assert.Empty(t, fx.blogs.byID)
}

func TestBlogService_GetRendersAndChecksPage(t *testing.T) {
	fx := newContentFixture(false)
	ctx := context.Background()
	u := fx.member("alice")
	one, err := fx.pageSvc.Create(ctx, u.ID, pageForm("One", false), nil)
	require.NoError(t, err)
	_, err = fx.pageSvc.Create(ctx, u.ID, pageForm("Two", false), nil)
	require.NoError(t, err)

	f := blogForm("Post")
	f.Content = "Some **bold** text<script>alert(1)</script>"
	blog, err := fx.blogSvc.Post(ctx, u.ID, one.Slug, f)
	require.NoError(t, err)

	_, got, err := fx.blogSvc.Get(ctx, "one", blog.Slug)
	require.NoError(t, err)
	html := string(got.HTMLContent)
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.NotContains(t, html, "<script>")

	_, _, err = fx.blogSvc.Get(ctx, "two", blog.Slug)
	assert.Equal(t, CodeNotFound, ErrorCode(err), "a blog is only reachable under its own page")
}

func TestBlogService_SearchPaginatesInMemory(t *testing.T) {
	fx := newContentFixture(false)
	ctx := context.Background()
	u := fx.member("alice")
	page, err := fx.pageSvc.Create(ctx, u.ID, pageForm("Journal", false), nil)
	require.NoError(t, err)
	for i := 0; i < SearchPerPage+2; i++ {
		_, err := fx.blogSvc.Post(ctx, u.ID, page.Slug, blogForm("Needle"))
		require.NoError(t, err)
	}
	_, err = fx.blogSvc.Post(ctx, u.ID, page.Slug, blogForm("Hay"))
	require.NoError(t, err)

	list, err := fx.blogSvc.Search(ctx, "Needle", 0, "2")
	require.NoError(t, err)
	assert.Equal(t, SearchPerPage+2, list.Total)
	assert.Equal(t, 2, list.Number)
	assert.Len(t, list.Blogs, 2)

	list, err = fx.blogSvc.Search(ctx, "needle", 0, "")
	require.NoError(t, err)
	assert.Zero(t, list.Total, "search is case-sensitive")
	assert.Empty(t, list.Blogs)
}

func TestBlogService_ListingsAndTags(t *testing.T) {
	fx := newContentFixture(true)
	ctx := context.Background()
	u := fx.member("alice")
	other := fx.member("bob")
	fx.tags.items = []*data.Tag{{ID: 1, Title: "Go", Slug: "go"}}
	page, err := fx.pageSvc.Create(ctx, u.ID, pageForm("Journal", false), nil)
	require.NoError(t, err)

	secret := blogForm("Secret")
	secret.IsPrivate = true
	_, err = fx.blogSvc.Post(ctx, u.ID, page.Slug, secret)
	require.NoError(t, err)
	_, err = fx.blogSvc.Post(ctx, u.ID, page.Slug, blogForm("Open"))
	require.NoError(t, err)

	list, err := fx.blogSvc.PageBlogs(ctx, page, data.BlogFilter{}, other.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	mine, err := fx.blogSvc.MyBlogs(ctx, u.ID, data.BlogFilter{}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, mine.Total)

	tag, _, err := fx.blogSvc.ByTag(ctx, "go", other.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Go", tag.Title)

	_, _, err = fx.blogSvc.ByTag(ctx, "rust", other.ID, "")
	assert.Equal(t, CodeNotFound, ErrorCode(err))
}

func TestTaxonomyService(t *testing.T) {
	fx := newContentFixture(false)
	ctx := context.Background()

	tag, err := fx.taxonomy.CreateTag(ctx, form.NewTag(url.Values{"tag_title": {"Web Dev"}}))
	require.NoError(t, err)
	assert.Equal(t, "web-dev", tag.Slug)

	_, err = fx.taxonomy.CreateTag(ctx, form.NewTag(url.Values{"tag_title": {"Web Dev"}}))
	assert.Equal(t, MsgTagTitleTaken, FieldErrors(err).Get("tag_title"))

	_, err = fx.taxonomy.CreateTag(ctx, form.NewTag(url.Values{"tag_title": {"???"}}))
	assert.Equal(t, MsgTitleNoSlug, FieldErrors(err).Get("tag_title"))

	cat, err := fx.taxonomy.CreateCategory(ctx, "Programming Languages")
	require.NoError(t, err)
	assert.Equal(t, "programming-languages", cat.Slug)

	_, err = fx.taxonomy.CreateCategory(ctx, "Programming Languages")
	assert.Equal(t, MsgCategoryTitleTaken, FieldErrors(err).Get("title"))

	_, err = fx.taxonomy.CreateCategory(ctx, "")
	assert.NotEmpty(t, FieldErrors(err).Get("title"))

	all, err := fx.taxonomy.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
