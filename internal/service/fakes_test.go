//go:build unit

package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"go-blog-app/internal/data"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/token"

	"golang.org/x/crypto/bcrypt"
)

// In-memory stand-ins for the repositories. They hand out copies so that a
// service only changes stored state through the repository methods.

type fakeUsers struct {
	byID        map[int64]*data.User
	nextID      int64
	createCalls int
}

var _ UserRepository = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[int64]*data.User{}} }

func (f *fakeUsers) add(u data.User) *data.User {
	f.nextID++
	u.ID = f.nextID
	f.byID[u.ID] = &u
	c := u
	return &c
}

func (f *fakeUsers) CreateUser(_ context.Context, u *data.User) error {
	f.createCalls++
	f.nextID++
	u.ID = f.nextID
	c := *u
	f.byID[u.ID] = &c
	return nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id int64) (*data.User, error) {
	if u, ok := f.byID[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, fmt.Errorf("user %d: %w", id, data.ErrNotFound)
}

func (f *fakeUsers) GetUserByUsername(_ context.Context, username string) (*data.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, data.ErrNotFound)
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*data.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", email, data.ErrNotFound)
}

func (f *fakeUsers) EmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	for _, u := range f.byID {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) UpdateUser(_ context.Context, u *data.User) error {
	if _, ok := f.byID[u.ID]; !ok {
		return data.ErrNotFound
	}
	c := *u
	f.byID[u.ID] = &c
	return nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id int64) error {
	delete(f.byID, id)
	return nil
}

type fakeProfiles struct {
	users  *fakeUsers
	byUser map[int64]*data.Profile
	// writeErr fails CreateProfile and UpdateProfile before anything is stored.
	writeErr error
}

var _ ProfileRepository = (*fakeProfiles)(nil)

func newFakeProfiles(users *fakeUsers) *fakeProfiles {
	return &fakeProfiles{users: users, byUser: map[int64]*data.Profile{}}
}

func (f *fakeProfiles) CreateProfile(ctx context.Context, p *data.Profile, u *data.User) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	if u != nil {
		if err := f.users.UpdateUser(ctx, u); err != nil {
			return err
		}
	}
	p.ID = int64(len(f.byUser) + 1)
	c := *p
	c.User = nil
	f.byUser[p.UserID] = &c
	return nil
}

func (f *fakeProfiles) GetProfileByUserID(_ context.Context, userID int64) (*data.Profile, error) {
	if p, ok := f.byUser[userID]; ok {
		c := *p
		return &c, nil
	}
	return nil, data.ErrNotFound
}

func (f *fakeProfiles) GetProfileByUsername(ctx context.Context, username string) (*data.Profile, error) {
	u, err := f.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	p, err := f.GetProfileByUserID(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	p.User = u
	return p, nil
}

func (f *fakeProfiles) ProfileExists(_ context.Context, userID int64) (bool, error) {
	_, ok := f.byUser[userID]
	return ok, nil
}

func (f *fakeProfiles) UpdateProfile(ctx context.Context, p *data.Profile, u *data.User) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	if u != nil {
		if err := f.users.UpdateUser(ctx, u); err != nil {
			return err
		}
	}
	c := *p
	c.User = nil
	f.byUser[p.UserID] = &c
	return nil
}

type fakeCategories struct {
	items []*data.Category
}

var _ CategoryRepository = (*fakeCategories)(nil)

func (f *fakeCategories) FindBySlug(_ context.Context, slug string) (*data.Category, error) {
	for _, c := range f.items {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, data.ErrNotFound
}

func (f *fakeCategories) GetAll(context.Context) ([]*data.Category, error) { return f.items, nil }

func (f *fakeCategories) GetByIDs(_ context.Context, ids []int64) ([]*data.Category, error) {
	var out []*data.Category
	for _, c := range f.items {
		for _, id := range ids {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (f *fakeCategories) TitleExists(_ context.Context, title string, excludeID int64) (bool, error) {
	for _, c := range f.items {
		if c.Title == title && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategories) Save(_ context.Context, c *data.Category) (int64, error) {
	c.ID = int64(len(f.items) + 1)
	f.items = append(f.items, c)
	return c.ID, nil
}

type fakeTags struct {
	items []*data.Tag
}

var _ TagRepository = (*fakeTags)(nil)

func (f *fakeTags) FindBySlug(_ context.Context, slug string) (*data.Tag, error) {
	for _, t := range f.items {
		if t.Slug == slug {
			return t, nil
		}
	}
	return nil, data.ErrNotFound
}

func (f *fakeTags) GetAll(context.Context) ([]*data.Tag, error) { return f.items, nil }

func (f *fakeTags) GetByIDs(_ context.Context, ids []int64) ([]*data.Tag, error) {
	var out []*data.Tag
	for _, t := range f.items {
		for _, id := range ids {
			if t.ID == id {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (f *fakeTags) TitleExists(_ context.Context, title string, excludeID int64) (bool, error) {
	for _, t := range f.items {
		if t.Title == title && t.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTags) Save(_ context.Context, t *data.Tag) (int64, error) {
	t.ID = int64(len(f.items) + 1)
	f.items = append(f.items, t)
	return t.ID, nil
}

type fakePages struct {
	byID     map[int64]*data.Page
	nextID   int64
	writeErr error
}

var _ PageRepository = (*fakePages)(nil)

func newFakePages() *fakePages { return &fakePages{byID: map[int64]*data.Page{}} }

func (f *fakePages) CreatePage(_ context.Context, p *data.Page, _ []int64) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.nextID++
	p.ID = f.nextID
	c := *p
	f.byID[p.ID] = &c
	return nil
}

func (f *fakePages) GetPageBySlug(_ context.Context, slug string) (*data.Page, error) {
	for _, p := range f.byID {
		if p.Slug == slug {
			c := *p
			return &c, nil
		}
	}
	return nil, fmt.Errorf("page %q: %w", slug, data.ErrNotFound)
}

func (f *fakePages) UpdatePage(_ context.Context, p *data.Page, _ []int64) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	c := *p
	f.byID[p.ID] = &c
	return nil
}

func (f *fakePages) DeletePage(_ context.Context, id int64) error {
	delete(f.byID, id)
	return nil
}

func (f *fakePages) matching(pf data.PageFilter) []*data.Page {
	var out []*data.Page
	for _, p := range f.byID {
		if pf.CreatorID != 0 && p.CreatorID != pf.CreatorID {
			continue
		}
		if pf.IsPrivate != nil && p.IsPrivate != *pf.IsPrivate {
			continue
		}
		if pf.HidePrivate && p.IsPrivate && p.CreatorID != pf.ViewerID {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (f *fakePages) ListPages(_ context.Context, pf data.PageFilter, limit, offset int) ([]*data.Page, error) {
	return pageOf(f.matching(pf), limit, offset), nil
}

func (f *fakePages) CountPages(_ context.Context, pf data.PageFilter) (int, error) {
	return len(f.matching(pf)), nil
}

func (f *fakePages) AllPages(context.Context) ([]*data.Page, error) {
	return f.matching(data.PageFilter{}), nil
}

func (f *fakePages) TitleExists(_ context.Context, title string, excludeID int64) (bool, error) {
	for _, p := range f.byID {
		if p.Title == title && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePages) SlugExists(_ context.Context, slug string, excludeID int64) (bool, error) {
	for _, p := range f.byID {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type fakeBlogs struct {
	byID   map[int64]*data.Blog
	nextID int64
}

var _ BlogRepository = (*fakeBlogs)(nil)

func newFakeBlogs() *fakeBlogs { return &fakeBlogs{byID: map[int64]*data.Blog{}} }

func (f *fakeBlogs) CreateBlog(_ context.Context, b *data.Blog, _ []int64) error {
	f.nextID++
	b.ID = f.nextID
	c := *b
	f.byID[b.ID] = &c
	return nil
}

func (f *fakeBlogs) GetBlogBySlug(_ context.Context, slug string) (*data.Blog, error) {
	for _, b := range f.byID {
		if b.Slug == slug {
			c := *b
			return &c, nil
		}
	}
	return nil, fmt.Errorf("blog %q: %w", slug, data.ErrNotFound)
}

func (f *fakeBlogs) UpdateBlog(_ context.Context, b *data.Blog, _ []int64) error {
	c := *b
	f.byID[b.ID] = &c
	return nil
}

func (f *fakeBlogs) DeleteBlog(_ context.Context, id int64) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeBlogs) SlugExists(_ context.Context, slug string, excludeID int64) (bool, error) {
	for _, b := range f.byID {
		if b.Slug == slug && b.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBlogs) matching(bf data.BlogFilter, keep func(*data.Blog) bool) []*data.Blog {
	var out []*data.Blog
	for _, b := range f.byID {
		if bf.PageID != 0 && b.PageID != bf.PageID {
			continue
		}
		if bf.AuthorID != 0 && b.AuthorID != bf.AuthorID {
			continue
		}
		if bf.HidePrivate && b.IsPrivate && b.AuthorID != bf.ViewerID {
			continue
		}
		if keep != nil && !keep(b) {
			continue
		}
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (f *fakeBlogs) ListBlogs(_ context.Context, bf data.BlogFilter, limit, offset int) ([]*data.Blog, error) {
	return pageOf(f.matching(bf, nil), limit, offset), nil
}

func (f *fakeBlogs) CountBlogs(_ context.Context, bf data.BlogFilter) (int, error) {
	return len(f.matching(bf, nil)), nil
}

func (f *fakeBlogs) AllBlogs(context.Context) ([]*data.Blog, error) {
	return f.matching(data.BlogFilter{}, nil), nil
}

func (f *fakeBlogs) SearchBlogs(_ context.Context, q string, bf data.BlogFilter) ([]*data.Blog, error) {
	return f.matching(bf, func(b *data.Blog) bool {
		return strings.Contains(b.Title, q) || strings.Contains(b.Subtitle, q) || strings.Contains(b.Content, q)
	}), nil
}

func pageOf[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

type fakeMedia struct {
	saved   []string
	deleted []string
	err     error
}

var _ MediaStore = (*fakeMedia)(nil)

func (f *fakeMedia) Save(folder string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	rel := fmt.Sprintf("%s/%d.png", folder, len(f.saved)+1)
	f.saved = append(f.saved, rel)
	return rel, nil
}

func (f *fakeMedia) Delete(rel string) error {
	f.deleted = append(f.deleted, rel)
	return nil
}

type sentMail struct {
	Subject string
	Body    string
	To      []string
}

type fakeMailer struct {
	mu   sync.Mutex
	fail bool
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, subject, body string, to []string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return false
	}
	m.sent = append(m.sent, sentMail{Subject: subject, Body: body, To: to})
	return true
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no email was sent")
	}
	return m.sent[len(m.sent)-1]
}

// testEmails renders only the link, so tests can read it back from the body.
var testEmails = fstest.MapFS{
	"templates/email/activation.txt":     {Data: []byte("{{.Link}}")},
	"templates/email/password_reset.txt": {Data: []byte("{{.Link}}")},
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(h)
}

type accountFixture struct {
	users  *fakeUsers
	mail   *fakeMailer
	tokens *token.Generator
	svc    *AccountService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	users := newFakeUsers()
	mail := &fakeMailer{}
	tokens := token.NewGenerator("test-secret", 72*time.Hour)
	svc, err := NewAccountService(users, tokens, mail, testEmails, bcrypt.MinCost, logger.Nop())
	if err != nil {
		t.Fatalf("NewAccountService: %v", err)
	}
	return &accountFixture{users: users, mail: mail, tokens: tokens, svc: svc}
}

// contentFixture wires the content services over shared fakes.
type contentFixture struct {
	users      *fakeUsers
	profiles   *fakeProfiles
	pages      *fakePages
	blogs      *fakeBlogs
	tags       *fakeTags
	categories *fakeCategories
	media      *fakeMedia
	pageSvc    *PageService
	blogSvc    *BlogService
	taxonomy   *TaxonomyService
}

func newContentFixture(hidePrivate bool) *contentFixture {
	f := &contentFixture{
		users:      newFakeUsers(),
		pages:      newFakePages(),
		blogs:      newFakeBlogs(),
		tags:       &fakeTags{},
		categories: &fakeCategories{},
		media:      &fakeMedia{},
	}
	f.profiles = newFakeProfiles(f.users)
	log := logger.Nop()
	f.pageSvc = NewPageService(f.pages, f.categories, f.profiles, f.media, hidePrivate, log)
	f.blogSvc = NewBlogService(f.blogs, f.pages, f.tags, f.profiles, NewRenderer(nil, log), hidePrivate, log)
	f.blogSvc.now = fixedClock
	f.taxonomy = NewTaxonomyService(f.tags, f.categories)
	return f
}

// member adds an active user with a profile.
func (f *contentFixture) member(username string) *data.User {
	u := f.users.add(data.User{Username: username, Email: username + "@example.com", IsActive: true})
	f.profiles.byUser[u.ID] = &data.Profile{UserID: u.ID, BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)}
	return u
}
