package data

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const blogColumns = `b.id, b.author_id, b.page_id, b.title, b.subtitle, b.slug, b.content,
	b.created_at, b.updated_at, b.is_published, b.is_private`

// SQLBlogRepository stores blogs and their tag links using sqlx.
type SQLBlogRepository struct {
	db *sqlx.DB
}

// NewSQLBlogRepository creates a new SQLBlogRepository.
func NewSQLBlogRepository(db *sqlx.DB) *SQLBlogRepository {
	return &SQLBlogRepository{db: db}
}

// CreateBlog inserts a blog with its tags in one transaction and sets its ID.
func (r *SQLBlogRepository) CreateBlog(ctx context.Context, blog *Blog, tagIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO blogs (author_id, page_id, title, subtitle, slug, content, created_at, updated_at, is_published, is_private)
		VALUES (:author_id, :page_id, :title, :subtitle, :slug, :content, :created_at, :updated_at, :is_published, :is_private)`
	res, err := tx.NamedExecContext(ctx, query, blog)
	if err != nil {
		return fmt.Errorf("failed to execute create blog query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read blog id: %w", err)
	}
	if err := replaceLinks(ctx, tx, "blog_tags", "blog_id", "tag_id", id, tagIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit blog: %w", err)
	}
	blog.ID = id
	return nil
}

// GetBlogBySlug retrieves a blog with its author, page and tags.
func (r *SQLBlogRepository) GetBlogBySlug(ctx context.Context, slug string) (*Blog, error) {
	var blog Blog
	if err := r.db.GetContext(ctx, &blog, `SELECT `+blogColumns+` FROM blogs b WHERE b.slug = ?`, slug); err != nil {
		return nil, notFound(err, "blog %q", slug)
	}
	if err := r.hydrate(ctx, []*Blog{&blog}); err != nil {
		return nil, err
	}
	return &blog, nil
}

// GetBlogByID retrieves a blog with its author, page and tags.
func (r *SQLBlogRepository) GetBlogByID(ctx context.Context, id int64) (*Blog, error) {
	var blog Blog
	if err := r.db.GetContext(ctx, &blog, `SELECT `+blogColumns+` FROM blogs b WHERE b.id = ?`, id); err != nil {
		return nil, notFound(err, "blog with id %d", id)
	}
	if err := r.hydrate(ctx, []*Blog{&blog}); err != nil {
		return nil, err
	}
	return &blog, nil
}

// UpdateBlog persists the editable fields and replaces the tags.
func (r *SQLBlogRepository) UpdateBlog(ctx context.Context, blog *Blog, tagIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE blogs SET title = :title, subtitle = :subtitle, slug = :slug, content = :content,
		updated_at = :updated_at, is_published = :is_published, is_private = :is_private WHERE id = :id`
	result, err := tx.NamedExecContext(ctx, query, blog)
	if err != nil {
		return fmt.Errorf("failed to update blog: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no blog found to update with id %d: %w", blog.ID, ErrNotFound)
	}
	if err := replaceLinks(ctx, tx, "blog_tags", "blog_id", "tag_id", blog.ID, tagIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteBlog removes a blog.
func (r *SQLBlogRepository) DeleteBlog(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blog: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no blog found to delete with id %d: %w", id, ErrNotFound)
	}
	return nil
}

// SlugExists reports whether a blog other than excludeID already uses the slug.
func (r *SQLBlogRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	ok, err := exists(ctx, r.db, `SELECT COUNT(*) FROM blogs WHERE slug = ? AND id <> ?`, slug, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check blog slug: %w", err)
	}
	return ok, nil
}

// ListBlogs returns one window of blogs matching the filter, newest first.
func (r *SQLBlogRepository) ListBlogs(ctx context.Context, f BlogFilter, limit, offset int) ([]*Blog, error) {
	w := f.where()
	query := r.db.Rebind(`SELECT ` + blogColumns + ` FROM blogs b` + w.String() +
		` ORDER BY b.created_at DESC, b.id DESC LIMIT ? OFFSET ?`)
	var blogs []*Blog
	if err := r.db.SelectContext(ctx, &blogs, query, append(w.args, limit, offset)...); err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	if err := r.hydrate(ctx, blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

// CountBlogs counts the blogs matching the filter.
func (r *SQLBlogRepository) CountBlogs(ctx context.Context, f BlogFilter) (int, error) {
	w := f.where()
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM blogs b`+w.String()), w.args...); err != nil {
		return 0, fmt.Errorf("failed to count blogs: %w", err)
	}
	return n, nil
}

// AllBlogs returns every blog with its page, for the sitemap.
func (r *SQLBlogRepository) AllBlogs(ctx context.Context) ([]*Blog, error) {
	var blogs []*Blog
	if err := r.db.SelectContext(ctx, &blogs, `SELECT `+blogColumns+` FROM blogs b ORDER BY b.id`); err != nil {
		return nil, fmt.Errorf("failed to get all blogs: %w", err)
	}
	if err := r.hydrate(ctx, blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

// SearchBlogs returns every blog whose title, subtitle, content, tag titles, page title or
// page category titles contain q, newest first. Matching is case-sensitive on every driver:
// SQL LIKE narrows the candidates and the final comparison happens in Go.
func (r *SQLBlogRepository) SearchBlogs(ctx context.Context, q string, f BlogFilter) ([]*Blog, error) {
	w := f.where()
	pattern := likePattern(q)
	w.add(`(b.title LIKE ? ESCAPE '!' OR b.subtitle LIKE ? ESCAPE '!' OR b.content LIKE ? ESCAPE '!'
		OR EXISTS (SELECT 1 FROM pages sp WHERE sp.id = b.page_id AND sp.title LIKE ? ESCAPE '!')
		OR EXISTS (SELECT 1 FROM blog_tags bt JOIN tags t ON t.id = bt.tag_id WHERE bt.blog_id = b.id AND t.title LIKE ? ESCAPE '!')
		OR EXISTS (SELECT 1 FROM page_categories pc JOIN categories c ON c.id = pc.category_id
			WHERE pc.page_id = b.page_id AND c.title LIKE ? ESCAPE '!'))`,
		pattern, pattern, pattern, pattern, pattern, pattern)

	query := r.db.Rebind(`SELECT ` + blogColumns + ` FROM blogs b` + w.String() + ` ORDER BY b.created_at DESC, b.id DESC`)
	var candidates []*Blog
	if err := r.db.SelectContext(ctx, &candidates, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to search blogs: %w", err)
	}
	if err := r.hydrate(ctx, candidates); err != nil {
		return nil, err
	}

	matches := candidates[:0]
	for _, b := range candidates {
		if blogContains(b, q) {
			matches = append(matches, b)
		}
	}
	return matches, nil
}

func blogContains(b *Blog, q string) bool {
	if strings.Contains(b.Title, q) || strings.Contains(b.Subtitle, q) || strings.Contains(b.Content, q) {
		return true
	}
	for _, t := range b.Tags {
		if strings.Contains(t.Title, q) {
			return true
		}
	}
	if b.Page == nil {
		return false
	}
	if strings.Contains(b.Page.Title, q) {
		return true
	}
	for _, c := range b.Page.Categories {
		if strings.Contains(c.Title, q) {
			return true
		}
	}
	return false
}

// hydrate attaches authors, pages (with their categories) and tags.
func (r *SQLBlogRepository) hydrate(ctx context.Context, blogs []*Blog) error {
	if len(blogs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(blogs))
	authorIDs := make([]int64, 0, len(blogs))
	pageIDs := make([]int64, 0, len(blogs))
	for _, b := range blogs {
		ids = append(ids, b.ID)
		authorIDs = append(authorIDs, b.AuthorID)
		pageIDs = append(pageIDs, b.PageID)
	}

	authors, err := getUsersByIDs(ctx, r.db, authorIDs)
	if err != nil {
		return err
	}
	tags, err := tagsForBlogs(ctx, r.db, ids)
	if err != nil {
		return err
	}
	query, args, err := in(r.db, `SELECT `+pageColumns+` FROM pages p WHERE p.id IN (?)`, pageIDs)
	if err != nil {
		return err
	}
	var pages []*Page
	if err := r.db.SelectContext(ctx, &pages, query, args...); err != nil {
		return fmt.Errorf("failed to load blog pages: %w", err)
	}
	if err := hydratePages(ctx, r.db, pages); err != nil {
		return err
	}
	byID := make(map[int64]*Page, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}

	for _, b := range blogs {
		b.Author = authors[b.AuthorID]
		b.Page = byID[b.PageID]
		b.Tags = tags[b.ID]
	}
	return nil
}
