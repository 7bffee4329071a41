package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TagRepository handles database operations for tags.
type TagRepository struct {
	DB *sqlx.DB
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{DB: db}
}

// FindBySlug finds a tag by slug.
func (r *TagRepository) FindBySlug(ctx context.Context, slug string) (*Tag, error) {
	var tag Tag
	if err := r.DB.GetContext(ctx, &tag, "SELECT id, title, slug FROM tags WHERE slug = ?", slug); err != nil {
		return nil, notFound(err, "tag %q", slug)
	}
	return &tag, nil
}

// GetAll retrieves all tags ordered by title.
func (r *TagRepository) GetAll(ctx context.Context) ([]*Tag, error) {
	var tags []*Tag
	if err := r.DB.SelectContext(ctx, &tags, "SELECT id, title, slug FROM tags ORDER BY title"); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetByIDs returns the tags with the given IDs, ignoring unknown ones.
func (r *TagRepository) GetByIDs(ctx context.Context, ids []int64) ([]*Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := in(r.DB, "SELECT id, title, slug FROM tags WHERE id IN (?) ORDER BY title", ids)
	if err != nil {
		return nil, err
	}
	var tags []*Tag
	if err := r.DB.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get tags by id: %w", err)
	}
	return tags, nil
}

// TitleExists reports whether another tag already uses the title.
func (r *TagRepository) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	return exists(ctx, r.DB, "SELECT COUNT(*) FROM tags WHERE title = ? AND id <> ?", title, excludeID)
}

// Save creates a new tag and returns its ID.
func (r *TagRepository) Save(ctx context.Context, tag *Tag) (int64, error) {
	res, err := r.DB.NamedExecContext(ctx, "INSERT INTO tags (title, slug) VALUES (:title, :slug)", tag)
	if err != nil {
		return 0, fmt.Errorf("failed to save tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	tag.ID = id
	return id, nil
}

// tagsForBlogs loads the tags of each blog.
func tagsForBlogs(ctx context.Context, db *sqlx.DB, blogIDs []int64) (map[int64][]*Tag, error) {
	out := make(map[int64][]*Tag, len(blogIDs))
	if len(blogIDs) == 0 {
		return out, nil
	}
	query, args, err := in(db, `SELECT bt.blog_id, t.id, t.title, t.slug FROM blog_tags bt
		JOIN tags t ON t.id = bt.tag_id WHERE bt.blog_id IN (?) ORDER BY t.title`, blogIDs)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		BlogID int64 `db:"blog_id"`
		Tag
	}
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load blog tags: %w", err)
	}
	for i := range rows {
		t := rows[i].Tag
		out[rows[i].BlogID] = append(out[rows[i].BlogID], &t)
	}
	return out, nil
}
