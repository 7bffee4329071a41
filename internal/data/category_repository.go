package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CategoryRepository handles database operations for categories.
type CategoryRepository struct {
	DB *sqlx.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

// FindBySlug finds a category by slug.
func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*Category, error) {
	var category Category
	if err := r.DB.GetContext(ctx, &category, "SELECT id, title, slug FROM categories WHERE slug = ?", slug); err != nil {
		return nil, notFound(err, "category %q", slug)
	}
	return &category, nil
}

// GetAll retrieves all categories ordered by title.
func (r *CategoryRepository) GetAll(ctx context.Context) ([]*Category, error) {
	var categories []*Category
	if err := r.DB.SelectContext(ctx, &categories, "SELECT id, title, slug FROM categories ORDER BY title"); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// GetByIDs returns the categories with the given IDs, ignoring unknown ones.
func (r *CategoryRepository) GetByIDs(ctx context.Context, ids []int64) ([]*Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := in(r.DB, "SELECT id, title, slug FROM categories WHERE id IN (?) ORDER BY title", ids)
	if err != nil {
		return nil, err
	}
	var categories []*Category
	if err := r.DB.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get categories by id: %w", err)
	}
	return categories, nil
}

// TitleExists reports whether another category already uses the title.
func (r *CategoryRepository) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	return exists(ctx, r.DB, "SELECT COUNT(*) FROM categories WHERE title = ? AND id <> ?", title, excludeID)
}

// Save creates a new category and returns its ID.
func (r *CategoryRepository) Save(ctx context.Context, category *Category) (int64, error) {
	res, err := r.DB.NamedExecContext(ctx, "INSERT INTO categories (title, slug) VALUES (:title, :slug)", category)
	if err != nil {
		return 0, fmt.Errorf("failed to save category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	category.ID = id
	return id, nil
}

// categoriesForPages loads the categories of each page.
func categoriesForPages(ctx context.Context, db *sqlx.DB, pageIDs []int64) (map[int64][]*Category, error) {
	out := make(map[int64][]*Category, len(pageIDs))
	if len(pageIDs) == 0 {
		return out, nil
	}
	query, args, err := in(db, `SELECT pc.page_id, c.id, c.title, c.slug FROM page_categories pc
		JOIN categories c ON c.id = pc.category_id WHERE pc.page_id IN (?) ORDER BY c.title`, pageIDs)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		PageID int64 `db:"page_id"`
		Category
	}
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load page categories: %w", err)
	}
	for i := range rows {
		c := rows[i].Category
		out[rows[i].PageID] = append(out[rows[i].PageID], &c)
	}
	return out, nil
}
