package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const pageColumns = `p.id, p.creator_id, p.title, p.slug, p.image, p.is_private`

// SQLPageRepository is a concrete implementation of the PageRepository interface using sqlx.
type SQLPageRepository struct {
	db *sqlx.DB
}

// NewSQLPageRepository creates a new SQLPageRepository.
func NewSQLPageRepository(db *sqlx.DB) *SQLPageRepository {
	return &SQLPageRepository{db: db}
}

// CreatePage inserts a page with its categories in one transaction and sets its ID.
func (r *SQLPageRepository) CreatePage(ctx context.Context, page *Page, categoryIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO pages (creator_id, title, slug, image, is_private)
		VALUES (:creator_id, :title, :slug, :image, :is_private)`
	res, err := tx.NamedExecContext(ctx, query, page)
	if err != nil {
		return fmt.Errorf("failed to execute create page query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read page id: %w", err)
	}
	if err := replaceLinks(ctx, tx, "page_categories", "page_id", "category_id", id, categoryIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit page: %w", err)
	}
	page.ID = id
	return nil
}

// GetPageBySlug retrieves a single page with its creator and categories.
func (r *SQLPageRepository) GetPageBySlug(ctx context.Context, slug string) (*Page, error) {
	var page Page
	query := `SELECT ` + pageColumns + ` FROM pages p WHERE p.slug = ?`
	if err := r.db.GetContext(ctx, &page, query, slug); err != nil {
		return nil, notFound(err, "page %q", slug)
	}
	if err := r.hydrate(ctx, []*Page{&page}); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPageByID retrieves a single page with its creator and categories.
func (r *SQLPageRepository) GetPageByID(ctx context.Context, id int64) (*Page, error) {
	var page Page
	query := `SELECT ` + pageColumns + ` FROM pages p WHERE p.id = ?`
	if err := r.db.GetContext(ctx, &page, query, id); err != nil {
		return nil, notFound(err, "page with id %d", id)
	}
	if err := r.hydrate(ctx, []*Page{&page}); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePage updates an existing page and replaces its categories.
func (r *SQLPageRepository) UpdatePage(ctx context.Context, page *Page, categoryIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE pages SET title = :title, slug = :slug, image = :image, is_private = :is_private WHERE id = :id`
	result, err := tx.NamedExecContext(ctx, query, page)
	if err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no page found to update with id %d: %w", page.ID, ErrNotFound)
	}
	if err := replaceLinks(ctx, tx, "page_categories", "page_id", "category_id", page.ID, categoryIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// ListPages returns one window of pages matching the filter, ordered by title.
func (r *SQLPageRepository) ListPages(ctx context.Context, f PageFilter, limit, offset int) ([]*Page, error) {
	w := f.where()
	query := r.db.Rebind(`SELECT ` + pageColumns + ` FROM pages p` + w.String() + ` ORDER BY p.title LIMIT ? OFFSET ?`)
	var pages []*Page
	if err := r.db.SelectContext(ctx, &pages, query, append(w.args, limit, offset)...); err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	if err := r.hydrate(ctx, pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// CountPages counts the pages matching the filter.
func (r *SQLPageRepository) CountPages(ctx context.Context, f PageFilter) (int, error) {
	w := f.where()
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM pages p`+w.String()), w.args...); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// AllPages returns every page without relations, for the sitemap.
func (r *SQLPageRepository) AllPages(ctx context.Context) ([]*Page, error) {
	var pages []*Page
	if err := r.db.SelectContext(ctx, &pages, `SELECT `+pageColumns+` FROM pages p ORDER BY p.id`); err != nil {
		return nil, fmt.Errorf("failed to get all pages: %w", err)
	}
	return pages, nil
}

// TitleExists reports whether another page already uses the title.
func (r *SQLPageRepository) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	ok, err := exists(ctx, r.db, `SELECT COUNT(*) FROM pages WHERE title = ? AND id <> ?`, title, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check page title: %w", err)
	}
	return ok, nil
}

// SlugExists reports whether another page already uses the slug.
func (r *SQLPageRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	ok, err := exists(ctx, r.db, `SELECT COUNT(*) FROM pages WHERE slug = ? AND id <> ?`, slug, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check page slug: %w", err)
	}
	return ok, nil
}

// DeletePage removes a page; its blogs cascade.
func (r *SQLPageRepository) DeletePage(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no page found to delete with id %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLPageRepository) hydrate(ctx context.Context, pages []*Page) error {
	return hydratePages(ctx, r.db, pages)
}

// hydratePages attaches creators and categories to pages.
func hydratePages(ctx context.Context, db *sqlx.DB, pages []*Page) error {
	if len(pages) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(pages))
	creatorIDs := make([]int64, 0, len(pages))
	for _, p := range pages {
		ids = append(ids, p.ID)
		creatorIDs = append(creatorIDs, p.CreatorID)
	}
	users, err := getUsersByIDs(ctx, db, creatorIDs)
	if err != nil {
		return err
	}
	categories, err := categoriesForPages(ctx, db, ids)
	if err != nil {
		return err
	}
	for _, p := range pages {
		p.Creator = users[p.CreatorID]
		p.Categories = categories[p.ID]
	}
	return nil
}
