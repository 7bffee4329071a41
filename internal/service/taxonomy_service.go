package service

import (
	"context"
	"errors"

	"go-blog-app/internal/data"
	"go-blog-app/internal/form"
	"go-blog-app/internal/slug"
)

// Taxonomy outcomes shown to users.
const (
	MsgTagTitleTaken      = "Tag with this Title already exists."
	MsgCategoryTitleTaken = "Category with this Title already exists."
)

// TaxonomyService creates tags and categories. Their slugs are derived from the title on every save.
type TaxonomyService struct {
	tags       TagRepository
	categories CategoryRepository
}

// NewTaxonomyService creates a TaxonomyService.
func NewTaxonomyService(tags TagRepository, categories CategoryRepository) *TaxonomyService {
	return &TaxonomyService{tags: tags, categories: categories}
}

// CreateTag stores a tag from the inline tag form. Problems are reported on tag_title.
func (s *TaxonomyService) CreateTag(ctx context.Context, f *form.Tag) (*data.Tag, error) {
	errs := f.Validate()
	if errs.Valid() {
		problem, err := checkTitle(ctx, f.Title, s.tags.TitleExists, MsgTagTitleTaken)
		if err != nil {
			return nil, internal(err)
		}
		if problem != "" {
			errs.Add("tag_title", problem)
		}
	}
	if !errs.Valid() {
		return nil, invalid(errs)
	}
	tag := &data.Tag{Title: f.Title, Slug: slug.Make(f.Title)}
	if _, err := s.tags.Save(ctx, tag); err != nil {
		return nil, internal(err)
	}
	return tag, nil
}

// CreateCategory stores a category with the title.
func (s *TaxonomyService) CreateCategory(ctx context.Context, title string) (*data.Category, error) {
	f := &form.Tag{Title: title}
	errs := f.Validate()
	if errs.Valid() {
		problem, err := checkTitle(ctx, title, s.categories.TitleExists, MsgCategoryTitleTaken)
		if err != nil {
			return nil, internal(err)
		}
		if problem != "" {
			errs.Add("title", problem)
		}
	} else {
		errs = form.Errors{"title": errs["tag_title"]}
	}
	if !errs.Valid() {
		return nil, invalid(errs)
	}
	category := &data.Category{Title: title, Slug: slug.Make(title)}
	if _, err := s.categories.Save(ctx, category); err != nil {
		return nil, internal(err)
	}
	return category, nil
}

// Categories returns every category.
func (s *TaxonomyService) Categories(ctx context.Context) ([]*data.Category, error) {
	categories, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return categories, nil
}

// Tags returns every tag.
func (s *TaxonomyService) Tags(ctx context.Context) ([]*data.Tag, error) {
	tags, err := s.tags.GetAll(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return tags, nil
}

// Tag returns the tag with the slug.
func (s *TaxonomyService) Tag(ctx context.Context, tagSlug string) (*data.Tag, error) {
	tag, err := s.tags.FindBySlug(ctx, tagSlug)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, notFound(MsgTagMissing, err)
		}
		return nil, internal(err)
	}
	return tag, nil
}

// checkTitle returns a problem with title, or "" when it can be used.
func checkTitle(ctx context.Context, title string, exists func(context.Context, string, int64) (bool, error), takenMsg string) (string, error) {
	if slug.Make(title) == "" {
		return MsgTitleNoSlug, nil
	}
	taken, err := exists(ctx, title, 0)
	if err != nil {
		return "", err
	}
	if taken {
		return takenMsg, nil
	}
	return "", nil
}
