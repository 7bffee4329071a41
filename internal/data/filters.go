package data

import "strings"

// BlogFilter narrows blog listings. Zero values mean "no constraint".
type BlogFilter struct {
	PageID   int64
	AuthorID int64
	// TagSlugs matches blogs carrying any of the tags.
	TagSlugs []string
	// HidePrivate drops private blogs, and blogs of private pages, not owned by ViewerID.
	HidePrivate bool
	ViewerID    int64
}

// PageFilter narrows page listings. Zero values mean "no constraint".
type PageFilter struct {
	// CategorySlugs matches pages in any of the categories.
	CategorySlugs []string
	IsPrivate     *bool
	CreatorID     int64
	HidePrivate   bool
	ViewerID      int64
}

// clause accumulates AND-ed conditions and their arguments.
type clause struct {
	conds []string
	args  []interface{}
}

func (c *clause) add(cond string, args ...interface{}) {
	c.conds = append(c.conds, cond)
	c.args = append(c.args, args...)
}

func (c *clause) String() string {
	if len(c.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.conds, " AND ")
}

func stringArgs(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func (f BlogFilter) where() *clause {
	c := &clause{}
	if f.PageID != 0 {
		c.add("b.page_id = ?", f.PageID)
	}
	if f.AuthorID != 0 {
		c.add("b.author_id = ?", f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		c.add(`b.id IN (SELECT bt.blog_id FROM blog_tags bt JOIN tags t ON t.id = bt.tag_id WHERE t.slug IN (`+
			placeholders(len(f.TagSlugs))+`))`, stringArgs(f.TagSlugs)...)
	}
	if f.HidePrivate {
		c.add(`((b.is_private = ? AND b.page_id IN (SELECT id FROM pages WHERE is_private = ?)) OR b.author_id = ?)`,
			false, false, f.ViewerID)
	}
	return c
}

func (f PageFilter) where() *clause {
	c := &clause{}
	if len(f.CategorySlugs) > 0 {
		c.add(`p.id IN (SELECT pc.page_id FROM page_categories pc JOIN categories c ON c.id = pc.category_id WHERE c.slug IN (`+
			placeholders(len(f.CategorySlugs))+`))`, stringArgs(f.CategorySlugs)...)
	}
	if f.IsPrivate != nil {
		c.add("p.is_private = ?", *f.IsPrivate)
	}
	if f.CreatorID != 0 {
		c.add("p.creator_id = ?", f.CreatorID)
	}
	if f.HidePrivate {
		c.add("(p.is_private = ? OR p.creator_id = ?)", false, f.ViewerID)
	}
	return c
}
