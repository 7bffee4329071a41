package handler

import (
	"net/url"
	"strconv"

	"go-blog-app/internal/data"
)

// blogFilter reads the listing filter: page_id and any number of tags (slugs).
func blogFilter(q url.Values) data.BlogFilter {
	f := data.BlogFilter{TagSlugs: nonEmpty(q["tags"])}
	if id, err := strconv.ParseInt(q.Get("page_id"), 10, 64); err == nil && id > 0 {
		f.PageID = id
	}
	return f
}

// pageFilter reads the page listing filter: any number of category slugs and
// is_private as "true" or "false". Anything else leaves privacy unconstrained.
func pageFilter(q url.Values) data.PageFilter {
	f := data.PageFilter{CategorySlugs: nonEmpty(q["category"])}
	switch q.Get("is_private") {
	case "true":
		v := true
		f.IsPrivate = &v
	case "false":
		v := false
		f.IsPrivate = &v
	}
	return f
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func pagePath(pageSlug string) string { return "/pages/" + pageSlug }

func blogPath(pageSlug, blogSlug string) string { return "/pages/" + pageSlug + "/" + blogSlug }

func profilePath(username string) string { return "/profile/" + url.PathEscape(username) }
