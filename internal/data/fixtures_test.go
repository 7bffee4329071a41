//go:build integration

package data

import (
	"context"
	"testing"
	"time"

	"go-blog-app/internal/data/datatest"

	"github.com/jmoiron/sqlx"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	return datatest.New(t)
}

func mustUser(t *testing.T, db *sqlx.DB, username string) *User {
	t.Helper()
	u := &User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
		DateJoined:   baseTime,
	}
	if err := NewSQLUserRepository(db).CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}

func mustPage(t *testing.T, db *sqlx.DB, creator *User, title, slug string, private bool, categoryIDs ...int64) *Page {
	t.Helper()
	p := &Page{CreatorID: creator.ID, Title: title, Slug: slug, IsPrivate: private}
	if err := NewSQLPageRepository(db).CreatePage(context.Background(), p, categoryIDs); err != nil {
		t.Fatalf("failed to create page %s: %v", title, err)
	}
	return p
}

func mustBlog(t *testing.T, db *sqlx.DB, author *User, page *Page, title, slug string, age time.Duration, tagIDs ...int64) *Blog {
	t.Helper()
	created := baseTime.Add(-age)
	b := &Blog{
		AuthorID:    author.ID,
		PageID:      page.ID,
		Title:       title,
		Subtitle:    "sub " + title,
		Slug:        slug,
		Content:     "body of " + title,
		CreatedAt:   created,
		UpdatedAt:   created,
		IsPublished: true,
	}
	if err := NewSQLBlogRepository(db).CreateBlog(context.Background(), b, tagIDs); err != nil {
		t.Fatalf("failed to create blog %s: %v", title, err)
	}
	return b
}

func mustTag(t *testing.T, db *sqlx.DB, title, slug string) *Tag {
	t.Helper()
	tag := &Tag{Title: title, Slug: slug}
	if _, err := NewTagRepository(db).Save(context.Background(), tag); err != nil {
		t.Fatalf("failed to create tag %s: %v", title, err)
	}
	return tag
}

func mustCategory(t *testing.T, db *sqlx.DB, title, slug string) *Category {
	t.Helper()
	c := &Category{Title: title, Slug: slug}
	if _, err := NewCategoryRepository(db).Save(context.Background(), c); err != nil {
		t.Fatalf("failed to create category %s: %v", title, err)
	}
	return c
}
