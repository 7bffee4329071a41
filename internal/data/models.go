package data

import (
	"html/template"
	"time"
)

// User is an account that can log in once activated.
type User struct {
	ID           int64      `db:"id"`
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	FirstName    string     `db:"first_name"`
	LastName     string     `db:"last_name"`
	PasswordHash string     `db:"password_hash"`
	IsActive     bool       `db:"is_active"`
	LastLogin    *time.Time `db:"last_login"`
	DateJoined   time.Time  `db:"date_joined"`
}

// Profile holds the public details of a user. There is at most one per user.
type Profile struct {
	ID             int64     `db:"id"`
	UserID         int64     `db:"user_id"`
	Job            *string   `db:"job"`
	BirthDate      time.Time `db:"birth_date"`
	Bio            *string   `db:"bio"`
	ProfilePicture *string   `db:"profile_picture"`
	CreatedAt      time.Time `db:"created_at"`
	User           *User     `db:"-"`
}

// Age returns the number of full years between the birth date and now.
func (p *Profile) Age(now time.Time) int {
	age := now.Year() - p.BirthDate.Year()
	if now.Month() < p.BirthDate.Month() ||
		(now.Month() == p.BirthDate.Month() && now.Day() < p.BirthDate.Day()) {
		age--
	}
	return age
}

// Category groups pages.
type Category struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
	Slug  string `db:"slug"`
}

// Page is a named collection of blogs owned by its creator.
type Page struct {
	ID         int64       `db:"id"`
	CreatorID  int64       `db:"creator_id"`
	Title      string      `db:"title"`
	Slug       string      `db:"slug"`
	Image      *string     `db:"image"`
	IsPrivate  bool        `db:"is_private"`
	Creator    *User       `db:"-"`
	Categories []*Category `db:"-"`
}

// Tag labels blogs.
type Tag struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
	Slug  string `db:"slug"`
}

// Blog is an authored post belonging to exactly one page.
type Blog struct {
	ID          int64         `db:"id"`
	AuthorID    int64         `db:"author_id"`
	PageID      int64         `db:"page_id"`
	Title       string        `db:"title"`
	Subtitle    string        `db:"subtitle"`
	Slug        string        `db:"slug"`
	Content     string        `db:"content"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
	IsPublished bool          `db:"is_published"`
	IsPrivate   bool          `db:"is_private"`
	HTMLContent template.HTML `db:"-"`
	Author      *User         `db:"-"`
	Page        *Page         `db:"-"`
	Tags        []*Tag        `db:"-"`
}
