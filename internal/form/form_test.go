//go:build unit

package form

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestRegister_Validate(t *testing.T) {
	valid := url.Values{
		"username":  {"alice"},
		"email":     {"alice@example.com"},
		"password1": {"s3cure-horse"},
		"password2": {"s3cure-horse"},
	}

	tests := []struct {
		name   string
		change func(v url.Values)
		field  string
		want   string
	}{
		{"valid", func(url.Values) {}, "", ""},
		{"missing username", func(v url.Values) { v.Set("username", "") }, "username", "This field is required."},
		{"bad username", func(v url.Values) { v.Set("username", "al ice!") }, "username", "Enter a valid username."},
		{"long username", func(v url.Values) { v.Set("username", strings.Repeat("a", 151)) }, "username", "at most 150"},
		{"bad email", func(v url.Values) { v.Set("email", "nope") }, "email", "Enter a valid email address."},
		{"mismatch", func(v url.Values) { v.Set("password2", "other-horse") }, "password2", "didn't match"},
		{"short", func(v url.Values) { v.Set("password1", "a1b2"); v.Set("password2", "a1b2") }, "password2", "too short"},
		{"numeric", func(v url.Values) { v.Set("password1", "9876543210"); v.Set("password2", "9876543210") }, "password2", "entirely numeric"},
		{"common", func(v url.Values) { v.Set("password1", "password123"); v.Set("password2", "password123") }, "password2", "too common"},
		{"same as username", func(v url.Values) {
			v.Set("username", "longusername")
			v.Set("password1", "LongUsername")
			v.Set("password2", "LongUsername")
		}, "password2", "similar to the username"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := url.Values{}
			for k, vals := range valid {
				v[k] = append([]string(nil), vals...)
			}
			tc.change(v)
			errs := NewRegister(v).Validate()
			if tc.field == "" {
				if !errs.Valid() {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			found := false
			for _, msg := range errs[tc.field] {
				if strings.Contains(msg, tc.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected %q on %s, got %v", tc.want, tc.field, errs)
			}
		})
	}
}

func TestPasswordProblems_CollectsAll(t *testing.T) {
	problems := PasswordProblems("1234", "")
	if len(problems) != 3 {
		t.Errorf("expected short, numeric and common, got %v", problems)
	}
	if got := PasswordProblems("correct horse battery", "alice"); len(got) != 0 {
		t.Errorf("expected no problems, got %v", got)
	}
}

func TestProfile_Validate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	f := NewProfile(url.Values{
		"first_name": {"Ann"},
		"last_name":  {"Baker"},
		"email":      {"ann@example.com"},
		"birth_date": {"1990-02-03"},
		"job":        {" Baker "},
	})
	if errs := f.Validate(now); !errs.Valid() {
		t.Fatalf("expected valid, got %v", errs)
	}
	if f.Job != "Baker" {
		t.Errorf("expected trimmed job, got %q", f.Job)
	}
	if !f.Birth().Equal(time.Date(1990, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected birth date %v", f.Birth())
	}

	for _, bad := range []string{"", "03/02/1990", "2030-01-01"} {
		errs := NewProfile(url.Values{"birth_date": {bad}}).Validate(now)
		if errs.Get("birth_date") == "" {
			t.Errorf("expected birth_date error for %q", bad)
		}
	}
}

func TestContentForms(t *testing.T) {
	page := NewPage(url.Values{"title": {"Travel"}, "categories": {"2", "x", "5", "-1"}, "is_private": {"on"}})
	if !page.Validate().Valid() {
		t.Fatalf("expected valid page form")
	}
	if len(page.CategoryIDs) != 2 || !page.HasCategory(5) || page.HasCategory(3) {
		t.Errorf("unexpected categories %v", page.CategoryIDs)
	}
	if !page.IsPrivate {
		t.Error("expected private page")
	}

	long := NewPage(url.Values{"title": {strings.Repeat("x", 51)}})
	if long.Validate().Get("title") == "" {
		t.Error("expected title length error")
	}

	blog := NewBlog(url.Values{"title": {"Hi"}, "subtitle": {"There"}, "content": {"   "}})
	if blog.Validate().Get("content") == "" {
		t.Error("expected blank content to be rejected")
	}

	tag := NewTag(url.Values{})
	errs := tag.Validate()
	if errs.Get("tag_title") == "" || errs.Get("title") != "" {
		t.Errorf("expected error reported on tag_title, got %v", errs)
	}
}

func TestPasswordChange_Validate(t *testing.T) {
	errs := NewPasswordChange(url.Values{
		"old_password":  {"whatever"},
		"new_password1": {"bob"},
		"new_password2": {"bob"},
	}).Validate("bob")
	msgs := errs["new_password2"]
	if len(msgs) != 2 {
		t.Errorf("expected short and similar errors, got %v", msgs)
	}
}
