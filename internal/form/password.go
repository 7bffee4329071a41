package form

import (
	_ "embed"
	"strings"
	"unicode"
)

const minPasswordLength = 8

//go:embed common_passwords.txt
var commonPasswordList string

var commonPasswords = func() map[string]bool {
	set := make(map[string]bool)
	for _, line := range strings.Split(commonPasswordList, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			set[line] = true
		}
	}
	return set
}()

// PasswordProblems lists every rule the password breaks.
func PasswordProblems(password, username string) []string {
	var problems []string
	if len([]rune(password)) < minPasswordLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		problems = append(problems, "This password is entirely numeric.")
	}
	if commonPasswords[strings.ToLower(password)] {
		problems = append(problems, "This password is too common.")
	}
	if username != "" && strings.EqualFold(password, username) {
		problems = append(problems, "The password is too similar to the username.")
	}
	return problems
}

// checkNewPassword validates a password pair and records problems on field2.
func checkNewPassword(errs Errors, field2, password1, password2, username string) {
	if password1 == "" || password2 == "" {
		return
	}
	if password1 != password2 {
		errs.Add(field2, "The two password fields didn't match.")
		return
	}
	for _, p := range PasswordProblems(password2, username) {
		errs.Add(field2, p)
	}
}
