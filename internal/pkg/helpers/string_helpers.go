package helpers

import "strings"

// NormalizeUsername lower-cases and trims a username. Usernames are unique
// in this form.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// EscapeLike escapes the ILIKE wildcards in a user-provided search string
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
