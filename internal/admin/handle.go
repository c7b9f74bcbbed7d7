package admin

import (
	"strings"
)

// Slugify derives the URL-safe handle from a product name: lowercase with
// whitespace runs collapsed to single hyphens.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
