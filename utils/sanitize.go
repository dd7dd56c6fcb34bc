package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans user generated HTML in post and comment bodies.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
