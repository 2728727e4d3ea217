package utils

import (
	"regexp"
	"strings"
)

var invalidNameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F\s]`)
var consecutiveUnderscores = regexp.MustCompile(`_+`)

const maxNameLength = 100

// SanitizeName turns a target name into a string that is safe as a single path component.
func SanitizeName(name string) string {
	sanitized := invalidNameChars.ReplaceAllString(name, "_")
	sanitized = consecutiveUnderscores.ReplaceAllString(sanitized, "_")
	sanitized = strings.Trim(sanitized, "_. ")

	if len(sanitized) > maxNameLength {
		sanitized = strings.Trim(sanitized[:maxNameLength], "_. ")
	}

	if sanitized == "" {
		sanitized = "default"
	}
	return sanitized
}
