package fs

import (
	"path/filepath"
	"regexp"
	"strings"
)

// SanitizeFilePath sanitizes a file path to prevent directory traversal attacks
func SanitizeFilePath(path string) string {
	path = filepath.ToSlash(strings.ReplaceAll(path, "\\", "/"))

	// Remove any "." or ".." components
	parts := strings.Split(path, "/")
	sanitizedParts := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." && part != ".." {
			sanitizedParts = append(sanitizedParts, part)
		}
	}
	return strings.Join(sanitizedParts, "/")
}

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// FormatProjectName turns free text into a usable directory name
func FormatProjectName(name string) string {
	formatted := invalidNameChars.ReplaceAllString(strings.TrimSpace(name), "-")

	// Remove leading hyphens, underscores or dots
	formatted = strings.TrimLeft(formatted, "-_.")

	if formatted == "" {
		formatted = "devspark-project"
	}
	return formatted
}

// IsValidProjectName checks if the given project name is valid
func IsValidProjectName(name string) bool {
	matched, _ := regexp.MatchString(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]*$`, name)
	return matched
}
