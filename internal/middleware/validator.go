package middleware

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks basic email shape.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRe.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// SanitizeFilename reduces a client-supplied filename to a safe basename.
// Uploads keep their original names, so this is the only thing standing
// between the client and the per-user directory.
func SanitizeFilename(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = SanitizeString(name)

	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid filename")
	}
	if strings.ContainsAny(name, "/\x00") || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid characters in filename")
	}
	return name, nil
}

// reportIDRe: "{uuid}_{8 hex chars}" as produced by the analyze pipeline.
var reportIDRe = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}_[a-f0-9]{8}$`)

// ValidateReportID validates report id format
func ValidateReportID(id string) error {
	if id == "" {
		return fmt.Errorf("report ID cannot be empty")
	}
	if !reportIDRe.MatchString(id) {
		return fmt.Errorf("invalid report ID format")
	}
	return nil
}

// ValidateFormat restricts the report download format parameter.
func ValidateFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "docx":
		return "docx", nil
	case "pdf":
		return "pdf", nil
	default:
		return "", fmt.Errorf("invalid format: %s (allowed: docx, pdf)", format)
	}
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
