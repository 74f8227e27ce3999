package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 1000
)

// ValidateTitle validates a goal title
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)

	if trimmed == "" {
		return errors.New("title is required")
	}

	if utf8.RuneCountInString(trimmed) > maxTitleLength {
		return errors.New("title is too long (max 100 characters)")
	}

	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return errors.New("description is too long (max 1000 characters)")
	}
	return nil
}
