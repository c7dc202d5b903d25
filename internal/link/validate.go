package link

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	MinSlugLength        = 3
	MaxSlugLength        = 64
	MaxURILength         = 2048
	MaxDescriptionLength = 1024
)

// Validate checks a creation payload.
func (nl NewLink) Validate() error {
	if nl.Slug != nil {
		if err := ValidateSlug(*nl.Slug); err != nil {
			return err
		}
	}
	if err := ValidateURI(nl.URI); err != nil {
		return err
	}
	return validateDescription(nl.Description)
}

// Validate checks the fields an update sets.
func (u LinkUpdate) Validate() error {
	if u.Slug.Op == PatchValue {
		if err := ValidateSlug(u.Slug.Value); err != nil {
			return err
		}
	}
	if u.URI != nil {
		if err := ValidateURI(*u.URI); err != nil {
			return err
		}
	}
	if u.Description != nil {
		return validateDescription(*u.Description)
	}
	return nil
}

// ValidateURI accepts absolute http(s) URLs with a host.
func ValidateURI(raw string) error {
	if raw == "" {
		return errors.New("uri cannot be empty")
	}
	if len(raw) > MaxURILength {
		return fmt.Errorf("uri too long (max %d characters)", MaxURILength)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return errors.New("invalid uri format")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("uri scheme must be http or https")
	}
	if parsed.Host == "" {
		return errors.New("uri must include host")
	}
	return nil
}

// ValidateSlug accepts 3-64 characters of [A-Za-z0-9_-] that neither start
// nor end with '-' or '_'.
func ValidateSlug(slug string) error {
	if len(slug) < MinSlugLength {
		return fmt.Errorf("slug too short (minimum %d characters)", MinSlugLength)
	}
	if len(slug) > MaxSlugLength {
		return fmt.Errorf("slug too long (maximum %d characters)", MaxSlugLength)
	}
	if strings.HasPrefix(slug, "-") || strings.HasPrefix(slug, "_") ||
		strings.HasSuffix(slug, "-") || strings.HasSuffix(slug, "_") {
		return errors.New("slug cannot start or end with dash or underscore")
	}
	for _, c := range slug {
		if !isSlugChar(c) {
			return errors.New("slug contains invalid characters (only alphanumeric, dash, and underscore allowed)")
		}
	}
	return nil
}

func validateDescription(d string) error {
	if len(d) > MaxDescriptionLength {
		return fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	}
	return nil
}

func isSlugChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	default:
		return false
	}
}
