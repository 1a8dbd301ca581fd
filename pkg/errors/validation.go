package errors

import (
	"strings"
	"unicode"
)

// ValidateLayerID validates a caller-assigned layer identifier.
// Layer ids end up as SVG element ids and cache-key components, so the
// rules are intentionally conservative:
//   - No control characters or null bytes
//   - No whitespace
//   - Maximum length of 256 characters
//
// An empty id is valid here; callers that require a non-empty id generate
// one instead of rejecting the input.
func ValidateLayerID(id string) error {
	if len(id) > 256 {
		return New(ErrCodeInvalidLayerID, "layer id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLayerID, "layer id contains control characters")
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidLayerID, "layer id contains whitespace")
		}
	}

	if strings.Contains(id, "\x00") {
		return New(ErrCodeInvalidLayerID, "layer id contains null byte")
	}

	return nil
}

// ValidateDimensions validates a viewport width and height.
// Both must be strictly positive and finite-looking (no absurd magnitudes).
func ValidateDimensions(width, height float64) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidBounds, "dimensions must be positive, got %gx%g", width, height)
	}
	const maxDim = 1 << 24
	if width > maxDim || height > maxDim {
		return New(ErrCodeInvalidBounds, "dimensions too large, got %gx%g", width, height)
	}
	return nil
}
