package enhancer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/polisai/codeforge/pkg/domain"
)

// Validate checks the request shape. It has no side effects.
func Validate(req domain.TransformationRequest) error {
	switch {
	case strings.TrimSpace(req.SourceCode) == "":
		return &domain.ValidationError{Field: "sourceCode", Reason: "must not be empty"}
	case len(req.SourceCode) > domain.MaxSourceBytes:
		return &domain.ValidationError{Field: "sourceCode", Reason: "exceeds 5 MiB"}
	case !utf8.ValidString(req.SourceCode):
		return &domain.ValidationError{Field: "sourceCode", Reason: "must be valid UTF-8 text"}
	case req.Level < domain.MinLevel || req.Level > domain.MaxLevel:
		return &domain.ValidationError{
			Field:  "level",
			Reason: fmt.Sprintf("must be an integer between %d and %d, got %d", domain.MinLevel, domain.MaxLevel, req.Level),
		}
	case strings.TrimSpace(req.RequestID) == "":
		return &domain.ValidationError{Field: "requestId", Reason: "must be present"}
	}
	return nil
}
