package domain

import (
	"log/slog"
	"time"
)

// Credential is a short-lived value required to call the remote completion service.
// Credentials are immutable; a refresh produces a new value.
type Credential struct {
	Value     string
	FetchedAt time.Time
	ExpiresAt time.Time
	SubjectID string
}

// ValidAt reports whether the credential can be served without a refetch at now.
func (c Credential) ValidAt(now time.Time) bool {
	return c.Value != "" && now.Before(c.ExpiresAt)
}

// IsZero reports whether the credential is unset.
func (c Credential) IsZero() bool {
	return c.Value == ""
}

// LogValue keeps the secret out of structured logs.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("subject_id", c.SubjectID),
		slog.Time("expires_at", c.ExpiresAt),
	)
}
