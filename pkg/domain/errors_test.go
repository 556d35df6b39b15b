package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ValidationError{Field: "level", Reason: "out of range"}, "VALIDATION_FAILED"},
		{fmt.Errorf("%w: no tiers left", ErrCredential), "CREDENTIAL_UNAVAILABLE"},
		{&RemoteServiceError{StatusCode: 401}, "REMOTE_UNAUTHORIZED"},
		{&RemoteServiceError{StatusCode: 503, Body: "busy"}, "REMOTE_FAILED"},
		{fmt.Errorf("%w: bad token", ErrRemoteContentInvalid), "REMOTE_CONTENT_INVALID"},
		{ErrRemoteUnavailable, "REMOTE_UNAVAILABLE"},
		{ErrFallbackExhausted, "FALLBACK_FAILED"},
		{&DomainError{Err: ErrValidation, Code: "CUSTOM"}, "CUSTOM"},
		{errors.New("boom"), "INTERNAL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCode(tt.err), "%v", tt.err)
	}
}

func TestDomainError_MarshalJSON(t *testing.T) {
	err := &DomainError{
		Err:     fmt.Errorf("%w: rewrite failed", ErrFallbackExhausted),
		Code:    "FALLBACK_FAILED",
		Details: map[string]any{"requestId": "r-1"},
	}

	data, mErr := json.Marshal(TransformationResult{RequestID: "r-1", Failure: err})
	require.NoError(t, mErr)

	var decoded struct {
		Failure struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"failure"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FALLBACK_FAILED", decoded.Failure.Code)
	assert.Equal(t, "local fallback failed: rewrite failed", decoded.Failure.Message)
	assert.Equal(t, "r-1", decoded.Failure.Details["requestId"])

	plain, mErr := json.Marshal(TransformationResult{RequestID: "r-2"})
	require.NoError(t, mErr)
	assert.NotContains(t, string(plain), "failure")
}

func TestRemoteServiceError(t *testing.T) {
	unauthorized := &RemoteServiceError{StatusCode: 401}
	assert.ErrorIs(t, unauthorized, ErrUnauthorized)
	assert.ErrorIs(t, unauthorized, ErrRemoteService)

	failed := &RemoteServiceError{StatusCode: 500, Body: "oops"}
	assert.NotErrorIs(t, failed, ErrUnauthorized)
	assert.Equal(t, "remote service returned status 500: oops", failed.Error())
}

func TestCredentialValidAt(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := Credential{Value: "v", FetchedAt: now, ExpiresAt: now.Add(time.Minute)}

	assert.True(t, c.ValidAt(now))
	assert.False(t, c.ValidAt(now.Add(time.Minute)))
	assert.False(t, Credential{ExpiresAt: now.Add(time.Minute)}.ValidAt(now))
	assert.True(t, Credential{}.IsZero())
}

func TestActiveFeatures(t *testing.T) {
	p := PatternProfile{Has2DCanvas: true, HasParticleSystem: true}
	assert.Equal(t, []string{"has2DCanvas", "hasParticleSystem"}, p.ActiveFeatures())
	assert.Empty(t, PatternProfile{}.ActiveFeatures())
}

func TestCredentialLogValueOmitsSecret(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("fetched", "credential", Credential{Value: "top-secret", SubjectID: "user-7"})

	assert.NotContains(t, buf.String(), "top-secret")
	assert.Contains(t, buf.String(), "credential.subject_id=user-7")
}
