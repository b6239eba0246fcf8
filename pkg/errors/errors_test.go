package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassified_IsAndKindOf(t *testing.T) {
	err := Classified(KindUserNotFound, "User not found on GitHub", "octocat does not exist", nil)
	wrapped := fmt.Errorf("resolving user: %w", err)

	assert.True(t, errors.Is(wrapped, ErrUserNotFound))
	assert.False(t, errors.Is(wrapped, ErrFetchFailed))
	assert.Equal(t, KindUserNotFound, KindOf(wrapped))
	assert.Equal(t, "USER_NOT_FOUND", err.Reference)
	assert.Equal(t, LevelInfo, err.Level)
}

func TestKindOf_LooksThroughUnclassifiedWrapper(t *testing.T) {
	inner := Classified(KindRateLimited, "Rate limited", "", nil)
	outer := New("GITHUB_API_ERROR", "Failed to fetch", "", inner, LevelError)

	assert.Equal(t, KindRateLimited, KindOf(outer))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestUnclassifiedErrorDoesNotMatchSentinels(t *testing.T) {
	err := New("DB_USER_ERROR", "Failed", "", nil, LevelError)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestWriteHTTPError_KindStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{KindEmptyInput, http.StatusBadRequest},
		{KindInvalidFormat, http.StatusBadRequest},
		{KindUserNotFound, http.StatusNotFound},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindAuthFailure, http.StatusBadGateway},
		{KindFetchFailed, http.StatusBadGateway},
		{KindNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			cause := errors.New("Bad credentials: token ghp_secret")
			WriteHTTPError(rec, Classified(tt.kind, "Lookup failed", "internal detail", cause))

			assert.Equal(t, tt.status, rec.Code)

			var body HTTPErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.kind.String(), body.ErrorRef)
			assert.Equal(t, UserMessage(tt.kind), body.Resolution)
			assert.NotContains(t, rec.Body.String(), "ghp_secret")
			assert.Empty(t, body.Detail)
		})
	}
}

func TestWriteHTTPError_PlainErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTPError(rec, errors.New("pq: connection refused on 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestWriteHTTPError_UnclassifiedLevels(t *testing.T) {
	tests := []struct {
		name       string
		level      ErrorLevel
		status     int
		wantDetail bool
	}{
		{"fatal", LevelFatal, http.StatusInternalServerError, false},
		{"error", LevelError, http.StatusInternalServerError, false},
		{"warning", LevelWarning, http.StatusConflict, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			cause := errors.New("pq: connection refused on 10.0.0.3")
			WriteHTTPError(rec, New("DB_STATS_ERROR", "Failed to count users", "Error while counting wrapped records", cause, tt.level))

			assert.Equal(t, tt.status, rec.Code)

			var body HTTPErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, "DB_STATS_ERROR", body.ErrorRef)
			assert.Equal(t, "Failed to count users", body.Title)
			assert.NotContains(t, rec.Body.String(), "10.0.0.3")
			if tt.wantDetail {
				assert.Equal(t, "Error while counting wrapped records", body.Detail)
			} else {
				assert.Empty(t, body.Detail)
			}
		})
	}
}
