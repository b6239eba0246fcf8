package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
)

type ErrorLevel int

const (
	LevelFatal ErrorLevel = iota + 1
	LevelError
	LevelWarning
	LevelInfo
)

func (l ErrorLevel) String() string {
	return [...]string{"", "Fatal", "Error", "Warning", "Info"}[l]
}

// * Kind is the closed set of failure classes a wrapped lookup can end with.
// * Boundary adapters classify raw failures into a Kind once; callers never re-parse messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindEmptyInput
	KindInvalidFormat
	KindUserNotFound
	KindAuthFailure
	KindRateLimited
	KindFetchFailed
	KindNotFound
)

func (k Kind) String() string {
	return [...]string{
		"UNKNOWN",
		"EMPTY_INPUT",
		"INVALID_FORMAT",
		"USER_NOT_FOUND",
		"AUTH_FAILURE",
		"RATE_LIMITED",
		"FETCH_FAILED",
		"NOT_FOUND",
	}[k]
}

func (k Kind) level() ErrorLevel {
	switch k {
	case KindEmptyInput, KindInvalidFormat, KindUserNotFound, KindNotFound:
		return LevelInfo
	case KindRateLimited:
		return LevelWarning
	default:
		return LevelError
	}
}

// * Sentinels so callers can write errors.Is(err, errors.ErrUserNotFound)
var (
	ErrEmptyInput    = &ApplicationError{Kind: KindEmptyInput}
	ErrInvalidFormat = &ApplicationError{Kind: KindInvalidFormat}
	ErrUserNotFound  = &ApplicationError{Kind: KindUserNotFound}
	ErrAuthFailure   = &ApplicationError{Kind: KindAuthFailure}
	ErrRateLimited   = &ApplicationError{Kind: KindRateLimited}
	ErrFetchFailed   = &ApplicationError{Kind: KindFetchFailed}
	ErrNotFound      = &ApplicationError{Kind: KindNotFound}
)

type ApplicationError struct {
	Reference   string
	Title       string
	Detail      string
	RootCause   error
	Level       ErrorLevel
	Kind        Kind
	OccurredAt  time.Time
	CallerTrace []string
}

func (e *ApplicationError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s][%s] %s", e.OccurredAt.Format(time.RFC3339), e.Reference, e.Title)

	if e.Detail != "" {
		fmt.Fprintf(&b, " - %s", e.Detail)
	}

	if e.RootCause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.RootCause)
	}

	return b.String()
}

func (e *ApplicationError) Unwrap() error {
	return e.RootCause
}

// * Is matches kind sentinels; unclassified errors only match themselves
func (e *ApplicationError) Is(target error) bool {
	t, ok := target.(*ApplicationError)
	if !ok {
		return false
	}
	return t.Kind != KindUnknown && t.Kind == e.Kind
}

func New(ref, title, detail string, cause error, level ErrorLevel) *ApplicationError {
	return &ApplicationError{
		Reference:   ref,
		Title:       title,
		Detail:      detail,
		RootCause:   cause,
		Level:       level,
		OccurredAt:  time.Now().UTC(),
		CallerTrace: captureCallerInfo(3),
	}
}

func Wrap(ref, title, detail string, cause error, level ErrorLevel) *ApplicationError {
	return New(ref, title, detail, cause, level)
}

// * Classified builds an error carrying one of the lookup kinds, referenced by the kind name
func Classified(kind Kind, title, detail string, cause error) *ApplicationError {
	err := New(kind.String(), title, detail, cause, kind.level())
	err.Kind = kind
	err.CallerTrace = captureCallerInfo(3)
	return err
}

// * KindOf walks the chain and returns the first classified kind, KindUnknown otherwise
func KindOf(err error) Kind {
	for err != nil {
		var appErr *ApplicationError
		if !errors.As(err, &appErr) {
			return KindUnknown
		}
		if appErr.Kind != KindUnknown {
			return appErr.Kind
		}
		err = appErr.RootCause
	}
	return KindUnknown
}

// * UserMessage is the actionable text shown to end users; raw causes never leave the server
func UserMessage(kind Kind) string {
	switch kind {
	case KindEmptyInput:
		return "Please enter a GitHub username."
	case KindInvalidFormat:
		return "That doesn't look like a valid GitHub username."
	case KindUserNotFound:
		return "We couldn't find that GitHub user."
	case KindAuthFailure:
		return "GitHub rejected our credentials. Please check GITHUB_TOKEN."
	case KindRateLimited:
		return "GitHub rate limit exceeded. Please try again later."
	case KindNotFound:
		return "No wrapped data is available for that user yet."
	default:
		return "Something went wrong while fetching GitHub data. Please try again."
	}
}

func captureCallerInfo(skip int) []string {
	pc := make([]uintptr, 10)
	n := runtime.Callers(skip, pc)
	if n == 0 {
		return nil
	}

	pc = pc[:n]
	frames := runtime.CallersFrames(pc)

	var trace []string
	for {
		frame, more := frames.Next()
		trace = append(trace, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}

	return trace
}

type HTTPErrorResponse struct {
	Status     int       `json:"status"`
	ErrorRef   string    `json:"error_reference,omitempty"`
	Title      string    `json:"title"`
	Detail     string    `json:"detail,omitempty"`
	Resolution string    `json:"resolution,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func StatusForKind(kind Kind) int {
	switch kind {
	case KindEmptyInput, KindInvalidFormat:
		return http.StatusBadRequest
	case KindUserNotFound, KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindAuthFailure, KindFetchFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func WriteHTTPError(w http.ResponseWriter, err error) {
	var appErr *ApplicationError

	resp := HTTPErrorResponse{
		Status:    http.StatusInternalServerError,
		Title:     "An unexpected error occurred",
		Timestamp: time.Now().UTC(),
	}

	if kind := KindOf(err); kind != KindUnknown {
		resp.Status = StatusForKind(kind)
		resp.ErrorRef = kind.String()
		resp.Title = UserMessage(kind)
		resp.Resolution = UserMessage(kind)
		if errors.As(err, &appErr) {
			resp.Title = appErr.Title
		}
	} else if errors.As(err, &appErr) {
		resp.ErrorRef = appErr.Reference
		resp.Title = appErr.Title

		// * Unclassified Fatal/Error levels are server-side failures; their detail stays in the log
		switch appErr.Level {
		case LevelFatal, LevelError:
			resp.Status = http.StatusInternalServerError
			resp.Resolution = "Please contact support with the error reference"
		case LevelWarning:
			resp.Status = http.StatusConflict
			resp.Detail = appErr.Detail
			resp.Resolution = "Please review your request and try again"
		case LevelInfo:
			resp.Status = http.StatusOK
			resp.Detail = appErr.Detail
		}
	}

	logger.Error("%v", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	json.NewEncoder(w).Encode(resp)
}
