package youtube

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	gobreaker "github.com/sony/gobreaker/v2"
	"google.golang.org/api/googleapi"
)

type ErrorKind string

const (
	KindQuota        ErrorKind = "quota"
	KindNetwork      ErrorKind = "network"
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindUnknown      ErrorKind = "unknown"
)

// APIError is the classified form of every failure returned by Client.
// UserMessage is safe to show on a page.
type APIError struct {
	Kind        ErrorKind `json:"kind"`
	Message     string    `json:"message"`
	UserMessage string    `json:"userMessage"`
	CanRetry    bool      `json:"canRetry"`
	cause       error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

var ErrSignInRequired = errors.New("youtube: user must be authenticated")

func notFound(message, userMessage string) *APIError {
	return &APIError{
		Kind:        KindNotFound,
		Message:     message,
		UserMessage: userMessage,
	}
}

func classify(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, ErrSignInRequired) {
		return &APIError{
			Kind:        KindUnauthorized,
			Message:     err.Error(),
			UserMessage: "Authentication failed! Please sign in again.",
			cause:       err,
		}
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &APIError{
			Kind:        KindNetwork,
			Message:     "YouTube API temporarily unavailable: " + err.Error(),
			UserMessage: "Connection problems! Check your internet and try again.",
			CanRetry:    true,
			cause:       err,
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch {
		case isQuotaError(gErr):
			return &APIError{
				Kind:        KindQuota,
				Message:     "YouTube API quota exceeded",
				UserMessage: "We've hit our daily limit for YouTube videos! Try again tomorrow or check back later.",
				cause:       err,
			}
		case gErr.Code == 404:
			return &APIError{
				Kind:        KindNotFound,
				Message:     "Resource not found",
				UserMessage: "Video not found! It might have been removed or made private.",
				cause:       err,
			}
		case gErr.Code == 401:
			return &APIError{
				Kind:        KindUnauthorized,
				Message:     "Unauthorized access",
				UserMessage: "Authentication failed! Please sign in again.",
				cause:       err,
			}
		}
		return unknown(gErr.Message, err)
	}

	if isNetworkError(err) {
		return &APIError{
			Kind:        KindNetwork,
			Message:     "Network connection failed",
			UserMessage: "Connection problems! Check your internet and try again.",
			CanRetry:    true,
			cause:       err,
		}
	}

	return unknown(err.Error(), err)
}

func unknown(message string, cause error) *APIError {
	if message == "" {
		message = "Unknown error occurred"
	}
	return &APIError{
		Kind:        KindUnknown,
		Message:     message,
		UserMessage: "Something went wrong! Please try again in a few minutes.",
		CanRetry:    true,
		cause:       cause,
	}
}

func isQuotaError(e *googleapi.Error) bool {
	for _, item := range e.Errors {
		switch item.Reason {
		case "quotaExceeded", "dailyLimitExceeded":
			return true
		}
	}
	msg := strings.ToLower(e.Message)
	if strings.Contains(msg, "quota") {
		return true
	}
	return e.Code == 403 && strings.Contains(msg, "exceeded")
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// breakerNeutral reports errors that say nothing about the API's health.
func breakerNeutral(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch gErr.Code {
		case 400, 401, 404:
			return true
		}
	}
	return false
}
