package validate

import (
	"fmt"
	"regexp"
)

// Input limits shared by handlers and the /api/limits endpoint.
const (
	MaxSearchQueryLength    = 200
	MaxSettingsImportLength = 16 * 1024
	MaxResults              = 50
	VideoIDLength           = 11
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func SearchQuery(s string) string { return checkLen(s, MaxSearchQueryLength, "search query") }
func SettingsImport(s string) string {
	return checkLen(s, MaxSettingsImportLength, "settings import")
}

// VideoID checks the 11 character YouTube id format.
func VideoID(s string) string {
	if !videoIDPattern.MatchString(s) {
		return "video id must be 11 characters of letters, digits, '-' or '_'"
	}
	return ""
}

// MaxResultsParam checks a requested page size.
func MaxResultsParam(n int) string {
	if n < 1 || n > MaxResults {
		return fmt.Sprintf("max must be between 1 and %d", MaxResults)
	}
	return ""
}

// FieldLimits returns a map of field names to max lengths for the /api/limits endpoint.
func FieldLimits() map[string]int {
	return map[string]int{
		"searchQuery":    MaxSearchQueryLength,
		"settingsImport": MaxSettingsImportLength,
		"maxResults":     MaxResults,
		"videoId":        VideoIDLength,
	}
}
