package services

import (
	"errors"
	"fmt"
)

// Facade failures
var (
	ErrCredentialValidationFailed = errors.New("credential validation failed")
	ErrListingFailed              = errors.New("listing failed")
	ErrDownloadFailed             = errors.New("download failed")
)

var (
	ErrNoSelection  = errors.New("no files selected")
	ErrNotConnected = errors.New("not connected")
)

var userMessages = []struct {
	err error
	msg string
}{
	{ErrCredentialValidationFailed, "Failed to validate credentials"},
	{ErrListingFailed, "Failed to list objects"},
	{ErrDownloadFailed, "Download failed"},
	{ErrNoSelection, "Select at least one file to download"},
	{ErrNotConnected, "Session expired, please reconnect"},
}

func wrap(kind error, err error) error {
	if err == nil {
		return kind
	}
	return fmt.Errorf("%w: %v", kind, err)
}

// UserMessage converts an error into the single line shown in the UI
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Operation failed"
}
