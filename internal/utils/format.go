// Package utils provides shared utility functions
package utils

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes converts bytes to human-readable format (e.g., "1.5 MiB")
func FormatBytes(bytes uint64) string {
	return humanize.IBytes(bytes)
}

// FormatFileSize converts file size (int64) to human-readable format
func FormatFileSize(size int64) string {
	if size < 0 {
		return "0 B"
	}
	return FormatBytes(uint64(size))
}

// FormatDate renders a timestamp the way the file table shows it
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2, 2006 15:04")
}
