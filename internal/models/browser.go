// Package models contains data structures used across handlers
package models

import "time"

// Credentials are the connection details entered on the connect form
type Credentials struct {
	AccessKey  string `json:"accessKey"`
	SecretKey  string `json:"-"`
	Region     string `json:"region"`
	BucketName string `json:"bucketName"`
	Prefix     string `json:"prefix,omitempty"`
	Endpoint   string `json:"endpoint,omitempty"` // Set from config, never from the form
}

// Complete reports whether every required field is filled in
func (c Credentials) Complete() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.Region != "" && c.BucketName != ""
}

// FileEntry describes one stored object
type FileEntry struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	ETag         string    `json:"etag"`
}

// Region is a selectable label/value pair on the connect form
type Region struct {
	Value string
	Label string
}

// FileRow is a FileEntry decorated for the browser table
type FileRow struct {
	Key           string
	FormattedSize string
	FormattedDate string
	Selected      bool
}

// SessionWarning drives the countdown banner
type SessionWarning struct {
	Visible   bool
	Countdown string
	// PollEvery is the htmx trigger interval, e.g. "1s"
	PollEvery string
}
