package config

import "errors"

var (
	// ErrConfigFileNotFound is returned when the config file is not found
	ErrConfigFileNotFound = errors.New("configuration file not found")

	// ErrInvalidBackendURL is returned when the backend URL is not an http(s) URL
	ErrInvalidBackendURL = errors.New("backend_url must be an http(s) URL")

	// ErrInvalidWebURL is returned when the web URL is not an http(s) URL
	ErrInvalidWebURL = errors.New("web_url must be an http(s) URL")

	// ErrInvalidEntryPath is returned when the entry path is not rooted
	ErrInvalidEntryPath = errors.New("entry_path must start with /")

	// ErrInvalidCallbackURL is returned when the callback URL cannot be parsed
	ErrInvalidCallbackURL = errors.New("callback_url is not a valid URL")
)
