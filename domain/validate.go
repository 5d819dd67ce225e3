package domain

import (
	"path/filepath"
	"strings"
)

// AllowedFileExtensions is the closed set of upload extensions the API
// accepts, enforced server-side regardless of any client hint.
var AllowedFileExtensions = []string{"txt", "pdf", "doc", "docx", "png", "jpg", "jpeg"}

// ValidationErrors maps field names to human readable messages. Every
// validated field is present; an empty string means the field is valid, so
// callers must check values, not key presence.
type ValidationErrors map[string]string

// Failed reports whether any field carries a message.
func (v ValidationErrors) Failed() bool {
	for _, msg := range v {
		if msg != "" {
			return true
		}
	}
	return false
}

// AllowedExtension reports whether the file name's extension is accepted.
func AllowedExtension(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, allowed := range AllowedFileExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ValidateTask checks the submitted task fields. fileName is the uploaded
// file's client name and is only inspected when hasFile is true.
func ValidateTask(title, description, fileName string, hasFile bool) ValidationErrors {
	errs := ValidationErrors{
		"title":       "",
		"description": "",
		"file":        "",
	}

	if title == "" {
		errs["title"] = "Title cannot be empty"
	}
	if description == "" {
		errs["description"] = "Description cannot be empty"
	}
	if hasFile && !AllowedExtension(fileName) {
		errs["file"] = "A file with this file extension is not supported, use one of these: " +
			strings.Join(AllowedFileExtensions, ", ")
	}

	return errs
}
