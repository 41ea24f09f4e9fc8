package errors

import (
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// CredentialError reports a token that could not be resolved from any source.
type CredentialError struct {
	Name    string // token name, e.g. "anaconda" or "circle"
	Sources []string
}

func (e CredentialError) Error() string {
	msg := "No " + e.Name + " token found"
	if len(e.Sources) > 0 {
		msg += " (looked in " + strings.Join(e.Sources, ", ") + ")"
	}
	return msg
}
