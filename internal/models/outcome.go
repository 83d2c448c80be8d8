package models

import appErrors "github.com/noah-isme/admitcard-query/pkg/errors"

// OutcomeKind distinguishes the two results of a query.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
)

// Outcome is the interpreted result of one query round trip. Success carries
// the server message and an optional file URL; Failure carries the server's
// error text, which may be empty, and the typed cause.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	FileURL string
	Err     *appErrors.Error
}

// Success builds a success outcome.
func Success(message, fileURL string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Message: message, FileURL: fileURL}
}

// Failure builds a failure outcome. message is the server-provided error text.
func Failure(message string, err *appErrors.Error) Outcome {
	return Outcome{Kind: OutcomeFailure, Message: message, Err: err}
}

// Succeeded reports whether the outcome is the success variant.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// HasDownload reports whether a success outcome asks for navigation.
func (o Outcome) HasDownload() bool {
	return o.Succeeded() && o.FileURL != ""
}

// DisplayMessage returns the text shown to the user. Failures without a server
// message fall back to fallback.
func (o Outcome) DisplayMessage(fallback string) string {
	if o.Succeeded() {
		return o.Message
	}
	if o.Message != "" {
		return o.Message
	}
	return fallback
}
