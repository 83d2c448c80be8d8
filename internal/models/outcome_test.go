package models

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/admitcard-query/pkg/errors"
)

const fallback = "An error occurred during the query."

func TestOutcomeDisplayMessage(t *testing.T) {
	cases := []struct {
		name     string
		outcome  Outcome
		expected string
		download bool
	}{
		{"success with file", Success("Found", "/files/a.pdf"), "Found", true},
		{"success without file", Success("Not found", ""), "Not found", false},
		{"success empty message", Success("", ""), "", false},
		{"failure with server text", Failure("Invalid ID", appErrors.ErrQueryRejected), "Invalid ID", false},
		{"failure without text", Failure("", appErrors.ErrTransport), fallback, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.outcome.DisplayMessage(fallback))
			require.Equal(t, tc.download, tc.outcome.HasDownload())
		})
	}
}

func TestFailureNeverDownloads(t *testing.T) {
	o := Outcome{Kind: OutcomeFailure, FileURL: "/files/a.pdf"}
	require.False(t, o.HasDownload())
	require.False(t, o.Succeeded())
}
