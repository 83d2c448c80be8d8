package dto

import "strings"

// QueryRequest captures the POST /query payload.
type QueryRequest struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// NewQueryRequest builds a request from raw field values, trimming both.
func NewQueryRequest(name, id string) QueryRequest {
	return QueryRequest{
		Name: strings.TrimSpace(name),
		ID:   strings.TrimSpace(id),
	}
}

// QueryResponse is the success body returned by the query service.
type QueryResponse struct {
	Message string `json:"message"`
	FileURL string `json:"file_url,omitempty"`
}

// ErrorResponse is the body returned with a non-success status.
type ErrorResponse struct {
	Error string `json:"error,omitempty"`
}
