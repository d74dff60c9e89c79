package api

import (
	"encoding/json"
	"fmt"
)

// APIError is returned when Shoko Server answers with a 4xx or 5xx status
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shoko API error (%d): %s", e.Status, e.Message)
}

// problemDetails is the error body ASP.NET emits for failed requests
type problemDetails struct {
	Title  string              `json:"title"`
	Detail string              `json:"detail"`
	Status int                 `json:"status"`
	Errors map[string][]string `json:"errors"`
}

// listResult is the paged envelope used by list endpoints
type listResult struct {
	Total int             `json:"Total"`
	List  json.RawMessage `json:"List"`
}

type loginRequest struct {
	User   string `json:"user"`
	Pass   string `json:"pass"`
	Device string `json:"device"`
}

type loginResponse struct {
	APIKey string `json:"apikey"`
}

// ServerStatus is the startup state reported by /api/v3/Init/Status
type ServerStatus struct {
	State          string `json:"State"`
	StartupMessage string `json:"StartupMessage,omitempty"`
	Uptime         string `json:"Uptime,omitempty"`
}

// Started reports whether the server finished starting up
func (s ServerStatus) Started() bool {
	return s.State == "Started"
}
