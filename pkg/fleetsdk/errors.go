package fleetsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is the decoded form of the server's uniform error payload.
type APIError struct {
	// StatusCode is the HTTP status of the failed response
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g. "invalid_credentials")
	Code string `json:"error"`

	// Message is the human-readable description
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// parseErrorResponse turns a non-2xx response body into an *APIError. Bodies
// that aren't the standard error shape still yield an APIError carrying the
// status code.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = http.StatusText(resp.StatusCode)
		apiErr.Message = string(body)
	}
	return apiErr
}
