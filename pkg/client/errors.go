package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrServiceNotFound is returned when no service matches a name exactly
	ErrServiceNotFound = errors.New("service not found")

	// ErrStackNotFound is returned when no stack matches a name exactly
	ErrStackNotFound = errors.New("stack not found")

	// ErrTimeout is returned when a wait passes its deadline
	ErrTimeout = errors.New("timed out waiting for service")

	// ErrPortRuleNotFound is wrapped by the ValidationError returned when no
	// load balancer rule matches a source port and path
	ErrPortRuleNotFound = errors.New("port rule not found")

	// ErrLaunchConfigNotFound is wrapped when a named sidekick does not exist
	ErrLaunchConfigNotFound = errors.New("secondary launch config not found")

	// ErrMissingLink is wrapped when a document lacks a link the operation needs
	ErrMissingLink = errors.New("missing link")

	// ErrInvalidSpec is wrapped when a create request is incomplete
	ErrInvalidSpec = errors.New("invalid service spec")

	// ErrInvalidOptions is wrapped when operation options are out of range
	ErrInvalidOptions = errors.New("invalid options")
)

// maxErrorBody caps how much of a response body goes into an error message
const maxErrorBody = 512

// HTTPError is returned for any non-2xx response. It is never retried.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	body := string(e.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.URL, e.Status, body)
}

// ValidationError is a local precondition failure detected before any
// write was sent
type ValidationError struct {
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func validationErrorf(err error, format string, args ...interface{}) error {
	return &ValidationError{Err: err, Detail: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a lookup miss or a 404 from the server
func IsNotFound(err error) bool {
	if errors.Is(err, ErrServiceNotFound) || errors.Is(err, ErrStackNotFound) {
		return true
	}
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
