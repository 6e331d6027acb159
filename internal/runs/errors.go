package runs

import "fmt"

// RemoteRequestError reports a non-success HTTP status from the runs resource.
type RemoteRequestError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *RemoteRequestError) Error() string {
	return fmt.Sprintf("%s %s failed: %d", e.Method, e.Path, e.StatusCode)
}

// DecodeError reports a response body that could not be decoded.
type DecodeError struct {
	Method string
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s: decode response: %v", e.Method, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
