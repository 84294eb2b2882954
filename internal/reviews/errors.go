package reviews

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// unknownErrorMessage is used when neither the body nor the status line
// says anything useful.
const unknownErrorMessage = "Unknown error"

// TransportError reports that the backend could not be reached.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx response. Message is the human-readable text
// shown to the operator.
type HTTPError struct {
	Path    string
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
}

// DecodeError reports a response body that is not the expected JSON.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Message returns the text the error slot should hold for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	return err.Error()
}

// statusMessage picks the operator-facing message for a failed response:
// the body's "error" field, then the status text, then a generic fallback.
func statusMessage(status int, bodyError string) string {
	if msg := strings.TrimSpace(bodyError); msg != "" {
		return msg
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return unknownErrorMessage
}
