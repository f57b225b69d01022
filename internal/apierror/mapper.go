package apierror

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// maxBodySize limits how much of an error body is read
const maxBodySize = 1 << 20

// statusMessages overrides the status text for statuses operators commonly hit
var statusMessages = map[int]string{
	http.StatusNotFound:           "The requested resource could not be found on the server.",
	http.StatusServiceUnavailable: "The server is temporarily unable to handle the request. Please try again later.",
}

// ViolationTypeField marks a violation attributable to a form field
const ViolationTypeField = "field"

// Violation is a single entry of the scheduler's structured error body
type Violation struct {
	Type     string `json:"type"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

// Body is the parsed form of an error response body.
// It is one of ViolationsBody, MessageBody, TextBody or UnrecognizedBody.
type Body interface {
	isBody()
}

// ViolationsBody is {"errors": [{type, location, message}, ...]}.
// An entry without type counts as a non-field violation.
type ViolationsBody struct {
	Violations []Violation
}

// MessageBody is {"message": "..."}
type MessageBody struct {
	Message string
}

// TextBody is a non-empty text/plain body
type TextBody struct {
	Text string
}

// UnrecognizedBody is anything else, including empty and malformed bodies
type UnrecognizedBody struct{}

func (ViolationsBody) isBody()   {}
func (MessageBody) isBody()      {}
func (TextBody) isBody()         {}
func (UnrecognizedBody) isBody() {}

// Map converts a failed response into a *DomainError or *ValidationError.
// It never fails: unreadable or malformed bodies fall back to the status text.
func Map(resp *http.Response) error {
	var body []byte
	if resp.Body != nil {
		// a read error leaves whatever was read, which Parse treats as unrecognized if incomplete
		body, _ = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	}

	return FromBody(resp.StatusCode, statusText(resp), Parse(resp.Header.Get("Content-Type"), body))
}

// FromBody builds the error for a response with the given status and parsed body
func FromBody(status int, statusText string, body Body) error {
	switch b := body.(type) {
	case ViolationsBody:
		fields := make(map[string]string, len(b.Violations))
		for _, v := range b.Violations {
			if v.Type != ViolationTypeField {
				return &DomainError{Status: status, Message: v.Message}
			}
			fields[v.Location] = v.Message
		}
		return &ValidationError{Status: status, Fields: fields}
	case MessageBody:
		return &DomainError{Status: status, Message: b.Message}
	case TextBody:
		return &DomainError{Status: status, Message: b.Text}
	}

	if msg, ok := statusMessages[status]; ok {
		return &DomainError{Status: status, Message: msg}
	}

	return &DomainError{Status: status, Message: statusText}
}

// Parse classifies an error body by content type and shape
func Parse(contentType string, body []byte) Body {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return UnrecognizedBody{}
	}

	switch mediaType {
	case "application/json":
		return parseJSON(body)
	case "text/plain":
		if len(bytes.TrimSpace(body)) > 0 {
			text := strings.TrimSuffix(string(body), "\n")
			return TextBody{Text: strings.TrimSuffix(text, "\r")}
		}
	}

	return UnrecognizedBody{}
}

func parseJSON(body []byte) Body {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return UnrecognizedBody{}
	}

	if raw, ok := fields["errors"]; ok {
		var violations []Violation
		if err := json.Unmarshal(raw, &violations); err == nil && len(violations) > 0 {
			return ViolationsBody{Violations: violations}
		}
	}

	if raw, ok := fields["message"]; ok {
		var message string
		if err := json.Unmarshal(raw, &message); err == nil {
			return MessageBody{Message: message}
		}
	}

	return UnrecognizedBody{}
}

// statusText extracts the reason phrase from resp.Status ("404 Not Found")
func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
