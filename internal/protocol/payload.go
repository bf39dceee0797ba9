package protocol

import "fmt"

// Payload is the body carried by every named event. Message is a string for
// all events except set_b64, where hosts may send either a boolean or the
// strings "true"/"false".
type Payload struct {
	Message any `json:"message,omitempty"`
}

// Text builds a payload carrying a string message.
func Text(message string) Payload {
	return Payload{Message: message}
}

// SetPantryIDArgs is the argument object of the set_pantry_id command.
type SetPantryIDArgs struct {
	PantryID string `json:"pantryid"`
}

// MessageString returns the payload message as a string. Missing messages
// yield "", non-string scalars are formatted.
func MessageString(p Payload) string {
	switch v := p.Message.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// MessageBool is the single normalization point for boolean payloads. A
// boolean true or the literal string "true" yields true; everything else,
// including malformed values, yields false.
func MessageBool(p Payload) bool {
	switch v := p.Message.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// Sentinel values of the scout_file_status message.
const (
	StatusMessageOK        = "ok"
	StatusMessageUploading = "uploading"
)

// StatusKind enumerates the upload states the host reports.
type StatusKind int

const (
	StatusUnset StatusKind = iota
	StatusOK
	StatusUploading
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusOK:
		return "ok"
	case StatusUploading:
		return "uploading"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// UploadStatus is the parsed form of a scout_file_status message.
type UploadStatus struct {
	Kind   StatusKind
	Detail string
}

// ParseUploadStatus maps the two sentinel messages to their states and
// treats any other string, including an empty one, as an error detail.
func ParseUploadStatus(message string) UploadStatus {
	switch message {
	case StatusMessageOK:
		return UploadStatus{Kind: StatusOK}
	case StatusMessageUploading:
		return UploadStatus{Kind: StatusUploading}
	default:
		return UploadStatus{Kind: StatusError, Detail: message}
	}
}

// BoolMessage renders a boolean the way the host sends it on set_b64.
func BoolMessage(v bool) Payload {
	if v {
		return Text("true")
	}
	return Text("false")
}
