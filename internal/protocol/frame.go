package protocol

import (
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Frame kinds on the wire.
const (
	KindEvent  = "event"
	KindInvoke = "invoke"
	KindReply  = "reply"
)

// Frame is a single message on the host link. Events carry Name and Payload,
// invocations carry ID, Name and Args, replies carry ID and either Result or
// Error.
type Frame struct {
	Kind    string          `json:"kind"`
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name,omitempty"`
	Payload *Payload        `json:"payload,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

var wire = jsoniter.ConfigCompatibleWithStandardLibrary

// EventFrame builds an event frame.
func EventFrame(name string, payload Payload) Frame {
	return Frame{Kind: KindEvent, Name: name, Payload: &payload}
}

// InvokeFrame builds an invocation frame, encoding args when present.
func InvokeFrame(id, name string, args any) (Frame, error) {
	f := Frame{Kind: KindInvoke, ID: id, Name: name}
	if args != nil {
		raw, err := wire.Marshal(args)
		if err != nil {
			return Frame{}, fmt.Errorf("encode %s args: %w", name, err)
		}
		f.Args = raw
	}
	return f, nil
}

// ReplyFrame builds a reply to the invocation with the given id. A non-nil
// err produces an error reply and result is ignored.
func ReplyFrame(id string, result any, err error) (Frame, error) {
	f := Frame{Kind: KindReply, ID: id}
	if err != nil {
		f.Error = err.Error()
		return f, nil
	}
	if result != nil {
		raw, merr := wire.Marshal(result)
		if merr != nil {
			return Frame{}, fmt.Errorf("encode reply: %w", merr)
		}
		f.Result = raw
	}
	return f, nil
}

// Encode serializes a frame for the wire.
func Encode(f Frame) ([]byte, error) {
	data, err := wire.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}

// Decode parses a wire frame and rejects frames missing their required
// fields.
func Decode(data []byte) (Frame, error) {
	var f Frame
	if err := wire.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	switch f.Kind {
	case KindEvent:
		if f.Name == "" {
			return Frame{}, fmt.Errorf("event frame without name")
		}
		if f.Payload == nil {
			f.Payload = &Payload{}
		}
	case KindInvoke:
		if f.ID == "" || f.Name == "" {
			return Frame{}, fmt.Errorf("invoke frame without id or name")
		}
	case KindReply:
		if f.ID == "" {
			return Frame{}, fmt.Errorf("reply frame without id")
		}
	default:
		return Frame{}, fmt.Errorf("unknown frame kind %q", f.Kind)
	}
	return f, nil
}

// DecodeValue unmarshals a raw result or argument into dest. Empty input
// leaves dest untouched.
func DecodeValue(raw json.RawMessage, dest any) error {
	if len(raw) == 0 || dest == nil {
		return nil
	}
	if err := wire.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	return nil
}
