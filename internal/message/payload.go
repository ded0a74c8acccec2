package message

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMissingPayload = errors.New("message body has no payload")

// Message is the decoded JSON body: {"payload": {...}, "trace_id": "..."}.
type Message struct {
	Payload map[string]interface{} `json:"payload"`
	TraceID string                 `json:"trace_id,omitempty"`
}

func Decode(body string) (Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return Message{}, fmt.Errorf("failed to unmarshal message body: %w", err)
	}
	if msg.Payload == nil {
		return Message{}, ErrMissingPayload
	}
	return msg, nil
}

func Encode(msg Message) (string, error) {
	if msg.Payload == nil {
		return "", ErrMissingPayload
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}
	return string(body), nil
}
