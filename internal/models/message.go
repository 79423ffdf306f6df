package models

import (
	"errors"
	"fmt"

	"github.com/segmentio/encoding/json"
)

var ErrMalformedMessage = errors.New("malformed message")

const (
	MessageTypeUI                   = "ui"
	MessageActionNFTData            = "nftData"
	MessageActionVerificationFailed = "verificationFailed"
)

// Inbound is a message pushed by the host bridge into the panel.
type Inbound interface {
	inbound()
}

type UIMessage struct {
	Display bool
}

type NFTDataMessage struct {
	Data VerificationResult
}

type VerificationFailedMessage struct {
	Message string
}

func (UIMessage) inbound()                 {}
func (NFTDataMessage) inbound()            {}
func (VerificationFailedMessage) inbound() {}

type inboundEnvelope struct {
	Type    string              `json:"type"`
	Action  string              `json:"action"`
	Display *bool               `json:"display"`
	Data    *VerificationResult `json:"data"`
	Message *string             `json:"message"`
}

func ParseInbound(data []byte) (Inbound, error) {
	var envelope inboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch {
	case envelope.Type == MessageTypeUI:
		if envelope.Display == nil {
			return nil, fmt.Errorf("%w: ui message without display", ErrMalformedMessage)
		}
		return UIMessage{Display: *envelope.Display}, nil
	case envelope.Action == MessageActionNFTData:
		if envelope.Data == nil {
			return nil, fmt.Errorf("%w: nftData without data", ErrMalformedMessage)
		}
		return NFTDataMessage{Data: *envelope.Data}, nil
	case envelope.Action == MessageActionVerificationFailed:
		msg := ""
		if envelope.Message != nil {
			msg = *envelope.Message
		}
		return VerificationFailedMessage{Message: msg}, nil
	}

	return nil, fmt.Errorf("%w: unknown type %q action %q", ErrMalformedMessage, envelope.Type, envelope.Action)
}

// MarshalInbound is the inverse of ParseInbound, used by the bridge when it
// pushes messages to the panel.
func MarshalInbound(msg Inbound) ([]byte, error) {
	switch m := msg.(type) {
	case UIMessage:
		return json.Marshal(map[string]any{"type": MessageTypeUI, "display": m.Display})
	case NFTDataMessage:
		return json.Marshal(map[string]any{"action": MessageActionNFTData, "data": m.Data})
	case VerificationFailedMessage:
		return json.Marshal(map[string]any{"action": MessageActionVerificationFailed, "message": m.Message})
	}
	return nil, fmt.Errorf("%w: %T", ErrMalformedMessage, msg)
}
