package models

import (
	"bytes"

	"github.com/segmentio/encoding/json"
)

const TonProofItemName = "ton_proof"

type TonDomain struct {
	LengthBytes uint32 `json:"lengthBytes"`
	Value       string `json:"value"`
}

type TonMessageInfo struct {
	Timestamp int64     `json:"timestamp"`
	Domain    TonDomain `json:"domain"`
	Signature string    `json:"signature"`
	Payload   string    `json:"payload"`
	StateInit string    `json:"state_init,omitempty"`

	raw json.RawMessage
}

type tonMessageInfoFields TonMessageInfo

// UnmarshalJSON keeps the signed message as received so that it reaches the
// verifier unaltered.
func (info *TonMessageInfo) UnmarshalJSON(data []byte) error {
	var fields tonMessageInfoFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*info = TonMessageInfo(fields)
	info.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (info TonMessageInfo) MarshalJSON() ([]byte, error) {
	if len(info.raw) > 0 {
		return info.raw, nil
	}
	return json.Marshal(tonMessageInfoFields(info))
}

type ConnectItemError struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// TonProofItem is the tonProof connect item reported by the wallet. It is
// either a proof or an error; the presence of an "error" key decides which.
type TonProofItem struct {
	Name  string            `json:"name"`
	Proof *TonMessageInfo   `json:"proof,omitempty"`
	Error *ConnectItemError `json:"error,omitempty"`

	hasError bool
	raw      json.RawMessage
}

type tonProofItemFields TonProofItem

func (item *TonProofItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*item = TonProofItem{raw: append(json.RawMessage(nil), data...)}
	if v, ok := raw["name"]; ok {
		if err := json.Unmarshal(v, &item.Name); err != nil {
			return err
		}
	}

	if v, ok := raw["error"]; ok {
		item.hasError = true
		if !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			item.Error = &ConnectItemError{}
			if err := json.Unmarshal(v, item.Error); err != nil {
				// an unreadable error body is still an error report
				item.Error = &ConnectItemError{Message: string(v)}
			}
		}
		return nil
	}

	if v, ok := raw["proof"]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		item.Proof = &TonMessageInfo{}
		if err := json.Unmarshal(v, item.Proof); err != nil {
			return err
		}
	}

	return nil
}

func (item TonProofItem) MarshalJSON() ([]byte, error) {
	if len(item.raw) > 0 {
		return item.raw, nil
	}
	return json.Marshal(tonProofItemFields(item))
}

func (item *TonProofItem) IsError() bool {
	return item != nil && (item.hasError || item.Error != nil)
}

// Complete reports whether the proof carries the nested payload the verifier
// needs.
func (item *TonProofItem) Complete() bool {
	return item != nil && !item.IsError() && item.Proof != nil && item.Proof.Payload != ""
}

func NewTonProofError(code int, message string) *TonProofItem {
	return &TonProofItem{
		Name:     TonProofItemName,
		Error:    &ConnectItemError{Code: code, Message: message},
		hasError: true,
	}
}

type ProofSubmission struct {
	WalletInfo   *WalletInfo   `json:"walletInfo"`
	Proof        *TonProofItem `json:"proof"`
	SubmissionID uint64        `json:"submissionId,omitempty"`
}

type ProofAck struct {
	Status string `json:"status"`
}

const (
	AckStatusReceived = "received"
	AckStatusRejected = "rejected"
)

type NoncePayload struct {
	Payload string `json:"payload"`
}
