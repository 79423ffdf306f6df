package models

import (
	"github.com/segmentio/encoding/json"
)

type WalletAccount struct {
	Address         string `json:"address"`
	Chain           string `json:"chain"`
	WalletStateInit string `json:"walletStateInit,omitempty"`
	PublicKey       string `json:"publicKey,omitempty"`
}

type WalletDevice struct {
	Platform       string `json:"platform,omitempty"`
	AppName        string `json:"appName,omitempty"`
	AppVersion     string `json:"appVersion,omitempty"`
	MaxProtocolVer int    `json:"maxProtocolVersion,omitempty"`
}

type ConnectItems struct {
	TonProof *TonProofItem `json:"tonProof,omitempty"`
}

// WalletInfo is what the wallet connection reports on every status change.
// A decoded value is forwarded to the bridge byte for byte, fields this
// package does not know included.
type WalletInfo struct {
	Device       *WalletDevice  `json:"device,omitempty"`
	Provider     string         `json:"provider,omitempty"`
	Account      *WalletAccount `json:"account,omitempty"`
	ConnectItems *ConnectItems  `json:"connectItems,omitempty"`

	raw json.RawMessage
}

type walletInfoFields WalletInfo

func (info *WalletInfo) UnmarshalJSON(data []byte) error {
	var fields walletInfoFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*info = WalletInfo(fields)
	info.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (info WalletInfo) MarshalJSON() ([]byte, error) {
	if len(info.raw) > 0 {
		return info.raw, nil
	}
	return json.Marshal(walletInfoFields(info))
}

func (info *WalletInfo) TonProof() *TonProofItem {
	if info == nil || info.ConnectItems == nil {
		return nil
	}
	return info.ConnectItems.TonProof
}

func (info *WalletInfo) Address() string {
	if info == nil || info.Account == nil {
		return ""
	}
	return info.Account.Address
}

type ConnectRequestValue struct {
	TonProof string `json:"tonProof"`
}

type ConnectRequestParameters struct {
	State string              `json:"state"`
	Value ConnectRequestValue `json:"value"`
}

func ReadyParameters(tonProof string) ConnectRequestParameters {
	return ConnectRequestParameters{State: "ready", Value: ConnectRequestValue{TonProof: tonProof}}
}
