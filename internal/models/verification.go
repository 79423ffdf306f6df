package models

import "github.com/segmentio/encoding/json"

type NFTMetadata struct {
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

type NFT struct {
	Address  string       `json:"address"`
	Metadata *NFTMetadata `json:"metadata,omitempty"`
}

// Reward is whatever the verifier attaches per qualifying NFT. The panel only
// counts them.
type Reward = json.RawMessage

// VerificationResult is produced by the verifier. Verified is nil while the
// outcome is still pending.
type VerificationResult struct {
	Verified     *bool    `json:"verified,omitempty"`
	NFTs         []NFT    `json:"nfts,omitempty"`
	Rewards      []Reward `json:"rewards,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	SubmissionID uint64   `json:"submissionId,omitempty"`
}

func Verified(nfts []NFT, rewards []Reward) VerificationResult {
	v := true
	return VerificationResult{Verified: &v, NFTs: nfts, Rewards: rewards}
}

func NotVerified(reason string) VerificationResult {
	v := false
	return VerificationResult{Verified: &v, Reason: reason}
}
