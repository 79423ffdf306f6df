package models

import (
	"time"

	"github.com/uptrace/bun"
)

type WalletVerification struct {
	bun.BaseModel `bun:"table:wallet_verification"`
	ID            string    `bun:"id,pk" json:"id"`
	Address       string    `bun:"address" json:"address"`
	SubmissionID  int64     `bun:"submission_id" json:"submission_id"`
	Verified      bool      `bun:"verified" json:"verified"`
	NFTCount      int       `bun:"nft_count" json:"nft_count"`
	RewardCount   int       `bun:"reward_count" json:"reward_count"`
	Reason        string    `bun:"reason" json:"reason"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

// NonceRecord is what the bridge keeps per issued nonce until it is consumed.
type NonceRecord struct {
	Payload  string    `msgpack:"payload"`
	ClientIP string    `msgpack:"client_ip"`
	IssuedAt time.Time `msgpack:"issued_at"`
}
