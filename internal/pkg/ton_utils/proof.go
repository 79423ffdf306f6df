package ton_utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/tonkeeper/tongo"

	"nftconnect/internal/models"
)

const expirationTime = 24 * time.Hour

var (
	ErrMissingProof  = errors.New("missing ton proof")
	ErrProofExpired  = errors.New("proof has been expired")
	ErrPayloadAbsent = errors.New("proof carries no payload")
)

// ParseAccount accepts raw and user-friendly address forms. DNS names are
// not resolved: a wallet always reports a concrete account.
func ParseAccount(address string) (tongo.AccountID, error) {
	id, err := tongo.ParseAccountID(address)
	if err != nil {
		return tongo.AccountID{}, fmt.Errorf("invalid address %q: %w", address, err)
	}
	return id, nil
}

func ProofExpired(proof *models.TonMessageInfo, now time.Time) bool {
	return now.After(time.Unix(proof.Timestamp, 0).Add(expirationTime))
}

// CheckSubmission runs the checks that need no chain access. Signature
// verification belongs to the verifier.
func CheckSubmission(submission *models.ProofSubmission, now time.Time) (tongo.AccountID, error) {
	if submission.WalletInfo == nil || submission.Proof == nil || submission.Proof.Proof == nil {
		return tongo.AccountID{}, ErrMissingProof
	}
	if submission.Proof.Proof.Payload == "" {
		return tongo.AccountID{}, ErrPayloadAbsent
	}

	account, err := ParseAccount(submission.WalletInfo.Address())
	if err != nil {
		return tongo.AccountID{}, err
	}

	if ProofExpired(submission.Proof.Proof, now) {
		return tongo.AccountID{}, ErrProofExpired
	}
	return account, nil
}
