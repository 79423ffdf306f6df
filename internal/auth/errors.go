package auth

import "errors"

var (
	ErrConfigUnavailable   = errors.New("wallet connection configuration unavailable")
	ErrNonceUnavailable    = errors.New("nonce unavailable")
	ErrSubmissionFailed    = errors.New("proof submission failed")
	ErrIncompleteProofData = errors.New("incomplete proof data")
	ErrWalletProofError    = errors.New("wallet reported a proof error")
	ErrUnexpectedAck       = errors.New("unexpected submission acknowledgement")
)
