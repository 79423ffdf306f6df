package services

import (
	"fmt"
	"time"
)

const (
	CONFIG_TON_MANIFEST_URL = "TON_MANIFEST_URL"
	CONFIG_API_MODE         = "API_MODE"

	API_MODE_DEBUG = "debug"

	NONCE_TTL                    = 15 * time.Minute
	NONCE_LENGTH                 = 24
	NONCE_RATE_LIMIT_PER_MINUTE  = 30
	VERIFY_TIMEOUT               = 60 * time.Second
	NOTIFY_TIMEOUT               = 10 * time.Second
	PROOF_RETRY_BACKOFF_NAME     = "proof-retry-backoff"
	VERIFICATION_FAILED_FALLBACK = "Verification service unavailable."
	SESSION_EXPIRED_MESSAGE      = "Session expired or already used. Please try again."
)

func LimitKeyNonce(clientIP string) string {
	return fmt.Sprintf("limit:nonce:%s", clientIP)
}

func LockKeyWallet(address string) string {
	return fmt.Sprintf("wallet:%s", address)
}
