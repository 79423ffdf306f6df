package interfaces

import (
	"context"
	"time"

	"github.com/go-redis/redis_rate/v10"

	"nftconnect/internal/models"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// NonceStore keeps issued nonces until they are consumed. Take succeeds at
// most once per nonce.
type NonceStore interface {
	Put(ctx context.Context, record *models.NonceRecord, ttl time.Duration) error
	Take(ctx context.Context, payload string) (*models.NonceRecord, error)
}

type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type Verifier interface {
	Verify(ctx context.Context, submission *models.ProofSubmission) (*models.VerificationResult, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg models.Inbound) error
}

type VerificationRecorder interface {
	Record(ctx context.Context, verification *models.WalletVerification) error
}
