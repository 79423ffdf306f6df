package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"go.uber.org/zap"

	"nftconnect/internal/datastore/redis_store"
	"nftconnect/internal/interfaces"
	"nftconnect/internal/models"
	"nftconnect/internal/pkg/limiter"
	"nftconnect/internal/pkg/ton_utils"
)

// ServiceProofRelay is the game-client side of the handshake: it issues
// nonces, takes proof submissions and forwards them to the verifier, then
// pushes the outcome back into the panel.
type ServiceProofRelay struct {
	logger      *zap.Logger
	manifestURL string
	nonces      interfaces.NonceStore
	limiter     interfaces.Limiter
	locker      interfaces.Locker
	verifier    interfaces.Verifier
	notifier    interfaces.Notifier
	recorder    interfaces.VerificationRecorder

	wg sync.WaitGroup
}

func NewServiceProofRelay(container *do.Injector) (*ServiceProofRelay, error) {
	logger, err := do.Invoke[*zap.Logger](container)
	if err != nil {
		return nil, err
	}

	envs, err := do.InvokeNamed[map[string]string](container, "envs")
	if err != nil {
		return nil, err
	}

	nonces, err := do.Invoke[interfaces.NonceStore](container)
	if err != nil {
		return nil, err
	}

	l, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	locker, err := do.Invoke[interfaces.Locker](container)
	if err != nil {
		return nil, err
	}

	verifier, err := do.Invoke[interfaces.Verifier](container)
	if err != nil {
		return nil, err
	}

	notifier, err := do.Invoke[interfaces.Notifier](container)
	if err != nil {
		return nil, err
	}

	// the database is optional; without it outcomes are only logged
	var recorder interfaces.VerificationRecorder
	if r, err := do.Invoke[interfaces.VerificationRecorder](container); err == nil {
		recorder = r
	}

	return &ServiceProofRelay{
		logger:      logger.Named("relay"),
		manifestURL: envs[CONFIG_TON_MANIFEST_URL],
		nonces:      nonces,
		limiter:     l,
		locker:      locker,
		verifier:    verifier,
		notifier:    notifier,
		recorder:    recorder,
	}, nil
}

func (service *ServiceProofRelay) ManifestURL() (string, error) {
	if service.manifestURL == "" {
		return "", errorx.Wrap(errors.New("manifest url is not configured"), errorx.Service)
	}
	return service.manifestURL, nil
}

func generateNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:NONCE_LENGTH]
}

func (service *ServiceProofRelay) IssueNonce(ctx context.Context, clientIP string) (*models.NoncePayload, error) {
	err := service.limiter.Allow(ctx, LimitKeyNonce(clientIP), redis_rate.PerMinute(NONCE_RATE_LIMIT_PER_MINUTE))
	if err != nil {
		if errors.Is(err, limiter.ErrRateLimited) {
			return nil, errorx.Wrap(err, errorx.RateLimiting)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	record := &models.NonceRecord{
		Payload:  generateNonce(),
		ClientIP: clientIP,
		IssuedAt: time.Now(),
	}
	if err := service.nonces.Put(ctx, record, NONCE_TTL); err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	service.logger.Debug("nonce issued", zap.String("client", clientIP))
	return &models.NoncePayload{Payload: record.Payload}, nil
}

// AcceptProof acknowledges a submission. A received submission is verified in
// the background; a rejected one is answered with a verificationFailed push.
func (service *ServiceProofRelay) AcceptProof(ctx context.Context, submission *models.ProofSubmission) (*models.ProofAck, error) {
	if submission == nil {
		return nil, errorx.Wrap(errors.New("missing submission"), errorx.Invalid)
	}

	account, err := ton_utils.CheckSubmission(submission, time.Now())
	if err != nil {
		service.logger.Info("submission rejected", zap.Error(err))
		service.reject(ctx, err.Error())
		return &models.ProofAck{Status: models.AckStatusRejected}, nil
	}

	record, err := service.nonces.Take(ctx, submission.Proof.Proof.Payload)
	if errors.Is(err, redis_store.ErrNonceNotFound) {
		service.logger.Info("unknown or used nonce", zap.String("address", account.String()))
		service.reject(ctx, SESSION_EXPIRED_MESSAGE)
		return &models.ProofAck{Status: models.AckStatusRejected}, nil
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	service.logger.Info("proof received",
		zap.String("address", account.String()),
		zap.Uint64("submission", submission.SubmissionID),
		zap.Duration("nonce_age", time.Since(record.IssuedAt)),
	)

	service.wg.Add(1)
	go func() {
		defer service.wg.Done()
		service.verify(context.WithoutCancel(ctx), account.String(), submission)
	}()

	return &models.ProofAck{Status: models.AckStatusReceived}, nil
}

func (service *ServiceProofRelay) verify(ctx context.Context, address string, submission *models.ProofSubmission) {
	ctx, cancel := context.WithTimeout(ctx, VERIFY_TIMEOUT)
	defer cancel()

	unlock, err := service.locker.Lock(ctx, LockKeyWallet(address))
	if err != nil {
		service.logger.Error("wallet lock failed", zap.String("address", address), zap.Error(err))
		service.reject(ctx, VERIFICATION_FAILED_FALLBACK)
		return
	}
	defer unlock()

	result, err := service.verifier.Verify(ctx, submission)
	if err != nil {
		service.logger.Error("verification failed", zap.String("address", address), zap.Error(err))
		service.reject(ctx, VERIFICATION_FAILED_FALLBACK)
		return
	}

	result.SubmissionID = submission.SubmissionID
	if err := service.notify(ctx, models.NFTDataMessage{Data: *result}); err != nil {
		service.logger.Error("push nftData failed", zap.String("address", address), zap.Error(err))
	}

	service.record(ctx, address, submission.SubmissionID, result)
}

func (service *ServiceProofRelay) record(ctx context.Context, address string, submissionID uint64, result *models.VerificationResult) {
	if service.recorder == nil {
		return
	}

	verification := &models.WalletVerification{
		ID:           uuid.NewString(),
		Address:      address,
		SubmissionID: int64(submissionID),
		Verified:     result.Verified != nil && *result.Verified,
		NFTCount:     len(result.NFTs),
		RewardCount:  len(result.Rewards),
		Reason:       result.Reason,
		CreatedAt:    time.Now(),
	}
	if err := service.recorder.Record(ctx, verification); err != nil {
		service.logger.Warn("record verification failed", zap.String("address", address), zap.Error(err))
	}
}

func (service *ServiceProofRelay) reject(ctx context.Context, message string) {
	if err := service.notify(ctx, models.VerificationFailedMessage{Message: message}); err != nil {
		service.logger.Warn("push verificationFailed failed", zap.Error(err))
	}
}

func (service *ServiceProofRelay) notify(ctx context.Context, msg models.Inbound) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), NOTIFY_TIMEOUT)
	defer cancel()
	return service.notifier.Notify(ctx, msg)
}

func (service *ServiceProofRelay) ShowUI(ctx context.Context) error {
	if err := service.notify(ctx, models.UIMessage{Display: true}); err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	return nil
}

func (service *ServiceProofRelay) HideUI(ctx context.Context) error {
	if err := service.notify(ctx, models.UIMessage{Display: false}); err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	return nil
}

// Wait blocks until background verifications have finished.
func (service *ServiceProofRelay) Wait() {
	service.wg.Wait()
}
