package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/samber/do"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nftconnect/internal/api/handler"
	"nftconnect/internal/bridge"
	"nftconnect/internal/datastore/redis_store"
	"nftconnect/internal/interfaces"
	"nftconnect/internal/models"
	"nftconnect/internal/services"
)

type mapNonces struct {
	mu      sync.Mutex
	records map[string]*models.NonceRecord
}

func (m *mapNonces) Put(ctx context.Context, record *models.NonceRecord, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.Payload] = record
	return nil
}

func (m *mapNonces) Take(ctx context.Context, payload string) (*models.NonceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[payload]
	if !ok {
		return nil, redis_store.ErrNonceNotFound
	}
	delete(m.records, payload)
	return record, nil
}

type openLimiter struct{}

func (openLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) error { return nil }

type nopLocker struct{}

func (nopLocker) Lock(ctx context.Context, key string) (func(), error) { return func() {}, nil }

type fixedVerifier struct{}

func (fixedVerifier) Verify(ctx context.Context, submission *models.ProofSubmission) (*models.VerificationResult, error) {
	result := models.NotVerified("no qualifying NFTs")
	return &result, nil
}

type collectingNotifier struct {
	mu       sync.Mutex
	messages []models.Inbound
}

func (n *collectingNotifier) Notify(ctx context.Context, msg models.Inbound) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func (n *collectingNotifier) sent() []models.Inbound {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Inbound(nil), n.messages...)
}

func newBridgeServer(t *testing.T) (*httptest.Server, *collectingNotifier) {
	t.Helper()

	notifier := &collectingNotifier{}

	injector := do.New()
	do.ProvideValue[*zap.Logger](injector, zap.NewNop())
	do.ProvideNamedValue(injector, "envs", map[string]string{services.CONFIG_TON_MANIFEST_URL: "https://example.org/tonconnect-manifest.json"})
	do.ProvideValue[interfaces.NonceStore](injector, &mapNonces{records: map[string]*models.NonceRecord{}})
	do.ProvideValue[interfaces.Limiter](injector, openLimiter{})
	do.ProvideValue[interfaces.Locker](injector, nopLocker{})
	do.ProvideValue[interfaces.Verifier](injector, fixedVerifier{})
	do.ProvideValue[interfaces.Notifier](injector, notifier)
	do.Provide(injector, services.NewServiceProofRelay)

	h, err := handler.NewBridge(&handler.Config{Container: injector})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, notifier
}

// The panel's own client is the most faithful caller of the bridge routes.
func TestBridgeRoundTripWithPanelClient(t *testing.T) {
	srv, notifier := newBridgeServer(t)
	ctx := context.Background()

	client := bridge.New(bridge.Config{BaseURL: srv.URL + "/%s"}, zap.NewNop())

	manifest, err := client.GetManifestURL(ctx)
	require.NoError(t, err)
	require.Equal(t, "https://example.org/tonconnect-manifest.json", manifest)

	nonce, err := client.RequestPayload(ctx)
	require.NoError(t, err)
	require.Len(t, nonce, services.NONCE_LENGTH)

	submission := models.ProofSubmission{
		WalletInfo: &models.WalletInfo{Account: &models.WalletAccount{Address: "0:9a1e9b8cc0f3b1f9b2f5b0a3c1d2e3f405162738495a6b7c8d9e0f1a2b3c4d5e"}},
		Proof: &models.TonProofItem{
			Name:  models.TonProofItemName,
			Proof: &models.TonMessageInfo{Timestamp: time.Now().Unix(), Payload: nonce, Signature: "c2ln"},
		},
		SubmissionID: 4,
	}

	ack, err := client.SubmitProof(ctx, submission)
	require.NoError(t, err)
	require.Equal(t, models.AckStatusReceived, ack.Status)

	require.Eventually(t, func() bool { return len(notifier.sent()) == 1 }, 2*time.Second, 10*time.Millisecond)
	data, ok := notifier.sent()[0].(models.NFTDataMessage)
	require.True(t, ok)
	require.Equal(t, uint64(4), data.Data.SubmissionID)
	require.False(t, *data.Data.Verified)

	// the same nonce cannot be replayed
	ack, err = client.SubmitProof(ctx, submission)
	require.NoError(t, err)
	require.Equal(t, models.AckStatusRejected, ack.Status)

	require.NoError(t, client.HideUI(ctx))
	require.Eventually(t, func() bool { return len(notifier.sent()) == 3 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, models.UIMessage{Display: false}, notifier.sent()[2])
}

func TestBridgeUnknownResource(t *testing.T) {
	srv, _ := newBridgeServer(t)

	resp, err := http.Post(srv.URL+"/other/requestPayload", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.GreaterOrEqual(t, resp.StatusCode, http.StatusBadRequest)
}

func TestBridgeShowUI(t *testing.T) {
	srv, notifier := newBridgeServer(t)

	resp, err := http.Post(bridge.Endpoint(srv.URL+"/%s", bridge.DefaultResourceName, bridge.OpShowUI), "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Empty(t, body)
	require.Equal(t, []models.Inbound{models.UIMessage{Display: true}}, notifier.sent())
}
