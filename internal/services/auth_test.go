package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/samber/do"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nftconnect/internal/auth"
	"nftconnect/internal/models"
	"nftconnect/internal/render"
	"nftconnect/internal/services"
	"nftconnect/internal/wallet"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fakeBridge struct {
	mu          sync.Mutex
	manifest    string
	nonces      []string
	nonceErr    error
	nonceCalls  int
	submissions []models.ProofSubmission
	ackStatus   string
	hides       int
}

func (b *fakeBridge) GetManifestURL(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.manifest, nil
}

func (b *fakeBridge) RequestPayload(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nonceCalls++
	if b.nonceErr != nil {
		return "", b.nonceErr
	}
	if len(b.nonces) == 0 {
		return "", nil
	}
	n := b.nonces[0]
	b.nonces = b.nonces[1:]
	return n, nil
}

func (b *fakeBridge) SubmitProof(ctx context.Context, submission models.ProofSubmission) (models.ProofAck, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submissions = append(b.submissions, submission)
	return models.ProofAck{Status: b.ackStatus}, nil
}

func (b *fakeBridge) HideUI(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hides++
	return nil
}

func (b *fakeBridge) counts() (nonceCalls, submissions, hides int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonceCalls, len(b.submissions), b.hides
}

type fakeConnector struct {
	mu          sync.Mutex
	params      []string
	listener    func(*models.WalletInfo)
	subscribes  int
	connected   bool
	disconnects int
}

func (c *fakeConnector) Open(manifestURL string) error { return nil }

func (c *fakeConnector) SetConnectRequestParameters(params models.ConnectRequestParameters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = append(c.params, params.Value.TonProof)
}

func (c *fakeConnector) OnStatusChange(fn func(*models.WalletInfo)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribes++
	c.listener = fn
	return func() {}
}

func (c *fakeConnector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
	c.connected = false
	return nil
}

func (c *fakeConnector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeConnector) emit(info *models.WalletInfo) {
	c.mu.Lock()
	fn := c.listener
	c.connected = info != nil
	c.mu.Unlock()
	fn(info)
}

func (c *fakeConnector) lastParams() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.params) == 0 {
		return ""
	}
	return c.params[len(c.params)-1]
}

func (c *fakeConnector) subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribes > 0
}

type noBackoff struct{}

func (noBackoff) Next(int) time.Duration { return 0 }

type harness struct {
	auth       *services.ServiceAuth
	visibility *services.ServiceVisibility
	bridge     *fakeBridge
	connector  *fakeConnector
	display    *services.DisplayStore
	ctx        context.Context
}

func newHarness(t *testing.T, bridge *fakeBridge) *harness {
	t.Helper()
	connector := &fakeConnector{}
	display := services.NewDisplayStore()

	injector := do.New()
	do.ProvideValue[*zap.Logger](injector, zap.NewNop())
	do.ProvideValue[services.HostBridge](injector, bridge)
	do.ProvideValue[wallet.Connector](injector, connector)
	do.ProvideNamedValue[heimdall.Backoff](injector, "proof-retry-backoff", noBackoff{})
	do.ProvideValue(injector, display)
	do.Provide(injector, services.NewServiceAuth)
	do.Provide(injector, services.NewServiceVisibility)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serviceAuth := do.MustInvoke[*services.ServiceAuth](injector)
	go serviceAuth.Run(ctx) //nolint:errcheck

	return &harness{
		auth:       serviceAuth,
		visibility: do.MustInvoke[*services.ServiceVisibility](injector),
		bridge:     bridge,
		connector:  connector,
		display:    display,
		ctx:        ctx,
	}
}

func (h *harness) texts() []string {
	d, _ := h.display.Snapshot()
	return d.Texts()
}

func (h *harness) open(t *testing.T, nonce string) {
	t.Helper()
	h.visibility.SetDisplay(h.ctx, true)
	require.Eventually(t, func() bool {
		return h.connector.subscribed() && h.connector.lastParams() == nonce && h.auth.Snapshot().Session.Nonce == nonce
	}, waitFor, tick)

	d, _ := h.display.Snapshot()
	require.True(t, d.Visible)
}

func proofWallet(payload string) *models.WalletInfo {
	return &models.WalletInfo{
		Account: &models.WalletAccount{Address: "0:abc"},
		ConnectItems: &models.ConnectItems{TonProof: &models.TonProofItem{
			Name:  models.TonProofItemName,
			Proof: &models.TonMessageInfo{Payload: payload, Signature: "c2ln"},
		}},
	}
}

func TestProofErrorThenVerificationFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeBridge{manifest: "https://game.example/m.json", nonces: []string{"N1", "N2"}, ackStatus: "received"})
	h.open(t, "N1")

	h.connector.emit(&models.WalletInfo{ConnectItems: &models.ConnectItems{TonProof: models.NewTonProofError(1, "declined")}})
	require.Eventually(t, func() bool { return h.connector.lastParams() == "N2" }, waitFor, tick)
	nonceCalls, submissions, _ := h.bridge.counts()
	require.Equal(t, 2, nonceCalls)
	require.Zero(t, submissions)
	require.Equal(t, []string{render.TextWalletProofError}, h.texts())

	w := proofWallet("N2")
	h.connector.emit(w)
	require.Eventually(t, func() bool {
		texts := h.texts()
		return len(texts) == 1 && texts[0] == render.TextVerifying
	}, waitFor, tick)

	h.bridge.mu.Lock()
	require.Len(t, h.bridge.submissions, 1)
	require.Equal(t, "0:abc", h.bridge.submissions[0].WalletInfo.Address())
	require.Equal(t, "N2", h.bridge.submissions[0].Proof.Proof.Payload)
	h.bridge.mu.Unlock()

	h.auth.HandleInbound(h.ctx, models.NFTDataMessage{Data: models.NotVerified("expired")})
	require.Eventually(t, func() bool {
		texts := h.texts()
		return len(texts) == 1 && texts[0] == "Verification Failed: expired"
	}, waitFor, tick)
	require.Equal(t, auth.StateFailed, h.auth.Snapshot().State)
}

func TestLateResultAfterCloseLeavesDisplayEmpty(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeBridge{manifest: "m", nonces: []string{"N1", "N2"}, ackStatus: "received"})
	h.open(t, "N1")

	h.connector.emit(proofWallet("N1"))
	require.Eventually(t, func() bool { return h.auth.Snapshot().State == auth.StateVerifying }, waitFor, tick)

	h.visibility.SetDisplay(h.ctx, false)
	require.Eventually(t, func() bool {
		m := h.auth.Snapshot()
		return m.State == auth.StateClosed && m.Session.Nonce == "" && m.Session.WalletInfo == nil
	}, waitFor, tick)
	require.Eventually(t, func() bool {
		h.connector.mu.Lock()
		defer h.connector.mu.Unlock()
		return h.connector.disconnects == 1
	}, waitFor, tick)

	d, _ := h.display.Snapshot()
	require.False(t, d.Visible)
	require.True(t, d.Empty())

	h.auth.HandleInbound(h.ctx, models.NFTDataMessage{Data: models.Verified(nil, nil)})
	require.Never(t, func() bool {
		d, _ := h.display.Snapshot()
		return !d.Empty()
	}, 100*time.Millisecond, tick)

	// reopening asks for a fresh nonce before anything else can be submitted
	h.visibility.SetDisplay(h.ctx, true)
	require.Eventually(t, func() bool { return h.auth.Snapshot().Session.Nonce == "N2" }, waitFor, tick)
	require.Equal(t, "N2", h.connector.lastParams())
}

func TestDisconnectDoesNotRequestNonce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeBridge{manifest: "m", nonces: []string{"N1"}})
	h.open(t, "N1")

	h.connector.emit(nil)
	require.Eventually(t, func() bool { return h.auth.Snapshot().Session.Nonce == "" }, waitFor, tick)
	require.Never(t, func() bool {
		nonceCalls, _, _ := h.bridge.counts()
		return nonceCalls != 1
	}, 100*time.Millisecond, tick)
}

func TestConfigUnavailableShowsInitializationError(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeBridge{})
	h.visibility.SetDisplay(h.ctx, true)

	require.Eventually(t, func() bool {
		texts := h.texts()
		return len(texts) == 1 && texts[0] == "Initialization Error: Manifest URL is missing."
	}, waitFor, tick)
	require.False(t, h.auth.Snapshot().Session.Initialized)
	require.False(t, h.connector.subscribed())
}

func TestNonceFailureShowsSessionError(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeBridge{manifest: "m", nonceErr: errors.New("bridge down")})
	h.visibility.SetDisplay(h.ctx, true)

	require.Eventually(t, func() bool {
		texts := h.texts()
		return len(texts) == 1 && texts[0] == render.TextSessionDataFailed
	}, waitFor, tick)
	require.Equal(t, auth.StateUninitialized, h.auth.Snapshot().State)
}

func TestEscapeRequestsHide(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeBridge{})
	h.visibility.Escape(h.ctx)
	require.Eventually(t, func() bool {
		_, _, hides := h.bridge.counts()
		return hides == 1
	}, waitFor, tick)
}

func TestNonceChannel(t *testing.T) {
	t.Parallel()

	channel := services.NewNonceChannel(&fakeBridge{nonces: []string{"A"}})
	n, err := channel.Request(context.Background())
	require.NoError(t, err)
	require.Equal(t, "A", n)

	_, err = channel.Request(context.Background())
	require.ErrorIs(t, err, auth.ErrNonceUnavailable)

	channel = services.NewNonceChannel(&fakeBridge{nonceErr: errors.New("boom")})
	_, err = channel.Request(context.Background())
	require.ErrorIs(t, err, auth.ErrNonceUnavailable)
}
