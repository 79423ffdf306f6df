package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/samber/do"
	"go.uber.org/zap"

	"nftconnect/internal/auth"
	"nftconnect/internal/models"
	"nftconnect/internal/wallet"
)

const (
	eventQueueSize    = 64
	disconnectTimeout = 5 * time.Second
)

// HostBridge is the set of callbacks the panel makes into the game client.
type HostBridge interface {
	GetManifestURL(ctx context.Context) (string, error)
	RequestPayload(ctx context.Context) (string, error)
	SubmitProof(ctx context.Context, submission models.ProofSubmission) (models.ProofAck, error)
	HideUI(ctx context.Context) error
}

// ServiceAuth runs the handshake state machine. A single goroutine (Run)
// owns the machine and applies effects in order; anything that waits on I/O
// runs aside and reports back through the event queue.
type ServiceAuth struct {
	logger    *zap.Logger
	bridge    HostBridge
	nonces    *NonceChannel
	connector wallet.Connector
	backoff   heimdall.Backoff
	display   *DisplayStore

	events  chan auth.Event
	machine auth.Machine
	adapter *wallet.Adapter

	snapshotMu sync.RWMutex
	snapshot   auth.Machine
}

func NewServiceAuth(container *do.Injector) (*ServiceAuth, error) {
	logger, err := do.Invoke[*zap.Logger](container)
	if err != nil {
		return nil, err
	}

	bridge, err := do.Invoke[HostBridge](container)
	if err != nil {
		return nil, err
	}

	connector, err := do.Invoke[wallet.Connector](container)
	if err != nil {
		return nil, err
	}

	backoff, err := do.InvokeNamed[heimdall.Backoff](container, PROOF_RETRY_BACKOFF_NAME)
	if err != nil {
		return nil, err
	}

	display, err := do.Invoke[*DisplayStore](container)
	if err != nil {
		return nil, err
	}

	return &ServiceAuth{
		logger:    logger.Named("auth"),
		bridge:    bridge,
		nonces:    NewNonceChannel(bridge),
		connector: connector,
		backoff:   backoff,
		display:   display,
		events:    make(chan auth.Event, eventQueueSize),
		machine:   auth.New(),
		snapshot:  auth.New(),
	}, nil
}

// Dispatch queues an event for the state machine.
func (service *ServiceAuth) Dispatch(ctx context.Context, ev auth.Event) {
	select {
	case service.events <- ev:
	case <-ctx.Done():
		service.logger.Warn("dropping event", zap.String("event", fmt.Sprintf("%T", ev)), zap.Error(ctx.Err()))
	}
}

// HandleInbound routes verification messages from the host bridge.
func (service *ServiceAuth) HandleInbound(ctx context.Context, msg models.Inbound) {
	switch m := msg.(type) {
	case models.NFTDataMessage:
		service.Dispatch(ctx, auth.ResultArrived{Result: m.Data})
	case models.VerificationFailedMessage:
		service.Dispatch(ctx, auth.VerificationFailed{Message: m.Message})
	default:
		service.logger.Warn("unexpected inbound message", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Snapshot returns the machine as of the last processed event.
func (service *ServiceAuth) Snapshot() auth.Machine {
	service.snapshotMu.RLock()
	defer service.snapshotMu.RUnlock()
	return service.snapshot
}

func (service *ServiceAuth) Run(ctx context.Context) error {
	defer service.discardAdapter()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-service.events:
			service.step(ctx, ev)
		}
	}
}

func (service *ServiceAuth) step(ctx context.Context, ev auth.Event) {
	prev := service.machine.State
	next, effects := auth.Transition(service.machine, ev)
	service.machine = next

	if prev != next.State {
		service.logger.Debug("transition",
			zap.Stringer("from", prev),
			zap.Stringer("to", next.State),
			zap.String("event", fmt.Sprintf("%T", ev)),
		)
	}

	service.snapshotMu.Lock()
	service.snapshot = next
	service.snapshotMu.Unlock()

	for _, eff := range effects {
		service.apply(ctx, eff)
	}
}

func (service *ServiceAuth) apply(ctx context.Context, eff auth.Effect) {
	switch e := eff.(type) {
	case auth.Log:
		service.log(e)
	case auth.SetVisible:
		service.display.SetVisible(e.Visible)
	case auth.Render:
		service.display.Set(e.Display)
	case auth.FetchManifest:
		go func() {
			url, err := service.bridge.GetManifestURL(ctx)
			if err != nil {
				err = fmt.Errorf("%w: %v", auth.ErrConfigUnavailable, err)
			}
			service.Dispatch(ctx, auth.ManifestResolved{Ticket: e.Ticket, URL: url, Err: err})
		}()
	case auth.CreateAdapter:
		service.discardAdapter()
		adapter, err := wallet.NewAdapter(service.connector, e.ManifestURL, service.logger.Named("wallet"))
		if err != nil {
			go service.Dispatch(ctx, auth.AdapterFailed{Err: err})
			return
		}
		service.adapter = adapter
	case auth.DiscardAdapter:
		service.discardAdapter()
	case auth.RequestNonce:
		delay := service.retryDelay(e.Attempt)
		go func() {
			if delay > 0 {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-timer.C:
				case <-ctx.Done():
					return
				}
			}

			payload, err := service.nonces.Request(ctx)
			service.Dispatch(ctx, auth.NonceResolved{Ticket: e.Ticket, Payload: payload, Err: err})
		}()
	case auth.Configure:
		if service.adapter == nil {
			service.logger.Warn("no wallet adapter to configure")
			return
		}
		service.adapter.Configure(e.Nonce)
	case auth.Subscribe:
		if service.adapter == nil {
			service.logger.Warn("no wallet adapter to subscribe to")
			return
		}
		go service.pump(ctx, service.adapter.StatusChanges())
	case auth.Submit:
		submission := models.ProofSubmission{WalletInfo: e.WalletInfo, Proof: e.Proof, SubmissionID: e.Submission}
		go func() {
			ack, err := service.bridge.SubmitProof(ctx, submission)
			if err != nil {
				err = fmt.Errorf("%w: %v", auth.ErrSubmissionFailed, err)
			}
			service.Dispatch(ctx, auth.SubmitAcked{Submission: e.Submission, Status: ack.Status, Err: err})
		}()
	case auth.Disconnect:
		adapter := service.adapter
		if adapter == nil || !adapter.Connected() {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(ctx, disconnectTimeout)
			defer cancel()
			adapter.Disconnect(ctx)
		}()
	default:
		service.logger.Warn("unhandled effect", zap.String("effect", fmt.Sprintf("%T", eff)))
	}
}

// pump forwards status events in the order the adapter emits them.
func (service *ServiceAuth) pump(ctx context.Context, statuses <-chan *models.WalletInfo) {
	for info := range statuses {
		service.Dispatch(ctx, auth.StatusChanged{Wallet: info})
	}
}

func (service *ServiceAuth) discardAdapter() {
	if service.adapter != nil {
		service.adapter.Close()
		service.adapter = nil
	}
}

// retryDelay spaces out consecutive wallet proof errors. The first retry is
// immediate.
func (service *ServiceAuth) retryDelay(attempt int) time.Duration {
	if attempt <= 1 || service.backoff == nil {
		return 0
	}
	return service.backoff.Next(attempt - 2)
}

func (service *ServiceAuth) log(e auth.Log) {
	fields := []zap.Field{zap.Stringer("state", service.machine.State)}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}

	switch e.Level {
	case auth.LevelDebug:
		service.logger.Debug(e.Message, fields...)
	case auth.LevelInfo:
		service.logger.Info(e.Message, fields...)
	case auth.LevelWarn:
		service.logger.Warn(e.Message, fields...)
	default:
		service.logger.Error(e.Message, fields...)
	}
}
