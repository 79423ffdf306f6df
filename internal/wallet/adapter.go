// Package wallet wraps the wallet-connection capability behind the small
// surface the handshake needs.
package wallet

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"nftconnect/internal/models"
)

var ErrNotConnected = errors.New("no active wallet connection")

// Connector is the wallet-connection capability. Implementations deliver
// status changes in order on the registered callback; a nil info means the
// wallet disconnected.
type Connector interface {
	Open(manifestURL string) error
	SetConnectRequestParameters(params models.ConnectRequestParameters)
	OnStatusChange(fn func(info *models.WalletInfo)) (unsubscribe func())
	Disconnect(ctx context.Context) error
	Connected() bool
}

type Adapter struct {
	connector Connector
	logger    *zap.Logger

	once    sync.Once
	mu      sync.Mutex
	queue   []*models.WalletInfo
	notify  chan struct{}
	out     chan *models.WalletInfo
	done    chan struct{}
	closed  bool
	release func()
}

func NewAdapter(connector Connector, manifestURL string, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := connector.Open(manifestURL); err != nil {
		return nil, err
	}

	return &Adapter{
		connector: connector,
		logger:    logger,
		notify:    make(chan struct{}, 1),
		out:       make(chan *models.WalletInfo),
		done:      make(chan struct{}),
	}, nil
}

// Configure sets the parameters used by the next connection attempt.
func (a *Adapter) Configure(tonProof string) {
	a.connector.SetConnectRequestParameters(models.ReadyParameters(tonProof))
}

// StatusChanges subscribes on first use and returns the same channel on every
// call. The channel is closed only by Close.
func (a *Adapter) StatusChanges() <-chan *models.WalletInfo {
	a.once.Do(func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.closed {
			close(a.out)
			return
		}

		a.release = a.connector.OnStatusChange(a.enqueue)
		go a.pump()
	})
	return a.out
}

func (a *Adapter) Disconnect(ctx context.Context) {
	if err := a.connector.Disconnect(ctx); err != nil {
		a.logger.Warn("error disconnecting wallet", zap.Error(err))
	}
}

func (a *Adapter) Connected() bool {
	return a.connector.Connected()
}

// Close unsubscribes from the connector. Pending status events are dropped.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	release := a.release
	a.mu.Unlock()

	if release != nil {
		release()
	}
	close(a.done)
}

func (a *Adapter) enqueue(info *models.WalletInfo) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.queue = append(a.queue, info)
	a.mu.Unlock()

	select {
	case a.notify <- struct{}{}:
	default:
	}
}

func (a *Adapter) pump() {
	defer close(a.out)
	for {
		a.mu.Lock()
		pending := a.queue
		a.queue = nil
		a.mu.Unlock()

		for _, info := range pending {
			select {
			case a.out <- info:
			case <-a.done:
				return
			}
		}

		select {
		case <-a.notify:
		case <-a.done:
			return
		}
	}
}
