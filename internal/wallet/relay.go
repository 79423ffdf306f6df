package wallet

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"nftconnect/internal/models"
)

const (
	relayInit       = "init"
	relayConfigure  = "configure"
	relayDisconnect = "disconnect"
	relayStatus     = "status"

	relayWriteTimeout = 5 * time.Second
)

type relayMessage struct {
	Type        string                           `json:"type"`
	ManifestURL string                           `json:"manifestUrl,omitempty"`
	Params      *models.ConnectRequestParameters `json:"params,omitempty"`
	Wallet      *models.WalletInfo               `json:"wallet,omitempty"`
}

// Relay is a Connector backed by a browser-side TON Connect shim attached
// over a websocket. The shim reports status changes and receives the manifest,
// the connect request parameters and disconnect requests.
type Relay struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	conn        *websocket.Conn
	manifestURL string
	params      *models.ConnectRequestParameters
	connected   bool
	listeners   map[int]func(*models.WalletInfo)
	nextID      int

	writeMu sync.Mutex
}

func NewRelay(logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// the shim is served by the game client from its own origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		listeners: make(map[int]func(*models.WalletInfo)),
	}
}

func (r *Relay) Open(manifestURL string) error {
	r.mu.Lock()
	r.manifestURL = manifestURL
	conn := r.conn
	r.mu.Unlock()

	if conn != nil {
		return r.write(conn, relayMessage{Type: relayInit, ManifestURL: manifestURL})
	}
	return nil
}

func (r *Relay) SetConnectRequestParameters(params models.ConnectRequestParameters) {
	r.mu.Lock()
	r.params = &params
	conn := r.conn
	r.mu.Unlock()

	if conn != nil {
		if err := r.write(conn, relayMessage{Type: relayConfigure, Params: &params}); err != nil {
			// kept for the next shim connection
			r.logger.Warn("could not forward connect parameters", zap.Error(err))
		}
	}
}

func (r *Relay) OnStatusChange(fn func(info *models.WalletInfo)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

func (r *Relay) Disconnect(ctx context.Context) error {
	r.mu.Lock()
	conn, connected := r.conn, r.connected
	r.mu.Unlock()

	if conn == nil || !connected {
		return ErrNotConnected
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return r.write(conn, relayMessage{Type: relayDisconnect})
}

func (r *Relay) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// ServeHTTP attaches a shim. A newer shim replaces the previous one.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("wallet relay upgrade failed", zap.Error(err))
		return
	}

	r.mu.Lock()
	previous := r.conn
	r.conn = conn
	// a wallet session belongs to the shim that opened it
	wasConnected := previous != nil && r.connected
	if previous != nil {
		r.connected = false
	}
	manifestURL, params := r.manifestURL, r.params
	r.mu.Unlock()

	if previous != nil {
		previous.Close()
		if wasConnected {
			r.dispatch(nil)
		}
	}

	if manifestURL != "" {
		if err := r.write(conn, relayMessage{Type: relayInit, ManifestURL: manifestURL}); err != nil {
			r.logger.Warn("could not send manifest to wallet shim", zap.Error(err))
		}
	}
	if params != nil {
		if err := r.write(conn, relayMessage{Type: relayConfigure, Params: params}); err != nil {
			r.logger.Warn("could not send connect parameters to wallet shim", zap.Error(err))
		}
	}

	r.logger.Info("wallet shim attached", zap.String("remote", req.RemoteAddr))
	r.read(conn)
}

func (r *Relay) read(conn *websocket.Conn) {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			r.detach(conn)
			return
		}

		var msg relayMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != relayStatus {
			r.logger.Warn("dropping malformed relay message", zap.ByteString("data", data), zap.Error(err))
			continue
		}

		r.dispatch(msg.Wallet)
	}
}

func (r *Relay) detach(conn *websocket.Conn) {
	r.mu.Lock()
	if r.conn != conn {
		r.mu.Unlock()
		return
	}
	r.conn = nil
	wasConnected := r.connected
	r.mu.Unlock()

	r.logger.Info("wallet shim detached")
	if wasConnected {
		r.dispatch(nil)
	}
}

func (r *Relay) dispatch(info *models.WalletInfo) {
	r.mu.Lock()
	r.connected = info != nil
	listeners := make([]func(*models.WalletInfo), 0, len(r.listeners))
	for i := 0; i < r.nextID; i++ {
		if fn, ok := r.listeners[i]; ok {
			listeners = append(listeners, fn)
		}
	}
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(info)
	}
}

func (r *Relay) write(conn *websocket.Conn, msg relayMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(relayWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
